// Package rules holds the ordered classification rule set the scanner uses
// to label inbound email.
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category labels a classified email.
type Category string

const (
	CategoryApplicationConfirmation Category = "application_confirmation"
	CategoryInterviewInvitation     Category = "interview_invitation"
	CategoryJobOffer                Category = "job_offer"
	CategoryRejection               Category = "rejection"
	CategoryOther                   Category = "other"
)

// Rule binds one category to its trigger phrases.
type Rule struct {
	Category Category
	Phrases  []string
}

// RuleSet is an ordered list of rules. Declaration order is authoritative:
// when a message matches phrases from two categories, the earlier one wins.
type RuleSet struct {
	rules []Rule
}

// UnmarshalYAML decodes a mapping of category -> phrase list while keeping
// the document order of the keys (a plain map would lose it).
func (rs *RuleSet) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("rules: expected a mapping of category to phrases")
	}
	rs.rules = rs.rules[:0]
	for i := 0; i+1 < len(value.Content); i += 2 {
		var phrases []string
		if err := value.Content[i+1].Decode(&phrases); err != nil {
			return fmt.Errorf("rules: category %q: %w", value.Content[i].Value, err)
		}
		rs.rules = append(rs.rules, Rule{
			Category: Category(value.Content[i].Value),
			Phrases:  lowerAll(phrases),
		})
	}
	return nil
}

// Load reads a rule file. On any error it returns the built-in defaults
// alongside the error so the caller can warn and keep going; a bad rule file
// must never prevent startup.
func Load(path string) (RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	var rs RuleSet
	if err := yaml.Unmarshal(b, &rs); err != nil {
		return Defaults(), err
	}
	if len(rs.rules) == 0 {
		return Defaults(), fmt.Errorf("rules: %s defines no categories", path)
	}
	return rs, nil
}

// Defaults returns the built-in rule set used when no rule file is present.
func Defaults() RuleSet {
	return RuleSet{rules: []Rule{
		{CategoryApplicationConfirmation, []string{
			"thank you for your application",
			"we have received your application",
			"application received",
		}},
		{CategoryInterviewInvitation, []string{
			"interview invitation",
			"we would like to invite you",
			"schedule an interview",
		}},
		{CategoryJobOffer, []string{
			"job offer",
			"offer of employment",
			"we are pleased to offer",
			"congratulations",
		}},
		{CategoryRejection, []string{
			"thank you for your interest",
			"we have decided to move forward",
			"not moving forward",
			"position has been filled",
		}},
	}}
}

// Classify returns the first declared category with a phrase contained in
// text (case-insensitive), or CategoryOther.
func (rs RuleSet) Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, r := range rs.rules {
		for _, p := range r.Phrases {
			if strings.Contains(lower, p) {
				return r.Category
			}
		}
	}
	return CategoryOther
}

// Categories lists the declared categories in order, without CategoryOther.
func (rs RuleSet) Categories() []Category {
	out := make([]Category, 0, len(rs.rules))
	for _, r := range rs.rules {
		out = append(out, r.Category)
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
