package scanner

import "strings"

// Extractor derives best-effort company and position names from an email.
// It is a strategy so the heuristics can be swapped without touching the
// reconciliation logic.
type Extractor interface {
	Company(sender string) string
	Position(subject string) string
}

// KeywordExtractor is the default heuristic: company from the sender domain,
// position from a word window around a role keyword in the subject.
type KeywordExtractor struct {
	Keywords []string
}

func NewKeywordExtractor() KeywordExtractor {
	return KeywordExtractor{
		Keywords: []string{"engineer", "developer", "manager", "analyst", "designer"},
	}
}

// Company capitalizes the first label of the sender's domain:
// hr@acme.com -> Acme.
func (e KeywordExtractor) Company(sender string) string {
	d := senderDomain(sender)
	if d == "" {
		return ""
	}
	label, _, _ := strings.Cut(d, ".")
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// Position scans the subject for the first role keyword and returns up to two
// words on either side of it, lowercased and joined with spaces. No keyword
// means "Unknown Position".
func (e KeywordExtractor) Position(subject string) string {
	words := strings.Fields(strings.ToLower(subject))
	for i, w := range words {
		for _, kw := range e.Keywords {
			if strings.Contains(w, kw) {
				start := i - 2
				if start < 0 {
					start = 0
				}
				end := i + 3
				if end > len(words) {
					end = len(words)
				}
				return strings.Join(words[start:end], " ")
			}
		}
	}
	return "Unknown Position"
}
