package scanner

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Bartabas/job-tracker/internal/domain"
	"github.com/Bartabas/job-tracker/internal/events"
	"github.com/Bartabas/job-tracker/internal/rules"
)

// statusFor maps a classified category to the status it moves a matched
// application to. application_confirmation is deliberately absent: on a
// matched record it changes nothing, the record is already applied.
var statusFor = map[rules.Category]domain.Status{
	rules.CategoryInterviewInvitation: domain.StatusInterview,
	rules.CategoryJobOffer:            domain.StatusOffer,
	rules.CategoryRejection:           domain.StatusNotChosen,
}

// processMessage persists one fetched message and reconciles it. The upsert
// goes in first with processed=false; the flag flips only after reconciliation
// actually took an action, so a failed write leaves the row eligible for
// manual reprocessing.
func (s *Scanner) processMessage(ctx context.Context, em domain.EmailMessage) error {
	category := s.Classify(em)
	em.Category = string(category)
	em.Processed = false

	id, _, err := s.Store.UpsertEmail(ctx, em, s.Now())
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	processed := s.reconcile(ctx, em, category)
	if processed {
		if err := s.Store.SetEmailOutcome(ctx, id, string(category), true); err != nil {
			return fmt.Errorf("record outcome: %w", err)
		}
	}

	s.Hub.Publish(events.Make(events.TypeEmailProcessed, map[string]any{
		"id":        id,
		"messageId": em.MessageID,
		"category":  string(category),
		"processed": processed,
	}))
	return nil
}

// reconcile turns a classified message into a create-or-update on an
// application record. Reports whether an action was taken.
func (s *Scanner) reconcile(ctx context.Context, em domain.EmailMessage, category rules.Category) bool {
	if category == rules.CategoryOther {
		return false
	}

	emailDomain := senderDomain(em.Sender)
	if emailDomain == "" {
		return false
	}

	matched, err := s.Store.FindApplicationByContactDomain(ctx, emailDomain)
	if err != nil {
		log.Printf("[scan] lookup for %q failed: %v", emailDomain, err)
		return false
	}

	now := s.Now()

	if matched != nil {
		if status, ok := statusFor[category]; ok {
			if err := s.Store.UpdateApplicationStatus(ctx, matched.ID, status, now); err != nil {
				log.Printf("[scan] status update for application %d failed: %v", matched.ID, err)
				return false
			}
			s.Hub.Publish(events.Make(events.TypeApplicationUpdated, map[string]any{
				"id":     matched.ID,
				"status": string(status),
			}))
			return true
		}
		// confirmation for a record we already track
		return category == rules.CategoryApplicationConfirmation
	}

	if category != rules.CategoryApplicationConfirmation {
		// nothing to update and nothing worth creating
		return false
	}

	company := s.Extract.Company(em.Sender)
	if company == "" {
		return false
	}
	app := domain.Application{
		Company:         company,
		Position:        s.Extract.Position(em.Subject),
		Status:          domain.StatusApplied,
		ApplicationDate: now.UTC().Format("2006-01-02"),
		ContactEmail:    em.Sender,
		Notes:           "Auto-created from email",
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
	id, err := s.Store.InsertApplication(ctx, app)
	if err != nil {
		log.Printf("[scan] create application for %q failed: %v", company, err)
		return false
	}
	s.Hub.Publish(events.Make(events.TypeApplicationCreated, map[string]any{
		"id":      id,
		"company": company,
	}))
	return true
}

// Reprocess re-runs classification and reconciliation for a message that is
// already persisted; the manual counterpart of a scheduled cycle for one
// message.
func (s *Scanner) Reprocess(ctx context.Context, id int64) (domain.EmailMessage, error) {
	em, err := s.Store.GetEmail(ctx, id)
	if err != nil {
		return domain.EmailMessage{}, fmt.Errorf("load message %d: %w", id, err)
	}

	category := s.Classify(em)
	processed := s.reconcile(ctx, em, category)
	if err := s.Store.SetEmailOutcome(ctx, em.ID, string(category), processed); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("record outcome: %w", err)
	}

	em.Category = string(category)
	em.Processed = processed
	s.Hub.Publish(events.Make(events.TypeEmailProcessed, map[string]any{
		"id":        em.ID,
		"messageId": em.MessageID,
		"category":  string(category),
		"processed": processed,
	}))
	return em, nil
}

// senderDomain extracts the part after "@", lowercased; "" when the sender
// has no usable domain.
func senderDomain(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return ""
	}
	return strings.ToLower(strings.Trim(sender[at+1:], "> "))
}
