// Package scanner drives the mailbox-scanning pipeline: fetch unseen mail,
// classify each message, and reconcile it against the application records.
package scanner

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/emersion/go-imap/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Bartabas/job-tracker/internal/config"
	"github.com/Bartabas/job-tracker/internal/domain"
	"github.com/Bartabas/job-tracker/internal/events"
	"github.com/Bartabas/job-tracker/internal/mailbox"
	"github.com/Bartabas/job-tracker/internal/rules"
	"github.com/Bartabas/job-tracker/internal/secrets"
)

const parseWorkers = 4

// Store is the slice of the persistence layer the scanner needs.
type Store interface {
	UpsertEmail(ctx context.Context, m domain.EmailMessage, now time.Time) (id int64, inserted bool, err error)
	SetEmailOutcome(ctx context.Context, id int64, category string, processed bool) error
	GetEmail(ctx context.Context, id int64) (domain.EmailMessage, error)
	FindApplicationByContactDomain(ctx context.Context, emailDomain string) (*domain.Application, error)
	InsertApplication(ctx context.Context, a domain.Application) (int64, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status domain.Status, now time.Time) error
}

// Session is one live mailbox connection, held for a single cycle.
type Session interface {
	FetchUnseen(ctx context.Context, since time.Time, max int) ([]mailbox.RawMessage, error)
	MarkSeen(uids []imap.UID) error
	Close()
}

type DialFunc func(ctx context.Context, cfg config.Config) (Session, error)

// Status is a snapshot of the last scan cycle, served by the HTTP API.
type Status struct {
	Running       bool   `json:"running"`
	LastRunAt     string `json:"lastRunAt,omitempty"`
	LastOkAt      string `json:"lastOkAt,omitempty"`
	LastProcessed int    `json:"lastProcessed"`
	LastError     string `json:"lastError,omitempty"`
}

// Scanner is the scan service: constructed once at startup with its config
// holder and store handle, no package-level state.
type Scanner struct {
	CfgVal *atomic.Value // stores config.Config
	Rules  rules.RuleSet
	Store  Store
	Hub    *events.Hub

	// Overridable for tests.
	Dial    DialFunc
	Extract Extractor
	Now     func() time.Time

	running atomic.Bool
	status  atomic.Value // stores Status
}

func New(cfgVal *atomic.Value, rs rules.RuleSet, st Store, hub *events.Hub) *Scanner {
	s := &Scanner{
		CfgVal:  cfgVal,
		Rules:   rs,
		Store:   st,
		Hub:     hub,
		Dial:    dialIMAP,
		Extract: NewKeywordExtractor(),
		Now:     time.Now,
	}
	s.status.Store(Status{})
	return s
}

func (s *Scanner) config() config.Config {
	return s.CfgVal.Load().(config.Config)
}

func (s *Scanner) Status() Status {
	st, _ := s.status.Load().(Status)
	return st
}

// Running reports whether a cycle is active right now.
func (s *Scanner) Running() bool {
	return s.running.Load()
}

func (s *Scanner) setStatus(mutate func(*Status)) {
	st := s.Status()
	mutate(&st)
	s.status.Store(st)
}

// Classify labels a message from its body text. Pure: same rule set, same
// answer.
func (s *Scanner) Classify(m domain.EmailMessage) rules.Category {
	return s.Rules.Classify(m.Body)
}

// RunCycle performs one scan: fetch unseen mail within the window, classify,
// reconcile. If a cycle is already running the call is a no-op; ticks are
// skipped, never queued. A connection-level error abandons the whole cycle
// and the next tick starts over with a fresh session.
func (s *Scanner) RunCycle(ctx context.Context) (processed int, err error) {
	cfg := s.config()
	if !cfg.Mailbox.Enabled {
		return 0, nil
	}

	if !s.running.CompareAndSwap(false, true) {
		log.Printf("[scan] cycle already running, tick skipped")
		return 0, nil
	}
	defer s.running.Store(false)

	s.setStatus(func(st *Status) {
		st.Running = true
		st.LastRunAt = s.Now().UTC().Format(time.RFC3339)
	})
	s.Hub.Publish(events.Make(events.TypeScanStarted, nil))

	processed, err = s.scan(ctx, cfg)

	s.setStatus(func(st *Status) {
		st.Running = false
		st.LastProcessed = processed
		if err != nil {
			st.LastError = err.Error()
		} else {
			st.LastError = ""
			st.LastOkAt = s.Now().UTC().Format(time.RFC3339)
		}
	})
	s.Hub.Publish(events.Make(events.TypeScanFinished, map[string]any{"processed": processed}))

	if err != nil {
		log.Printf("[scan] cycle failed: %v", err)
	} else {
		log.Printf("[scan] cycle ok processed=%d", processed)
	}
	return processed, err
}

func (s *Scanner) scan(ctx context.Context, cfg config.Config) (int, error) {
	sess, err := s.Dial(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("mailbox connect: %w", err)
	}
	defer sess.Close()

	since := s.Now().Add(-cfg.ScanWindow())
	msgs, err := sess.FetchUnseen(ctx, since, cfg.Scan.MaxMessages)
	if err != nil {
		return 0, fmt.Errorf("mailbox fetch: %w", err)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	// Parse concurrently; classification and reconciliation stay sequential
	// in arrival order so two messages resolving to the same record apply in
	// order.
	parsed := make([]*mailbox.ParsedEmail, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for i := range msgs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			p, err := mailbox.Parse(msgs[i].Raw)
			if err != nil {
				log.Printf("[scan] unparsable message uid=%d from=%q: %v", msgs[i].UID, msgs[i].From, err)
				return nil
			}
			parsed[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	handled := make([]imap.UID, 0, len(msgs))
	count := 0
	for i, raw := range msgs {
		handled = append(handled, raw.UID)
		p := parsed[i]
		if p == nil {
			continue
		}
		em := buildMessage(*p, raw)
		if err := s.processMessage(ctx, em); err != nil {
			log.Printf("[scan] message %s: %v", em.MessageID, err)
			continue
		}
		count++
	}

	if err := sess.MarkSeen(handled); err != nil {
		return count, fmt.Errorf("mark seen: %w", err)
	}
	return count, nil
}

// buildMessage merges the parsed message with envelope fallbacks and
// guarantees a dedupe key.
func buildMessage(p mailbox.ParsedEmail, raw mailbox.RawMessage) domain.EmailMessage {
	em := domain.EmailMessage{
		Sender:    p.From,
		Recipient: p.To,
		Subject:   p.Subject,
		Body:      p.BodyText(),
		Date:      p.Date,
		MessageID: p.MessageID,
	}
	if em.Sender == "" {
		em.Sender = raw.From
	}
	if em.Recipient == "" {
		em.Recipient = raw.To
	}
	if em.Subject == "" {
		em.Subject = raw.Subject
	}
	if em.Date.IsZero() {
		em.Date = raw.Date
	}
	if em.MessageID == "" {
		em.MessageID = mailbox.FallbackMessageID(em.Sender, em.Date, em.Subject)
	}
	return em
}

// dialIMAP is the production DialFunc: keychain fallback for the password,
// then a TLS login.
func dialIMAP(ctx context.Context, cfg config.Config) (Session, error) {
	password := cfg.Mailbox.Password
	if password == "" {
		account := secrets.IMAPKeyringAccount(cfg.Mailbox.Username, cfg.Mailbox.Host)
		pw, err := secrets.GetIMAPPassword(account)
		if err != nil {
			return nil, err
		}
		password = pw
	}
	return mailbox.Dial(ctx, mailbox.Options{
		Addr:     cfg.MailboxAddr(),
		Username: cfg.Mailbox.Username,
		Password: password,
		Folder:   cfg.Mailbox.Folder,
		TLS:      cfg.Mailbox.TLS,
	})
}
