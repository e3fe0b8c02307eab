// Package mailbox talks IMAP to the configured inbox: it lists unseen
// messages within a trailing window, fetches their raw bytes, and marks
// handled messages seen.
package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// RawMessage is one fetched message: envelope fields plus the full RFC822
// bytes. Fetched with BODY.PEEK[] so listing alone never sets \Seen.
type RawMessage struct {
	UID     imap.UID
	From    string
	To      string
	Subject string
	Date    time.Time
	Raw     []byte
}

type Options struct {
	Addr     string
	Username string
	Password string
	Folder   string
	TLS      bool
}

type Client struct {
	c    *imapclient.Client
	stop chan struct{}
}

// Dial connects, logs in, and selects the configured folder. Any failure here
// is a connection-level error: the caller aborts the cycle and retries at the
// next tick.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, errors.New("imap username/password is required")
	}

	var c *imapclient.Client
	var err error
	if opts.TLS {
		host := opts.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		c, err = imapclient.DialTLS(opts.Addr, &imapclient.Options{
			TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
		})
	} else {
		c, err = imapclient.DialInsecure(opts.Addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial: %w", err)
	}

	// Best-effort close on context cancel; stop channel keeps the watcher
	// from outliving the session.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-stop:
		}
	}()

	if err := c.Login(opts.Username, opts.Password).Wait(); err != nil {
		close(stop)
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	folder := opts.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := c.Select(folder, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		close(stop)
		_ = c.Close()
		return nil, fmt.Errorf("imap select %q: %w", folder, err)
	}

	return &Client{c: c, stop: stop}, nil
}

// FetchUnseen pulls up to max unseen messages received since the cutoff,
// newest first, with Envelope plus full raw RFC822 bytes.
func (cl *Client) FetchUnseen(ctx context.Context, since time.Time, max int) ([]RawMessage, error) {
	if cl == nil || cl.c == nil {
		return nil, errors.New("imap client is nil")
	}
	if max <= 0 {
		max = 50
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since,
	}

	searchData, err := cl.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return []RawMessage{}, nil
	}

	// newest first
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchOptions := &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	}

	fetchCmd := cl.c.Fetch(imap.UIDSetNum(uids...), fetchOptions)
	defer func() { _ = fetchCmd.Close() }()

	out := make([]RawMessage, 0, len(uids))
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}

		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		var m RawMessage
		m.UID = buf.UID
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			m.Date = buf.Envelope.Date
			m.From = joinAddrs(buf.Envelope.From)
			m.To = joinAddrs(buf.Envelope.To)
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Raw = append([]byte(nil), b...)
		}

		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

// MarkSeen sets \Seen on the given UIDs so later cycles skip them.
func (cl *Client) MarkSeen(uids []imap.UID) error {
	if cl == nil || cl.c == nil {
		return errors.New("imap client is nil")
	}
	if len(uids) == 0 {
		return nil
	}

	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}
	if err := cl.c.Store(imap.UIDSetNum(uids...), storeFlags, nil).Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

// Close logs out then closes the connection.
func (cl *Client) Close() {
	if cl == nil || cl.c == nil {
		return
	}
	if cl.stop != nil {
		close(cl.stop)
	}
	if err := cl.c.Logout().Wait(); err != nil {
		log.Printf("[imap] logout: %v", err)
	}
	_ = cl.c.Close()
}

func joinAddrs(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for i := range addrs {
		a := &addrs[i]
		addr := strings.TrimSpace(a.Addr())
		if addr == "" {
			addr = strings.TrimSpace(a.Name)
		}
		if addr != "" {
			parts = append(parts, addr)
		}
	}
	return strings.Join(parts, ", ")
}
