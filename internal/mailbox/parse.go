package mailbox

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// ParsedEmail is the structured form of one raw message.
type ParsedEmail struct {
	MessageID string
	From      string
	To        string
	Subject   string
	Date      time.Time
	Text      string
	HTML      string
}

// BodyText is what the classifier sees: the plain part when present, else
// the HTML part flattened to text, else "".
func (p ParsedEmail) BodyText() string {
	if p.Text != "" {
		return p.Text
	}
	if p.HTML != "" {
		return htmlToText(p.HTML)
	}
	return ""
}

// Parse decodes raw RFC822 bytes into headers plus text/html bodies. A failed
// parse skips only that message; the caller continues with the rest of the
// batch.
func Parse(raw []byte) (ParsedEmail, error) {
	if len(raw) == 0 {
		return ParsedEmail{}, fmt.Errorf("parse: empty message")
	}

	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return ParsedEmail{}, fmt.Errorf("parse: %w", err)
	}

	var p ParsedEmail
	h := mail.Header{Header: entity.Header}
	p.Subject, _ = h.Subject()
	p.Date, _ = h.Date()
	if id, err := h.MessageID(); err == nil {
		p.MessageID = id
	}
	if list, err := h.AddressList("From"); err == nil && len(list) > 0 {
		p.From = list[0].Address
	}
	if list, err := h.AddressList("To"); err == nil && len(list) > 0 {
		addrs := make([]string, 0, len(list))
		for _, a := range list {
			addrs = append(addrs, a.Address)
		}
		p.To = strings.Join(addrs, ", ")
	}

	p.Text, p.HTML = extractTextParts(entity)
	return p, nil
}

// extractTextParts walks the MIME tree and keeps the first text/plain and
// text/html leaves.
func extractTextParts(entity *message.Entity) (plain, html string) {
	mediaType, _, _ := entity.Header.ContentType()

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := entity.MultipartReader()
		if mr == nil {
			return "", ""
		}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				break
			}
			pPlain, pHTML := extractTextParts(part)
			if plain == "" {
				plain = pPlain
			}
			if html == "" {
				html = pHTML
			}
		}
		return plain, html
	}

	b, err := io.ReadAll(io.LimitReader(entity.Body, 6<<20))
	if err != nil {
		return "", ""
	}
	switch {
	case mediaType == "" || strings.HasPrefix(mediaType, "text/plain"):
		return string(b), ""
	case strings.HasPrefix(mediaType, "text/html"):
		return "", string(b)
	}
	return "", ""
}

func htmlToText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// FallbackMessageID derives a stable dedupe key for messages that carry no
// Message-Id header.
func FallbackMessageID(from string, date time.Time, subject string) string {
	sum := sha1.Sum([]byte("from:" + from + "|date:" + date.UTC().Format(time.RFC3339) + "|sub:" + subject))
	return "synthetic-" + hex.EncodeToString(sum[:])
}
