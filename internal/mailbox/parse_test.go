package mailbox

import (
	"strings"
	"testing"
	"time"
)

const plainMessage = "From: HR Team <hr@acme.com>\r\n" +
	"To: Me <me@example.com>\r\n" +
	"Subject: Thanks for applying\r\n" +
	"Date: Thu, 20 Aug 2026 10:00:00 +0000\r\n" +
	"Message-Id: <abc123@acme.com>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"We have received your application.\r\n"

const multipartMessage = "From: hr@acme.com\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Interview\r\n" +
	"Message-Id: <mp1@acme.com>\r\n" +
	"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"We would like to invite you to an interview.\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>We would like to <b>invite</b> you.</p></body></html>\r\n" +
	"--BOUNDARY--\r\n"

const htmlOnlyMessage = "From: hr@acme.com\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Offer\r\n" +
	"Message-Id: <h1@acme.com>\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>We are pleased to offer   you the role.</p></body></html>\r\n"

func TestParsePlain(t *testing.T) {
	p, err := Parse([]byte(plainMessage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.From != "hr@acme.com" {
		t.Errorf("From = %q", p.From)
	}
	if p.To != "me@example.com" {
		t.Errorf("To = %q", p.To)
	}
	if p.Subject != "Thanks for applying" {
		t.Errorf("Subject = %q", p.Subject)
	}
	if p.MessageID != "abc123@acme.com" {
		t.Errorf("MessageID = %q", p.MessageID)
	}
	if !strings.Contains(p.BodyText(), "received your application") {
		t.Errorf("BodyText = %q", p.BodyText())
	}
	want := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	if !p.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", p.Date, want)
	}
}

func TestParseMultipartPrefersPlain(t *testing.T) {
	p, err := Parse([]byte(multipartMessage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(p.Text, "invite you to an interview") {
		t.Errorf("Text = %q", p.Text)
	}
	if p.HTML == "" {
		t.Error("HTML part missing")
	}
	if got := p.BodyText(); !strings.Contains(got, "invite you to an interview") {
		t.Errorf("BodyText = %q, want the plain part", got)
	}
}

func TestParseHTMLOnlyFlattens(t *testing.T) {
	p, err := Parse([]byte(htmlOnlyMessage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Text != "" {
		t.Errorf("unexpected plain part: %q", p.Text)
	}
	got := p.BodyText()
	if !strings.Contains(got, "we are pleased to offer you the role") &&
		!strings.Contains(strings.ToLower(got), "we are pleased to offer you the role") {
		t.Errorf("BodyText = %q, want flattened HTML text", got)
	}
	if strings.Contains(got, "<") {
		t.Errorf("BodyText still contains markup: %q", got)
	}
}

func TestParseEmptyFails(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestFallbackMessageIDStable(t *testing.T) {
	d := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	a := FallbackMessageID("hr@acme.com", d, "Hello")
	b := FallbackMessageID("hr@acme.com", d, "Hello")
	if a != b {
		t.Errorf("not stable: %q vs %q", a, b)
	}
	if c := FallbackMessageID("hr@acme.com", d, "Other"); c == a {
		t.Error("different subjects must yield different ids")
	}
}
