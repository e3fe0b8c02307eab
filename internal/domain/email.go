package domain

import "time"

// EmailMessage is a fetched inbox message as the scanner persists it.
// MessageID is the dedupe key: re-fetching the same message upserts the
// existing row instead of duplicating it.
type EmailMessage struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Date      time.Time `json:"date"`
	MessageID string    `json:"messageId"`
	Category  string    `json:"category"`
	Processed bool      `json:"processed"`
}
