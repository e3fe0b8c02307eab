package domain

import "time"

// Status is the lifecycle state of a job application. "applied" doubles as
// the initial state for auto-created records.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusNotChosen Status = "not_chosen"
)

func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusInterview, StatusOffer, StatusNotChosen:
		return true
	}
	return false
}

// Application is one tracked job application. Rows are created either by the
// external CRUD surface or by the scanner when a confirmation email arrives
// with no correlated record; the scanner never deletes them.
type Application struct {
	ID              int64     `json:"id"`
	Company         string    `json:"company"`
	Position        string    `json:"position"`
	Location        string    `json:"location"`
	ApplicationDate string    `json:"applicationDate"` // YYYY-MM-DD
	Status          Status    `json:"status"`
	JobURL          string    `json:"jobUrl"`
	Description     string    `json:"description"`
	SalaryRange     string    `json:"salaryRange"`
	ContactPerson   string    `json:"contactPerson"`
	ContactEmail    string    `json:"contactEmail"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
