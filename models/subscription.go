package models

import "time"

// Plan names offered by the application
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// FreeTrialDays is the length of the pro plan's free trial
const FreeTrialDays = 14

// Subscription mirrors the payment processor's subscription object. It is
// never persisted locally; the billing service fetches it on demand.
type Subscription struct {
	ID                string     `json:"id"`
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	PeriodStart       *time.Time `json:"period_start,omitempty"`
	PeriodEnd         *time.Time `json:"period_end,omitempty"`
	TrialStart        *time.Time `json:"trial_start,omitempty"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	Seats             int        `json:"seats,omitempty"`
}

// proStatuses are the subscription statuses that grant pro access
var proStatuses = map[string]bool{
	"active":   true,
	"trialing": true,
}

// IsPro reports whether the subscription grants access to pro features
func (s *Subscription) IsPro() bool {
	if s == nil {
		return false
	}
	return proStatuses[s.Status]
}
