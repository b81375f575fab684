package simulation

import "time"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Outcome is the typed result of one simulation run. Any error or panic
// inside the script surfaces here as a failed status with a reason; files
// written before the failure point are left in place.
type Outcome struct {
	Status            Status    `json:"status"`
	Reason            string    `json:"reason,omitempty"`
	Artifacts         []string  `json:"artifacts"`
	ApprovedCount     int       `json:"approved_count"`
	DeclinedCount     int       `json:"declined_count"`
	ChargebackOutcome string    `json:"chargeback_outcome,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}
