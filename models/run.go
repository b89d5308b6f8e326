package models

import "time"

// RunReport is the ephemeral outcome of one successful pipeline run, handed
// to the notifier and kept in the status cache. Never persisted.
type RunReport struct {
	CapturedAt   time.Time
	TimeSlot     string
	Comparative  bool
	Degraded     bool // a comparison slot whose previous snapshot was missing
	PreviousSlot string
	Rows         []ComparativeRow
}

// RunStatus is the single-slot "last run" value shared by the orchestrator
// and the HTTP handlers.
type RunStatus struct {
	Timestamp   time.Time
	Success     bool
	Comparative bool
	Error       string
	Report      *RunReport
}
