package models

import "time"

// TotalsSentinel replaces blank target names on aggregate/total rows so they
// stay distinguishable from real targets downstream.
const TotalsSentinel = "Totals (all targets average)"

// TargetMetric is one extracted row for one run: a named target with its
// revenue-per-call and call counts.
type TargetMetric struct {
	TargetName string  `json:"Target"`
	RPC        float64 `json:"RPC"`
	Incoming   int64   `json:"Incoming"`
	Converted  int64   `json:"Converted"`
}

// Snapshot is one persisted run, keyed by its time slot. Each slot holds at
// most one snapshot; an upsert to the same slot overwrites it.
type Snapshot struct {
	TimeSlot   string
	CapturedAt time.Time
	Targets    []TargetMetric
}

// ComparativeRow is one report line: current values plus, when the same
// target existed in the previous snapshot, percentage deltas and the prior
// raw values. Nil deltas mean "new target, no comparison", never 0%.
type ComparativeRow struct {
	TargetMetric

	RPCPct       *float64
	IncomingPct  *float64
	ConvertedPct *float64

	PrevRPC       float64
	PrevIncoming  int64
	PrevConverted int64
}

// IsNew reports whether the target had no match in the previous snapshot.
func (r ComparativeRow) IsNew() bool {
	return r.RPCPct == nil
}
