package services

import (
	"ringba-rpc-monitor/models"

	"github.com/rs/zerolog"
)

// PctChange computes the percentage change from prev to curr. A zero
// baseline cannot be divided: both zero is no change, anything from zero is
// reported as a flat 100% increase.
func PctChange(curr, prev float64) float64 {
	if prev == 0 {
		if curr == 0 {
			return 0.0
		}
		return 100.0
	}
	return (curr - prev) / prev * 100.0
}

// Compare derives one ComparativeRow per current metric row. When previous
// is nil the report is non-comparative and every row carries current values
// only. Duplicate target names in previous resolve last-occurrence-wins;
// duplicates in current each produce their own row.
func Compare(current, previous []models.TargetMetric, log zerolog.Logger) []models.ComparativeRow {
	var lookup map[string]models.TargetMetric
	if previous != nil {
		lookup = make(map[string]models.TargetMetric, len(previous))
		for _, p := range previous {
			lookup[p.TargetName] = p
		}
	}

	rows := make([]models.ComparativeRow, 0, len(current))
	for _, c := range current {
		row := models.ComparativeRow{TargetMetric: c}
		if prev, ok := lookup[c.TargetName]; ok {
			rpc := PctChange(c.RPC, prev.RPC)
			inc := PctChange(float64(c.Incoming), float64(prev.Incoming))
			conv := PctChange(float64(c.Converted), float64(prev.Converted))
			row.RPCPct = &rpc
			row.IncomingPct = &inc
			row.ConvertedPct = &conv
			row.PrevRPC = prev.RPC
			row.PrevIncoming = prev.Incoming
			row.PrevConverted = prev.Converted
		} else if previous != nil {
			log.Info().Str("target", c.TargetName).Msg("new target, no comparison available")
		}
		rows = append(rows, row)
	}
	return rows
}
