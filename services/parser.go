package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ringba-rpc-monitor/models"

	"github.com/rs/zerolog"
)

// Accepted header variants for the call-count columns. The export surface is
// not contractually stable, so both extraction paths resolve columns by name
// rather than position.
var (
	incomingHeaders = []string{"incoming", "calls", "call count", "inbound", "inbound calls"}
	rpcFallbacks    = []string{"revenue", "profit", "earning", "value"}
)

// CleanCurrency strips $ and thousands separators and parses the remainder
// as a decimal number.
func CleanCurrency(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty currency value")
	}
	return strconv.ParseFloat(s, 64)
}

// parseCount parses a call-count cell, tolerating commas and decimal
// renderings like "1,200.0". Unparseable or missing counts are a legitimate
// zero, not an error.
func parseCount(raw string) int64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// NewTargetMetric builds one metric row from already-resolved raw strings.
// Both the CSV and DOM extraction paths funnel through here so the tolerant
// validation rules live in exactly one place: rows without a parseable RPC
// are dropped (ok=false), blank target names become the totals sentinel, and
// count columns default to zero.
func NewTargetMetric(rawTarget, rawRPC, rawIncoming, rawConverted string) (models.TargetMetric, bool) {
	rpc, err := CleanCurrency(rawRPC)
	if err != nil {
		return models.TargetMetric{}, false
	}

	name := strings.TrimSpace(rawTarget)
	if name == "" || strings.EqualFold(name, "nan") {
		name = models.TotalsSentinel
	}

	return models.TargetMetric{
		TargetName: name,
		RPC:        rpc,
		Incoming:   parseCount(rawIncoming),
		Converted:  parseCount(rawConverted),
	}, true
}

// findColumn resolves a header index by exact match first, then substring.
func findColumn(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	for i, h := range headers {
		if strings.Contains(strings.ToLower(h), name) {
			return i
		}
	}
	return -1
}

// findColumnAny resolves the first header exactly matching any candidate.
func findColumnAny(headers []string, candidates []string) int {
	for i, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, c := range candidates {
			if lower == c {
				return i
			}
		}
	}
	return -1
}

// ParseReportCSV extracts target metrics from an exported report CSV. A nil
// error with zero rows means the file held no usable data; the orchestrator
// treats that as retryable.
func ParseReportCSV(r io.Reader, log zerolog.Logger) ([]models.TargetMetric, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	headers := records[0]
	targetIdx := findColumn(headers, "target")
	rpcIdx := findColumn(headers, "rpc")
	if rpcIdx < 0 {
		for _, alt := range rpcFallbacks {
			if rpcIdx = findColumn(headers, alt); rpcIdx >= 0 {
				log.Warn().Str("column", headers[rpcIdx]).Msg("no RPC column, using alternative")
				break
			}
		}
	}
	if targetIdx < 0 || rpcIdx < 0 {
		log.Warn().Strs("headers", headers).Msg("could not identify Target or RPC columns")
		return nil, nil
	}

	incomingIdx := findColumnAny(headers, incomingHeaders)
	convertedIdx := findColumnAny(headers, []string{"converted"})

	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var out []models.TargetMetric
	for _, row := range records[1:] {
		m, ok := NewTargetMetric(
			cell(row, targetIdx),
			cell(row, rpcIdx),
			cell(row, incomingIdx),
			cell(row, convertedIdx),
		)
		if !ok {
			continue
		}
		out = append(out, m)
	}

	log.Info().Int("rows", len(out)).Msg("extracted target metrics from CSV")
	return out, nil
}
