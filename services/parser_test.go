package services

import (
	"strings"
	"testing"

	"ringba-rpc-monitor/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$15.75", 15.75},
		{"15.75", 15.75},
		{"$1,234", 1234},
		{"$1,234.56", 1234.56},
		{"0", 0},
		{" $8.00 ", 8},
	}
	for _, c := range cases {
		got, err := CleanCurrency(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, bad := range []string{"", "   ", "N/A", "$"} {
		_, err := CleanCurrency(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewTargetMetric(t *testing.T) {
	m, ok := NewTargetMetric("Acme", "$15.75", "120", "30")
	require.True(t, ok)
	assert.Equal(t, models.TargetMetric{TargetName: "Acme", RPC: 15.75, Incoming: 120, Converted: 30}, m)

	// Blank and NaN names become the totals sentinel.
	m, ok = NewTargetMetric("", "$8.00", "5", "1")
	require.True(t, ok)
	assert.Equal(t, models.TotalsSentinel, m.TargetName)

	m, ok = NewTargetMetric("NaN", "$8.00", "", "")
	require.True(t, ok)
	assert.Equal(t, models.TotalsSentinel, m.TargetName)

	// Rows without a parseable RPC are dropped, not zeroed.
	_, ok = NewTargetMetric("Acme", "", "120", "30")
	assert.False(t, ok)
	_, ok = NewTargetMetric("Acme", "n/a", "120", "30")
	assert.False(t, ok)

	// Unparseable counts are a legitimate zero.
	m, ok = NewTargetMetric("Acme", "$1.00", "oops", "1,200")
	require.True(t, ok)
	assert.Equal(t, int64(0), m.Incoming)
	assert.Equal(t, int64(1200), m.Converted)
}

func TestParseReportCSV(t *testing.T) {
	csv := strings.Join([]string{
		"Target,RPC,Incoming,Converted",
		`A,$15.75,120,30`,
		`,$8.00,5,1`,
	}, "\n")

	rows, err := ParseReportCSV(strings.NewReader(csv), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].TargetName)
	assert.Equal(t, 15.75, rows[0].RPC)
	assert.Equal(t, models.TotalsSentinel, rows[1].TargetName)
	assert.Equal(t, int64(5), rows[1].Incoming)
}

func TestParseReportCSVHeaderVariants(t *testing.T) {
	// Substring target match, inbound-calls variant, no converted column.
	csv := strings.Join([]string{
		"Target Name,Avg RPC,Inbound Calls",
		"A,\"$1,500.00\",42",
	}, "\n")

	rows, err := ParseReportCSV(strings.NewReader(csv), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1500.0, rows[0].RPC)
	assert.Equal(t, int64(42), rows[0].Incoming)
	assert.Equal(t, int64(0), rows[0].Converted)
}

func TestParseReportCSVMissingColumns(t *testing.T) {
	rows, err := ParseReportCSV(strings.NewReader("Foo,Bar\n1,2\n"), zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseReportCSVDropsUnparsableRPC(t *testing.T) {
	csv := "Target,RPC\nA,$5.00\nB,-\n"
	rows, err := ParseReportCSV(strings.NewReader(csv), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].TargetName)
}
