package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"ringba-rpc-monitor/config"
	"ringba-rpc-monitor/models"
	"ringba-rpc-monitor/runner"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const maxStatusRows = 50

// Server exposes the inbound trigger surface: a human-readable status page,
// the on-demand run trigger, the health check and Prometheus metrics.
type Server struct {
	cfg    *config.Config
	runner *runner.Runner
	status *runner.Status
	log    zerolog.Logger
}

func New(cfg *config.Config, r *runner.Runner, status *runner.Status, log zerolog.Logger) *Server {
	return &Server{cfg: cfg, runner: r, status: status, log: log}
}

// Router builds the HTTP handler.
func (s *Server) Router(reg *prometheus.Registry) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get("/", s.handleStatusPage)
	mux.Get("/run", s.handleRun)
	mux.Get("/health", s.handleHealth)
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.runner.TryTrigger() {
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	}
	s.log.Info().Str("remote", r.RemoteAddr).Msg("run triggered via HTTP")
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "Check started. It is running in the background; see / for results.")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]any{
		"status":        "healthy",
		"lastRun":       "Never",
		"success":       false,
		"isComparative": false,
		"runInProgress": s.runner.Running(),
	}
	if st, ok := s.status.Get(); ok {
		health["lastRun"] = st.Timestamp.Format("2006-01-02 15:04:05")
		health["success"] = st.Success
		health["isComparative"] = st.Comparative
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.log.Error().Err(err).Msg("encode health response")
	}
}

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Ringba RPC Monitor</title>
<style>
	body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
	.container { max-width: 900px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 5px; }
	.success { color: green; }
	.error { color: red; }
	table { width: 100%; border-collapse: collapse; }
	th, td { padding: 8px; text-align: left; border-bottom: 1px solid #ddd; }
	th { background-color: #f2f2f2; }
	.button { display: inline-block; background-color: #4CAF50; color: white; padding: 10px 15px; text-decoration: none; border-radius: 4px; margin-top: 20px; }
</style>
</head>
<body>
<div class="container">
	<h1>Ringba RPC Monitor</h1>
	{{if .HasRun}}
		<h2>Last Run: <span class="{{if .Success}}success{{else}}error{{end}}">{{if .Success}}Success{{else}}Error{{end}}</span></h2>
		<p>{{.Timestamp}}</p>
		<p><strong>Report Type:</strong> {{if .Comparative}}Comparative Report{{else}}Standard Report{{end}}</p>
		{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
		{{.Table}}
	{{else}}
		<h2>No Data Available</h2>
		<p>The bot has not completed any runs yet.</p>
	{{end}}
	<a href="/run" class="button">Run Check Now</a>
</div>
</body>
</html>`))

type statusPage struct {
	HasRun      bool
	Success     bool
	Comparative bool
	Timestamp   string
	Error       string
	Table       template.HTML
}

func (s *Server) handleStatusPage(w http.ResponseWriter, _ *http.Request) {
	page := statusPage{}
	if st, ok := s.status.Get(); ok {
		page.HasRun = true
		page.Success = st.Success
		page.Comparative = st.Comparative
		page.Timestamp = st.Timestamp.Format("2006-01-02 15:04:05")
		page.Error = st.Error
		if st.Report != nil {
			page.Table = template.HTML(renderMetricsTable(st.Report, s.cfg.RPCThreshold))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusTemplate.Execute(w, page); err != nil {
		s.log.Error().Err(err).Msg("render status page")
	}
}

// renderMetricsTable renders the last report as an HTML table. Comparative
// reports sort worst RPC movement first; standard reports sort lowest RPC
// first. Display is capped, a presentation policy only.
func renderMetricsTable(rep *models.RunReport, threshold float64) string {
	rows := make([]models.ComparativeRow, len(rep.Rows))
	copy(rows, rep.Rows)

	if rep.Comparative {
		sort.SliceStable(rows, func(i, j int) bool {
			ri, rj := rows[i], rows[j]
			if ri.IsNew() != rj.IsNew() {
				return !ri.IsNew()
			}
			if ri.IsNew() {
				return false
			}
			return *ri.RPCPct < *rj.RPCPct
		})
	} else {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].RPC < rows[j].RPC })
	}
	if len(rows) > maxStatusRows {
		rows = rows[:maxStatusRows]
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Target", "RPC", "Incoming", "Converted", "Status"})
	for _, row := range rows {
		t.AppendRow(tableRow(row, rep.Comparative, threshold))
	}
	return t.RenderHTML()
}

func tableRow(row models.ComparativeRow, comparative bool, threshold float64) table.Row {
	if comparative && !row.IsNew() {
		return table.Row{
			row.TargetName,
			fmt.Sprintf("$%.2f (%s)", row.RPC, signedPct(*row.RPCPct)),
			fmt.Sprintf("%d (%s)", row.Incoming, signedPct(*row.IncomingPct)),
			fmt.Sprintf("%d (%s)", row.Converted, signedPct(*row.ConvertedPct)),
			trendStatus(*row.RPCPct),
		}
	}

	status := "OK"
	if comparative {
		status = "New target"
	} else if row.RPC < threshold {
		status = "Below threshold"
	}
	return table.Row{
		row.TargetName,
		fmt.Sprintf("$%.2f", row.RPC),
		row.Incoming,
		row.Converted,
		status,
	}
}

func signedPct(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

func trendStatus(rpcPct float64) string {
	switch {
	case rpcPct > 5:
		return "↗️ Improved"
	case rpcPct < -5:
		return "↘️ Decreased"
	}
	return "→ Stable"
}
