// Package metrics exposes operational counters for backtest runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CheckpointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_checkpoints_total", Help: "Checkpoints evaluated per strategy"},
		[]string{"strategy"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_signals_total", Help: "Entry signals emitted per strategy and direction"},
		[]string{"strategy", "direction"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_trades_total", Help: "Trades materialized per strategy and exit reason"},
		[]string{"strategy", "exit_reason"},
	)
	SkippedCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_skipped_candidates_total", Help: "Candidates skipped for missing or unusable data"},
		[]string{"strategy", "reason"},
	)
)

func init() {
	prometheus.MustRegister(CheckpointsTotal, SignalsTotal, TradesTotal, SkippedCandidatesTotal)
}

// Serve starts the /metrics endpoint in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
