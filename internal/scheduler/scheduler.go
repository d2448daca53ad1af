// Package scheduler runs periodic background scans and publishes the
// reports to the WebSocket hub.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"market-scannerv1/internal/gateway"
	"market-scannerv1/internal/model"
)

// Scanner matches the orchestrator's single operation.
type Scanner interface {
	Scan(ctx context.Context) model.ScanReport
}

// Scheduler triggers scans on a cron spec and broadcasts each report.
type Scheduler struct {
	cron    *cron.Cron
	scanner Scanner
	hub     *gateway.Hub
	log     *slog.Logger
}

// New registers the scan job under the given cron spec (standard 5-field
// syntax, e.g. "*/5 * * * *").
func New(spec string, scanner Scanner, hub *gateway.Hub, log *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		scanner: scanner,
		hub:     hub,
		log:     log,
	}
	if _, err := s.cron.AddFunc(spec, s.runScan); err != nil {
		return nil, errors.Wrapf(err, "register scan job %q", spec)
	}
	return s, nil
}

func (s *Scheduler) runScan() {
	report := s.scanner.Scan(context.Background())
	s.hub.BroadcastReport(report)
	s.log.Info("background scan broadcast",
		"results", report.Total, "clients", s.hub.ClientCount())
}

// Start launches the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
