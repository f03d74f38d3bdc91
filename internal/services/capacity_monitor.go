package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"codegen-backend/internal/metrics"
	"codegen-backend/internal/store"
)

// ThresholdRatio of the generated total at which the pool is replenished.
const ThresholdRatio = 0.8

// Capacity check outcomes.
const (
	CapacityOK             = "below_threshold"
	CapacityTriggered      = "triggered"
	CapacityAlreadyRunning = "already_running"
)

type CapacityReport struct {
	CheckedAt          time.Time `json:"checked_at"`
	TotalCodeGenerated int64     `json:"total_code_generated"`
	Threshold          float64   `json:"threshold"`
	Consumed           int64     `json:"consumed"`
	Reached            bool      `json:"reached"`
	Outcome            string    `json:"outcome"`
}

// Starter begins a pool run in the background if none is active.
type Starter interface {
	TryStart(ctx context.Context) bool
}

// CapacityMonitor compares unit consumption against the generated pool
// total and asks the pool generator for more once any cursor, or all of
// them together, cross ThresholdRatio of it.
type CapacityMonitor struct {
	store    store.Store
	settings *SettingsService
	pool     Starter

	mu   sync.Mutex
	last *CapacityReport
}

func NewCapacityMonitor(st store.Store, settings *SettingsService, pool Starter) *CapacityMonitor {
	return &CapacityMonitor{store: st, settings: settings, pool: pool}
}

func (m *CapacityMonitor) Check(ctx context.Context) (*CapacityReport, error) {
	snap, err := m.settings.Snapshot(ctx)
	if err != nil {
		metrics.CapacityChecksTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	report := &CapacityReport{
		CheckedAt:          time.Now(),
		TotalCodeGenerated: snap.TotalCodeGenerated,
		Threshold:          float64(snap.TotalCodeGenerated) * ThresholdRatio,
	}

	if snap.TotalCodeGenerated == 0 {
		// nothing was ever generated, so every cursor is past the threshold
		report.Reached = true
	} else {
		summary := m.store.Repos().Summary
		reached, err := summary.AnyUnitCursorReached(ctx, report.Threshold)
		if err != nil {
			metrics.CapacityChecksTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to check capacity: %w", err)
		}
		// every key draws from the same pool
		if report.Consumed, err = summary.UnitConsumedTotal(ctx); err != nil {
			metrics.CapacityChecksTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to check capacity: %w", err)
		}
		report.Reached = reached || float64(report.Consumed) >= report.Threshold
	}

	switch {
	case !report.Reached:
		report.Outcome = CapacityOK
	case m.pool.TryStart(ctx):
		report.Outcome = CapacityTriggered
		log.Printf("[Capacity] Threshold %.0f reached (total %d), pool generation started",
			report.Threshold, report.TotalCodeGenerated)
	default:
		report.Outcome = CapacityAlreadyRunning
		log.Printf("[Capacity] Threshold reached but pool generation is already running")
	}
	metrics.CapacityChecksTotal.WithLabelValues(report.Outcome).Inc()

	m.mu.Lock()
	m.last = report
	m.mu.Unlock()
	return report, nil
}

func (m *CapacityMonitor) LastReport() *CapacityReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil
	}
	cp := *m.last
	return &cp
}
