package handlers

import (
	"context"
	"errors"
	"net/http"

	"codegen-backend/internal/services"
	"codegen-backend/pkg/utils"
)

// CodegenHandler exposes worker state and manual triggers.
type CodegenHandler struct {
	processor *services.RequestProcessor
	pool      *services.PoolGenerator
	monitor   *services.CapacityMonitor
}

func NewCodegenHandler(processor *services.RequestProcessor, pool *services.PoolGenerator, monitor *services.CapacityMonitor) *CodegenHandler {
	return &CodegenHandler{processor: processor, pool: pool, monitor: monitor}
}

type StatusResponse struct {
	PassRunning  bool                     `json:"pass_running"`
	PoolRunning  bool                     `json:"pool_running"`
	LastPass     *services.PassStats      `json:"last_pass"`
	LastPoolRun  *services.PoolStats      `json:"last_pool_run"`
	LastCapacity *services.CapacityReport `json:"last_capacity_check"`
}

func (h *CodegenHandler) Status(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, StatusResponse{
		PassRunning:  h.processor.Guard().Active(),
		PoolRunning:  h.pool.Guard().Active(),
		LastPass:     h.processor.LastStats(),
		LastPoolRun:  h.pool.LastStats(),
		LastCapacity: h.monitor.LastReport(),
	})
}

// TriggerPass runs one processing pass and returns its stats.
func (h *CodegenHandler) TriggerPass(w http.ResponseWriter, r *http.Request) {
	stats, err := h.processor.RunPass(r.Context())
	switch {
	case errors.Is(err, services.ErrPassInProgress):
		utils.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		utils.JSON(w, http.StatusInternalServerError, stats)
	default:
		utils.JSON(w, http.StatusOK, stats)
	}
}

// CheckPool runs a capacity check; a triggered pool run keeps going after
// the response is written.
func (h *CodegenHandler) CheckPool(w http.ResponseWriter, r *http.Request) {
	report, err := h.monitor.Check(context.WithoutCancel(r.Context()))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	code := http.StatusOK
	if report.Outcome == services.CapacityTriggered {
		code = http.StatusAccepted
	}
	utils.JSON(w, code, report)
}
