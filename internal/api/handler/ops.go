package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/provider/resilience"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderHealthSource lists provider circuit health.
type ProviderHealthSource interface {
	AllHealth() []*resilience.ProviderHealth
}

// readyTimeout bounds the store ping behind /ready and /status.
const readyTimeout = 2 * time.Second

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	store     Pinger
	providers ProviderHealthSource
}

// NewOpsHandler creates a new OpsHandler. store and providers may be nil.
func NewOpsHandler(version, buildTime string, store Pinger, providers ProviderHealthSource) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		store:     store,
		providers: providers,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]string{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready - fails while the store is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	store := h.storeStatus(r.Context())
	health := models.Health{
		Status: store.Status,
		Time:   models.Timestamp(time.Now()),
	}
	if store.Detail != "" {
		health.Details = map[string]string{"store": store.Detail}
	}

	status := http.StatusOK
	if store.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - store and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	store := h.storeStatus(r.Context())
	statuses := []models.HealthStatus{store.Status}

	providers := []models.ProviderStatus{}
	if h.providers != nil {
		for _, ph := range h.providers.AllHealth() {
			ps := providerStatus(ph)
			statuses = append(statuses, ps.Status)
			providers = append(providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     models.Worst(statuses...),
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{store},
		Providers:  providers,
	})
}

func (h *OpsHandler) storeStatus(ctx context.Context) models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "store", Status: models.HealthStatusOK}
	if h.store == nil {
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		s.Status = models.HealthStatusFail
		s.Detail = err.Error()
	}
	return s
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	status := models.HealthStatusOK
	switch {
	case ph.IsUnhealthy():
		status = models.HealthStatusFail
	case ph.IsDegraded():
		status = models.HealthStatusDegraded
	}

	return models.ProviderStatus{
		Provider:      ph.Name,
		Status:        status,
		CircuitState:  ph.CircuitState.String(),
		LastSuccessAt: timestampPtr(ph.LastSuccessAt),
		LastFailureAt: timestampPtr(ph.LastFailureAt),
		Message:       ph.LastError,
	}
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
