package app

import (
	"context"
	"fmt"
	"time"

	"repolens/internal/shared/util"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app == nil || s.app.store == nil {
		status.Status = "down"
		status.Components["store"] = "missing"
		return status
	}

	if pinger, ok := s.app.store.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Components["store"] = fmt.Sprintf("unreachable: %v", err)
		} else {
			status.Components["store"] = "ok"
		}
	} else {
		status.Components["store"] = "ok"
	}

	entries := s.app.historyCache().List(ctx)
	status.Components["history"] = fmt.Sprintf("ok (%d/%d entries)", len(entries), s.app.historyCache().MaxEntries())
	status.Components["tree"] = fmt.Sprintf("ok (max depth %d)", s.app.Renderer().MaxDepth())
	status.Components["memory"] = fmt.Sprintf("%d MB heap", util.HeapAllocMB())

	return status
}
