package services

import (
	"context"
	"errors"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/repositories"
)

// ErrSystemUnavailable indicates the health check dependencies are unavailable.
var ErrSystemUnavailable = errors.New("system: unavailable")

// SystemServiceDeps wires the dependencies required by the system service.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type systemService struct {
	health repositories.HealthRepository
	logger func(ctx context.Context, event string, fields map[string]any)
}

// NewSystemService constructs a SystemService validating required dependencies.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &systemService{health: deps.Health, logger: logger}, nil
}

// Health aggregates dependency checks for readiness probes.
func (s *systemService) Health(ctx context.Context) (domain.SystemHealthReport, error) {
	if s == nil || s.health == nil {
		return domain.SystemHealthReport{}, ErrSystemUnavailable
	}
	report, err := s.health.Check(ctx)
	if err != nil {
		s.logger(ctx, "system.health.checkFailed", map[string]any{"error": err.Error()})
		return domain.SystemHealthReport{}, err
	}
	return report, nil
}

var _ SystemService = (*systemService)(nil)
