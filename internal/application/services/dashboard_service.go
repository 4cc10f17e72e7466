package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	"github.com/zatekoja/slotbook/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// Dashboard is the professional's overview. Degraded is set when a widget
// fell back to its empty value.
type Dashboard struct {
	Stats           entities.DashboardStats   `json:"stats"`
	PopularServices []entities.PopularService `json:"popularServices"`
	Degraded        bool                      `json:"degraded"`
}

// DashboardService assembles the dashboard widgets
type DashboardService struct {
	provider providers.ProfessionalProvider
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(provider providers.ProfessionalProvider) *DashboardService {
	return &DashboardService{provider: provider}
}

// Dashboard never fails on widget errors; each widget falls back to zero values
func (s *DashboardService) Dashboard(ctx context.Context, professionalID string) (*Dashboard, error) {
	if professionalID == "" {
		return nil, apperrors.NewValidationError("professional id is required")
	}
	logger := observability.LoggerFromContext(ctx)
	dashboard := &Dashboard{
		Stats:           entities.DashboardStats{Revenue: entities.Amount(decimal.Zero.String())},
		PopularServices: []entities.PopularService{},
	}

	stats, err := s.provider.GetDashboardStats(ctx, professionalID)
	if err != nil {
		logger.Warn().Err(err).Str("professional_id", professionalID).Msg("Dashboard stats unavailable, using defaults")
		dashboard.Degraded = true
	} else if stats != nil {
		dashboard.Stats = *stats
	}

	popular, err := s.provider.GetPopularServices(ctx, professionalID)
	if err != nil {
		logger.Warn().Err(err).Str("professional_id", professionalID).Msg("Popular services unavailable, using empty list")
		dashboard.Degraded = true
	} else if popular != nil {
		dashboard.PopularServices = popular
	}

	return dashboard, nil
}
