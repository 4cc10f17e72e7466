package services

import (
	"context"
	"strings"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/domain/providers"
	apperrors "github.com/zatekoja/slotbook/pkg/errors"
)

// ReviewService validates reviews before posting them
type ReviewService struct {
	provider providers.ReviewProvider
}

// NewReviewService creates a new review service
func NewReviewService(provider providers.ReviewProvider) *ReviewService {
	return &ReviewService{provider: provider}
}

// Create posts review once it passes the local checks
func (s *ReviewService) Create(ctx context.Context, review entities.Review) (*entities.Review, error) {
	if strings.TrimSpace(review.ProfessionalID) == "" {
		return nil, apperrors.NewValidationError("professional id is required")
	}
	if strings.TrimSpace(review.UserID) == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	if review.Rating < 1 || review.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5")
	}
	review.Comment = strings.TrimSpace(review.Comment)
	return s.provider.CreateReview(ctx, review)
}
