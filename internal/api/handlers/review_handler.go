package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/slotbook/internal/domain/entities"
	"github.com/zatekoja/slotbook/internal/session"
)

// ReviewService defines the interface for review operations
type ReviewService interface {
	Create(ctx context.Context, review entities.Review) (*entities.Review, error)
}

// ReviewHandler handles review requests
type ReviewHandler struct {
	service ReviewService
	session *session.Session
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service ReviewService, sess *session.Session) *ReviewHandler {
	return &ReviewHandler{service: service, session: sess}
}

// CreateReview handles POST /api/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var review entities.Review
	if err := decodeJSON(r, &review); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if review.UserID == "" && h.session != nil {
		if user := h.session.User(); user != nil {
			review.UserID = user.ID
		}
	}

	created, err := h.service.Create(r.Context(), review)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}
