package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultReviewLimit = 20
	MaxReviewLimit     = 100
)

type ReviewService struct {
	repo     ReviewStore
	validate *validator.Validate
}

func NewReviewService(repo ReviewStore) *ReviewService {
	return &ReviewService{repo: repo, validate: newValidator()}
}

// Submit stores a review written by userID. Ratings run from 1 to 5.
func (s *ReviewService) Submit(ctx context.Context, userID int64, rv domain.Review) (*domain.Review, error) {
	rv.ID = 0
	rv.UserID = userID
	rv.Username = ""
	rv.Review = strings.TrimSpace(rv.Review)
	if verr := validateStruct(s.validate, rv); verr != nil {
		verr.Reason = "invalid review"
		return nil, verr
	}

	if err := s.repo.Create(ctx, &rv); err != nil {
		return nil, fmt.Errorf("failed to store review: %w", err)
	}
	return &rv, nil
}

// List returns the newest reviews. A limit outside 1..MaxReviewLimit falls back to the default or the cap.
func (s *ReviewService) List(ctx context.Context, limit int) ([]domain.Review, error) {
	switch {
	case limit <= 0:
		limit = DefaultReviewLimit
	case limit > MaxReviewLimit:
		limit = MaxReviewLimit
	}

	reviews, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
