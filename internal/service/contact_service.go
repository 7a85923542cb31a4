package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/go-playground/validator/v10"
)

type ContactService struct {
	repo                 ContactStore
	rejectDuplicateNames bool
	validate             *validator.Validate
}

// NewContactService builds the contact form handler. With rejectDuplicateNames a
// sender name seen before is refused with ErrDuplicate.
func NewContactService(repo ContactStore, rejectDuplicateNames bool) *ContactService {
	return &ContactService{repo: repo, rejectDuplicateNames: rejectDuplicateNames, validate: newValidator()}
}

func (s *ContactService) Submit(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error) {
	msg.YourName = strings.TrimSpace(msg.YourName)
	msg.ID = ""
	if verr := validateStruct(s.validate, msg); verr != nil {
		verr.Reason = "invalid contact form"
		return nil, verr
	}

	if s.rejectDuplicateNames {
		exists, err := s.repo.ExistsByName(ctx, msg.YourName)
		if err != nil {
			return nil, fmt.Errorf("failed to check contact name: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("a message from %q was already received: %w", msg.YourName, domain.ErrDuplicate)
		}
	}

	if err := s.repo.Create(ctx, &msg); err != nil {
		return nil, fmt.Errorf("failed to store contact message: %w", err)
	}
	return &msg, nil
}
