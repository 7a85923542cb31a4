package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CheckoutService struct {
	repo     CheckoutStore
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

func NewCheckoutService(repo CheckoutStore, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		repo:     repo,
		validate: newValidator(),
		log:      log,
		now:      time.Now,
	}
}

// Submit validates the form and stores it with a checkout.submitted event.
// The cart and product stock are left as they are.
func (s *CheckoutService) Submit(ctx context.Context, userID *int64, form domain.CheckoutForm) (*domain.CheckoutRecord, error) {
	verr := checkPaymentMethod(form, validateStruct(s.validate, form))
	if verr != nil {
		verr.Reason = "invalid checkout form"
		return nil, verr
	}

	rec := &domain.CheckoutRecord{
		ID:           uuid.New(),
		UserID:       userID,
		CheckoutForm: form,
		CreatedAt:    s.now().UTC(),
	}

	method := paymentMethod(form)
	payload, err := json.Marshal(domain.CheckoutSubmitted{
		CheckoutID:    rec.ID.String(),
		UserID:        userID,
		Fullname:      form.Fullname,
		Email:         form.Email,
		City:          form.City,
		Country:       form.Country,
		PaymentMethod: method,
		SubmittedAt:   rec.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout event: %w", err)
	}

	if err := s.repo.CreateWithEvent(ctx, rec, domain.EventCheckoutSubmitted, payload); err != nil {
		return nil, fmt.Errorf("failed to store checkout: %w", err)
	}

	s.log.InfoContext(ctx, "checkout submitted", "checkout_id", rec.ID.String(), "payment_method", method)
	return rec, nil
}

// checkPaymentMethod adds a payment_method failure to verr unless exactly one
// payment flag is set.
func checkPaymentMethod(form domain.CheckoutForm, verr *domain.ValidationError) *domain.ValidationError {
	if form.PaymentMethodsSelected() == 1 {
		return verr
	}
	if verr == nil {
		verr = &domain.ValidationError{}
	}
	verr.AddField("payment_method", "select exactly one payment method")
	return verr
}

// Get returns a checkout the user submitted. Checkouts of other users, or
// anonymous ones, are reported as not found.
func (s *CheckoutService) Get(ctx context.Context, userID int64, id string) (*domain.CheckoutRecord, error) {
	checkoutID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("checkout %q: %w", id, domain.ErrNotFound)
	}

	rec, err := s.repo.GetRecord(ctx, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout: %w", err)
	}
	if rec.UserID == nil || *rec.UserID != userID {
		return nil, fmt.Errorf("checkout %q: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

func paymentMethod(f domain.CheckoutForm) string {
	switch {
	case f.DirectBankTransfer:
		return "direct_bank_transfer"
	case f.CheckPayments:
		return "check_payments"
	case f.CashOnDelivery:
		return "cash_on_delivery"
	case f.Paypal:
		return "paypal"
	default:
		return ""
	}
}
