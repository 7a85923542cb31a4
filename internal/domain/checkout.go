package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutForm is the submitted shipping/billing/payment form.
type CheckoutForm struct {
	Fullname               string `json:"fullname" validate:"required,max=100"`
	CompanyName            string `json:"company_name" validate:"required,max=100"`
	Address                string `json:"address" validate:"required,max=255"`
	City                   string `json:"city" validate:"required,max=100"`
	Country                string `json:"country" validate:"required,max=100"`
	Zipcode                string `json:"zipcode" validate:"required,max=20"`
	PhoneNumber            string `json:"phone_number" validate:"required,max=20"`
	Email                  string `json:"email" validate:"required,email,max=254"`
	CreateAccount          bool   `json:"create_account"`
	ShipToDifferentAddress bool   `json:"ship_to_different_address"`
	OrderNotes             string `json:"order_notes" validate:"max=2000"`
	DirectBankTransfer     bool   `json:"direct_bank_transfer"`
	CheckPayments          bool   `json:"check_payments"`
	CashOnDelivery         bool   `json:"cash_on_delivery"`
	Paypal                 bool   `json:"paypal"`
}

func (f CheckoutForm) PaymentMethodsSelected() int {
	n := 0
	for _, b := range []bool{f.DirectBankTransfer, f.CheckPayments, f.CashOnDelivery, f.Paypal} {
		if b {
			n++
		}
	}
	return n
}

type CheckoutRecord struct {
	ID uuid.UUID `json:"id"`
	// UserID records who submitted the form; it is not a link to cart contents.
	UserID *int64 `json:"user_id,omitempty"`
	CheckoutForm
	CreatedAt time.Time `json:"created_at"`
}

const EventCheckoutSubmitted = "checkout.submitted"

// CheckoutSubmitted is the payload of a checkout.submitted event.
type CheckoutSubmitted struct {
	CheckoutID    string    `json:"checkout_id"`
	UserID        *int64    `json:"user_id,omitempty"`
	Fullname      string    `json:"fullname"`
	Email         string    `json:"email"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	PaymentMethod string    `json:"payment_method"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}
