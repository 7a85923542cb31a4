package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/fjod/fruitables/internal/mail"
	"github.com/fjod/fruitables/internal/session"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	phoneNumberLength = 10
	otpSubject        = "Fruitables otp"

	reasonUsernameTaken    = "username already exists"
	reasonPhoneInvalid     = "phone number is not valid"
	reasonPasswordMismatch = "passwords do not match"
	reasonBadCredentials   = "invalid username or password"
	reasonUnknownEmail     = "email address not valid"
	reasonInvalidOTP       = "invalid otp"
	reasonResetNotVerified = "verify the otp before resetting the password"
)

type AccountService struct {
	users    UserStore
	sessions SessionStore
	mailer   mail.Sender
	validate *validator.Validate
	log      *slog.Logger
	newOTP   func() (string, error)
	hashCost int
}

func NewAccountService(users UserStore, sessions SessionStore, mailer mail.Sender, log *slog.Logger) *AccountService {
	return &AccountService{
		users:    users,
		sessions: sessions,
		mailer:   mailer,
		validate: newValidator(),
		log:      log,
		newOTP:   generateOTP,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates the account. Checks run in a fixed order: username, phone, passwords.
func (s *AccountService) Register(ctx context.Context, form domain.RegistrationForm) (*domain.User, error) {
	if verr := validateStruct(s.validate, form); verr != nil {
		verr.Reason = "invalid registration form"
		return nil, verr
	}

	_, err := s.users.ByUsername(ctx, form.Username)
	switch {
	case err == nil:
		return nil, domain.NewValidationError(reasonUsernameTaken)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if len(form.PhoneNumber) != phoneNumberLength {
		return nil, domain.NewValidationError(reasonPhoneInvalid)
	}
	if form.Password != form.ConfirmPassword {
		return nil, domain.NewValidationError(reasonPasswordMismatch)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &domain.User{
		Fullname:     form.Fullname,
		Username:     form.Username,
		Email:        form.Email,
		PhoneNumber:  form.PhoneNumber,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewValidationError(reasonUsernameTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks the credentials and binds the user to a session with a fresh
// id. The caller's previous session is deleted, so a token issued before
// login never authenticates.
func (s *AccountService) Login(ctx context.Context, sess *session.Session, creds domain.Credentials) (*domain.User, *session.Session, error) {
	if verr := validateStruct(s.validate, creds); verr != nil {
		verr.Reason = reasonBadCredentials
		return nil, nil, verr
	}

	u, err := s.users.ByUsername(ctx, creds.Username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NewValidationError(reasonBadCredentials)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, nil, domain.NewValidationError(reasonBadCredentials)
	}

	fresh := s.sessions.New()
	fresh.Login(u.ID, u.Username)
	if err := s.sessions.Save(ctx, fresh); err != nil {
		return nil, nil, fmt.Errorf("failed to save session: %w", err)
	}
	if sess != nil && sess.ID != "" {
		// the old session was never marked logged in, so a failed delete only leaks an anonymous entry
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			s.log.WarnContext(ctx, "failed to delete pre-login session", "error", err)
		}
	}

	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return u, fresh, nil
}

func (s *AccountService) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Forgot stores a fresh OTP on the account and in the session, then mails it.
func (s *AccountService) Forgot(ctx context.Context, sess *session.Session, email string) error {
	if email == "" {
		return domain.FieldError("email", "this field is required")
	}

	u, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError(reasonUnknownEmail)
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	otp, err := s.newOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	if err := s.users.SetOTP(ctx, u.ID, otp); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	sess.ResetEmail = u.Email
	sess.OTP = otp
	sess.OTPVerified = false
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if err := s.mailer.Send(ctx, u.Email, otpSubject, "Your Otp "+otp); err != nil {
		s.log.ErrorContext(ctx, "otp mail failed", "user_id", u.ID, "error", err)
		return fmt.Errorf("failed to send otp: %w", err)
	}
	return nil
}

// VerifyOTP accepts only the exact code stored in the session.
func (s *AccountService) VerifyOTP(ctx context.Context, sess *session.Session, code string) error {
	if sess.OTP == "" || code != sess.OTP {
		return domain.NewValidationError(reasonInvalidOTP)
	}

	sess.OTPVerified = true
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *AccountService) Reset(ctx context.Context, sess *session.Session, reset domain.PasswordReset) error {
	if !sess.OTPVerified || sess.ResetEmail == "" {
		return domain.NewValidationError(reasonResetNotVerified)
	}
	if verr := validateStruct(s.validate, reset); verr != nil {
		verr.Reason = "invalid password reset form"
		return verr
	}
	if reset.Password != reset.ConfirmPassword {
		return domain.NewValidationError(reasonPasswordMismatch)
	}

	u, err := s.users.ByEmail(ctx, sess.ResetEmail)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reset.Password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	sess.ClearReset()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.log.InfoContext(ctx, "password reset", "user_id", u.ID)
	return nil
}

// generateOTP returns a uniformly random code in [1000, 9999].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
