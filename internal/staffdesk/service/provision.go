package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/identity"
	mailer "github.com/seobrand/staffdesk/internal/staffdesk/mail"
	"github.com/seobrand/staffdesk/internal/staffdesk/store"
	"github.com/seobrand/staffdesk/pkg/cryptox"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrAlreadyRegistered = errors.New("an account with this email already exists")
)

// Identity backend metadata keys for admin-provisioned accounts.
const (
	metaCreatedByAdmin    = "created_by_admin"
	metaTemporaryPassword = "temporary_password"
	metaFullName          = "full_name"
	metaInvitationID      = "invitation_id"
)

// Provisioner creates fully active accounts with admin-issued temporary
// credentials. Account creation and profile creation hit logically
// separate stores, so the flow is a best-effort saga: the profile insert
// failing triggers a compensating account delete.
type Provisioner struct {
	Store    store.Store
	Identity identity.Client
	Mailer   mailer.Sender

	ProductName string
	BaseURL     string
	EmailFrom   string
	CallTimeout time.Duration
}

type CreateUserInput struct {
	Email    string
	FullName string
	Role     domain.Role
}

type CreateUserResult struct {
	Profile     domain.Profile
	Credentials domain.Credentials
	EmailSent   bool
	Message     string
}

// CreateUserWithCredentials is the direct provisioning path:
// validate -> duplicate check -> create account -> create profile
// (rolling the account back on failure) -> notify -> audit.
// The returned credentials exist only in this response; they are never
// persisted.
func (s *Provisioner) CreateUserWithCredentials(
	ctx context.Context,
	actor domain.Profile,
	in CreateUserInput,
) (CreateUserResult, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input before touching anything.
	email, err := normalizeAddress(in.Email)
	if err != nil {
		return CreateUserResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return CreateUserResult{}, fmt.Errorf("%w: full name is required", ErrInvalidRequest)
	}
	if !in.Role.Valid() {
		return CreateUserResult{}, fmt.Errorf("%w: role must be admin or user", ErrInvalidRequest)
	}

	// 2. Duplicate check against the identity backend.
	if err := s.checkEmailAvailable(ctx, email); err != nil {
		return CreateUserResult{}, err
	}

	// 3. Generate the temporary password.
	tempPassword, err := cryptox.GenerateTempPassword()
	if err != nil {
		log.Error("failed to generate temporary password", slog.Any("error", err))
		return CreateUserResult{}, err
	}

	// 4. Create the backend account, pre-verified and tagged.
	opCtx, cancel := s.callContext(ctx)
	account, err := s.Identity.CreateAccount(opCtx, identity.NewAccount{
		Email:         email,
		Password:      tempPassword,
		EmailVerified: true,
		Metadata: map[string]string{
			metaCreatedByAdmin:    "true",
			metaTemporaryPassword: "true",
			metaFullName:          in.FullName,
		},
	})
	cancel()
	if err != nil {
		if errors.Is(err, identity.ErrAlreadyExists) {
			return CreateUserResult{}, ErrAlreadyRegistered
		}
		log.Error("account creation failed", slog.String("email", email), slog.Any("error", err))
		return CreateUserResult{}, fmt.Errorf("account creation failed: %w", err)
	}

	// 5. Create the profile; roll the account back if this fails.
	profile := domain.Profile{
		ID:        account.ID,
		Email:     email,
		FullName:  strings.TrimSpace(in.FullName),
		Role:      in.Role,
		Active:    true,
		InvitedBy: actor.ID,
	}
	if err := s.Store.Profiles().CreateProfile(ctx, profile); err != nil {
		s.rollbackAccount(ctx, account.ID, email)
		if errors.Is(err, store.ErrAlreadyExists) {
			return CreateUserResult{}, ErrAlreadyRegistered
		}
		log.Error("profile creation failed", slog.String("email", email), slog.Any("error", err))
		return CreateUserResult{}, fmt.Errorf("profile creation failed: %w", err)
	}

	// 6. Welcome email with credentials. Non-fatal by contract.
	emailSent := s.sendWelcome(ctx, profile, tempPassword)

	// 7. Audit the privileged action.
	appendAudit(ctx, s.Store, domain.AuditEntry{
		ActorID:      actor.ID,
		Action:       domain.AuditActionCreateUser,
		ResourceType: "user",
		ResourceID:   profile.ID,
		Details: map[string]any{
			"email":      profile.Email,
			"full_name":  profile.FullName,
			"role":       string(profile.Role),
			"email_sent": emailSent,
		},
	})

	log.Info("user provisioned",
		slog.String("user_id", profile.ID),
		slog.String("email", profile.Email),
		slog.String("role", string(profile.Role)),
		slog.String("actor_id", actor.ID),
		slog.Bool("email_sent", emailSent),
	)

	message := fmt.Sprintf("User %s created and welcome email sent to %s", profile.FullName, profile.Email)
	if !emailSent {
		message = fmt.Sprintf("User %s created but the welcome email could not be sent", profile.FullName)
	}

	return CreateUserResult{
		Profile:     profile,
		Credentials: domain.Credentials{Email: profile.Email, TemporaryPassword: tempPassword},
		EmailSent:   emailSent,
		Message:     message,
	}, nil
}

// EnsureSeedAdmin provisions the first admin on an empty database so a
// fresh deployment has someone who can pass the guard. No-op when any
// profile exists or seeding is not configured.
func (s *Provisioner) EnsureSeedAdmin(ctx context.Context, email, fullName, password string) error {
	log := slogx.FromContext(ctx)

	if email == "" || password == "" {
		return nil
	}

	empty, err := s.Store.Profiles().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	addr, err := normalizeAddress(email)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	opCtx, cancel := s.callContext(ctx)
	account, err := s.Identity.CreateAccount(opCtx, identity.NewAccount{
		Email:         addr,
		Password:      password,
		EmailVerified: true,
		Metadata:      map[string]string{metaCreatedByAdmin: "true"},
	})
	cancel()
	if err != nil && !errors.Is(err, identity.ErrAlreadyExists) {
		return fmt.Errorf("seed admin: account creation failed: %w", err)
	}
	if errors.Is(err, identity.ErrAlreadyExists) {
		opCtx, cancel := s.callContext(ctx)
		account, err = s.Identity.GetAccountByEmail(opCtx, addr)
		cancel()
		if err != nil {
			return fmt.Errorf("seed admin: account lookup failed: %w", err)
		}
	}

	profile := domain.Profile{
		ID:       account.ID,
		Email:    addr,
		FullName: fullName,
		Role:     domain.RoleAdmin,
		Active:   true,
	}
	if err := s.Store.Profiles().CreateProfile(ctx, profile); err != nil {
		return fmt.Errorf("seed admin: profile creation failed: %w", err)
	}

	log.Info("seed admin provisioned", slog.String("email", addr))
	return nil
}

// checkEmailAvailable returns ErrAlreadyRegistered when the identity
// backend already knows the email.
func (s *Provisioner) checkEmailAvailable(ctx context.Context, email string) error {
	opCtx, cancel := s.callContext(ctx)
	defer cancel()

	_, err := s.Identity.GetAccountByEmail(opCtx, email)
	if err == nil {
		return ErrAlreadyRegistered
	}
	if errors.Is(err, identity.ErrNotFound) {
		return nil
	}
	slogx.FromContext(ctx).Error("duplicate check failed", slog.Any("error", err))
	return fmt.Errorf("duplicate check failed: %w", err)
}

// rollbackAccount is the compensating action of the provisioning saga.
// Best effort: if the delete itself fails we log the orphaned account id
// so operators can reconcile, and let the original error propagate.
func (s *Provisioner) rollbackAccount(ctx context.Context, accountID, email string) {
	log := slogx.FromContext(ctx)

	opCtx, cancel := s.callContext(ctx)
	defer cancel()

	if err := s.Identity.DeleteAccount(opCtx, accountID); err != nil {
		log.Error("rollback failed, orphaned account needs manual cleanup",
			slog.String("account_id", accountID),
			slog.String("email", email),
			slog.Any("error", err),
		)
		return
	}
	log.Warn("provisioning rolled back",
		slog.String("account_id", accountID),
		slog.String("email", email),
	)
}

func (s *Provisioner) sendWelcome(ctx context.Context, profile domain.Profile, tempPassword string) bool {
	log := slogx.FromContext(ctx)

	html, err := mailer.RenderWelcome(mailer.WelcomeData{
		ProductName:       s.ProductName,
		FullName:          profile.FullName,
		Email:             profile.Email,
		Role:              string(profile.Role),
		TemporaryPassword: tempPassword,
		LoginURL:          s.BaseURL,
	})
	if err != nil {
		log.Error("failed to render welcome email", slog.Any("error", err))
		return false
	}

	opCtx, cancel := s.callContext(ctx)
	defer cancel()

	err = s.Mailer.Send(opCtx, mailer.Message{
		From:    s.EmailFrom,
		To:      []string{profile.Email},
		Subject: fmt.Sprintf("Welcome to %s - Your Account is Ready", s.ProductName),
		HTML:    html,
	})
	if err != nil {
		log.Warn("welcome email not sent", slog.String("email", profile.Email), slog.Any("error", err))
		return false
	}
	return true
}

func (s *Provisioner) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.CallTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// normalizeAddress validates the email against the standard address
// grammar and lowercases it.
func normalizeAddress(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.New("malformed email address")
	}
	return strings.ToLower(email), nil
}
