package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/identity"
	mailer "github.com/seobrand/staffdesk/internal/staffdesk/mail"
	"github.com/seobrand/staffdesk/internal/staffdesk/store"
	"github.com/seobrand/staffdesk/pkg/cryptox"
	"github.com/seobrand/staffdesk/pkg/idx"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found or expired")
	ErrInvitationPending  = errors.New("a pending invitation already exists for this email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// Invitations implements the deferred onboarding path: an admin issues a
// single-use token bound to an email and role, and the recipient later
// redeems it to create their own account. Only the token's SHA-256
// fingerprint is persisted; the raw secret lives in the invitation URL.
type Invitations struct {
	Store    store.Store
	Identity identity.Client
	Mailer   mailer.Sender

	ProductName string
	BaseURL     string
	EmailFrom   string
	InviteTTL   time.Duration
	CallTimeout time.Duration
}

type CreateInvitationResult struct {
	Invitation    domain.Invitation
	InvitationURL string
	EmailSent     bool
}

type AcceptInvitationInput struct {
	Token    string
	Password string
	FullName string
}

// CreateInvitation mints a fresh token, stores its fingerprint and
// mails the invitation link. The raw token is returned to the caller so
// the URL can be surfaced even when email delivery fails.
func (s *Invitations) CreateInvitation(
	ctx context.Context,
	actor domain.Profile,
	email string,
	role domain.Role,
) (CreateInvitationResult, error) {
	log := slogx.FromContext(ctx)

	addr, err := normalizeAddress(email)
	if err != nil {
		return CreateInvitationResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !role.Valid() {
		return CreateInvitationResult{}, fmt.Errorf("%w: role must be admin or user", ErrInvalidRequest)
	}

	// Refuse inviting someone who can already sign in.
	if err := s.checkEmailAvailable(ctx, addr); err != nil {
		return CreateInvitationResult{}, err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invitation token", slog.Any("error", err))
		return CreateInvitationResult{}, err
	}

	now := time.Now().UTC()
	inv := domain.Invitation{
		ID:        idx.New().String(),
		Email:     addr,
		Role:      role,
		TokenHash: cryptox.FingerprintToken(token),
		Status:    domain.InvitationPending,
		InvitedBy: actor.ID,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return CreateInvitationResult{}, ErrInvitationPending
		}
		log.Error("invitation insert failed", slog.String("email", addr), slog.Any("error", err))
		return CreateInvitationResult{}, fmt.Errorf("invitation insert failed: %w", err)
	}

	url := s.invitationURL(token)
	emailSent := s.sendInvitation(ctx, inv, url)

	appendAudit(ctx, s.Store, domain.AuditEntry{
		ActorID:      actor.ID,
		Action:       domain.AuditActionCreateInvitation,
		ResourceType: "invitation",
		ResourceID:   inv.ID,
		Details: map[string]any{
			"email":      inv.Email,
			"role":       string(inv.Role),
			"expires_at": inv.ExpiresAt.Format(time.RFC3339),
			"email_sent": emailSent,
		},
	})

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("email", inv.Email),
		slog.String("role", string(inv.Role)),
		slog.String("actor_id", actor.ID),
		slog.Bool("email_sent", emailSent),
	)

	return CreateInvitationResult{Invitation: inv, InvitationURL: url, EmailSent: emailSent}, nil
}

// GetByToken resolves a raw token to its pending, unexpired invitation.
// Expired, accepted and unknown tokens are indistinguishable to the
// caller.
func (s *Invitations) GetByToken(ctx context.Context, token string) (domain.Invitation, error) {
	if token == "" {
		return domain.Invitation{}, ErrInvitationNotFound
	}
	inv, err := s.Store.Invitations().GetActiveByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotFound
		}
		return domain.Invitation{}, err
	}
	return inv, nil
}

// Accept redeems a token: it creates the backend account with the
// invitee's chosen password, then inside one transaction creates the
// profile and flips the invitation to accepted. The guarded update on
// the invitation row makes double redemption lose cleanly.
func (s *Invitations) Accept(ctx context.Context, in AcceptInvitationInput) (domain.Profile, error) {
	log := slogx.FromContext(ctx)

	if len(in.Password) < 6 {
		return domain.Profile{}, ErrWeakPassword
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return domain.Profile{}, fmt.Errorf("%w: full name is required", ErrInvalidRequest)
	}

	inv, err := s.GetByToken(ctx, in.Token)
	if err != nil {
		return domain.Profile{}, err
	}

	opCtx, cancel := s.callContext(ctx)
	account, err := s.Identity.CreateAccount(opCtx, identity.NewAccount{
		Email:         inv.Email,
		Password:      in.Password,
		EmailVerified: true,
		Metadata: map[string]string{
			metaFullName:     fullName,
			metaInvitationID: inv.ID,
		},
	})
	cancel()
	if err != nil {
		if errors.Is(err, identity.ErrAlreadyExists) {
			return domain.Profile{}, ErrAlreadyRegistered
		}
		log.Error("account creation failed", slog.String("email", inv.Email), slog.Any("error", err))
		return domain.Profile{}, fmt.Errorf("account creation failed: %w", err)
	}

	profile := domain.Profile{
		ID:        account.ID,
		Email:     inv.Email,
		FullName:  fullName,
		Role:      inv.Role,
		Active:    true,
		InvitedBy: inv.InvitedBy,
	}

	// Profile insert and invitation flip commit or fail together.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Profiles().CreateProfile(ctx, profile); err != nil {
			return err
		}
		return tx.Invitations().MarkAccepted(ctx, inv.ID, account.ID)
	})
	if err != nil {
		s.rollbackAccount(ctx, account.ID, inv.Email)
		if errors.Is(err, store.ErrNotFound) {
			// Lost the race: someone redeemed the token between our
			// lookup and the commit.
			return domain.Profile{}, ErrInvitationNotFound
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Profile{}, ErrAlreadyRegistered
		}
		log.Error("invitation acceptance failed", slog.String("invitation_id", inv.ID), slog.Any("error", err))
		return domain.Profile{}, fmt.Errorf("invitation acceptance failed: %w", err)
	}

	// Welcome the new member; no credentials, they chose their password.
	s.sendAcceptedWelcome(ctx, profile)

	appendAudit(ctx, s.Store, domain.AuditEntry{
		ActorID:      account.ID,
		Action:       domain.AuditActionAcceptInvitation,
		ResourceType: "invitation",
		ResourceID:   inv.ID,
		Details: map[string]any{
			"email": inv.Email,
			"role":  string(inv.Role),
		},
	})

	log.Info("invitation accepted",
		slog.String("invitation_id", inv.ID),
		slog.String("user_id", account.ID),
		slog.String("email", inv.Email),
	)

	return profile, nil
}

// List returns invitations newest first with inviter details joined in.
func (s *Invitations) List(ctx context.Context) ([]domain.InvitationWithInviter, error) {
	return s.Store.Invitations().ListWithInviter(ctx)
}

func (s *Invitations) checkEmailAvailable(ctx context.Context, email string) error {
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

func (s *Invitations) rollbackAccount(ctx context.Context, accountID, email string) {
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
	log.Warn("invitation acceptance rolled back",
		slog.String("account_id", accountID),
		slog.String("email", email),
	)
}

func (s *Invitations) sendInvitation(ctx context.Context, inv domain.Invitation, url string) bool {
	log := slogx.FromContext(ctx)

	html, err := mailer.RenderInvitation(mailer.InvitationData{
		ProductName:   s.ProductName,
		Role:          string(inv.Role),
		InvitationURL: url,
		ExpiresInDays: int(s.ttl().Hours() / 24),
	})
	if err != nil {
		log.Error("failed to render invitation email", slog.Any("error", err))
		return false
	}

	opCtx, cancel := s.callContext(ctx)
	defer cancel()

	err = s.Mailer.Send(opCtx, mailer.Message{
		From:    s.EmailFrom,
		To:      []string{inv.Email},
		Subject: fmt.Sprintf("You're invited to join %s", s.ProductName),
		HTML:    html,
	})
	if err != nil {
		log.Warn("invitation email not sent", slog.String("email", inv.Email), slog.Any("error", err))
		return false
	}
	return true
}

func (s *Invitations) sendAcceptedWelcome(ctx context.Context, profile domain.Profile) {
	log := slogx.FromContext(ctx)

	html, err := mailer.RenderWelcome(mailer.WelcomeData{
		ProductName: s.ProductName,
		FullName:    profile.FullName,
		Email:       profile.Email,
		Role:        string(profile.Role),
		LoginURL:    s.BaseURL,
	})
	if err != nil {
		log.Error("failed to render welcome email", slog.Any("error", err))
		return
	}

	opCtx, cancel := s.callContext(ctx)
	defer cancel()

	err = s.Mailer.Send(opCtx, mailer.Message{
		From:    s.EmailFrom,
		To:      []string{profile.Email},
		Subject: fmt.Sprintf("Welcome to %s", s.ProductName),
		HTML:    html,
	})
	if err != nil {
		log.Warn("welcome email not sent", slog.String("email", profile.Email), slog.Any("error", err))
	}
}

func (s *Invitations) invitationURL(token string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/invite/" + token
}

func (s *Invitations) ttl() time.Duration {
	if s.InviteTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.InviteTTL
}

func (s *Invitations) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.CallTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
