package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-accounts/internal/domain/entity"
	"storefront-accounts/internal/domain/repository"
	"storefront-accounts/pkg/helpers"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrActivationNotFound  = errors.New("invalid or expired activation token")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidResetToken   = errors.New("reset link is invalid or has expired")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAlreadyActive       = errors.New("account is already activated")
)

// Acknowledgement messages. ForgotPasswordAck is returned whether or not the
// email is registered, so the endpoint cannot be used to enumerate accounts.
const (
	RegisterAck       = "account registered; check the inbox for an activation link"
	ResendAck         = "activation link sent again"
	ForgotPasswordAck = "if the address is registered, a reset link has been sent"
	ResetAck          = "password changed successfully"
)

// Mailer dispatches lifecycle emails. Delivery is asynchronous and
// best-effort from the service's point of view.
type Mailer interface {
	SendActivationEmail(ctx context.Context, to, firstName, link string) error
	SendResetEmail(ctx context.Context, to, firstName, link string) error
}

// Service orchestrates the account lifecycle: registration, activation,
// login, token refresh and password reset.
type Service struct {
	Repo        repository.AccountRepository
	Tokens      *helpers.TokenManager
	Mail        Mailer
	Logger      *logrus.Logger
	ES          *elasticsearch.Client
	ESIndex     string
	FrontendURL string
}

func NewService(repo repository.AccountRepository, tokens *helpers.TokenManager, mail Mailer, logger *logrus.Logger, es *elasticsearch.Client, esIndex, frontendURL string) *Service {
	return &Service{
		Repo:        repo,
		Tokens:      tokens,
		Mail:        mail,
		Logger:      logger,
		ES:          es,
		ESIndex:     esIndex,
		FrontendURL: frontendURL,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	City      string
	Role      entity.Role
}

// Register creates a pending account and dispatches the activation email.
// The account has no password until the activation token is consumed.
// Email delivery failures are logged but never fail the registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	role := in.Role
	if role == "" {
		role = entity.RoleUser
	}
	if !role.Valid() {
		role = entity.RoleUser
	}

	a := &entity.Account{
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Phone:           in.Phone,
		City:            in.City,
		Role:            role,
		IsActive:        false,
		ActivationToken: uuid.NewString(),
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", ErrEmailTaken
		}
		return "", err
	}

	link := s.activationLink(a.ActivationToken)
	if err := s.Mail.SendActivationEmail(ctx, a.Email, a.FirstName, link); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("account_id", a.ID).Warn("activation email dispatch failed")
	}

	s.indexAccount(ctx, a)
	return RegisterAck, nil
}

// Activate consumes an activation token: sets the first password, marks the
// account active and clears the token so it can never be replayed.
func (s *Service) Activate(ctx context.Context, token, password string) (*entity.Account, error) {
	a, err := s.Repo.GetByActivationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActivationNotFound
		}
		return nil, err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash
	a.IsActive = true
	a.ActivationToken = ""
	if err := s.Repo.Save(ctx, a); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithField("account_id", a.ID).Info("account activated")
	}
	s.indexAccount(ctx, a)
	return a, nil
}

// Login verifies credentials and issues an access/refresh pair. The refresh
// token is persisted on the account, so a later login invalidates any
// earlier session. Unknown email, missing password and wrong password all
// collapse into the same error.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	a, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || !a.CanAuthenticate() || !helpers.CheckPassword(a.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}

	access, aexp, err := s.Tokens.GenerateAccessToken(a.ID, a.Email, a.Role.String())
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.Tokens.GenerateRefreshToken(a.ID, a.Email, a.Role.String())
	if err != nil {
		return TokenPair{}, err
	}

	a.RefreshToken = refresh
	if err := s.Repo.Save(ctx, a); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// presented token must exactly match the one stored on the account; a
// superseded token fails even when its signature is still valid. The refresh
// token itself is echoed back unrotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.Tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	a, err := s.Repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	if a.RefreshToken == "" || a.RefreshToken != refreshToken {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	access, aexp, err := s.Tokens.GenerateAccessToken(a.ID, a.Email, a.Role.String())
	if err != nil {
		return TokenPair{}, err
	}

	pair := TokenPair{
		AccessToken:       access,
		AccessTokenExpiry: aexp,
		RefreshToken:      refreshToken,
	}
	if claims.ExpiresAt != nil {
		pair.RefreshTokenExpiry = claims.ExpiresAt.Time
	}
	return pair, nil
}

// ResendActivation re-sends the activation link for a pending account. The
// existing token is reused, not rotated. Unlike ForgotPassword this fails
// loudly on an unknown email or an already-active account.
func (s *Service) ResendActivation(ctx context.Context, email string) (string, error) {
	a, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", err
	}
	if a.IsActive {
		return "", ErrAlreadyActive
	}

	link := s.activationLink(a.ActivationToken)
	if err := s.Mail.SendActivationEmail(ctx, a.Email, a.FirstName, link); err != nil {
		return "", err
	}
	return ResendAck, nil
}

// ForgotPassword mints a short-lived signed reset token and mails the reset
// link. The acknowledgement is identical whether or not the email exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	a, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ForgotPasswordAck, nil
		}
		return "", err
	}

	token, _, err := s.Tokens.GenerateResetToken(a.ID)
	if err != nil {
		return "", err
	}
	link := s.resetLink(token)
	if err := s.Mail.SendResetEmail(ctx, a.Email, a.FirstName, link); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("account_id", a.ID).Warn("reset email dispatch failed")
	}
	return ForgotPasswordAck, nil
}

// ResetPassword verifies the signed reset token and replaces the password.
// The stored refresh token is deliberately left untouched; invalidating the
// live session here would be a behavior change, tracked as a hardening idea.
func (s *Service) ResetPassword(ctx context.Context, token, password string) (string, error) {
	claims, err := s.Tokens.ParseResetToken(token)
	if err != nil {
		return "", ErrInvalidResetToken
	}

	a, err := s.Repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return "", ErrInvalidResetToken
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return "", err
	}
	a.PasswordHash = hash
	if err := s.Repo.Save(ctx, a); err != nil {
		return "", err
	}

	if s.Logger != nil {
		s.Logger.WithField("account_id", a.ID).Info("password reset")
	}
	return ResetAck, nil
}

// GetProfile returns the account for a verified access token's subject.
func (s *Service) GetProfile(ctx context.Context, accountID string) (*entity.Account, error) {
	a, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) activationLink(token string) string {
	return strings.TrimRight(s.FrontendURL, "/") + "/activate/" + token
}

func (s *Service) resetLink(token string) string {
	return strings.TrimRight(s.FrontendURL, "/") + "/auth/reset-password/" + token
}
