package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-accounts/internal/application"
	"storefront-accounts/internal/domain/entity"
	"storefront-accounts/internal/domain/repository"
	"storefront-accounts/pkg/helpers"
)

// memRepo is an in-memory AccountRepository enforcing email uniqueness the
// way the real store does.
type memRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.Account
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]*entity.Account{}}
}

func (r *memRepo) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(a.Email)
	for _, other := range r.byID {
		if other.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	a.ID = uuid.NewString()
	a.Email = email
	a.CreatedAt = time.Now()
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, a := range r.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) GetByActivationToken(_ context.Context, token string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == "" {
		return nil, repository.ErrNotFound
	}
	for _, a := range r.byID {
		if a.ActivationToken == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) Save(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; !ok {
		return repository.ErrNotFound
	}
	email := strings.ToLower(a.Email)
	for id, other := range r.byID {
		if id != a.ID && other.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *a
	cp.Email = email
	r.byID[a.ID] = &cp
	return nil
}

func (r *memRepo) List(_ context.Context, _ repository.ListFilter) ([]*entity.Account, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Account, 0, len(r.byID))
	for _, a := range r.byID {
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type sentMail struct {
	To, FirstName, Link string
}

// recordingMailer captures dispatched emails; failNext simulates a broker
// outage for the next dispatch.
type recordingMailer struct {
	mu          sync.Mutex
	activations []sentMail
	resets      []sentMail
	failNext    error
}

func (m *recordingMailer) SendActivationEmail(_ context.Context, to, firstName, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.activations = append(m.activations, sentMail{to, firstName, link})
	return nil
}

func (m *recordingMailer) SendResetEmail(_ context.Context, to, firstName, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.resets = append(m.resets, sentMail{to, firstName, link})
	return nil
}

func (m *recordingMailer) lastActivation(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.activations, "no activation email sent")
	return m.activations[len(m.activations)-1]
}

func (m *recordingMailer) lastReset(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.resets, "no reset email sent")
	return m.resets[len(m.resets)-1]
}

func newTestTokens() *helpers.TokenManager {
	return helpers.NewTokenManager(
		"test-access-secret", "test-refresh-secret", "test-reset-secret",
		time.Minute, time.Hour, time.Minute,
	)
}

func newTestService(t *testing.T) (*application.Service, *memRepo, *recordingMailer) {
	t.Helper()
	repo := newMemRepo()
	mail := &recordingMailer{}
	svc := application.NewService(repo, newTestTokens(), mail, nil, nil, "", "http://shop.test")
	return svc, repo, mail
}

func register(t *testing.T, svc *application.Service, email string) {
	t.Helper()
	_, err := svc.Register(context.Background(), application.RegisterInput{
		FirstName: "Anna",
		LastName:  "K",
		Email:     email,
		Phone:     "+79990001122",
	})
	require.NoError(t, err)
}

// linkToken extracts the trailing token from an emailed link.
func linkToken(link string) string {
	parts := strings.Split(link, "/")
	return parts[len(parts)-1]
}

func TestRegisterCreatesPendingAccount(t *testing.T) {
	svc, repo, mail := newTestService(t)
	ctx := context.Background()

	msg, err := svc.Register(ctx, application.RegisterInput{
		FirstName: "Anna", LastName: "K", Email: "Anna@X.com", Phone: "+79990001122",
	})
	require.NoError(t, err)
	assert.Equal(t, application.RegisterAck, msg)

	a, err := repo.GetByEmail(ctx, "anna@x.com")
	require.NoError(t, err)
	assert.False(t, a.IsActive)
	assert.Empty(t, a.PasswordHash)
	assert.NotEmpty(t, a.ActivationToken)
	assert.Equal(t, entity.RoleUser, a.Role)

	sent := mail.lastActivation(t)
	assert.Equal(t, "anna@x.com", sent.To)
	assert.Contains(t, sent.Link, a.ActivationToken)

	// a pending account can never log in
	_, err = svc.Login(ctx, "anna@x.com", "anything")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	register(t, svc, "dup@x.com")
	_, err := svc.Register(ctx, application.RegisterInput{
		FirstName: "Other", LastName: "User", Email: "DUP@x.com",
	})
	assert.ErrorIs(t, err, application.ErrEmailTaken)
	assert.Equal(t, 1, repo.count())
}

func TestRegisterSurvivesMailOutage(t *testing.T) {
	svc, repo, mail := newTestService(t)
	mail.failNext = errors.New("broker down")

	register(t, svc, "offline@x.com")
	_, err := repo.GetByEmail(context.Background(), "offline@x.com")
	assert.NoError(t, err)
}

func TestActivationTokenIsSingleUse(t *testing.T) {
	svc, repo, mail := newTestService(t)
	ctx := context.Background()

	register(t, svc, "anna@x.com")
	token := linkToken(mail.lastActivation(t).Link)

	a, err := svc.Activate(ctx, token, "newpw1")
	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.NotEmpty(t, a.PasswordHash)
	assert.Empty(t, a.ActivationToken)

	stored, err := repo.GetByEmail(ctx, "anna@x.com")
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Empty(t, stored.ActivationToken)

	// replaying the consumed token must fail
	_, err = svc.Activate(ctx, token, "anotherpw")
	assert.ErrorIs(t, err, application.ErrActivationNotFound)
}

func TestActivateUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Activate(context.Background(), "never-issued", "pw123456")
	assert.ErrorIs(t, err, application.ErrActivationNotFound)
}

func activateAndLogin(t *testing.T, svc *application.Service, mail *recordingMailer, email, password string) application.TokenPair {
	t.Helper()
	ctx := context.Background()
	register(t, svc, email)
	_, err := svc.Activate(ctx, linkToken(mail.lastActivation(t).Link), password)
	require.NoError(t, err)
	pair, err := svc.Login(ctx, email, password)
	require.NoError(t, err)
	return pair
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, repo, mail := newTestService(t)
	ctx := context.Background()

	pair := activateAndLogin(t, svc, mail, "anna@x.com", "newpw1")
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	a, err := repo.GetByEmail(ctx, "anna@x.com")
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, a.RefreshToken)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	// no rotation: the same refresh token is echoed back
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
}

func TestLoginFailuresShareOneShape(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	// pending account with no password
	register(t, svc, "pending@x.com")
	_, errPending := svc.Login(ctx, "pending@x.com", "whatever")

	// active account, wrong password
	activateAndLogin(t, svc, mail, "active@x.com", "rightpw1")
	_, errWrongPw := svc.Login(ctx, "active@x.com", "wrongpw1")

	// unknown email
	_, errUnknown := svc.Login(ctx, "ghost@x.com", "whatever")

	assert.ErrorIs(t, errPending, application.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, application.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, application.ErrInvalidCredentials)
}

func TestSupersededRefreshTokenRejected(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	first := activateAndLogin(t, svc, mail, "anna@x.com", "newpw1")
	second, err := svc.Login(ctx, "anna@x.com", "newpw1")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// the earlier session was overwritten by the second login
	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, application.ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsGarbageAndOrphans(t *testing.T) {
	svc, repo, mail := newTestService(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, application.ErrInvalidRefreshToken)

	// validly signed token whose account has since been deleted
	pair := activateAndLogin(t, svc, mail, "gone@x.com", "newpw1")
	a, err := repo.GetByEmail(ctx, "gone@x.com")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, a.ID))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, application.ErrInvalidRefreshToken)
}

func TestForgotPasswordAckNeverLeaksExistence(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	activateAndLogin(t, svc, mail, "known@x.com", "newpw1")

	msgKnown, err := svc.ForgotPassword(ctx, "known@x.com")
	require.NoError(t, err)
	msgUnknown, err := svc.ForgotPassword(ctx, "ghost@x.com")
	require.NoError(t, err)

	assert.Equal(t, msgKnown, msgUnknown)
	assert.Equal(t, application.ForgotPasswordAck, msgKnown)
	assert.Len(t, mail.resets, 1, "reset email only goes to the existing account")
}

func TestResetPasswordRoundTrip(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	activateAndLogin(t, svc, mail, "anna@x.com", "oldpw123")

	_, err := svc.ForgotPassword(ctx, "anna@x.com")
	require.NoError(t, err)
	token := linkToken(mail.lastReset(t).Link)

	msg, err := svc.ResetPassword(ctx, token, "newpw456")
	require.NoError(t, err)
	assert.Equal(t, application.ResetAck, msg)

	_, err = svc.Login(ctx, "anna@x.com", "newpw456")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "anna@x.com", "oldpw123")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	repo := newMemRepo()
	mail := &recordingMailer{}
	// reset tokens expire in the past
	tokens := helpers.NewTokenManager(
		"test-access-secret", "test-refresh-secret", "test-reset-secret",
		time.Minute, time.Hour, -time.Minute,
	)
	svc := application.NewService(repo, tokens, mail, nil, nil, "", "http://shop.test")
	ctx := context.Background()

	register(t, svc, "anna@x.com")
	_, err := svc.Activate(ctx, linkToken(mail.lastActivation(t).Link), "oldpw123")
	require.NoError(t, err)

	_, err = svc.ForgotPassword(ctx, "anna@x.com")
	require.NoError(t, err)
	token := linkToken(mail.lastReset(t).Link)

	_, err = svc.ResetPassword(ctx, token, "newpw456")
	assert.ErrorIs(t, err, application.ErrInvalidResetToken)
}

func TestResetPasswordTamperedToken(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	activateAndLogin(t, svc, mail, "anna@x.com", "oldpw123")
	_, err := svc.ForgotPassword(ctx, "anna@x.com")
	require.NoError(t, err)
	token := linkToken(mail.lastReset(t).Link)

	_, err = svc.ResetPassword(ctx, token+"x", "newpw456")
	assert.ErrorIs(t, err, application.ErrInvalidResetToken)
}

func TestResendActivation(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	_, err := svc.ResendActivation(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, application.ErrAccountNotFound)

	register(t, svc, "anna@x.com")
	firstLink := mail.lastActivation(t).Link

	msg, err := svc.ResendActivation(ctx, "anna@x.com")
	require.NoError(t, err)
	assert.Equal(t, application.ResendAck, msg)
	// the token is reused, not rotated
	assert.Equal(t, firstLink, mail.lastActivation(t).Link)

	_, err = svc.Activate(ctx, linkToken(firstLink), "newpw1")
	require.NoError(t, err)
	_, err = svc.ResendActivation(ctx, "anna@x.com")
	assert.ErrorIs(t, err, application.ErrAlreadyActive)
}

func TestGetProfile(t *testing.T) {
	svc, repo, mail := newTestService(t)
	ctx := context.Background()

	activateAndLogin(t, svc, mail, "anna@x.com", "newpw1")
	stored, err := repo.GetByEmail(ctx, "anna@x.com")
	require.NoError(t, err)

	a, err := svc.GetProfile(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna@x.com", a.Email)
	assert.Equal(t, "Anna", a.FirstName)

	_, err = svc.GetProfile(ctx, uuid.NewString())
	assert.ErrorIs(t, err, application.ErrAccountNotFound)
}

// Full walk through the lifecycle: register -> activate -> login -> refresh.
func TestLifecycleEndToEnd(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, application.RegisterInput{
		FirstName: "Anna", LastName: "K", Email: "anna@x.com", Phone: "+79990001122",
	})
	require.NoError(t, err)

	pending, err := repo.GetByEmail(ctx, "anna@x.com")
	require.NoError(t, err)
	require.False(t, pending.IsActive)
	require.NotEmpty(t, pending.ActivationToken)

	_, err = svc.Activate(ctx, pending.ActivationToken, "newpw1")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "anna@x.com", "newpw1")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
}
