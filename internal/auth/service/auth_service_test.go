package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craft-beer-store/backend/internal/account/domain"
	accountrepo "craft-beer-store/backend/internal/account/repository"
	"craft-beer-store/backend/internal/security"
	telemetrydomain "craft-beer-store/backend/internal/telemetry/domain"
)

// recordingEmitter collects emitted auth events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []telemetrydomain.AuthEvent
}

func (r *recordingEmitter) Emit(_ context.Context, ev *telemetrydomain.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *recordingEmitter) types() []telemetrydomain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]telemetrydomain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// faultyRepo wraps a repository and fails selected operations.
type faultyRepo struct {
	AccountRepo
	getErr    error
	recordErr error
	resetErr  error
	createErr error
	resetFail bool
	delay     time.Duration
}

func (f *faultyRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.AccountRepo.GetByEmail(ctx, email)
}

func (f *faultyRepo) Create(ctx context.Context, a *domain.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.AccountRepo.Create(ctx, a)
}

func (f *faultyRepo) RecordFailedLogin(ctx context.Context, email string, threshold int) (*domain.LoginState, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return f.AccountRepo.RecordFailedLogin(ctx, email, threshold)
}

func (f *faultyRepo) ResetFailedLogins(ctx context.Context, email string) (bool, error) {
	if f.resetErr != nil {
		return false, f.resetErr
	}
	if f.resetFail {
		return false, nil
	}
	return f.AccountRepo.ResetFailedLogins(ctx, email)
}

type fixture struct {
	svc    *AuthService
	repo   *accountrepo.MemoryRepository
	tokens *security.TokenProvider
	events *recordingEmitter
	now    *time.Time
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens, err := security.NewTokenProvider([]byte("test-secret"), "craftbeer-auth", "craftbeer-api", 60*time.Minute)
	require.NoError(t, err)
	tokens = tokens.WithClock(clock)

	opts := Options{Threshold: 3, StoreTimeout: time.Second, RecheckBlocked: true, Now: clock}
	if mutate != nil {
		mutate(&opts)
	}
	repo := accountrepo.NewMemoryRepository()
	events := &recordingEmitter{}
	f := &fixture{repo: repo, tokens: tokens, events: events, now: &now}
	f.svc = NewAuthService(repo, security.NewHasher(4), tokens, events, zerolog.Nop(), opts)
	return f
}

func (f *fixture) register(t *testing.T, email, password string) {
	t.Helper()
	_, err := f.svc.Register(context.Background(), "Juan", email, password)
	require.NoError(t, err)
}

func (f *fixture) account(t *testing.T, email string) *domain.Account {
	t.Helper()
	a, err := f.repo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t, nil)
	p, err := f.svc.Register(context.Background(), " Juan ", "Juan@Example.com", "secreto123")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Juan", p.Name)
	assert.Equal(t, "juan@example.com", p.Email)

	a := f.account(t, "juan@example.com")
	assert.NotEqual(t, "secreto123", a.PasswordHash)
	assert.True(t, security.NewHasher(4).Verify("secreto123", a.PasswordHash))
	assert.Zero(t, a.FailedAttempts)
	assert.False(t, a.Blocked)
	assert.Equal(t, []telemetrydomain.EventType{telemetrydomain.EventRegistered}, f.events.types())
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	first := f.account(t, "juan@example.com")

	_, err := f.svc.Register(context.Background(), "Otro", "JUAN@example.com", "otraclave99")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	after := f.account(t, "juan@example.com")
	assert.Equal(t, first.ID, after.ID)
	assert.Equal(t, first.PasswordHash, after.PasswordHash)
}

func TestRegister_DuplicateRaceAtInsert(t *testing.T) {
	f := newFixture(t, nil)
	repo := &faultyRepo{AccountRepo: f.repo, createErr: accountrepo.ErrDuplicateEmail}
	svc := NewAuthService(repo, security.NewHasher(4), f.tokens, nil, zerolog.Nop(), Options{})

	_, err := svc.Register(context.Background(), "Juan", "juan@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name, user, email, password, field string
	}{
		{"empty name", "  ", "juan@example.com", "secreto123", "name"},
		{"long name", strings.Repeat("n", 101), "juan@example.com", "secreto123", "name"},
		{"empty email", "Juan", "", "secreto123", "email"},
		{"bad email", "Juan", "juan-at-example", "secreto123", "email"},
		{"short password", "Juan", "juan@example.com", "corta", "password"},
		{"long password", "Juan", "juan@example.com", strings.Repeat("p", 73), "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := f.svc.Register(context.Background(), tt.user, tt.email, tt.password)
			require.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")

	res, err := f.svc.Login(context.Background(), "JUAN@example.com ", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, "juan@example.com", res.User.Email)
	assert.Equal(t, f.now.Add(60*time.Minute), res.ExpiresAt)

	email, err := f.svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "juan@example.com", email)
}

func TestLogin_UnknownAccount(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Login(context.Background(), "ghost@example.com", "whatever1")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, []telemetrydomain.EventType{telemetrydomain.EventUnknownAccount}, f.events.types())
}

func TestLogin_EmptyInput(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Login(context.Background(), "", "secreto123")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Login(context.Background(), "juan@example.com", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_ThreeFailuresBlock(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		_, err := f.svc.Login(ctx, "juan@example.com", "wrong-pass")
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i+1)
		var lf *LoginFailure
		require.ErrorAs(t, err, &lf)
		assert.Equal(t, wantRemaining, lf.Remaining)
		assert.Equal(t, wantRemaining == 0, lf.Locked)
	}

	a := f.account(t, "juan@example.com")
	assert.Equal(t, 3, a.FailedAttempts)
	assert.True(t, a.Blocked)

	_, err := f.svc.Login(ctx, "juan@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrAccountBlocked, "correct password on a blocked account")

	assert.Equal(t, 3, f.account(t, "juan@example.com").FailedAttempts, "blocked rejections are not counted")
	assert.Equal(t, []telemetrydomain.EventType{
		telemetrydomain.EventRegistered,
		telemetrydomain.EventLoginFailed,
		telemetrydomain.EventLoginFailed,
		telemetrydomain.EventAccountLocked,
		telemetrydomain.EventLoginRejected,
	}, f.events.types())
}

func TestLogin_SuccessResetsCounter(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(ctx, "juan@example.com", "wrong-pass")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := f.svc.Login(ctx, "juan@example.com", "secreto123")
	require.NoError(t, err)
	assert.Zero(t, f.account(t, "juan@example.com").FailedAttempts)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(ctx, "juan@example.com", "wrong-pass")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	a := f.account(t, "juan@example.com")
	assert.Equal(t, 2, a.FailedAttempts)
	assert.False(t, a.Blocked)
}

func TestLogin_ConcurrentFailuresBlock(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _ = f.svc.Login(ctx, "juan@example.com", "wrong-pass")
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Login(ctx, "juan@example.com", "also-wrong")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.True(t, errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountBlocked), "got %v", err)
	}
	a := f.account(t, "juan@example.com")
	assert.GreaterOrEqual(t, a.FailedAttempts, 3)
	assert.True(t, a.Blocked)
}

func TestLogin_ResetLosesRaceToBlock(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	_, _ = f.svc.Login(context.Background(), "juan@example.com", "wrong-pass")

	repo := &faultyRepo{AccountRepo: f.repo, resetFail: true}
	svc := NewAuthService(repo, security.NewHasher(4), f.tokens, nil, zerolog.Nop(), Options{Threshold: 3})
	_, err := svc.Login(context.Background(), "juan@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

// blockingReadRepo blocks the account right after handing out a clean snapshot,
// as failures from other requests would.
type blockingReadRepo struct {
	AccountRepo
	threshold int
}

func (r *blockingReadRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	a, err := r.AccountRepo.GetByEmail(ctx, email)
	if err != nil || a == nil {
		return a, err
	}
	for i := 0; i < r.threshold; i++ {
		if _, err := r.AccountRepo.RecordFailedLogin(ctx, email, r.threshold); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func TestLogin_BlockedAfterCleanRead(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	require.Zero(t, f.account(t, "juan@example.com").FailedAttempts)

	repo := &blockingReadRepo{AccountRepo: f.repo, threshold: 3}
	svc := NewAuthService(repo, security.NewHasher(4), f.tokens, nil, zerolog.Nop(), Options{Threshold: 3})
	res, err := svc.Login(context.Background(), "juan@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrAccountBlocked)
	assert.Nil(t, res, "no token for an account blocked mid-login")
	assert.True(t, f.account(t, "juan@example.com").Blocked)
}

// countingHasher records how often each comparison runs.
type countingHasher struct {
	*security.Hasher
	mu             sync.Mutex
	verify, absent int
}

func (c *countingHasher) Verify(password, hash string) bool {
	c.mu.Lock()
	c.verify++
	c.mu.Unlock()
	return c.Hasher.Verify(password, hash)
}

func (c *countingHasher) VerifyAbsent(password string) bool {
	c.mu.Lock()
	c.absent++
	c.mu.Unlock()
	return c.Hasher.VerifyAbsent(password)
}

func TestLogin_UnknownEmailStillHashes(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	h := &countingHasher{Hasher: security.NewHasher(4)}
	svc := NewAuthService(f.repo, h, f.tokens, nil, zerolog.Nop(), Options{Threshold: 3})

	_, err := svc.Login(context.Background(), "ghost@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, 1, h.absent)
	assert.Zero(t, h.verify)

	_, err = svc.Login(context.Background(), "juan@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, h.absent)
	assert.Equal(t, 1, h.verify)
}

func TestLogin_StoreFailures(t *testing.T) {
	boom := errors.New("connection refused")
	tests := []struct {
		name string
		repo func(AccountRepo) *faultyRepo
		pass string
		prep int
	}{
		{"lookup", func(r AccountRepo) *faultyRepo { return &faultyRepo{AccountRepo: r, getErr: boom} }, "secreto123", 0},
		{"record failure", func(r AccountRepo) *faultyRepo { return &faultyRepo{AccountRepo: r, recordErr: boom} }, "wrong-pass", 0},
		{"reset", func(r AccountRepo) *faultyRepo { return &faultyRepo{AccountRepo: r, resetErr: boom} }, "secreto123", 1},
		{"reset with clean counter", func(r AccountRepo) *faultyRepo { return &faultyRepo{AccountRepo: r, resetErr: boom} }, "secreto123", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.register(t, "juan@example.com", "secreto123")
			for i := 0; i < tt.prep; i++ {
				_, _ = f.svc.Login(context.Background(), "juan@example.com", "wrong-pass")
			}
			svc := NewAuthService(tt.repo(f.repo), security.NewHasher(4), f.tokens, nil, zerolog.Nop(), Options{Threshold: 3})
			_, err := svc.Login(context.Background(), "juan@example.com", tt.pass)
			assert.ErrorIs(t, err, ErrStoreUnavailable)
			assert.NotErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLogin_StoreTimeout(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	repo := &faultyRepo{AccountRepo: f.repo, delay: 2 * time.Second}
	svc := NewAuthService(repo, security.NewHasher(4), f.tokens, nil, zerolog.Nop(), Options{StoreTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := svc.Login(context.Background(), "juan@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLogin_LockoutExpiry(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.LockoutDuration = 15 * time.Minute })
	f.register(t, "juan@example.com", "secreto123")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(ctx, "juan@example.com", "wrong-pass")
	}
	require.True(t, f.account(t, "juan@example.com").Blocked)

	*f.now = f.now.Add(10 * time.Minute)
	_, err := f.svc.Login(ctx, "juan@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrAccountBlocked)

	*f.now = f.now.Add(5 * time.Minute)
	_, err = f.svc.Login(ctx, "juan@example.com", "secreto123")
	require.NoError(t, err)
	a := f.account(t, "juan@example.com")
	assert.False(t, a.Blocked)
	assert.Zero(t, a.FailedAttempts)
}

func TestLogin_NoLockoutExpiryByDefault(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(context.Background(), "juan@example.com", "wrong-pass")
	}
	*f.now = f.now.Add(30 * 24 * time.Hour)
	_, err := f.svc.Login(context.Background(), "juan@example.com", "secreto123")
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	res, err := f.svc.Login(context.Background(), "juan@example.com", "secreto123")
	require.NoError(t, err)

	email, err := f.svc.Authorize(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "juan@example.com", email)

	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(context.Background(), "juan@example.com", "wrong-pass")
	}
	_, err = f.svc.Authorize(context.Background(), res.AccessToken)
	assert.ErrorIs(t, err, ErrAccountBlocked, "token issued before the block")

	email, err = f.svc.ValidateToken(res.AccessToken)
	require.NoError(t, err, "pure validation ignores the store")
	assert.Equal(t, "juan@example.com", email)

	_, err = f.svc.Authorize(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthorize_WithoutRecheck(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.RecheckBlocked = false })
	token, _, err := f.tokens.Issue("nobody@example.com")
	require.NoError(t, err)

	email, err := f.svc.Authorize(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "nobody@example.com", email)
}

func TestAuthorize_DeletedAccount(t *testing.T) {
	f := newFixture(t, nil)
	token, _, err := f.tokens.Issue("nobody@example.com")
	require.NoError(t, err)
	_, err = f.svc.Authorize(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateToken_Expired(t *testing.T) {
	f := newFixture(t, nil)
	token, _, err := f.tokens.Issue("juan@example.com")
	require.NoError(t, err)
	*f.now = f.now.Add(61 * time.Minute)
	_, err = f.svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestUnblock(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(context.Background(), "juan@example.com", "wrong-pass")
	}

	require.NoError(t, f.svc.Unblock(context.Background(), "Juan@Example.com"))
	a := f.account(t, "juan@example.com")
	assert.False(t, a.Blocked)
	assert.Zero(t, a.FailedAttempts)

	_, err := f.svc.Login(context.Background(), "juan@example.com", "secreto123")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.Unblock(context.Background(), "ghost@example.com"), ErrAccountNotFound)
	assert.ErrorIs(t, f.svc.Unblock(context.Background(), " "), ErrValidation)
}

func TestProfile(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "juan@example.com", "secreto123")
	p, err := f.svc.Profile(context.Background(), "juan@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Juan", p.Name)

	_, err = f.svc.Profile(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestEvents_CarryClientIP(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.ClientIP = func(context.Context) string { return "198.51.100.4" }
	})
	f.register(t, "juan@example.com", "secreto123")
	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, "198.51.100.4", ev.IP)
	assert.Equal(t, "juan@example.com", ev.Email)
	assert.Equal(t, "auth-service", ev.Source)
	assert.NotEmpty(t, ev.ID)
}
