package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"craft-beer-store/backend/internal/account/domain"
	accountrepo "craft-beer-store/backend/internal/account/repository"
	"craft-beer-store/backend/internal/security"
	"craft-beer-store/backend/internal/telemetry"
	telemetrydomain "craft-beer-store/backend/internal/telemetry/domain"
)

const (
	// TokenType is the token_type reported to clients.
	TokenType = "bearer"

	minPasswordLen = 8
	maxNameLen     = 100
	eventSource    = "auth-service"
)

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	RecordFailedLogin(ctx context.Context, email string, threshold int) (*domain.LoginState, error)
	ResetFailedLogins(ctx context.Context, email string) (bool, error)
	Unblock(ctx context.Context, email string) (bool, error)
	UnblockIfExpired(ctx context.Context, email string, blockedBefore time.Time) (bool, error)
}

// PasswordHasher hashes and checks passwords (e.g. *security.Hasher).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	// VerifyAbsent spends a full comparison for an account that does not exist.
	VerifyAbsent(password string) bool
}

// Options tune the lockout policy and store access.
type Options struct {
	// Threshold is the failed-attempt count that blocks an account. Default 3.
	Threshold int
	// LockoutDuration lets a block lapse on the next login after it has elapsed. Zero keeps blocks until an admin clears them.
	LockoutDuration time.Duration
	// StoreTimeout bounds every repository call. Default 5s.
	StoreTimeout time.Duration
	// RecheckBlocked makes Authorize reload the account and reject blocked or missing subjects.
	RecheckBlocked bool
	// ClientIP extracts the caller address recorded on auth events. Optional.
	ClientIP func(context.Context) string
	// Now is the clock. Default time.Now.
	Now func() time.Time
}

// LoginResult is a successful login: a session token and the public profile.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        domain.Profile
}

// AuthService implements registration, login with lockout, and token validation.
type AuthService struct {
	accounts AccountRepo
	hasher   PasswordHasher
	tokens   *security.TokenProvider
	events   telemetry.EventEmitter
	log      zerolog.Logger
	validate *validator.Validate
	opts     Options
}

// NewAuthService returns an AuthService with the given dependencies. events may be nil.
func NewAuthService(
	accounts AccountRepo,
	hasher PasswordHasher,
	tokens *security.TokenProvider,
	events telemetry.EventEmitter,
	log zerolog.Logger,
	opts Options,
) *AuthService {
	if opts.Threshold < 1 {
		opts.Threshold = 3
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		events:   events,
		log:      log,
		validate: validator.New(),
		opts:     opts,
	}
}

// Register creates an account with zero failed attempts. Returns the public profile.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.Profile, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	if err := s.validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	existing, err := s.getAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.opts.Now().UTC()
	acct := &domain.Account{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.withStore(ctx, func(ctx context.Context) error { return s.accounts.Create(ctx, acct) })
	if err != nil {
		if errors.Is(err, accountrepo.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, s.storeFailure("create account", err)
	}

	s.emit(ctx, telemetrydomain.EventRegistered, email, 0)
	p := acct.Profile()
	return &p, nil
}

// Login authenticates email/password. Wrong passwords are counted atomically in the
// store and block the account at the threshold; a success resets the counter.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if password == "" {
		return nil, invalid("password", "is required")
	}

	acct, err := s.getAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		s.hasher.VerifyAbsent(password)
		s.emit(ctx, telemetrydomain.EventUnknownAccount, email, 0)
		return nil, ErrAccountNotFound
	}

	if acct.Blocked {
		lapsed, err := s.liftExpiredBlock(ctx, acct)
		if err != nil {
			return nil, err
		}
		if !lapsed {
			s.emit(ctx, telemetrydomain.EventLoginRejected, email, 0)
			return nil, ErrAccountBlocked
		}
	}

	if !s.hasher.Verify(password, acct.PasswordHash) {
		return nil, s.recordFailure(ctx, email)
	}

	// Conditional on the account still being unblocked; concurrent failures may have
	// blocked it since the read, even when the counter read as zero.
	var reset bool
	err = s.withStore(ctx, func(ctx context.Context) error {
		var err error
		reset, err = s.accounts.ResetFailedLogins(ctx, email)
		return err
	})
	if err != nil {
		return nil, s.storeFailure("reset failed logins", err)
	}
	if !reset {
		s.emit(ctx, telemetrydomain.EventLoginRejected, email, 0)
		return nil, ErrAccountBlocked
	}

	token, expiresAt, err := s.tokens.Issue(email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.emit(ctx, telemetrydomain.EventLoginSucceeded, email, s.opts.Threshold)
	return &LoginResult{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresAt:   expiresAt,
		User:        acct.Profile(),
	}, nil
}

// ValidateToken returns the email a valid, unexpired token was issued for. It does not touch the store.
func (s *AuthService) ValidateToken(token string) (string, error) {
	email, err := s.tokens.Validate(token)
	if err != nil {
		return "", ErrTokenInvalid
	}
	return email, nil
}

// Authorize validates token and, when RecheckBlocked is set, rejects subjects whose
// account has since been blocked or no longer exists.
func (s *AuthService) Authorize(ctx context.Context, token string) (string, error) {
	email, err := s.ValidateToken(token)
	if err != nil {
		return "", err
	}
	if !s.opts.RecheckBlocked {
		return email, nil
	}
	acct, err := s.getAccount(ctx, email)
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", ErrTokenInvalid
	}
	if acct.Blocked && !acct.LockoutExpired(s.opts.Now(), s.opts.LockoutDuration) {
		return "", ErrAccountBlocked
	}
	return email, nil
}

// Profile returns the public profile for email.
func (s *AuthService) Profile(ctx context.Context, email string) (*domain.Profile, error) {
	acct, err := s.getAccount(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	p := acct.Profile()
	return &p, nil
}

// Unblock clears the block and failed-attempt counter for email. Admin-only; callers check policy.
func (s *AuthService) Unblock(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return invalid("email", "is required")
	}
	var ok bool
	err := s.withStore(ctx, func(ctx context.Context) error {
		var err error
		ok, err = s.accounts.Unblock(ctx, email)
		return err
	})
	if err != nil {
		return s.storeFailure("unblock account", err)
	}
	if !ok {
		return ErrAccountNotFound
	}
	s.emit(ctx, telemetrydomain.EventAccountUnblocked, email, s.opts.Threshold)
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) error {
	var st *domain.LoginState
	err := s.withStore(ctx, func(ctx context.Context) error {
		var err error
		st, err = s.accounts.RecordFailedLogin(ctx, email, s.opts.Threshold)
		return err
	})
	if err != nil {
		return s.storeFailure("record failed login", err)
	}
	if st == nil {
		return ErrAccountNotFound
	}
	remaining := s.opts.Threshold - st.Attempts
	if remaining < 0 || st.Blocked {
		remaining = 0
	}
	locked := st.Blocked && st.Attempts == s.opts.Threshold
	if locked {
		s.emit(ctx, telemetrydomain.EventAccountLocked, email, 0)
	} else {
		s.emit(ctx, telemetrydomain.EventLoginFailed, email, remaining)
	}
	return &LoginFailure{Remaining: remaining, Locked: st.Blocked}
}

// liftExpiredBlock clears a lapsed block in the store. Reports whether the account is now active.
func (s *AuthService) liftExpiredBlock(ctx context.Context, acct *domain.Account) (bool, error) {
	now := s.opts.Now().UTC()
	if !acct.LockoutExpired(now, s.opts.LockoutDuration) {
		return false, nil
	}
	var ok bool
	err := s.withStore(ctx, func(ctx context.Context) error {
		var err error
		ok, err = s.accounts.UnblockIfExpired(ctx, acct.Email, now.Add(-s.opts.LockoutDuration))
		return err
	})
	if err != nil {
		return false, s.storeFailure("lift expired block", err)
	}
	if ok {
		acct.Blocked = false
		acct.BlockedAt = nil
		acct.FailedAttempts = 0
		s.emit(ctx, telemetrydomain.EventAccountUnblocked, acct.Email, s.opts.Threshold)
	}
	return ok, nil
}

func (s *AuthService) getAccount(ctx context.Context, email string) (*domain.Account, error) {
	var acct *domain.Account
	err := s.withStore(ctx, func(ctx context.Context) error {
		var err error
		acct, err = s.accounts.GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, s.storeFailure("get account", err)
	}
	return acct, nil
}

func (s *AuthService) withStore(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *AuthService) storeFailure(op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("auth: account store call failed")
	return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
}

func (s *AuthService) validateRegistration(name, email, password string) error {
	if name == "" {
		return invalid("name", "is required")
	}
	if len(name) > maxNameLen {
		return invalid("name", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return invalid("email", "must be a valid email address")
	}
	if len(password) < minPasswordLen {
		return invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if len(password) > security.MaxPasswordBytes {
		return invalid("password", fmt.Sprintf("must be at most %d bytes", security.MaxPasswordBytes))
	}
	return nil
}

func (s *AuthService) emit(ctx context.Context, typ telemetrydomain.EventType, email string, remaining int) {
	if s.events == nil {
		return
	}
	ip := ""
	if s.opts.ClientIP != nil {
		ip = s.opts.ClientIP(ctx)
	}
	ev := &telemetrydomain.AuthEvent{
		ID:                uuid.New().String(),
		Type:              typ,
		Email:             email,
		Source:            eventSource,
		IP:                ip,
		RemainingAttempts: remaining,
		CreatedAt:         s.opts.Now().UTC(),
	}
	if err := s.events.Emit(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event_type", string(typ)).Msg("auth: emit event failed")
	}
}
