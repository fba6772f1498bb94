package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"netchi-api-go/internal/models"
	"netchi-api-go/internal/otp"
	"netchi-api-go/internal/sms"
	"netchi-api-go/internal/store"
	"netchi-api-go/internal/token"
)

type Options struct {
	OTPTTL            time.Duration
	MaxAttempts       int
	PasswordMinLength int
	// EchoCode returns the plaintext code in Challenge.Code.
	EchoCode bool
}

// DefaultOptions mirrors the production deployment.
func DefaultOptions() Options {
	return Options{OTPTTL: 5 * time.Minute, MaxAttempts: 3, PasswordMinLength: 6, EchoCode: true}
}

// Session is the result of a successful authentication.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Challenge acknowledges an issued code. Code is empty unless echoing is on.
type Challenge struct {
	PhoneNumber string
	Code        string
	ExpiresIn   time.Duration
}

// LoginResult carries exactly one of Session or Challenge.
type LoginResult struct {
	Session   *Session
	Challenge *Challenge
}

type RegisterInput struct {
	Username    string
	PhoneNumber string
	Password    string
}

// Service is the only writer of the verification-code fields of a user.
type Service struct {
	users      store.UserStore
	tokens     *token.Issuer
	sender     sms.Sender
	log        *zap.Logger
	opts       Options
	now        func() time.Time
	random     io.Reader
	bcryptCost int
}

func NewService(users store.UserStore, tokens *token.Issuer, sender sms.Sender, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		sender:     sender,
		log:        log,
		opts:       opts,
		now:        time.Now,
		random:     rand.Reader,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithRandom(r io.Reader) *Service {
	s.random = r
	return s
}

func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

// Login dispatches on the credential kind.
func (s *Service) Login(ctx context.Context, cred Credential) (*LoginResult, error) {
	switch c := cred.(type) {
	case PasswordCredential:
		sess, err := s.PasswordLogin(ctx, c)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Session: sess}, nil
	case OTPCredential:
		ch, err := s.RequestOTP(ctx, c.Phone)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Challenge: ch}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported credential %T", ErrValidation, cred)
	}
}

func (s *Service) PasswordLogin(ctx context.Context, c PasswordCredential) (*Session, error) {
	id := strings.TrimSpace(c.Identifier)
	if id == "" || strings.TrimSpace(c.Password) == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", ErrValidation)
	}

	var (
		found store.Lookup
		err   error
	)
	if c.Kind == ByPhone {
		found, err = s.users.FindByPhone(ctx, id)
	} else {
		found, err = s.users.FindByUsername(ctx, id)
	}
	if err != nil {
		return nil, internalErr("find user", err)
	}
	if !found.Found {
		s.log.Warn("login with unknown identifier", zap.Stringer("kind", c.Kind), zap.String("identifier", id))
		return nil, ErrInvalidCredentials
	}

	u := found.User
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)) != nil {
		s.log.Warn("failed login attempt", zap.String("username", u.UserName))
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.log.Warn("login attempt on inactive user", zap.String("username", u.UserName))
		return nil, ErrAccountInactive
	}

	u, err = s.users.UpdateByID(ctx, u.ID, func(u *models.User) error {
		now := s.now().UTC()
		u.LastLoginAt = &now
		return nil
	})
	if err != nil {
		return nil, internalErr("record login", err)
	}

	sess, err := s.session(u)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", zap.String("username", u.UserName))
	return sess, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := strings.TrimSpace(in.Username)
	phone := strings.TrimSpace(in.PhoneNumber)
	if username == "" || phone == "" || strings.TrimSpace(in.Password) == "" {
		return nil, fmt.Errorf("%w: username, phone number and password are required", ErrValidation)
	}
	if len(in.Password) < s.opts.PasswordMinLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, s.opts.PasswordMinLength)
	}

	byName, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, internalErr("find username", err)
	}
	if byName.Found {
		return nil, fmt.Errorf("%w: username is taken", ErrConflict)
	}
	byPhone, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, internalErr("find phone", err)
	}
	if byPhone.Found {
		return nil, fmt.Errorf("%w: phone number is taken", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, internalErr("hash password", err)
	}

	u := &models.User{
		ID:           uuid.New(),
		UserName:     username,
		PhoneNumber:  &phone,
		PasswordHash: string(hash),
		Type:         models.UserTypeCustomer,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: username or phone number is taken", ErrConflict)
		}
		return nil, internalErr("create user", err)
	}

	sess, err := s.session(u)
	if err != nil {
		return nil, err
	}
	s.log.Info("new user registered", zap.String("username", u.UserName))
	return sess, nil
}

// RequestOTP issues a fresh code for phone, replacing any pending one. An
// unknown phone gets an inactive placeholder account.
func (s *Service) RequestOTP(ctx context.Context, phone string) (*Challenge, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone number is required", ErrValidation)
	}

	code, err := otp.GenerateCode(s.random)
	if err != nil {
		return nil, internalErr("generate code", err)
	}
	digest := otp.HashCode(code)
	expiry := s.now().UTC().Add(s.opts.OTPTTL)
	issue := func(u *models.User) error {
		d, e := digest, expiry
		u.VerificationCodeHash = &d
		u.VerificationCodeExpiry = &e
		u.VerificationCodeAttempts = 0
		return nil
	}

	_, err = s.users.UpdateByPhone(ctx, phone, issue)
	if errors.Is(err, store.ErrNotFound) {
		err = s.createPlaceholder(ctx, phone, issue)
		if errors.Is(err, store.ErrConflict) {
			// Lost a race with a concurrent request for the same phone.
			_, err = s.users.UpdateByPhone(ctx, phone, issue)
		}
	}
	if err != nil {
		s.log.Error("request otp failed", zap.String("phone", phone), zap.Error(err))
		return nil, internalErr("store code", err)
	}

	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		s.log.Error("send otp failed", zap.String("phone", phone), zap.Error(err))
		return nil, internalErr("send code", err)
	}

	s.log.Info("otp requested", zap.String("phone", phone))
	ch := &Challenge{PhoneNumber: phone, ExpiresIn: s.opts.OTPTTL}
	if s.opts.EchoCode {
		ch.Code = code
	}
	return ch, nil
}

func (s *Service) createPlaceholder(ctx context.Context, phone string, issue store.Mutator) error {
	p := phone
	u := &models.User{
		ID:          uuid.New(),
		UserName:    "user_" + uuid.NewString()[:8],
		PhoneNumber: &p,
		Type:        models.UserTypeCustomer,
		CreatedAt:   s.now().UTC(),
	}
	_ = issue(u)
	return s.users.Create(ctx, u)
}

// VerifyOTP checks candidate against the pending code for phone. Expiry and
// the attempt limit are evaluated first and never consume an attempt.
func (s *Service) VerifyOTP(ctx context.Context, phone, candidate string) (*Session, error) {
	phone = strings.TrimSpace(phone)
	candidate = strings.TrimSpace(candidate)
	if phone == "" || candidate == "" {
		return nil, fmt.Errorf("%w: phone number and verification code are required", ErrValidation)
	}

	var rejected error
	u, err := s.users.UpdateByPhone(ctx, phone, func(u *models.User) error {
		now := s.now().UTC()
		if !u.HasPendingCode() || now.After(*u.VerificationCodeExpiry) {
			return ErrOTPExpired
		}
		if u.VerificationCodeAttempts >= s.opts.MaxAttempts {
			return ErrAttemptsExceeded
		}
		if !otp.VerifyCode(candidate, *u.VerificationCodeHash) {
			u.VerificationCodeAttempts++
			rejected = ErrInvalidCode
			// The miss that reaches the limit already reports the lockout.
			if u.VerificationCodeAttempts >= s.opts.MaxAttempts {
				rejected = ErrAttemptsExceeded
			}
			return nil
		}
		u.IsPhoneVerified = true
		u.IsActive = true
		u.LastLoginAt = &now
		u.ClearVerificationCode()
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, ErrOTPExpired), errors.Is(err, ErrAttemptsExceeded):
		s.log.Warn("otp rejected", zap.String("phone", phone), zap.Error(err))
		return nil, err
	case err != nil:
		s.log.Error("verify otp failed", zap.String("phone", phone), zap.Error(err))
		return nil, internalErr("verify code", err)
	}
	if rejected != nil {
		s.log.Warn("wrong otp submitted", zap.String("phone", phone), zap.Int("attempts", u.VerificationCodeAttempts))
		return nil, rejected
	}

	sess, err := s.session(u)
	if err != nil {
		return nil, err
	}
	s.log.Info("otp verified", zap.String("phone", phone))
	return sess, nil
}

// CurrentUser loads the user a token was issued to.
func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	found, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, internalErr("find user", err)
	}
	if !found.Found {
		return nil, ErrInvalidCredentials
	}
	return found.User, nil
}

// SeedAdmin creates an active admin account unless the username exists.
func (s *Service) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < s.opts.PasswordMinLength {
		return false, fmt.Errorf("%w: admin username and a valid password are required", ErrValidation)
	}
	found, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return false, internalErr("find admin", err)
	}
	if found.Found {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return false, internalErr("hash password", err)
	}
	u := &models.User{
		ID:           uuid.New(),
		UserName:     username,
		PasswordHash: string(hash),
		Type:         models.UserTypeAdmin,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return false, nil
		}
		return false, internalErr("create admin", err)
	}
	s.log.Info("admin account seeded", zap.String("username", username))
	return true, nil
}

func (s *Service) session(u *models.User) (*Session, error) {
	raw, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, internalErr("issue token", err)
	}
	return &Session{Token: raw, ExpiresAt: exp, User: u}, nil
}
