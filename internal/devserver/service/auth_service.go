package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ticketing-front/internal/devserver/event"
	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/model"
	"ticketing-front/pkg/apierror"
)

const (
	tokenIssuer    = "ticketing-app"
	tokenClockSkew = 30 * time.Second
	bcryptCost     = 10
)

// Claims is the verified content of a bearer token.
type Claims struct {
	UserID int64
	Email  string
	Roles  []string
}

// CodeSender delivers a one-time sign-in code.
type CodeSender interface {
	SendCode(ctx context.Context, email string, code string) error
}

// LogCodeSender writes codes to the log. It stands in for mail delivery.
type LogCodeSender struct {
	Logger *slog.Logger
}

func (s LogCodeSender) SendCode(_ context.Context, email string, code string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("otp issued", "email", email, "code", code)
	return nil
}

type AuthService struct {
	users     repository.UserStore
	otps      repository.OTPStore
	sender    CodeSender
	bus       event.Bus
	jwtSecret []byte
	tokenTTL  time.Duration
	otpTTL    time.Duration
	now       func() time.Time
}

func NewAuthService(jwtSecret string, tokenTTL time.Duration, otpTTL time.Duration, users repository.UserStore, otps repository.OTPStore, sender CodeSender, bus event.Bus) (*AuthService, error) {
	if len(jwtSecret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	if sender == nil {
		sender = LogCodeSender{}
	}

	return &AuthService{
		users:     users,
		otps:      otps,
		sender:    sender,
		bus:       bus,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		otpTTL:    otpTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) error {
	email := normalizeEmail(req.Email)
	password := strings.TrimSpace(req.Password)

	if !strings.Contains(email, "@") {
		return apierror.New("BAD_REQUEST", "A valid email is required", http.StatusBadRequest)
	}
	if !ValidPassword(password) {
		return apierror.New("WEAK_PASSWORD", "Password must have "+PasswordRules, http.StatusBadRequest)
	}

	return s.createUser(ctx, email, password, req.FirstName, req.LastName, []string{"ROLE_USER"})
}

// SeedUser creates the user unless the email is already taken. Seeded
// passwords skip the strength rules.
func (s *AuthService) SeedUser(ctx context.Context, email string, password string, firstName string, lastName string, roles []string) error {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if len(roles) == 0 {
		roles = []string{"ROLE_USER"}
	}
	return s.createUser(ctx, normalizeEmail(email), password, firstName, lastName, roles)
}

func (s *AuthService) createUser(ctx context.Context, email string, password string, firstName string, lastName string, roles []string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.users.Create(ctx, repository.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Roles:        roles,
	})
	if errors.Is(err, repository.ErrConflict) {
		return apierror.New("ALREADY_EXISTS", "Email already in use", http.StatusConflict)
	}
	return err
}

// Login checks the password and issues a fresh one-time code.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) error {
	email := normalizeEmail(req.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.New("UNAUTHORIZED", "Unknown user", http.StatusUnauthorized)
	}
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(req.Password))); err != nil {
		return apierror.New("UNAUTHORIZED", "Invalid password", http.StatusUnauthorized)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.otps.Store(ctx, repository.OTPCode{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.otpTTL),
	}); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.sender.SendCode(ctx, email, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeOTPIssued, ActorID: user.ID})
	}
	return nil
}

// VerifyOTP redeems the latest code issued for the email and returns a
// signed bearer token.
func (s *AuthService) VerifyOTP(ctx context.Context, req model.OTPVerifyRequest) (string, error) {
	email := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apierror.New("UNAUTHORIZED", "Unknown user", http.StatusUnauthorized)
	}
	if err != nil {
		return "", err
	}

	now := s.now()
	err = s.otps.ConsumeLatest(ctx, email, now, func(latest repository.OTPCode) error {
		if !latest.Usable(now) {
			return apierror.New("UNAUTHORIZED", "OTP expired or already used", http.StatusUnauthorized)
		}
		if subtle.ConstantTimeCompare([]byte(latest.Code), []byte(code)) != 1 {
			return apierror.New("UNAUTHORIZED", "Invalid OTP", http.StatusUnauthorized)
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return "", apierror.New("UNAUTHORIZED", "OTP not found", http.StatusUnauthorized)
	}
	if err != nil {
		return "", err
	}

	return s.issueToken(user)
}

func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.New("UNAUTHORIZED", "invalid token signing method", http.StatusUnauthorized)
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithLeeway(tokenClockSkew), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, apierror.New("UNAUTHORIZED", "invalid token", http.StatusUnauthorized)
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.New("UNAUTHORIZED", "invalid token claims", http.StatusUnauthorized)
	}

	claims := &Claims{}
	claims.Email, _ = claimsMap.GetSubject()
	if uid, ok := claimsMap["uid"].(float64); ok {
		claims.UserID = int64(uid)
	}
	if roles, ok := claimsMap["roles"].([]any); ok {
		for _, role := range roles {
			if name, ok := role.(string); ok {
				claims.Roles = append(claims.Roles, name)
			}
		}
	}

	if claims.UserID == 0 || claims.Email == "" {
		return nil, apierror.New("UNAUTHORIZED", "invalid token subject", http.StatusUnauthorized)
	}

	return claims, nil
}

// Profile is the /api/me view of a user.
func (s *AuthService) Profile(ctx context.Context, userID int64) (model.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Profile{}, apierror.New("UNAUTHORIZED", "user not found", http.StatusUnauthorized)
	}
	if err != nil {
		return model.Profile{}, err
	}

	return model.Profile{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     user.Roles,
	}, nil
}

func (s *AuthService) issueToken(user repository.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   tokenIssuer,
		"sub":   user.Email,
		"email": user.Email,
		"uid":   user.ID,
		"roles": user.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
