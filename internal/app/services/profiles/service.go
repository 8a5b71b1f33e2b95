// Package profiles handles signup, login, token issuance and profile edits.
package profiles

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vestapay/platform/internal/app/domain/profile"
	"github.com/vestapay/platform/internal/app/domain/referral"
	"github.com/vestapay/platform/internal/app/domain/security"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/services/settings"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
)

// Config carries auth parameters for token issuance.
type Config struct {
	TokenSecret    string
	TokenTTL       time.Duration
	ReferralReward float64
}

// Service manages profiles and authentication.
type Service struct {
	store     storage.ProfileStore
	wallets   storage.WalletStore
	referrals storage.ReferralStore
	security  storage.SecurityStore
	settings  *settings.Service
	cfg       Config
	log       *logger.Logger
}

// New constructs a profile service.
func New(store storage.ProfileStore, wallets storage.WalletStore, referrals storage.ReferralStore, sec storage.SecurityStore, st *settings.Service, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("profiles")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Service{store: store, wallets: wallets, referrals: referrals, security: sec, settings: st, cfg: cfg, log: log}
}

// Signup registers a profile, creates its wallet, credits the welcome bonus
// and records a pending referral when a valid code was supplied.
func (s *Service) Signup(ctx context.Context, email, password, displayName, referralCode string) (profile.Profile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return profile.Profile{}, "", fmt.Errorf("a valid email is required")
	}
	if len(password) < 8 {
		return profile.Profile{}, "", fmt.Errorf("password must be at least 8 characters")
	}

	var referrer profile.Profile
	if code := strings.TrimSpace(referralCode); code != "" {
		found, err := s.store.GetProfileByReferralCode(ctx, code)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return profile.Profile{}, "", err
			}
			return profile.Profile{}, "", fmt.Errorf("unknown referral code")
		}
		referrer = found
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return profile.Profile{}, "", err
	}

	p := profile.Profile{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		ReferralCode: newReferralCode(),
		ReferredBy:   referrer.ID,
	}
	created, err := s.store.CreateProfile(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return profile.Profile{}, "", ErrEmailTaken
		}
		return profile.Profile{}, "", err
	}

	if _, err := s.wallets.CreateWallet(ctx, wallet.Wallet{ProfileID: created.ID}); err != nil {
		return profile.Profile{}, "", fmt.Errorf("create wallet: %w", err)
	}

	if bonus := s.settings.WelcomeBonus(ctx); bonus > 0 {
		_, _, err := s.wallets.ApplyWalletDelta(ctx, created.ID, wallet.Delta{Balance: bonus}, wallet.Transaction{
			Type:        wallet.TypeWelcomeBonus,
			Amount:      bonus,
			Description: "Welcome bonus",
		})
		if err != nil {
			s.log.WithError(err).Warnf("welcome bonus for %s failed", created.ID)
		}
	}

	if referrer.ID != "" {
		_, err := s.referrals.CreateReferral(ctx, referral.Referral{
			ReferrerID:   referrer.ID,
			ReferredID:   created.ID,
			RewardAmount: s.cfg.ReferralReward,
		})
		if err != nil {
			s.log.WithError(err).Warnf("record referral %s -> %s failed", referrer.ID, created.ID)
		}
	}

	token, err := s.issueToken(created)
	if err != nil {
		return profile.Profile{}, "", err
	}
	s.log.Infof("profile %s registered", created.ID)
	return created, token, nil
}

// Login verifies credentials and issues a token. Failures are written to the
// suspicious-activity log.
func (s *Service) Login(ctx context.Context, email, password string) (profile.Profile, string, error) {
	p, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.auditFailure(ctx, "", "login attempt for unknown email")
			return profile.Profile{}, "", ErrInvalidCredentials
		}
		return profile.Profile{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		s.auditFailure(ctx, p.ID, "password mismatch")
		return profile.Profile{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(p)
	if err != nil {
		return profile.Profile{}, "", err
	}
	return p, token, nil
}

// Get retrieves a profile by id.
func (s *Service) Get(ctx context.Context, id string) (profile.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

// Update changes the mutable profile fields.
func (s *Service) Update(ctx context.Context, id, displayName string, hideBalance bool) (profile.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return profile.Profile{}, err
	}
	if name := strings.TrimSpace(displayName); name != "" {
		p.DisplayName = name
	}
	p.HideBalance = hideBalance
	return s.store.UpdateProfile(ctx, p)
}

// List returns all profiles. Admin only; enforced at the dispatch layer.
func (s *Service) List(ctx context.Context) ([]profile.Profile, error) {
	return s.store.ListProfiles(ctx)
}

// Delete removes a profile; dependent rows cascade in postgres.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProfile(ctx, id); err != nil {
		return err
	}
	s.log.Infof("profile %s deleted", id)
	return nil
}

// Claims are the token claims carried by issued bearer tokens.
type Claims struct {
	Admin bool `json:"adm"`
	jwt.RegisteredClaims
}

func (s *Service) issueToken(p profile.Profile) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Admin: p.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSecret))
}

// ParseToken validates a bearer token and returns its claims.
func (s *Service) ParseToken(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) auditFailure(ctx context.Context, profileID, detail string) {
	if s.security == nil {
		return
	}
	_, err := s.security.CreateActivity(ctx, security.Activity{
		ProfileID: profileID,
		Kind:      security.KindAuthFailure,
		Severity:  security.SeverityMedium,
		Detail:    detail,
	})
	if err != nil {
		s.log.WithError(err).Warn("record auth failure")
	}
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newReferralCode() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
