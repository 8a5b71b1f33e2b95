// Package app wires the domain services, their stores and the lifecycle
// manager into one application value.
package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/vestapay/platform/internal/app/services/gamification"
	"github.com/vestapay/platform/internal/app/services/investments"
	"github.com/vestapay/platform/internal/app/services/ops"
	"github.com/vestapay/platform/internal/app/services/payments"
	"github.com/vestapay/platform/internal/app/services/products"
	"github.com/vestapay/platform/internal/app/services/profiles"
	"github.com/vestapay/platform/internal/app/services/referrals"
	"github.com/vestapay/platform/internal/app/services/securitylog"
	"github.com/vestapay/platform/internal/app/services/settings"
	"github.com/vestapay/platform/internal/app/services/wallets"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/internal/app/storage/memory"
	"github.com/vestapay/platform/internal/app/system"
	"github.com/vestapay/platform/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Profiles     storage.ProfileStore
	Wallets      storage.WalletStore
	Products     storage.ProductStore
	Investments  storage.InvestmentStore
	Payments     storage.PaymentStore
	Referrals    storage.ReferralStore
	Gamification storage.GamificationStore
	Settings     storage.SettingStore
	Security     storage.SecurityStore
}

// Options tune service behaviour beyond the stores.
type Options struct {
	Auth profiles.Config

	// WithdrawalAlertThreshold flags withdrawals at or above this amount.
	WithdrawalAlertThreshold float64
	// SpinPrizeCeiling caps the daily spin payout.
	SpinPrizeCeiling float64
	// MaturationSchedule is a cron expression for the maturation sweeper.
	MaturationSchedule string
	// ChallengeExpirySchedule is a cron expression for the challenge expirer.
	ChallengeExpirySchedule string

	// SettingsCache optionally backs hot setting reads. May be nil.
	SettingsCache *redis.Client
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Profiles     *profiles.Service
	Wallets      *wallets.Service
	Products     *products.Service
	Investments  *investments.Service
	Payments     *payments.Service
	Referrals    *referrals.Service
	Gamification *gamification.Service
	Settings     *settings.Service
	Security     *securitylog.Service
	Ops          *ops.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Profiles == nil {
		stores.Profiles = mem
	}
	if stores.Wallets == nil {
		stores.Wallets = mem
	}
	if stores.Products == nil {
		stores.Products = mem
	}
	if stores.Investments == nil {
		stores.Investments = mem
	}
	if stores.Payments == nil {
		stores.Payments = mem
	}
	if stores.Referrals == nil {
		stores.Referrals = mem
	}
	if stores.Gamification == nil {
		stores.Gamification = mem
	}
	if stores.Settings == nil {
		stores.Settings = mem
	}
	if stores.Security == nil {
		stores.Security = mem
	}

	manager := system.NewManager()

	settingsService := settings.New(stores.Settings, opts.SettingsCache, log)
	securityService := securitylog.New(stores.Security, log)
	profileService := profiles.New(stores.Profiles, stores.Wallets, stores.Referrals, stores.Security, settingsService, opts.Auth, log)
	walletService := wallets.New(stores.Wallets, log)
	productService := products.New(stores.Products, log)
	investmentService := investments.New(stores.Products, stores.Investments, log)
	paymentService := payments.New(stores.Payments, stores.Referrals, stores.Security, settingsService, opts.WithdrawalAlertThreshold, log)
	referralService := referrals.New(stores.Referrals, log)
	gamificationService := gamification.New(stores.Gamification, stores.Wallets, opts.SpinPrizeCeiling, log)
	opsService := ops.New(log)

	runners := []system.Service{
		investments.NewSweeper(investmentService, opts.MaturationSchedule, log),
		gamification.NewExpirer(gamificationService, opts.ChallengeExpirySchedule, log),
	}
	for _, svc := range runners {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:      manager,
		log:          log,
		Profiles:     profileService,
		Wallets:      walletService,
		Products:     productService,
		Investments:  investmentService,
		Payments:     paymentService,
		Referrals:    referralService,
		Gamification: gamificationService,
		Settings:     settingsService,
		Security:     securityService,
		Ops:          opsService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
