// Package settings manages typed platform configuration. Each key has a
// schema validated on write; values are stored as raw JSON and read with
// gjson. An optional Redis client provides a short-lived read-through cache
// so hot keys (freeze flags) do not hit the database on every request.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/tidwall/gjson"

	"github.com/vestapay/platform/internal/app/domain/setting"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

// ErrUnknownKey rejects writes to keys outside the schema table.
var ErrUnknownKey = errors.New("unknown setting key")

const cacheTTL = 30 * time.Second

// schemas maps each known key to its write-time validator.
var schemas = map[string]func(gjson.Result) error{
	setting.KeyDepositsFrozen:     requireBool("frozen"),
	setting.KeyWithdrawalsFrozen:  requireBool("frozen"),
	setting.KeyMaintenanceMessage: requireMessage,
	setting.KeyOverlayMessage:     requireMessage,
	setting.KeyWelcomeBonus:       requireAmount,
	setting.KeyOfficeContact:      requireString("value"),
	setting.KeyCommunityLink:      requireString("value"),
	setting.KeyWhatsappSupport:    requireString("value"),
}

func requireBool(field string) func(gjson.Result) error {
	return func(v gjson.Result) error {
		if !v.Get(field).IsBool() {
			return fmt.Errorf("field %q must be a boolean", field)
		}
		return nil
	}
}

func requireString(field string) func(gjson.Result) error {
	return func(v gjson.Result) error {
		if v.Get(field).Type != gjson.String {
			return fmt.Errorf("field %q must be a string", field)
		}
		return nil
	}
}

func requireMessage(v gjson.Result) error {
	if !v.Get("enabled").IsBool() {
		return fmt.Errorf("field %q must be a boolean", "enabled")
	}
	if v.Get("message").Type != gjson.String {
		return fmt.Errorf("field %q must be a string", "message")
	}
	return nil
}

func requireAmount(v gjson.Result) error {
	amount := v.Get("amount")
	if amount.Type != gjson.Number {
		return fmt.Errorf("field %q must be a number", "amount")
	}
	if amount.Float() < 0 {
		return fmt.Errorf("field %q must not be negative", "amount")
	}
	return nil
}

// Service manages platform settings.
type Service struct {
	store storage.SettingStore
	cache *redis.Client
	log   *logger.Logger
}

// New constructs a settings service. cache may be nil.
func New(store storage.SettingStore, cache *redis.Client, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("settings")
	}
	return &Service{store: store, cache: cache, log: log}
}

// Set validates and persists a setting value. updatedBy records the admin.
func (s *Service) Set(ctx context.Context, updatedBy, key string, value json.RawMessage) (setting.Setting, error) {
	validate, ok := schemas[key]
	if !ok {
		return setting.Setting{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	parsed := gjson.ParseBytes(value)
	if !parsed.IsObject() {
		return setting.Setting{}, fmt.Errorf("setting %s: value must be a JSON object", key)
	}
	if err := validate(parsed); err != nil {
		return setting.Setting{}, fmt.Errorf("setting %s: %w", key, err)
	}

	saved, err := s.store.UpsertSetting(ctx, setting.Setting{Key: key, Value: value, UpdatedBy: updatedBy})
	if err != nil {
		return setting.Setting{}, err
	}
	s.invalidate(ctx, key)
	s.log.WithField("key", key).Infof("setting updated by %s", updatedBy)
	return saved, nil
}

// Get returns a single setting.
func (s *Service) Get(ctx context.Context, key string) (setting.Setting, error) {
	if _, ok := schemas[key]; !ok {
		return setting.Setting{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return s.store.GetSetting(ctx, key)
}

// All returns every stored setting keyed by name. Keys never written are
// absent; readers fall back to their defaults.
func (s *Service) All(ctx context.Context) (map[string]json.RawMessage, error) {
	list, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(list))
	for _, st := range list {
		out[st.Key] = json.RawMessage(st.Value)
	}
	return out, nil
}

// DepositsFrozen reports whether deposit submission is disabled.
func (s *Service) DepositsFrozen(ctx context.Context) bool {
	return s.boolField(ctx, setting.KeyDepositsFrozen, "frozen")
}

// WithdrawalsFrozen reports whether withdrawal submission is disabled.
func (s *Service) WithdrawalsFrozen(ctx context.Context) bool {
	return s.boolField(ctx, setting.KeyWithdrawalsFrozen, "frozen")
}

// WelcomeBonus returns the signup bonus amount, zero when unset.
func (s *Service) WelcomeBonus(ctx context.Context) float64 {
	raw, err := s.rawValue(ctx, setting.KeyWelcomeBonus)
	if err != nil {
		return 0
	}
	return gjson.GetBytes(raw, "amount").Float()
}

func (s *Service) boolField(ctx context.Context, key, field string) bool {
	raw, err := s.rawValue(ctx, key)
	if err != nil {
		return false
	}
	return gjson.GetBytes(raw, field).Bool()
}

func (s *Service) rawValue(ctx context.Context, key string) ([]byte, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey(key)).Bytes(); err == nil {
			return cached, nil
		}
	}

	st, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(key), st.Value, cacheTTL).Err(); err != nil {
			s.log.WithError(err).Debugf("cache setting %s", key)
		}
	}
	return st.Value, nil
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(key)).Err(); err != nil {
		s.log.WithError(err).Debugf("invalidate setting %s", key)
	}
}

func cacheKey(key string) string { return "settings:" + key }
