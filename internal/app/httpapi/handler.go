// Package httpapi exposes the single-endpoint dispatch API. Every operation
// arrives as POST /api with a {"resource": ..., "action": ..., ...payload}
// body; the dispatcher authenticates, routes to the owning service and
// writes either the result or {"error": ...}.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	app "github.com/vestapay/platform/internal/app"
	"github.com/vestapay/platform/internal/app/domain/security"
	"github.com/vestapay/platform/internal/app/metrics"
	"github.com/vestapay/platform/internal/app/services/gamification"
	"github.com/vestapay/platform/internal/app/services/payments"
	"github.com/vestapay/platform/internal/app/services/profiles"
	"github.com/vestapay/platform/internal/app/services/settings"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

const maxBodyBytes = 1 << 20

var (
	errMissingToken = errors.New("authentication required")
	errForbidden    = errors.New("admin role required")
	errUnknownRoute = errors.New("unknown resource or action")
)

// handler routes dispatch requests to the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
}

// Config tunes the HTTP surface.
type Config struct {
	// RateLimitPerSecond caps requests per caller; zero disables limiting.
	RateLimitPerSecond int
	RateLimitBurst     int
}

// NewHandler returns the full HTTP surface: the dispatch endpoint, health
// probe and metrics.
func NewHandler(application *app.Application, cfg Config, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := chi.NewRouter()
	r.Use(metrics.InstrumentHandler)
	if cfg.RateLimitPerSecond > 0 {
		limiter := newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, log)
		r.Use(limiter.middleware)
	}

	r.Post("/api", h.dispatch)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// caller is the authenticated identity attached to a dispatch request.
type caller struct {
	ID    string
	Admin bool
}

func (h *handler) dispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read request: %w", err))
		return
	}
	defer r.Body.Close()

	var env struct {
		Resource string `json:"resource"`
		Action   string `json:"action"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body"))
		return
	}
	if env.Resource == "" || env.Action == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("resource and action are required"))
		return
	}

	rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() { metrics.RecordDispatch(env.Resource, env.Action, rec.status) }()

	var id caller
	if !publicOperation(env.Resource, env.Action) {
		id, err = h.authenticate(r)
		if err != nil {
			h.app.Security.Record(r.Context(), "", security.KindAuthFailure, security.SeverityLow,
				fmt.Sprintf("unauthenticated %s.%s attempt", env.Resource, env.Action))
			writeError(rec, http.StatusUnauthorized, err)
			return
		}
		if env.Resource == "admin" && !id.Admin {
			writeError(rec, http.StatusForbidden, errForbidden)
			return
		}
	}

	switch env.Resource {
	case "auth":
		h.authResource(rec, r, env.Action, body)
	case "profiles":
		h.profileResource(rec, r, env.Action, body, id)
	case "wallets":
		h.walletResource(rec, r, env.Action, id)
	case "transactions":
		h.transactionResource(rec, r, env.Action, id)
	case "products":
		h.productResource(rec, r, env.Action, body)
	case "investments":
		h.investmentResource(rec, r, env.Action, body, id)
	case "deposits":
		h.depositResource(rec, r, env.Action, body, id)
	case "withdrawals":
		h.withdrawalResource(rec, r, env.Action, body, id)
	case "referrals":
		h.referralResource(rec, r, env.Action, id)
	case "gamification":
		h.gamificationResource(rec, r, env.Action, body, id)
	case "settings":
		h.settingsResource(rec, r, env.Action)
	case "admin":
		h.app.Security.Record(r.Context(), id.ID, security.KindAdminAction, security.SeverityLow,
			fmt.Sprintf("admin.%s", env.Action))
		h.adminResource(rec, r, env.Action, body, id)
	default:
		writeError(rec, http.StatusNotFound, errUnknownRoute)
	}
}

// publicOperation reports whether the operation is reachable without a token.
func publicOperation(resource, action string) bool {
	switch resource {
	case "auth":
		return true
	case "settings":
		return action == "get"
	case "products":
		return action == "list" || action == "get"
	}
	return false
}

func (h *handler) authenticate(r *http.Request) (caller, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return caller{}, errMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return caller{}, errMissingToken
	}

	claims, err := h.app.Profiles.ParseToken(parts[1])
	if err != nil {
		return caller{}, err
	}
	return caller{ID: claims.Subject, Admin: claims.Admin}, nil
}

// errStatus maps shared sentinels; unmatched errors get the fallback.
func errStatus(err error, fallback int) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict),
		errors.Is(err, gamification.ErrAlreadySpun):
		return http.StatusConflict
	case errors.Is(err, profiles.ErrInvalidCredentials),
		errors.Is(err, profiles.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrInsufficientBalance),
		errors.Is(err, storage.ErrSoldOut),
		errors.Is(err, payments.ErrDepositsFrozen),
		errors.Is(err, payments.ErrWithdrawalsFrozen),
		errors.Is(err, settings.ErrUnknownKey):
		return http.StatusBadRequest
	default:
		return fallback
	}
}

func decodePayload(body []byte, dst interface{}) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
