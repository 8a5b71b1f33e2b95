package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vestapay/platform/internal/app"
	"github.com/vestapay/platform/internal/app/services/profiles"
	"github.com/vestapay/platform/internal/app/storage/memory"
)

type fixture struct {
	handler http.Handler
	store   *memory.Store
	app     *app.Application
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	application, err := app.New(app.Stores{
		Profiles:     store,
		Wallets:      store,
		Products:     store,
		Investments:  store,
		Payments:     store,
		Referrals:    store,
		Gamification: store,
		Settings:     store,
		Security:     store,
	}, app.Options{
		Auth: profiles.Config{TokenSecret: "test-secret"},
	}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return &fixture{
		handler: NewHandler(application, Config{}, nil),
		store:   store,
		app:     application,
	}
}

func (f *fixture) dispatch(t *testing.T, token string, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) signup(t *testing.T, email string) (profileID, token string) {
	t.Helper()
	resp := f.dispatch(t, "", map[string]any{
		"resource": "auth",
		"action":   "signup",
		"email":    email,
		"password": "hunter2hunter2",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Profile struct {
			ID string `json:"id"`
		} `json:"profile"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal signup response: %v", err)
	}
	return out.Profile.ID, out.Token
}

func (f *fixture) adminToken(t *testing.T, email string) string {
	t.Helper()
	f.signup(t, email)
	p, err := f.store.GetProfileByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	p.IsAdmin = true
	if _, err := f.store.UpdateProfile(context.Background(), p); err != nil {
		t.Fatalf("promote: %v", err)
	}
	resp := f.dispatch(t, "", map[string]any{
		"resource": "auth",
		"action":   "login",
		"email":    email,
		"password": "hunter2hunter2",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("admin login: expected 200, got %d", resp.Code)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	return out.Token
}

func TestDispatchValidation(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(t, "", map[string]any{"resource": "auth"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing action: expected 400, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid JSON: expected 400, got %d", rec.Code)
	}

	resp = f.dispatch(t, "", map[string]any{"resource": "auth", "action": "bogus"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown action: expected 404, got %d", resp.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(t, "", map[string]any{"resource": "wallets", "action": "get"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", resp.Code)
	}
	resp = f.dispatch(t, "garbage-token", map[string]any{"resource": "wallets", "action": "get"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("error body missing error field")
	}

	_, token := f.signup(t, "alice@example.com")
	resp = f.dispatch(t, token, map[string]any{"resource": "wallets", "action": "get"})
	if resp.Code != http.StatusOK {
		t.Fatalf("authed wallet get: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPublicOperations(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(t, "", map[string]any{"resource": "products", "action": "list"})
	if resp.Code != http.StatusOK {
		t.Fatalf("public products list: expected 200, got %d", resp.Code)
	}
	resp = f.dispatch(t, "", map[string]any{"resource": "settings", "action": "get"})
	if resp.Code != http.StatusOK {
		t.Fatalf("public settings get: expected 200, got %d", resp.Code)
	}
}

func TestAdminGate(t *testing.T) {
	f := newFixture(t)

	_, userToken := f.signup(t, "bob@example.com")
	resp := f.dispatch(t, userToken, map[string]any{"resource": "admin", "action": "listUsers"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", resp.Code)
	}

	adminToken := f.adminToken(t, "root@example.com")
	resp = f.dispatch(t, adminToken, map[string]any{"resource": "admin", "action": "listUsers"})
	if resp.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestInvestmentFlow(t *testing.T) {
	f := newFixture(t)
	adminToken := f.adminToken(t, "root@example.com")
	userID, userToken := f.signup(t, "carol@example.com")

	resp := f.dispatch(t, adminToken, map[string]any{
		"resource": "admin", "action": "createProduct",
		"name": "Gold 30", "price": 1000.0, "expected_return": 1300.0,
		"duration_days": 30, "active": true,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var prod struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &prod); err != nil {
		t.Fatalf("unmarshal product: %v", err)
	}

	resp = f.dispatch(t, adminToken, map[string]any{
		"resource": "admin", "action": "adjustBalance",
		"profile_id": userID, "amount": 5000.0, "reason": "test funding",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("adjust balance: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = f.dispatch(t, userToken, map[string]any{
		"resource": "investments", "action": "create",
		"product_id": prod.ID, "amount": 2000.0,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create investment: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Wallet struct {
			Balance float64 `json:"balance"`
		} `json:"wallet"`
		Investment struct {
			ExpectedReturn float64 `json:"expected_return"`
		} `json:"investment"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal investment: %v", err)
	}
	if out.Wallet.Balance != 3000 {
		t.Fatalf("balance %.2f, want 3000", out.Wallet.Balance)
	}
	if out.Investment.ExpectedReturn != 2600 {
		t.Fatalf("expected return %.2f, want 2600", out.Investment.ExpectedReturn)
	}

	// Spending beyond the balance maps to a conflict-style client error.
	resp = f.dispatch(t, userToken, map[string]any{
		"resource": "investments", "action": "create",
		"product_id": prod.ID, "amount": 50000.0,
	})
	if resp.Code < 400 || resp.Code >= 500 {
		t.Fatalf("overdraw: expected 4xx, got %d", resp.Code)
	}
}

func TestAdminReviewFlow(t *testing.T) {
	f := newFixture(t)
	adminToken := f.adminToken(t, "root@example.com")
	_, userToken := f.signup(t, "dina@example.com")

	resp := f.dispatch(t, userToken, map[string]any{
		"resource": "deposits", "action": "create",
		"amount": 3000.0, "method": "mobile_money", "reference": "MM-1",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create deposit: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var dep struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &dep); err != nil {
		t.Fatalf("unmarshal deposit: %v", err)
	}

	resp = f.dispatch(t, adminToken, map[string]any{
		"resource": "admin", "action": "approveDeposit", "id": dep.ID,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("approve deposit: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Repeat approval trips the status guard.
	resp = f.dispatch(t, adminToken, map[string]any{
		"resource": "admin", "action": "approveDeposit", "id": dep.ID,
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("repeat approval: expected 409, got %d", resp.Code)
	}

	resp = f.dispatch(t, userToken, map[string]any{"resource": "wallets", "action": "get"})
	if resp.Code != http.StatusOK {
		t.Fatalf("wallet get: expected 200, got %d", resp.Code)
	}
	var w struct {
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &w); err != nil {
		t.Fatalf("unmarshal wallet: %v", err)
	}
	if w.Balance != 3000 {
		t.Fatalf("balance %.2f, want 3000", w.Balance)
	}

	// Every admin call leaves an audit row.
	resp = f.dispatch(t, adminToken, map[string]any{
		"resource": "admin", "action": "listSuspicious", "unresolved_only": false,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("list suspicious: expected 200, got %d", resp.Code)
	}
	var acts []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &acts); err != nil {
		t.Fatalf("unmarshal activities: %v", err)
	}
	if len(acts) == 0 {
		t.Fatalf("expected admin_action audit rows")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
}
