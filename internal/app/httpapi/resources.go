package httpapi

import (
	"net/http"

	"github.com/vestapay/platform/internal/app/domain/profile"
)

// profileView strips internal fields from responses.
type profileView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	ReferralCode string `json:"referral_code"`
	HideBalance  bool   `json:"hide_balance"`
	IsAdmin      bool   `json:"is_admin"`
}

func viewOf(p profile.Profile) profileView {
	return profileView{
		ID:           p.ID,
		Email:        p.Email,
		DisplayName:  p.DisplayName,
		ReferralCode: p.ReferralCode,
		HideBalance:  p.HideBalance,
		IsAdmin:      p.IsAdmin,
	}
}

func (h *handler) authResource(w http.ResponseWriter, r *http.Request, action string, body []byte) {
	switch action {
	case "signup":
		var payload struct {
			Email        string `json:"email"`
			Password     string `json:"password"`
			DisplayName  string `json:"display_name"`
			ReferralCode string `json:"referral_code"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, token, err := h.app.Profiles.Signup(r.Context(), payload.Email, payload.Password, payload.DisplayName, payload.ReferralCode)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"profile": viewOf(p), "token": token})

	case "login":
		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, token, err := h.app.Profiles.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			writeError(w, errStatus(err, http.StatusInternalServerError), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"profile": viewOf(p), "token": token})

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}

func (h *handler) profileResource(w http.ResponseWriter, r *http.Request, action string, body []byte, id caller) {
	switch action {
	case "get":
		p, err := h.app.Profiles.Get(r.Context(), id.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusInternalServerError), err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(p))

	case "update":
		var payload struct {
			DisplayName string `json:"display_name"`
			HideBalance bool   `json:"hide_balance"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err := h.app.Profiles.Update(r.Context(), id.ID, payload.DisplayName, payload.HideBalance)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(p))

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}

func (h *handler) walletResource(w http.ResponseWriter, r *http.Request, action string, id caller) {
	if action != "get" {
		writeError(w, http.StatusNotFound, errUnknownRoute)
		return
	}
	wal, err := h.app.Wallets.Get(r.Context(), id.ID)
	if err != nil {
		writeError(w, errStatus(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, wal)
}

func (h *handler) transactionResource(w http.ResponseWriter, r *http.Request, action string, id caller) {
	if action != "list" {
		writeError(w, http.StatusNotFound, errUnknownRoute)
		return
	}
	txs, err := h.app.Wallets.Transactions(r.Context(), id.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handler) productResource(w http.ResponseWriter, r *http.Request, action string, body []byte) {
	switch action {
	case "list":
		list, err := h.app.Products.List(r.Context(), true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case "get":
		var payload struct {
			ID string `json:"id"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err := h.app.Products.Get(r.Context(), payload.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusInternalServerError), err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}

func (h *handler) investmentResource(w http.ResponseWriter, r *http.Request, action string, body []byte, id caller) {
	switch action {
	case "create":
		var payload struct {
			ProductID string  `json:"product_id"`
			Amount    float64 `json:"amount"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		inv, wal, err := h.app.Investments.Create(r.Context(), id.ID, payload.ProductID, payload.Amount)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"investment": inv, "wallet": wal})

	case "list":
		list, err := h.app.Investments.List(r.Context(), id.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}

func (h *handler) depositResource(w http.ResponseWriter, r *http.Request, action string, body []byte, id caller) {
	switch action {
	case "create":
		var payload struct {
			Amount    float64 `json:"amount"`
			Method    string  `json:"method"`
			Reference string  `json:"reference"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := h.app.Payments.CreateDeposit(r.Context(), id.ID, payload.Amount, payload.Method, payload.Reference)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusCreated, d)

	case "list":
		list, err := h.app.Payments.ListDeposits(r.Context(), id.ID, false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}

func (h *handler) withdrawalResource(w http.ResponseWriter, r *http.Request, action string, body []byte, id caller) {
	switch action {
	case "create":
		var payload struct {
			Amount      float64 `json:"amount"`
			Destination string  `json:"destination"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		wd, wal, err := h.app.Payments.CreateWithdrawal(r.Context(), id.ID, payload.Amount, payload.Destination)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"withdrawal": wd, "wallet": wal})

	case "list":
		list, err := h.app.Payments.ListWithdrawals(r.Context(), id.ID, false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}

func (h *handler) referralResource(w http.ResponseWriter, r *http.Request, action string, id caller) {
	switch action {
	case "list":
		list, err := h.app.Referrals.List(r.Context(), id.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case "stats":
		stats, err := h.app.Referrals.Stats(r.Context(), id.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}

func (h *handler) gamificationResource(w http.ResponseWriter, r *http.Request, action string, body []byte, id caller) {
	switch action {
	case "recordLogin":
		st, err := h.app.Gamification.RecordLogin(r.Context(), id.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusInternalServerError), err)
			return
		}
		writeJSON(w, http.StatusOK, st)

	case "claimStreakReward":
		var payload struct {
			StreakDay int `json:"streak_day"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		amount, err := h.app.Gamification.ClaimStreakReward(r.Context(), id.ID, payload.StreakDay)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"amount": amount})

	case "spin":
		var payload struct {
			Prize float64 `json:"prize"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rec, err := h.app.Gamification.Spin(r.Context(), id.ID, payload.Prize)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, rec)

	case "checkAchievements":
		awarded, err := h.app.Gamification.CheckAchievements(r.Context(), id.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusInternalServerError), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"awarded": awarded})

	case "listChallenges":
		list, err := h.app.Gamification.ListChallenges(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case "joinChallenge":
		var payload struct {
			ChallengeID string `json:"challenge_id"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		uc, err := h.app.Gamification.JoinChallenge(r.Context(), id.ID, payload.ChallengeID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusCreated, uc)

	case "progressChallenge":
		var payload struct {
			ChallengeID string `json:"challenge_id"`
			Increment   int    `json:"increment"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.Increment == 0 {
			payload.Increment = 1
		}
		uc, err := h.app.Gamification.ProgressChallenge(r.Context(), id.ID, payload.ChallengeID, payload.Increment)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, uc)

	case "state":
		state, err := h.app.Gamification.State(r.Context(), id.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, state)

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}

func (h *handler) settingsResource(w http.ResponseWriter, r *http.Request, action string) {
	if action != "get" {
		writeError(w, http.StatusNotFound, errUnknownRoute)
		return
	}
	all, err := h.app.Settings.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}
