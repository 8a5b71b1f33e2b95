package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vestapay/platform/internal/app/domain/gamification"
	"github.com/vestapay/platform/internal/app/domain/product"
)

func (h *handler) adminResource(w http.ResponseWriter, r *http.Request, action string, body []byte, id caller) {
	switch action {
	case "listDeposits":
		list, err := h.app.Payments.ListDeposits(r.Context(), "", true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case "approveDeposit":
		var payload struct {
			ID string `json:"id"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := h.app.Payments.ApproveDeposit(r.Context(), id.ID, payload.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, d)

	case "rejectDeposit":
		var payload struct {
			ID string `json:"id"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := h.app.Payments.RejectDeposit(r.Context(), id.ID, payload.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, d)

	case "listWithdrawals":
		list, err := h.app.Payments.ListWithdrawals(r.Context(), "", true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case "approveWithdrawal":
		var payload struct {
			ID string `json:"id"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		wd, err := h.app.Payments.ApproveWithdrawal(r.Context(), id.ID, payload.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, wd)

	case "rejectWithdrawal":
		var payload struct {
			ID string `json:"id"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		wd, wal, err := h.app.Payments.RejectWithdrawal(r.Context(), id.ID, payload.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"withdrawal": wd, "wallet": wal})

	case "listUsers":
		list, err := h.app.Profiles.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		views := make([]profileView, 0, len(list))
		for _, p := range list {
			views = append(views, viewOf(p))
		}
		writeJSON(w, http.StatusOK, views)

	case "adjustBalance":
		var payload struct {
			ProfileID string  `json:"profile_id"`
			Amount    float64 `json:"amount"`
			Reason    string  `json:"reason"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		wal, err := h.app.Wallets.Adjust(r.Context(), id.ID, payload.ProfileID, payload.Amount, payload.Reason)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, wal)

	case "deleteUser":
		var payload struct {
			ID string `json:"id"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := h.app.Profiles.Delete(r.Context(), payload.ID); err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": payload.ID})

	case "createProduct":
		var payload product.Product
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err := h.app.Products.Create(r.Context(), payload)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusCreated, p)

	case "updateProduct":
		var payload product.Product
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err := h.app.Products.Update(r.Context(), payload)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case "createChallenge":
		var payload struct {
			Name        string    `json:"name"`
			Description string    `json:"description"`
			Target      int       `json:"target"`
			Reward      float64   `json:"reward"`
			StartsAt    time.Time `json:"starts_at"`
			EndsAt      time.Time `json:"ends_at"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		c, err := h.app.Gamification.CreateChallenge(r.Context(), gamification.WeeklyChallenge{
			Name:        payload.Name,
			Description: payload.Description,
			Target:      payload.Target,
			Reward:      payload.Reward,
			StartsAt:    payload.StartsAt,
			EndsAt:      payload.EndsAt,
		})
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusCreated, c)

	case "createAchievement":
		var payload gamification.Achievement
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		a, err := h.app.Gamification.CreateAchievement(r.Context(), payload)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusCreated, a)

	case "setSetting":
		var payload struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		st, err := h.app.Settings.Set(r.Context(), id.ID, payload.Key, payload.Value)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, st)

	case "listSuspicious":
		var payload struct {
			UnresolvedOnly bool `json:"unresolved_only"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		list, err := h.app.Security.List(r.Context(), payload.UnresolvedOnly)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case "resolveSuspicious":
		var payload struct {
			ID string `json:"id"`
		}
		if err := decodePayload(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		a, err := h.app.Security.Resolve(r.Context(), payload.ID)
		if err != nil {
			writeError(w, errStatus(err, http.StatusBadRequest), err)
			return
		}
		writeJSON(w, http.StatusOK, a)

	case "systemStatus":
		writeJSON(w, http.StatusOK, h.app.Ops.Status(r.Context()))

	default:
		writeError(w, http.StatusNotFound, errUnknownRoute)
	}
}
