package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
)

type CheckinHandler struct {
	Checkins service.CheckinService
}

func NewCheckinHandler(checkins service.CheckinService) *CheckinHandler {
	return &CheckinHandler{Checkins: checkins}
}

func (h *CheckinHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.checkIn)
	r.Post("/undo", h.undo)
	r.Delete("/{guest_id}", h.deleteCheckin)
	return r
}

// checkinReq accepts the token under either key for scanner compatibility.
type checkinReq struct {
	Token   string `json:"token"`
	QRCode  string `json:"qr_code"`
	Gate    string `json:"gate"`
	Staff   string `json:"staff"`
	EventID *int64 `json:"event_id"`
}

func (in *checkinReq) tokenValue() string {
	if in.Token != "" {
		return in.Token
	}
	return in.QRCode
}

func (h *CheckinHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	var in checkinReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	res, err := h.Checkins.CheckIn(r.Context(), in.tokenValue(), in.Gate, in.Staff, in.EventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": "ok",
		"guest": map[string]any{
			"id":   res.Guest.ID,
			"name": res.Guest.Name,
		},
		"time": res.Checkin.Time.Format(time.RFC3339),
	})
}

func (h *CheckinHandler) undo(w http.ResponseWriter, r *http.Request) {
	var in checkinReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	if err := h.Checkins.Undo(r.Context(), in.tokenValue()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"message": "Check-in undone"})
}

func (h *CheckinHandler) deleteCheckin(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "guest_id")
	if !ok {
		return
	}

	if err := h.Checkins.DeleteCheckin(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"message": "Check-in removed"})
}
