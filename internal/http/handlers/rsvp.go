package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
)

type RSVPHandler struct {
	RSVP service.RSVPService
}

func NewRSVPHandler(rsvp service.RSVPService) *RSVPHandler {
	return &RSVPHandler{RSVP: rsvp}
}

func (h *RSVPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/respond", h.respond)
	return r
}

type rsvpReq struct {
	Token  string `json:"token"`
	Status string `json:"status"`
}

func (h *RSVPHandler) respond(w http.ResponseWriter, r *http.Request) {
	var in rsvpReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	guest, err := h.RSVP.Respond(r.Context(), in.Token, in.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": "RSVP recorded",
		"guest":   guest,
	})
}
