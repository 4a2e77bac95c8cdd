package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/notify"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 15 * time.Second

type QRHandler struct {
	Tokens service.TokenService
	Hub    *notify.Hub
}

func NewQRHandler(tokens service.TokenService, hub *notify.Hub) *QRHandler {
	return &QRHandler{Tokens: tokens, Hub: hub}
}

func (h *QRHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/validate", h.validate)
	r.Post("/refresh", h.refresh)
	r.Get("/stream", h.stream)
	return r
}

func (h *QRHandler) validate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	_, guest, err := h.Tokens.Resolve(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenRequired):
			response.BadRequest(w, "token is required")
		case errors.Is(err, service.ErrInvalidToken):
			response.JSON(w, http.StatusNotFound, map[string]any{"valid": false, "reason": "invalid"})
		case errors.Is(err, service.ErrTokenExpired):
			response.JSON(w, http.StatusGone, map[string]any{"valid": false, "reason": "expired"})
		case errors.Is(err, service.ErrGuestNotFound):
			response.JSON(w, http.StatusNotFound, map[string]any{"valid": false, "reason": "guest_not_found"})
		default:
			writeServiceError(w, r, err)
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"guest": guest,
	})
}

type refreshReq struct {
	Token string `json:"token"`
}

func (h *QRHandler) refresh(w http.ResponseWriter, r *http.Request) {
	// Token comes as a query parameter; a JSON body works too.
	token := r.URL.Query().Get("token")
	if token == "" {
		var in refreshReq
		if err := json.NewDecoder(r.Body).Decode(&in); err == nil {
			token = in.Token
		}
	}
	if token == "" {
		response.BadRequest(w, "token is required")
		return
	}

	tok, err := h.Tokens.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	body := map[string]any{
		"guest_id": tok.GuestID,
		"token":    tok.Token,
	}
	if tok.ExpiresAt != nil {
		body["expires_at"] = tok.ExpiresAt.Format(time.RFC3339)
	} else {
		body["expires_at"] = nil
	}
	response.JSON(w, http.StatusOK, body)
}

// stream pushes check-in events for one token as server-sent events until
// the client disconnects.
func (h *QRHandler) stream(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.BadRequest(w, "token is required")
		return
	}
	if _, _, err := h.Tokens.Resolve(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Open-the-pipe comment so clients see bytes immediately.
	fmt.Fprint(w, ": ping\n\n")
	flusher.Flush()

	ch, cancel := h.Hub.Subscribe(token)
	defer cancel()

	logger.DebugContext(r.Context(), "sse stream opened")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.DebugContext(r.Context(), "sse stream closed")
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-ch:
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
