package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

const defaultQRSize = 256

func (h *GuestHandler) issueQR(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	guest, err := h.Guests.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if guest == nil {
		response.NotFound(w, "guest not found")
		return
	}

	tok, err := h.Tokens.IssueOrReuse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	body := map[string]any{
		"guest_id": id,
		"token":    tok.Token,
	}
	if tok.ExpiresAt != nil {
		body["expires_at"] = tok.ExpiresAt.Format(time.RFC3339)
	} else {
		body["expires_at"] = nil
	}
	response.JSON(w, http.StatusOK, body)
}

func (h *GuestHandler) qrImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	guest, err := h.Guests.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if guest == nil {
		response.NotFound(w, "guest not found")
		return
	}

	tok, err := h.Tokens.IssueOrReuse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	size := defaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}

	// The image encodes the bare token, scanners post it to /api/checkin.
	png, err := qrcode.Encode(tok.Token, qrcode.Medium, size)
	if err != nil {
		logger.ErrorContext(r.Context(), "qr encoding failed", "error", err)
		response.InternalError(w, "could not generate QR image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=guest_%d_qr.png", id))
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *GuestHandler) invite(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	guest, err := h.Guests.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if guest == nil {
		response.NotFound(w, "guest not found")
		return
	}
	if guest.Email == nil || *guest.Email == "" {
		response.BadRequest(w, "guest has no email address")
		return
	}

	tok, err := h.Tokens.IssueOrReuse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	eventName := "the event"
	if guest.EventName != nil && *guest.EventName != "" {
		eventName = *guest.EventName
	}

	link := fmt.Sprintf("%s/invite/%s", h.PublicURL, tok.Token)
	if err := h.Mailer.SendInvite(*guest.Email, guest.Name, eventName, link); err != nil {
		logger.ErrorContext(r.Context(), "invite email failed",
			"guest_id", id, "error", err)
		response.InternalError(w, "could not send invitation")
		return
	}

	logger.InfoContext(r.Context(), "invite sent", "guest_id", id, "email", *guest.Email)
	response.JSON(w, http.StatusOK, map[string]any{
		"message":     "Invitation sent",
		"guest_id":    id,
		"invite_link": link,
	})
}
