package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
	"github.com/nmhung311/Exp-Gest-System/internal/utils"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

type EventHandler struct {
	Events postgres.EventRepo
}

func NewEventHandler(events postgres.EventRepo) *EventHandler {
	return &EventHandler{Events: events}
}

func (h *EventHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/upcoming", h.listUpcoming)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

// checkEventFields rejects malformed date/time strings and negative
// capacities before they reach the database casts. Empty strings pass,
// callers nil those out.
func checkEventFields(w http.ResponseWriter, date, clock *string, maxGuests *int) bool {
	if date != nil && *date != "" {
		if _, err := time.Parse("2006-01-02", *date); err != nil {
			response.BadRequest(w, "invalid date format, expected YYYY-MM-DD")
			return false
		}
	}
	if clock != nil && *clock != "" {
		if _, err := time.Parse("15:04", *clock); err != nil {
			response.BadRequest(w, "invalid time format, expected HH:MM")
			return false
		}
	}
	if maxGuests != nil && *maxGuests < 0 {
		response.BadRequest(w, "max_guests must be non-negative")
		return false
	}
	return true
}

// dropEmpty maps an empty string pointer to nil so SQL casts never see "".
func dropEmpty(s *string) *string {
	if s != nil && *s == "" {
		return nil
	}
	return s
}

func (h *EventHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.EventReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	in.Name = utils.NormalizeString(in.Name)
	if in.Name == "" {
		response.BadRequest(w, "name is required")
		return
	}
	if in.Status == "" {
		in.Status = string(domain.EventUpcoming)
	}
	if _, ok := domain.ParseEventStatus(in.Status); !ok {
		response.BadRequest(w, "invalid status")
		return
	}
	if !checkEventFields(w, in.Date, in.Time, in.MaxGuests) {
		return
	}
	in.Date = dropEmpty(in.Date)
	in.Time = dropEmpty(in.Time)

	ev, err := h.Events.Create(r.Context(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "event created", "event_id", ev.ID, "name", ev.Name)
	response.JSON(w, http.StatusCreated, map[string]any{
		"message": "Event created successfully",
		"event":   ev,
	})
}

func (h *EventHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	ev, err := h.Events.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if ev == nil {
		response.NotFound(w, "event not found")
		return
	}
	response.JSON(w, http.StatusOK, ev)
}

func (h *EventHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var in domain.EventUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.Status != nil {
		if _, ok := domain.ParseEventStatus(*in.Status); !ok {
			response.BadRequest(w, "invalid status")
			return
		}
	}
	if in.Name != nil {
		trimmed := utils.NormalizeString(*in.Name)
		if trimmed == "" {
			response.BadRequest(w, "name cannot be empty")
			return
		}
		in.Name = &trimmed
	}
	if !checkEventFields(w, in.Date, in.Time, in.MaxGuests) {
		return
	}
	in.Date = dropEmpty(in.Date)
	in.Time = dropEmpty(in.Time)

	ev, err := h.Events.Update(r.Context(), id, &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if ev == nil {
		response.NotFound(w, "event not found")
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": "Event updated successfully",
		"event":   ev,
	})
}

func (h *EventHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.Events.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !deleted {
		response.NotFound(w, "event not found")
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{"message": "Event deleted successfully"})
}

func (h *EventHandler) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *EventHandler) listUpcoming(w http.ResponseWriter, r *http.Request) {
	period := domain.PeriodMonth
	if v := r.URL.Query().Get("period"); v != "" {
		p, ok := domain.ParseEventPeriod(v)
		if !ok {
			response.BadRequest(w, "period must be today, week, month or year")
			return
		}
		period = p
	}

	events, err := h.Events.ListUpcoming(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"events": events,
		"period": period,
	})
}
