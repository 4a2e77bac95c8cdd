package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/platform/mailer"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
	"github.com/nmhung311/Exp-Gest-System/internal/utils"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

type GuestHandler struct {
	Guests    postgres.GuestRepo
	Tokens    service.TokenService
	Checkins  service.CheckinService
	RSVP      service.RSVPService
	Mailer    mailer.Service
	PublicURL string
}

func NewGuestHandler(
	guests postgres.GuestRepo,
	tokens service.TokenService,
	checkins service.CheckinService,
	rsvp service.RSVPService,
	mail mailer.Service,
	publicURL string,
) *GuestHandler {
	return &GuestHandler{
		Guests:    guests,
		Tokens:    tokens,
		Checkins:  checkins,
		RSVP:      rsvp,
		Mailer:    mail,
		PublicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (h *GuestHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/checked-in", h.listCheckedIn)
	r.Post("/import", h.importJSON)
	r.Post("/import-csv", h.importCSV)
	r.Post("/bulk-checkin", h.bulkCheckIn)
	r.Post("/bulk-checkout", h.bulkCheckOut)
	r.Delete("/bulk-delete", h.bulkDelete)
	r.Post("/bulk-rsvp", h.bulkRSVP)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/qr", h.issueQR)
	r.Get("/{id}/qr-image", h.qrImage)
	r.Post("/{id}/invite", h.invite)
	return r
}

func normalizeGuestReq(in *domain.GuestReq) {
	in.Name = utils.NormalizeString(in.Name)
	in.Title = utils.NormalizeString(in.Title)
	in.Role = utils.NormalizeString(in.Role)
	in.Organization = utils.NormalizeString(in.Organization)
	in.Tag = utils.NormalizeString(in.Tag)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Phone = utils.NormalizePhone(in.Phone)
}

func (h *GuestHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.GuestReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	normalizeGuestReq(&in)
	if in.Name == "" {
		response.BadRequest(w, "name is required")
		return
	}
	if in.Email != "" && !utils.IsValidEmail(in.Email) {
		response.BadRequest(w, "invalid email")
		return
	}

	g, err := h.Guests.Create(r.Context(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "guest created", "guest_id", g.ID, "name", g.Name)
	response.JSON(w, http.StatusCreated, map[string]any{
		"message": "Guest created successfully",
		"guest":   g,
	})
}

func (h *GuestHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var in domain.GuestReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	normalizeGuestReq(&in)
	if in.Name == "" {
		response.BadRequest(w, "name is required")
		return
	}

	g, err := h.Guests.Update(r.Context(), id, &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if g == nil {
		response.NotFound(w, "guest not found")
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": "Guest updated successfully",
		"guest":   g,
	})
}

func (h *GuestHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.Guests.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !deleted {
		response.NotFound(w, "guest not found")
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{"message": "Guest deleted successfully"})
}

func (h *GuestHandler) list(w http.ResponseWriter, r *http.Request) {
	guests, err := h.Guests.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"guests": guests})
}

func (h *GuestHandler) listCheckedIn(w http.ResponseWriter, r *http.Request) {
	var eventID *int64
	if v := r.URL.Query().Get("event_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.BadRequest(w, "invalid event_id")
			return
		}
		eventID = &id
	}

	guests, err := h.Guests.ListCheckedIn(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, guests)
}

// guestImportRow is one element of the JSON import payload.
type guestImportRow struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Tag          string `json:"tag"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	EventID      *int64 `json:"event_id"`
}

func (h *GuestHandler) importJSON(w http.ResponseWriter, r *http.Request) {
	var rows []guestImportRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		response.BadRequest(w, "body must be a JSON array")
		return
	}

	result := domain.ImportResult{Errors: []string{}}
	for _, row := range rows {
		h.importRow(r, &result, &row, nil)
	}

	logger.InfoContext(r.Context(), "guest import completed",
		"imported", result.Imported, "failed", result.Failed)
	response.JSON(w, http.StatusOK, result)
}

func (h *GuestHandler) importCSV(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		response.BadRequest(w, "file must be CSV")
		return
	}

	var formEventID *int64
	if v := strings.TrimSpace(r.FormValue("event_id")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			formEventID = &id
		}
	}

	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		response.BadRequest(w, "error processing CSV: "+err.Error())
		return
	}
	col := map[string]int{}
	for i, name := range headers {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	result := domain.ImportResult{Errors: []string{}}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: %v", result.Imported+result.Failed, err))
			continue
		}

		row := guestImportRow{
			Name:         field(record, "name"),
			Title:        field(record, "title"),
			Role:         field(record, "role"),
			Organization: field(record, "organization"),
			Tag:          field(record, "tag"),
			Email:        field(record, "email"),
			Phone:        field(record, "phone"),
		}
		if v := field(record, "event_id"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				row.EventID = &id
			}
		}
		h.importRow(r, &result, &row, formEventID)
	}

	response.JSON(w, http.StatusOK, result)
}

// importRow creates one guest, folding any failure into the result instead
// of aborting the batch.
func (h *GuestHandler) importRow(r *http.Request, result *domain.ImportResult, row *guestImportRow, eventOverride *int64) {
	rowNum := result.Imported + result.Failed + 1

	in := domain.GuestReq{
		Name:         row.Name,
		Title:        row.Title,
		Role:         row.Role,
		Organization: row.Organization,
		Tag:          row.Tag,
		Email:        row.Email,
		Phone:        row.Phone,
		EventID:      row.EventID,
	}
	if eventOverride != nil {
		in.EventID = eventOverride
	}
	normalizeGuestReq(&in)

	if in.Name == "" {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Missing name", rowNum))
		return
	}

	if _, err := h.Guests.Create(r.Context(), &in); err != nil {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		return
	}
	result.Imported++
}

type bulkIDsReq struct {
	GuestIDs []int64 `json:"guest_ids"`
	EventID  *int64  `json:"event_id"`
}

func (h *GuestHandler) bulkCheckIn(w http.ResponseWriter, r *http.Request) {
	var in bulkIDsReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if len(in.GuestIDs) == 0 {
		response.BadRequest(w, "no guests selected")
		return
	}
	if in.EventID == nil {
		response.BadRequest(w, "event_id is required")
		return
	}

	res, err := h.Checkins.BulkCheckIn(r.Context(), in.GuestIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Successfully checked in %d guests", res.Count),
		"count":   res.Count,
		"skipped": res.Skipped,
	})
}

func (h *GuestHandler) bulkCheckOut(w http.ResponseWriter, r *http.Request) {
	var in bulkIDsReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if len(in.GuestIDs) == 0 {
		response.BadRequest(w, "no guests selected")
		return
	}

	res, err := h.Checkins.BulkCheckOut(r.Context(), in.GuestIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Successfully checked out %d guests", res.Count),
		"count":   res.Count,
		"skipped": res.Skipped,
	})
}

func (h *GuestHandler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var in bulkIDsReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if len(in.GuestIDs) == 0 {
		response.BadRequest(w, "no guests selected")
		return
	}

	count, err := h.Guests.BulkDelete(r.Context(), in.GuestIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Successfully deleted %d guests", count),
		"count":   count,
	})
}

type bulkRSVPReq struct {
	GuestIDs []int64 `json:"guest_ids"`
	Status   string  `json:"rsvp_status"`
}

func (h *GuestHandler) bulkRSVP(w http.ResponseWriter, r *http.Request) {
	var in bulkRSVPReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if len(in.GuestIDs) == 0 {
		response.BadRequest(w, "no guests selected")
		return
	}

	count, err := h.RSVP.BulkRespond(r.Context(), in.GuestIDs, strings.ToLower(in.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Updated RSVP for %d guests", count),
		"count":   count,
	})
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}
