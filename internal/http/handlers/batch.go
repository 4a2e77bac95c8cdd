package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nmhung311/Exp-Gest-System/internal/cache"
	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

const (
	defaultItemsPerPage = 10
	maxItemsPerPage     = 100
)

// BatchHandler serves multi-page listing requests so the client can hydrate
// several pages in one round trip. Responses are memoized in the cache store.
type BatchHandler struct {
	Guests   postgres.GuestRepo
	Events   postgres.EventRepo
	Checkins postgres.CheckinRepo
	Cache    *cache.Store
}

func NewBatchHandler(
	guests postgres.GuestRepo,
	events postgres.EventRepo,
	checkins postgres.CheckinRepo,
	store *cache.Store,
) *BatchHandler {
	return &BatchHandler{Guests: guests, Events: events, Checkins: checkins, Cache: store}
}

func (h *BatchHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/guests", h.guests)
	r.Post("/events", h.events)
	r.Post("/checkin", h.checkedIn)
	r.Post("/stats", h.stats)
	r.Post("/cache/clear", h.cacheClear)
	r.Get("/cache/stats", h.cacheStats)
	return r
}

// normalizeBatchReq dedupes the requested page list, drops page numbers
// below 1 and clamps the page size.
func normalizeBatchReq(in *domain.BatchReq) {
	if in.ItemsPerPage <= 0 {
		in.ItemsPerPage = defaultItemsPerPage
	}
	if in.ItemsPerPage > maxItemsPerPage {
		in.ItemsPerPage = maxItemsPerPage
	}
	seen := make(map[int]bool, len(in.Pages))
	pages := in.Pages[:0]
	for _, p := range in.Pages {
		if p < 1 || seen[p] {
			continue
		}
		seen[p] = true
		pages = append(pages, p)
	}
	sort.Ints(pages)
	in.Pages = pages
}

func decodeBatchReq(w http.ResponseWriter, r *http.Request) (*domain.BatchReq, bool) {
	var in domain.BatchReq
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			response.BadRequest(w, "invalid json")
			return nil, false
		}
	}
	normalizeBatchReq(&in)
	if len(in.Pages) == 0 {
		response.BadRequest(w, "no pages specified")
		return nil, false
	}
	return &in, true
}

// batchPages assembles the page map. fetch returns one page of rows; total
// is the filtered row count. Pages beyond the last page come back as empty
// arrays rather than errors.
func batchPages(in *domain.BatchReq, total int, fetch func(limit, offset int) (any, error)) (*domain.BatchRes, error) {
	totalPages := (total + in.ItemsPerPage - 1) / in.ItemsPerPage

	data := make(map[int]any, len(in.Pages))
	for _, page := range in.Pages {
		if page > totalPages {
			data[page] = []any{}
			continue
		}
		rows, err := fetch(in.ItemsPerPage, (page-1)*in.ItemsPerPage)
		if err != nil {
			return nil, err
		}
		data[page] = rows
	}

	return &domain.BatchRes{
		Data: data,
		Pagination: domain.Pagination{
			TotalItems:   total,
			TotalPages:   totalPages,
			ItemsPerPage: in.ItemsPerPage,
			LoadedPages:  in.Pages,
		},
	}, nil
}

func (h *BatchHandler) guests(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeBatchReq(w, r)
	if !ok {
		return
	}

	key := cache.Key("guests", in.Pages, in.ItemsPerPage, in.Filters)
	var cached domain.BatchRes
	if h.Cache.Get(key, &cached) {
		response.JSON(w, http.StatusOK, &cached)
		return
	}

	filters := postgres.GuestFiltersFromMap(in.Filters)
	total, err := h.Guests.CountFiltered(r.Context(), filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := batchPages(in, total, func(limit, offset int) (any, error) {
		return h.Guests.ListPage(r.Context(), filters, limit, offset)
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Cache.Set(key, res)
	response.JSON(w, http.StatusOK, res)
}

func (h *BatchHandler) events(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeBatchReq(w, r)
	if !ok {
		return
	}

	key := cache.Key("events", in.Pages, in.ItemsPerPage, in.Filters)
	var cached domain.BatchRes
	if h.Cache.Get(key, &cached) {
		response.JSON(w, http.StatusOK, &cached)
		return
	}

	filters := postgres.EventFiltersFromMap(in.Filters)
	total, err := h.Events.CountFiltered(r.Context(), filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := batchPages(in, total, func(limit, offset int) (any, error) {
		return h.Events.ListPage(r.Context(), filters, limit, offset)
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Cache.Set(key, res)
	response.JSON(w, http.StatusOK, res)
}

func (h *BatchHandler) checkedIn(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeBatchReq(w, r)
	if !ok {
		return
	}

	key := cache.Key("checkin", in.Pages, in.ItemsPerPage, in.Filters)
	var cached domain.BatchRes
	if h.Cache.Get(key, &cached) {
		response.JSON(w, http.StatusOK, &cached)
		return
	}

	filters := postgres.CheckinFiltersFromMap(in.Filters)
	if filters.Checkin == "" {
		filters.Checkin = "checked_in"
	}
	total, err := h.Guests.CountFiltered(r.Context(), filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := batchPages(in, total, func(limit, offset int) (any, error) {
		return h.Guests.ListPage(r.Context(), filters, limit, offset)
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Cache.Set(key, res)
	response.JSON(w, http.StatusOK, res)
}

func (h *BatchHandler) stats(w http.ResponseWriter, r *http.Request) {
	var in domain.StatsReq
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			response.BadRequest(w, "invalid json")
			return
		}
	}
	if len(in.Entities) == 0 {
		in.Entities = []string{"guests", "events", "checkin"}
	}

	key := cache.Key("stats:"+strings.Join(in.Entities, ","), nil, 0, in.Filters)
	var cached map[string]any
	if h.Cache.Get(key, &cached) {
		response.JSON(w, http.StatusOK, cached)
		return
	}

	out := make(map[string]any, len(in.Entities))
	for _, entity := range in.Entities {
		switch entity {
		case "guests":
			stats, err := h.Guests.Stats(r.Context(), postgres.GuestFiltersFromMap(in.Filters))
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			out["guests"] = stats
		case "events":
			stats, err := h.Events.Stats(r.Context(), postgres.EventFiltersFromMap(in.Filters))
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			out["events"] = stats
		case "checkin":
			f := postgres.CheckinFiltersFromMap(in.Filters)
			f.Checkin = ""
			checked, err := h.Checkins.CountFiltered(r.Context(), f)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			total, err := h.Guests.CountFiltered(r.Context(), f)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			out["checkin"] = domain.CheckinStats{
				Total:        total,
				CheckedIn:    checked,
				NotCheckedIn: total - checked,
			}
		default:
			response.BadRequest(w, "unknown entity: "+entity)
			return
		}
	}

	h.Cache.Set(key, out)
	response.JSON(w, http.StatusOK, out)
}

func (h *BatchHandler) cacheClear(w http.ResponseWriter, r *http.Request) {
	h.Cache.Clear()
	logger.InfoContext(r.Context(), "batch cache cleared")
	response.JSON(w, http.StatusOK, map[string]any{"message": "Cache cleared"})
}

func (h *BatchHandler) cacheStats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.Cache.Stats())
}
