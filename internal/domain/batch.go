package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FilterMap accepts string, numeric and boolean filter values from clients,
// normalizing everything to strings.
type FilterMap map[string]string

func (m *FilterMap) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		case nil:
			// absent
		default:
			return fmt.Errorf("filter %q: unsupported value type", k)
		}
	}
	*m = out
	return nil
}

// BatchReq asks for several logical pages of a filtered listing at once.
type BatchReq struct {
	Pages        []int     `json:"pages"`
	ItemsPerPage int       `json:"items_per_page"`
	Filters      FilterMap `json:"filters"`
}

type Pagination struct {
	TotalItems   int   `json:"total_items"`
	TotalPages   int   `json:"total_pages"`
	ItemsPerPage int   `json:"items_per_page"`
	LoadedPages  []int `json:"loaded_pages"`
}

type BatchRes struct {
	Data       map[int]any `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type StatsReq struct {
	Entities []string  `json:"entities"`
	Filters  FilterMap `json:"filters"`
}

type GuestStats struct {
	Total      int `json:"total"`
	Accepted   int `json:"accepted"`
	Declined   int `json:"declined"`
	Pending    int `json:"pending"`
	CheckedIn  int `json:"checked_in"`
	NotArrived int `json:"not_arrived"`
}

type EventStats struct {
	Total     int `json:"total"`
	Upcoming  int `json:"upcoming"`
	Ongoing   int `json:"ongoing"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type CheckinStats struct {
	Total        int `json:"total"`
	CheckedIn    int `json:"checked_in"`
	NotCheckedIn int `json:"not_checked_in"`
}
