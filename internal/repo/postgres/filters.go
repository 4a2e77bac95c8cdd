package postgres

import (
	"fmt"
	"strconv"
	"strings"
)

// GuestFilters narrows guest listings. Zero values mean "no filter"; the
// literal value "all" coming from clients also means no filter.
type GuestFilters struct {
	EventID      *int64
	Search       string
	Status       string // rsvp_status
	Tag          string
	Organization string
	Role         string
	Checkin      string // "checked_in" or "not_checked_in"
}

func GuestFiltersFromMap(m map[string]string) GuestFilters {
	var f GuestFilters
	if v := m["event_id"]; v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.EventID = &id
		}
	}
	f.Search = m["search"]
	f.Status = filterValue(m["status"])
	f.Tag = filterValue(m["tag"])
	f.Organization = filterValue(m["organization"])
	f.Role = filterValue(m["role"])
	return f
}

// CheckinFiltersFromMap is GuestFiltersFromMap with the status key bound to
// check-in state instead of RSVP state.
func CheckinFiltersFromMap(m map[string]string) GuestFilters {
	f := GuestFiltersFromMap(m)
	f.Status = ""
	f.Checkin = filterValue(m["status"])
	return f
}

func filterValue(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

// whereClause builds the WHERE fragment and its arguments. Column references
// assume the guests table is aliased g.
func (f GuestFilters) whereClause() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.EventID != nil {
		add("g.event_id = $%d", *f.EventID)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		args = append(args, pattern)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(g.name ILIKE $%d OR g.email ILIKE $%d OR g.phone ILIKE $%d OR g.role ILIKE $%d OR g.organization ILIKE $%d OR g.tag ILIKE $%d)",
			n, n, n, n, n, n))
	}
	if f.Status != "" {
		add("g.rsvp_status = $%d", f.Status)
	}
	if f.Tag != "" {
		add("g.tag = $%d", f.Tag)
	}
	if f.Organization != "" {
		add("g.organization = $%d", f.Organization)
	}
	if f.Role != "" {
		add("g.role = $%d", f.Role)
	}
	switch f.Checkin {
	case "checked_in":
		conds = append(conds, "g.checkin_status = 'arrived'")
	case "not_checked_in":
		conds = append(conds, "g.checkin_status = 'not_arrived'")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// EventFilters narrows event listings.
type EventFilters struct {
	Search string
	Status string
	Date   string // today, week, month, year
}

func EventFiltersFromMap(m map[string]string) EventFilters {
	return EventFilters{
		Search: m["search"],
		Status: filterValue(m["status"]),
		Date:   filterValue(m["date"]),
	}
}

func (f EventFilters) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		args = append(args, pattern)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", n, n, n))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if cond := dateWindow(f.Date); cond != "" {
		conds = append(conds, cond)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// dateWindow returns a SQL condition limiting events.date to the named
// wall-clock window, computed database-side so app and DB agree on "today".
func dateWindow(period string) string {
	switch period {
	case "today":
		return "date = CURRENT_DATE"
	case "week":
		return "date BETWEEN date_trunc('week', CURRENT_DATE)::date AND (date_trunc('week', CURRENT_DATE) + interval '6 days')::date"
	case "month":
		return "date BETWEEN date_trunc('month', CURRENT_DATE)::date AND (date_trunc('month', CURRENT_DATE) + interval '1 month - 1 day')::date"
	case "year":
		return "date BETWEEN date_trunc('year', CURRENT_DATE)::date AND (date_trunc('year', CURRENT_DATE) + interval '1 year - 1 day')::date"
	default:
		return ""
	}
}
