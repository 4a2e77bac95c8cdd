package domain

import "time"

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func ParseEventStatus(s string) (EventStatus, bool) {
	switch EventStatus(s) {
	case EventUpcoming, EventOngoing, EventCompleted, EventCancelled:
		return EventStatus(s), true
	default:
		return "", false
	}
}

// EventPeriod is the window accepted by the upcoming-events filter.
type EventPeriod string

const (
	PeriodToday EventPeriod = "today"
	PeriodWeek  EventPeriod = "week"
	PeriodMonth EventPeriod = "month"
	PeriodYear  EventPeriod = "year"
)

func ParseEventPeriod(s string) (EventPeriod, bool) {
	switch EventPeriod(s) {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return EventPeriod(s), true
	default:
		return "", false
	}
}

type Event struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Date           *string     `json:"date"` // YYYY-MM-DD
	Time           *string     `json:"time"` // HH:MM
	Location       string      `json:"location"`
	VenueAddress   string      `json:"venue_address"`
	VenueMapURL    string      `json:"venue_map_url"`
	DressCode      string      `json:"dress_code"`
	ProgramOutline string      `json:"program_outline"`
	Status         EventStatus `json:"status"`
	MaxGuests      int         `json:"max_guests"`
	CreatedAt      time.Time   `json:"created_at"`
}

type EventReq struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Date           *string `json:"date"`
	Time           *string `json:"time"`
	Location       string  `json:"location"`
	VenueAddress   string  `json:"venue_address"`
	VenueMapURL    string  `json:"venue_map_url"`
	DressCode      string  `json:"dress_code"`
	ProgramOutline string  `json:"program_outline"`
	Status         string  `json:"status"`
	MaxGuests      *int    `json:"max_guests"`
}

// EventUpdateReq distinguishes absent fields from zero values for partial updates.
type EventUpdateReq struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Date           *string `json:"date"`
	Time           *string `json:"time"`
	Location       *string `json:"location"`
	VenueAddress   *string `json:"venue_address"`
	VenueMapURL    *string `json:"venue_map_url"`
	DressCode      *string `json:"dress_code"`
	ProgramOutline *string `json:"program_outline"`
	Status         *string `json:"status"`
	MaxGuests      *int    `json:"max_guests"`
}
