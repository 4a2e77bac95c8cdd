package handlers_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
)

// ---------- Mocks ----------

type mockGuestRepo struct {
	nextID    int64
	guests    map[int64]*domain.Guest
	pageCalls int
}

func newMockGuestRepo() *mockGuestRepo {
	return &mockGuestRepo{nextID: 1, guests: make(map[int64]*domain.Guest)}
}

func (m *mockGuestRepo) seed(name string) *domain.Guest {
	g := &domain.Guest{
		ID:            m.nextID,
		Name:          name,
		RSVPStatus:    domain.RSVPPending,
		CheckinStatus: domain.NotArrived,
		CreatedAt:     time.Now(),
	}
	m.nextID++
	m.guests[g.ID] = g
	return g
}

func (m *mockGuestRepo) Create(_ context.Context, in *domain.GuestReq) (*domain.Guest, error) {
	if in.Email != "" {
		for _, g := range m.guests {
			if g.Email != nil && *g.Email == in.Email {
				return nil, &postgres.DuplicateError{Field: "email"}
			}
		}
	}
	g := m.seed(in.Name)
	g.Title = in.Title
	g.Role = in.Role
	g.Organization = in.Organization
	g.Tag = in.Tag
	g.EventID = in.EventID
	if in.Email != "" {
		email := in.Email
		g.Email = &email
	}
	if in.Phone != "" {
		phone := in.Phone
		g.Phone = &phone
	}
	return g, nil
}

func (m *mockGuestRepo) Update(_ context.Context, id int64, in *domain.GuestReq) (*domain.Guest, error) {
	g, ok := m.guests[id]
	if !ok {
		return nil, nil
	}
	g.Name = in.Name
	g.Title = in.Title
	g.Role = in.Role
	g.Organization = in.Organization
	g.Tag = in.Tag
	return g, nil
}

func (m *mockGuestRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.guests[id]; !ok {
		return false, nil
	}
	delete(m.guests, id)
	return true, nil
}

func (m *mockGuestRepo) GetByID(_ context.Context, id int64) (*domain.Guest, error) {
	return m.guests[id], nil
}

func (m *mockGuestRepo) sorted() []domain.Guest {
	out := make([]domain.Guest, 0, len(m.guests))
	for _, g := range m.guests {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockGuestRepo) List(_ context.Context) ([]domain.Guest, error) {
	return m.sorted(), nil
}

func (m *mockGuestRepo) ListCheckedIn(_ context.Context, _ *int64) ([]domain.CheckedInGuest, error) {
	var out []domain.CheckedInGuest
	for _, g := range m.sorted() {
		if g.CheckinStatus == domain.Arrived {
			out = append(out, domain.CheckedInGuest{
				Guest:         g,
				CheckedInAt:   time.Now(),
				CheckinMethod: domain.MethodQRCode,
			})
		}
	}
	return out, nil
}

func (m *mockGuestRepo) matches(g domain.Guest, f postgres.GuestFilters) bool {
	if f.EventID != nil && (g.EventID == nil || *g.EventID != *f.EventID) {
		return false
	}
	if f.Status != "" && string(g.RSVPStatus) != f.Status {
		return false
	}
	if f.Checkin == "checked_in" && g.CheckinStatus != domain.Arrived {
		return false
	}
	if f.Checkin == "not_checked_in" && g.CheckinStatus != domain.NotArrived {
		return false
	}
	if f.Tag != "" && g.Tag != f.Tag {
		return false
	}
	return true
}

func (m *mockGuestRepo) filtered(f postgres.GuestFilters) []domain.Guest {
	var out []domain.Guest
	for _, g := range m.sorted() {
		if m.matches(g, f) {
			out = append(out, g)
		}
	}
	return out
}

func (m *mockGuestRepo) ListPage(_ context.Context, f postgres.GuestFilters, limit, offset int) ([]domain.Guest, error) {
	m.pageCalls++
	all := m.filtered(f)
	if offset >= len(all) {
		return []domain.Guest{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *mockGuestRepo) CountFiltered(_ context.Context, f postgres.GuestFilters) (int, error) {
	return len(m.filtered(f)), nil
}

func (m *mockGuestRepo) Stats(_ context.Context, f postgres.GuestFilters) (*domain.GuestStats, error) {
	stats := &domain.GuestStats{}
	for _, g := range m.filtered(f) {
		stats.Total++
		switch g.RSVPStatus {
		case domain.RSVPAccepted:
			stats.Accepted++
		case domain.RSVPDeclined:
			stats.Declined++
		default:
			stats.Pending++
		}
		if g.CheckinStatus == domain.Arrived {
			stats.CheckedIn++
		} else {
			stats.NotArrived++
		}
	}
	return stats, nil
}

func (m *mockGuestRepo) SetCheckinStatus(_ context.Context, id int64, status domain.CheckinStatus) error {
	g, ok := m.guests[id]
	if !ok {
		return fmt.Errorf("guest %d not found", id)
	}
	g.CheckinStatus = status
	return nil
}

func (m *mockGuestRepo) SetRSVPStatus(_ context.Context, id int64, status domain.RSVPStatus) error {
	g, ok := m.guests[id]
	if !ok {
		return fmt.Errorf("guest %d not found", id)
	}
	g.RSVPStatus = status
	return nil
}

func (m *mockGuestRepo) BulkSetRSVP(_ context.Context, ids []int64, status domain.RSVPStatus) (int, error) {
	count := 0
	for _, id := range ids {
		if g, ok := m.guests[id]; ok {
			g.RSVPStatus = status
			count++
		}
	}
	return count, nil
}

func (m *mockGuestRepo) BulkDelete(_ context.Context, ids []int64) (int, error) {
	count := 0
	for _, id := range ids {
		if _, ok := m.guests[id]; ok {
			delete(m.guests, id)
			count++
		}
	}
	return count, nil
}

type mockEventRepo struct {
	nextID int64
	events map[int64]*domain.Event
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{nextID: 1, events: make(map[int64]*domain.Event)}
}

func (m *mockEventRepo) Create(_ context.Context, in *domain.EventReq) (*domain.Event, error) {
	status := domain.EventStatus(in.Status)
	if status == "" {
		status = domain.EventUpcoming
	}
	ev := &domain.Event{
		ID:        m.nextID,
		Name:      in.Name,
		Date:      in.Date,
		Time:      in.Time,
		Location:  in.Location,
		Status:    status,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.events[ev.ID] = ev
	return ev, nil
}

func (m *mockEventRepo) Update(_ context.Context, id int64, in *domain.EventUpdateReq) (*domain.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	if in.Name != nil {
		ev.Name = *in.Name
	}
	if in.Status != nil {
		ev.Status = domain.EventStatus(*in.Status)
	}
	return ev, nil
}

func (m *mockEventRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.events[id]; !ok {
		return false, nil
	}
	delete(m.events, id)
	return true, nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	return m.events[id], nil
}

func (m *mockEventRepo) sorted() []domain.Event {
	out := make([]domain.Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, *ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockEventRepo) List(_ context.Context) ([]domain.Event, error) {
	return m.sorted(), nil
}

func (m *mockEventRepo) ListUpcoming(_ context.Context, _ domain.EventPeriod) ([]domain.Event, error) {
	var out []domain.Event
	for _, ev := range m.sorted() {
		if ev.Status == domain.EventUpcoming {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *mockEventRepo) ListPage(_ context.Context, _ postgres.EventFilters, limit, offset int) ([]domain.Event, error) {
	all := m.sorted()
	if offset >= len(all) {
		return []domain.Event{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *mockEventRepo) CountFiltered(_ context.Context, _ postgres.EventFilters) (int, error) {
	return len(m.events), nil
}

func (m *mockEventRepo) Stats(_ context.Context, _ postgres.EventFilters) (*domain.EventStats, error) {
	stats := &domain.EventStats{}
	for _, ev := range m.events {
		stats.Total++
		switch ev.Status {
		case domain.EventUpcoming:
			stats.Upcoming++
		case domain.EventOngoing:
			stats.Ongoing++
		case domain.EventCompleted:
			stats.Completed++
		case domain.EventCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

type mockTokenRepo struct {
	nextID  int64
	byValue map[string]*domain.Token
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{nextID: 1, byValue: make(map[string]*domain.Token)}
}

func (m *mockTokenRepo) Create(_ context.Context, guestID int64, token string) (*domain.Token, error) {
	if _, exists := m.byValue[token]; exists {
		return nil, &postgres.DuplicateError{Field: "token"}
	}
	for _, t := range m.byValue {
		if t.GuestID == guestID && t.Status == domain.TokenActive {
			return nil, &postgres.DuplicateError{Field: "guest"}
		}
	}
	tok := &domain.Token{
		ID:        m.nextID,
		GuestID:   guestID,
		Token:     token,
		Status:    domain.TokenActive,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.byValue[token] = tok
	return tok, nil
}

func (m *mockTokenRepo) GetActiveByGuest(_ context.Context, guestID int64) (*domain.Token, error) {
	for _, t := range m.byValue {
		if t.GuestID == guestID && t.Status == domain.TokenActive {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTokenRepo) GetByValue(_ context.Context, token string) (*domain.Token, error) {
	return m.byValue[token], nil
}

func (m *mockTokenRepo) GetActiveByValue(_ context.Context, token string) (*domain.Token, error) {
	t := m.byValue[token]
	if t == nil || t.Status != domain.TokenActive {
		return nil, nil
	}
	return t, nil
}

func (m *mockTokenRepo) Reactivate(_ context.Context, id int64) error {
	for _, t := range m.byValue {
		if t.ID == id {
			t.Status = domain.TokenActive
			return nil
		}
	}
	return nil
}

type mockCheckinRepo struct {
	nextID  int64
	byGuest map[int64]*domain.Checkin
	guests  *mockGuestRepo
}

func newMockCheckinRepo(guests *mockGuestRepo) *mockCheckinRepo {
	return &mockCheckinRepo{nextID: 1, byGuest: make(map[int64]*domain.Checkin), guests: guests}
}

func (m *mockCheckinRepo) Create(ctx context.Context, guestID int64, gate, staff, method string) (*domain.Checkin, error) {
	if _, exists := m.byGuest[guestID]; exists {
		return nil, &postgres.DuplicateError{Field: "guest"}
	}
	ci := &domain.Checkin{
		ID:      m.nextID,
		GuestID: guestID,
		Time:    time.Now(),
		Gate:    &gate,
		Staff:   &staff,
		Method:  method,
	}
	m.nextID++
	m.byGuest[guestID] = ci
	_ = m.guests.SetCheckinStatus(ctx, guestID, domain.Arrived)
	return ci, nil
}

func (m *mockCheckinRepo) GetByGuest(_ context.Context, guestID int64) (*domain.Checkin, error) {
	return m.byGuest[guestID], nil
}

func (m *mockCheckinRepo) Delete(ctx context.Context, guestID int64) (bool, error) {
	_, exists := m.byGuest[guestID]
	delete(m.byGuest, guestID)
	if g, _ := m.guests.GetByID(ctx, guestID); g != nil {
		g.CheckinStatus = domain.NotArrived
	}
	return exists, nil
}

func (m *mockCheckinRepo) BulkCheckIn(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error) {
	res := &domain.BulkResult{Skipped: []int64{}}
	for _, id := range guestIDs {
		if _, err := m.Create(ctx, id, "Bulk", "System", domain.MethodBulk); err != nil {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		res.Count++
	}
	return res, nil
}

func (m *mockCheckinRepo) BulkCheckOut(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error) {
	res := &domain.BulkResult{Skipped: []int64{}}
	for _, id := range guestIDs {
		deleted, _ := m.Delete(ctx, id)
		if !deleted {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		res.Count++
	}
	return res, nil
}

func (m *mockCheckinRepo) CountFiltered(context.Context, postgres.GuestFilters) (int, error) {
	return len(m.byGuest), nil
}

type mockUserRepo struct {
	nextID   int64
	users    map[int64]*domain.User
	sessions map[string]*domain.UserToken
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		nextID:   1,
		users:    make(map[int64]*domain.User),
		sessions: make(map[string]*domain.UserToken),
	}
}

func (m *mockUserRepo) Create(_ context.Context, username, email, passwordHash, role string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return nil, &postgres.DuplicateError{Field: "username"}
		}
		if u.Email == email {
			return nil, &postgres.DuplicateError{Field: "email"}
		}
	}
	u := &domain.User{
		ID:           m.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepo) CreateSession(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	m.sessions[token] = &domain.UserToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *mockUserRepo) FindBySession(_ context.Context, token string) (*domain.User, error) {
	s, ok := m.sessions[token]
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return m.users[s.UserID], nil
}

func (m *mockUserRepo) DeleteExpiredSessions(_ context.Context) (int64, error) {
	var n int64
	for token, s := range m.sessions {
		if time.Now().After(s.ExpiresAt) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

type mockMailer struct {
	lastTo    string
	lastEvent string
	lastLink  string
	sendErr   error
}

func (m *mockMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	m.lastTo = toEmail
	return "mock-id", m.sendErr
}

func (m *mockMailer) SendInvite(toEmail, toName, eventName, inviteLink string) error {
	m.lastTo = toEmail
	m.lastEvent = eventName
	m.lastLink = inviteLink
	return m.sendErr
}
