package service_test

import (
	"context"
	"fmt"
	"time"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
)

// ---------- Mocks ----------

type mockTokenRepo struct {
	nextID    int64
	byValue   map[string]*domain.Token
	creates   int
	createErr error

	// hideActiveOnce makes the first GetActiveByGuest miss, simulating a
	// concurrent issuer that commits between the check and the insert.
	hideActiveOnce bool
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{nextID: 1, byValue: make(map[string]*domain.Token)}
}

func (m *mockTokenRepo) Create(_ context.Context, guestID int64, token string) (*domain.Token, error) {
	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}
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
	if m.hideActiveOnce {
		m.hideActiveOnce = false
		return nil, nil
	}
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
			for _, other := range m.byValue {
				if other.GuestID == t.GuestID && other.Status == domain.TokenActive {
					return &postgres.DuplicateError{Field: "guest"}
				}
			}
			t.Status = domain.TokenActive
			return nil
		}
	}
	return nil
}

// seed registers an existing token directly.
func (m *mockTokenRepo) seed(guestID int64, value string, status domain.TokenStatus, expiresAt *time.Time) *domain.Token {
	tok := &domain.Token{
		ID:        m.nextID,
		GuestID:   guestID,
		Token:     value,
		Status:    status,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	m.nextID++
	m.byValue[value] = tok
	return tok
}

type mockGuestRepo struct {
	nextID int64
	guests map[int64]*domain.Guest
}

func newMockGuestRepo() *mockGuestRepo {
	return &mockGuestRepo{nextID: 1, guests: make(map[int64]*domain.Guest)}
}

func (m *mockGuestRepo) seed(name string, eventID *int64) *domain.Guest {
	g := &domain.Guest{
		ID:            m.nextID,
		Name:          name,
		RSVPStatus:    domain.RSVPPending,
		CheckinStatus: domain.NotArrived,
		EventID:       eventID,
		CreatedAt:     time.Now(),
	}
	m.nextID++
	m.guests[g.ID] = g
	return g
}

func (m *mockGuestRepo) Create(_ context.Context, in *domain.GuestReq) (*domain.Guest, error) {
	g := m.seed(in.Name, in.EventID)
	g.Title = in.Title
	g.Role = in.Role
	g.Organization = in.Organization
	g.Tag = in.Tag
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

func (m *mockGuestRepo) List(_ context.Context) ([]domain.Guest, error) {
	var out []domain.Guest
	for _, g := range m.guests {
		out = append(out, *g)
	}
	return out, nil
}

func (m *mockGuestRepo) ListCheckedIn(context.Context, *int64) ([]domain.CheckedInGuest, error) {
	return nil, nil
}

func (m *mockGuestRepo) ListPage(context.Context, postgres.GuestFilters, int, int) ([]domain.Guest, error) {
	return nil, nil
}

func (m *mockGuestRepo) CountFiltered(context.Context, postgres.GuestFilters) (int, error) {
	return len(m.guests), nil
}

func (m *mockGuestRepo) Stats(context.Context, postgres.GuestFilters) (*domain.GuestStats, error) {
	return &domain.GuestStats{Total: len(m.guests)}, nil
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
