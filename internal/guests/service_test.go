package guests

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tontan-resort/tontan-pms/internal/shared"
)

type memoryRepo struct {
	guests map[int64]*Guest
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{guests: make(map[int64]*Guest)}
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]Guest, int, error) {
	var list []Guest
	for _, g := range r.guests {
		if filter.VIPOnly && !g.VIP {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(g.FirstName, filter.Search) &&
			!strings.Contains(g.LastName, filter.Search) &&
			!strings.Contains(g.Phone, filter.Search) {
			continue
		}
		list = append(list, *g)
	}
	return list, len(list), nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*Guest, error) {
	g, ok := r.guests[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (r *memoryRepo) Create(_ context.Context, guest Guest) (int64, error) {
	r.nextID++
	guest.ID = r.nextID
	r.guests[guest.ID] = &guest
	return guest.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, guest Guest) error {
	if _, ok := r.guests[guest.ID]; !ok {
		return shared.ErrNotFound
	}
	r.guests[guest.ID] = &guest
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.guests[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.guests, id)
	return nil
}

func (r *memoryRepo) RecordVisit(_ context.Context, id int64, at time.Time) error {
	g, ok := r.guests[id]
	if !ok {
		return shared.ErrNotFound
	}
	g.VisitCount++
	g.LastVisit = &at
	return nil
}

func TestCreateAppliesThaiDefaults(t *testing.T) {
	svc := NewService(newMemoryRepo())

	guest, err := svc.Create(context.Background(), Input{
		FirstName: "สมชาย",
		LastName:  "ใจดี",
		Phone:     "0812345678",
	}, 7)
	require.NoError(t, err)
	require.Equal(t, "นาย", guest.Title)
	require.Equal(t, "บัตรประชาชน", guest.IDType)
	require.Equal(t, "ไทย", guest.Nationality)
	require.Equal(t, "ไทย", guest.Address.Country)
	require.EqualValues(t, 7, guest.CreatedBy)
	require.Equal(t, "นาย สมชาย ใจดี", guest.FullName())
}

func TestUpdatePreservesVisitHistory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	guest, err := svc.Create(ctx, Input{FirstName: "สมชาย", LastName: "ใจดี", Phone: "0812345678"}, 1)
	require.NoError(t, err)

	stay := time.Date(2025, time.January, 20, 14, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecordVisit(ctx, guest.ID, stay))

	updated, err := svc.Update(ctx, guest.ID, Input{
		FirstName: "สมชาย", LastName: "ใจดี", Phone: "0898765432", VIP: true,
	})
	require.NoError(t, err)
	require.True(t, updated.VIP)
	require.Equal(t, 1, updated.VisitCount)
	require.NotNil(t, updated.LastVisit)
	require.Equal(t, stay, *updated.LastVisit)
}

func TestRecordVisitUnknownGuest(t *testing.T) {
	svc := NewService(newMemoryRepo())
	err := svc.RecordVisit(context.Background(), 99, time.Now())
	require.ErrorIs(t, err, shared.ErrNotFound)
}
