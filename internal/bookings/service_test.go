package bookings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tontan-resort/tontan-pms/internal/rooms"
	"github.com/tontan-resort/tontan-pms/internal/seqcode"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// memoryRepo mirrors the transactional contract of the Postgres repository:
// Create, Transition and Delete apply their room and guest effects, and a
// forced failure leaves every record untouched.
type memoryRepo struct {
	mu          sync.Mutex
	nextID      int64
	bookings    map[int64]Booking
	rooms       *stubRooms
	guests      *stubGuests
	failEffects bool
}

func newMemoryRepo(roomStore *stubRooms, guestStore *stubGuests) *memoryRepo {
	return &memoryRepo{
		nextID:   1,
		bookings: make(map[int64]Booking),
		rooms:    roomStore,
		guests:   guestStore,
	}
}

func (m *memoryRepo) lastCode(_ context.Context, pattern string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := ""
	for _, b := range m.bookings {
		if strings.HasPrefix(b.BookingNumber, pattern) && b.BookingNumber > max {
			max = b.BookingNumber
		}
	}
	return max, max != "", nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.GuestID != 0 && b.GuestID != filter.GuestID {
			continue
		}
		out = append(out, b)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (m *memoryRepo) GetByNumber(_ context.Context, number string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingNumber == number {
			return &b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) Create(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	for _, existing := range m.bookings {
		if existing.BookingNumber == b.BookingNumber {
			m.mu.Unlock()
			return seqcode.ErrCodeTaken
		}
	}
	b.ID = m.nextID
	m.nextID++
	b.CreatedAt = time.Now()
	m.bookings[b.ID] = *b
	m.mu.Unlock()
	return m.rooms.SetStatus(ctx, b.RoomID, rooms.StatusReserved)
}

func (m *memoryRepo) Update(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return shared.ErrNotFound
	}
	m.bookings[b.ID] = *b
	return nil
}

func (m *memoryRepo) Transition(ctx context.Context, b *Booking, fx Effects) error {
	if m.failEffects {
		return errors.New("room update failed")
	}
	if err := m.Update(ctx, b); err != nil {
		return err
	}
	if fx.RoomStatus != "" {
		if err := m.rooms.SetStatus(ctx, fx.RoomID, fx.RoomStatus); err != nil {
			return err
		}
	}
	if fx.RoomCleaning != "" {
		if err := m.rooms.SetCleaning(ctx, fx.RoomID, fx.RoomCleaning); err != nil {
			return err
		}
	}
	if fx.BumpVisit {
		return m.guests.RecordVisit(ctx, fx.GuestID, fx.VisitAt)
	}
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id, releaseRoomID int64) error {
	if releaseRoomID != 0 {
		if err := m.rooms.SetStatus(ctx, releaseRoomID, rooms.StatusAvailable); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

type stubRooms struct {
	mu    sync.Mutex
	rooms map[int64]*rooms.Room
}

func newStubRooms(rs ...*rooms.Room) *stubRooms {
	s := &stubRooms{rooms: make(map[int64]*rooms.Room)}
	for _, rm := range rs {
		s.rooms[rm.ID] = rm
	}
	return s
}

func (s *stubRooms) Get(_ context.Context, id int64) (*rooms.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *rm
	return &cp, nil
}

func (s *stubRooms) SetStatus(_ context.Context, id int64, status rooms.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[id]
	if !ok {
		return shared.ErrNotFound
	}
	rm.Status = status
	return nil
}

func (s *stubRooms) SetCleaning(_ context.Context, id int64, status rooms.CleaningStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[id]
	if !ok {
		return shared.ErrNotFound
	}
	rm.CleaningStatus = status
	return nil
}

func (s *stubRooms) status(id int64) rooms.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id].Status
}

func (s *stubRooms) cleaning(id int64) rooms.CleaningStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id].CleaningStatus
}

type stubGuests struct {
	mu     sync.Mutex
	visits map[int64]int
}

func newStubGuests() *stubGuests {
	return &stubGuests{visits: make(map[int64]int)}
}

func (s *stubGuests) RecordVisit(_ context.Context, id int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[id]++
	return nil
}

func testRoom(id int64) *rooms.Room {
	return &rooms.Room{
		ID:       id,
		Number:   int(100 + id),
		Floor:    1,
		Type:     rooms.TypeDeluxe,
		Price:    1500,
		Status:   rooms.StatusAvailable,
		IsActive: true,
	}
}

type fixture struct {
	repo    *memoryRepo
	rooms   *stubRooms
	guests  *stubGuests
	service *Service
}

func newFixture(t *testing.T, at time.Time, roomList ...*rooms.Room) *fixture {
	t.Helper()
	if len(roomList) == 0 {
		roomList = []*rooms.Room{testRoom(1)}
	}
	roomStore := newStubRooms(roomList...)
	guestStore := newStubGuests()
	repo := newMemoryRepo(roomStore, guestStore)
	gen := seqcode.NewGenerator("BK", repo.lastCode)
	svc := NewService(repo, roomStore, gen)
	svc.now = func() time.Time { return at }
	return &fixture{repo: repo, rooms: roomStore, guests: guestStore, service: svc}
}

func stay(nights int) (time.Time, time.Time) {
	in := time.Date(2025, time.January, 10, 14, 0, 0, 0, time.UTC)
	return in, in.AddDate(0, 0, nights)
}

func TestCreateAssignsMonthScopedNumbers(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at, testRoom(1), testRoom(2), testRoom(3))
	in, out := stay(2)

	for i, roomID := range []int64{1, 2, 3} {
		b, err := f.service.Create(context.Background(), Input{
			GuestID: 7, RoomID: roomID, CheckInDate: in, CheckOutDate: out,
		}, 1)
		require.NoError(t, err)
		require.Equal(t, []string{"BK25010001", "BK25010002", "BK25010003"}[i], b.BookingNumber)
	}
}

func TestCreateDerivesNightsAndTotal(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(3)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 3, b.Nights)
	require.Equal(t, 1500.0, b.RoomRate)
	require.Equal(t, 4500.0, b.TotalAmount)
	require.Equal(t, StatusPending, b.Status)
	require.Equal(t, 1, b.Adults)
	require.Equal(t, rooms.StatusReserved, f.rooms.status(1))
}

func TestCreateRejectsReversedDates(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(2)

	_, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: out, CheckOutDate: in,
	}, 1)
	require.ErrorIs(t, err, ErrInvalidDates)

	_, err = f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: in,
	}, 1)
	require.ErrorIs(t, err, ErrInvalidDates)
}

func TestCreateRejectsUnavailableRoom(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	room := testRoom(1)
	room.Status = rooms.StatusOccupied
	f := newFixture(t, at, room)
	in, out := stay(2)

	_, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.ErrorIs(t, err, ErrRoomUnavailable)
}

func TestNumberSeriesRestartsEachMonth(t *testing.T) {
	jan := time.Date(2025, time.January, 28, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, jan, testRoom(1), testRoom(2))
	in, out := stay(2)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "BK25010001", b.BookingNumber)

	f.service.now = func() time.Time {
		return time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)
	}
	b, err = f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 2, CheckInDate: in.AddDate(0, 1, 0), CheckOutDate: out.AddDate(0, 1, 0),
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "BK25020001", b.BookingNumber)
}

func TestLifecycleCheckInThroughCheckOut(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(2)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)

	b, err = f.service.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, b.Status)

	b, err = f.service.CheckIn(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCheckedIn, b.Status)
	require.NotNil(t, b.CheckedInAt)
	require.Equal(t, rooms.StatusOccupied, f.rooms.status(1))
	require.Equal(t, 1, f.guests.visits[7])

	b, err = f.service.CheckOut(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCheckedOut, b.Status)
	require.NotNil(t, b.CheckedOutAt)
	require.Equal(t, rooms.StatusCleaning, f.rooms.status(1))
	require.Equal(t, rooms.CleaningDirty, f.rooms.cleaning(1))
}

func TestCheckInFailureLeavesBookingUnchanged(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(2)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)

	b, err = f.service.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	f.repo.failEffects = true
	_, err = f.service.CheckIn(context.Background(), b.ID)
	require.Error(t, err)

	got, err := f.service.Get(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, got.Status)
	require.Nil(t, got.CheckedInAt)
	require.Equal(t, rooms.StatusReserved, f.rooms.status(1))
	require.Zero(t, f.guests.visits[7])
}

func TestCheckOutBeforeCheckInRejected(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(2)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)

	_, err = f.service.CheckOut(context.Background(), b.ID)
	require.ErrorIs(t, err, ErrBadTransition)
}

func TestCancelFreesRoom(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(2)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)

	b, err = f.service.Cancel(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, b.Status)
	require.NotNil(t, b.CancelledAt)
	require.Equal(t, rooms.StatusAvailable, f.rooms.status(1))

	_, err = f.service.CheckIn(context.Background(), b.ID)
	require.ErrorIs(t, err, ErrBadTransition)
}

func TestDeleteReleasesHeldRoom(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(2)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, rooms.StatusReserved, f.rooms.status(1))

	require.NoError(t, f.service.Delete(context.Background(), b.ID))
	require.Equal(t, rooms.StatusAvailable, f.rooms.status(1))

	_, err = f.service.Get(context.Background(), b.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateKeepsBookingNumber(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(2)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)
	number := b.BookingNumber

	updated, err := f.service.Update(context.Background(), b.ID, Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: in.AddDate(0, 0, 5),
	})
	require.NoError(t, err)
	require.Equal(t, number, updated.BookingNumber)
	require.Equal(t, 5, updated.Nights)
	require.Equal(t, 7500.0, updated.TotalAmount)
}

func TestRecordPaymentRollsStatus(t *testing.T) {
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, at)
	in, out := stay(2)

	b, err := f.service.Create(context.Background(), Input{
		GuestID: 7, RoomID: 1, CheckInDate: in, CheckOutDate: out,
	}, 1)
	require.NoError(t, err)

	b, err = f.service.RecordPayment(context.Background(), b.ID, 1000)
	require.NoError(t, err)
	require.Equal(t, PaymentPartial, b.PaymentStatus)

	b, err = f.service.RecordPayment(context.Background(), b.ID, 2000)
	require.NoError(t, err)
	require.Equal(t, PaymentPaid, b.PaymentStatus)
	require.Equal(t, 3000.0, b.PaidAmount)
}

func TestConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	const writers = 8
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)
	roomList := make([]*rooms.Room, writers)
	for i := range roomList {
		roomList[i] = testRoom(int64(i + 1))
	}
	f := newFixture(t, at, roomList...)
	f.service.codes = seqcode.NewGenerator("BK", f.repo.lastCode, seqcode.WithMaxAttempts(writers))
	in, out := stay(2)

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		roomID := int64(i + 1)
		g.Go(func() error {
			_, err := f.service.Create(context.Background(), Input{
				GuestID: 7, RoomID: roomID, CheckInDate: in, CheckOutDate: out,
			}, 1)
			return err
		})
	}
	require.NoError(t, g.Wait())

	list, total, err := f.repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Equal(t, writers, total)
	seen := make(map[string]bool, writers)
	for _, b := range list {
		require.False(t, seen[b.BookingNumber], "duplicate %s", b.BookingNumber)
		seen[b.BookingNumber] = true
	}
}
