package create_booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationService/internal/service/reference"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type recordingScheduler struct {
	mu  sync.Mutex
	due map[int64]time.Time
}

func (s *recordingScheduler) ScheduleExpiry(_ context.Context, bookingID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.due[bookingID] = at
	return nil
}

type failingAllocator struct{}

func (failingAllocator) Allocate(context.Context, domain.ReservationKind, int64, time.Time) (string, error) {
	return "", errors.New("redis: connection refused")
}

func seed(store *memory.Store) {
	store.PutResource(domain.Resource{Kind: domain.KindResort, ID: 7, Name: "Lagoon", GuestCapacity: 4, UnitCapacity: 1})
	store.PutResource(domain.Resource{Kind: domain.KindHotel, ID: 101, ParentID: ptr.Ptr(int64(10)), Name: "Room 101", GuestCapacity: 3, UnitCapacity: 1})
	store.PutResource(domain.Resource{Kind: domain.KindHotel, ID: 201, ParentID: ptr.Ptr(int64(20)), Name: "Room 201", GuestCapacity: 3, UnitCapacity: 1})
	store.PutResource(domain.Resource{Kind: domain.KindBoat, ID: 5, Name: "Marlin", GuestCapacity: 8, UnitCapacity: 2})
	store.PutResource(domain.Resource{Kind: domain.KindRestaurant, ID: 3, Name: "Table 3", GuestCapacity: 6, UnitCapacity: 3})
	store.PutResource(domain.Resource{Kind: domain.KindLandingArea, ID: 9, Name: "North pad", GuestCapacity: 4, UnitCapacity: 1, Maintenance: true})
}

func newUseCase(t *testing.T) (*UseCase, *memory.Store, *recordingScheduler) {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore()
	seed(store)
	sched := &recordingScheduler{due: make(map[int64]time.Time)}
	refs := reference.NewService(store.Counters(), time.UTC, nil, log)
	uc := NewUseCase(store.Bookings(), store.Resources(), refs, store.TxManager(), sched, nil, nil, time.UTC, log).
		WithTimeProvider(fixedTime{now: now})
	return uc, store, sched
}

func resortStay(checkIn time.Time, nights int) *Request {
	return &Request{
		UserID: 42,
		Detail: domain.ResortDetail{
			ResortID:   7,
			CheckIn:    checkIn,
			CheckOut:   checkIn.AddDate(0, 0, nights),
			GuestCount: 2,
		},
		TotalPrice: 1000,
	}
}

func TestExecute_Resort(t *testing.T) {
	uc, store, sched := newUseCase(t)
	checkIn := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	resp, err := uc.Execute(context.Background(), resortStay(checkIn, 2))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.Equal(t, domain.KindResort, resp.Kind)
	require.NotNil(t, resp.ReferenceCode)
	assert.Equal(t, "RST-20250301-7-0001", *resp.ReferenceCode)
	assert.Nil(t, resp.BoatBookingID)
	assert.Equal(t, now.Add(48*time.Hour), resp.ExpiresAt)
	assert.Equal(t, resp.ExpiresAt, sched.due[resp.BookingID])

	stored, err := store.Bookings().GetByID(context.Background(), resp.BookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Detail.(domain.ResortDetail).Status)

	// вторая бронь того же дня получает следующий номер
	resp, err = uc.Execute(context.Background(), resortStay(checkIn.AddDate(0, 0, 2), 1))
	require.NoError(t, err)
	assert.Equal(t, "RST-20250301-7-0002", *resp.ReferenceCode)
}

func TestExecute_OverlapRejected(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	checkIn := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	_, err := uc.Execute(ctx, resortStay(checkIn, 2))
	require.NoError(t, err)

	_, err = uc.Execute(ctx, resortStay(checkIn.AddDate(0, 0, 1), 2))
	assert.ErrorIs(t, err, domain.ErrCapacity)

	// заезд в день выезда предыдущей брони
	_, err = uc.Execute(ctx, resortStay(checkIn.AddDate(0, 0, 2), 2))
	assert.NoError(t, err)
}

func TestExecute_InactiveBookingsDoNotBlock(t *testing.T) {
	uc, store, _ := newUseCase(t)
	ctx := context.Background()
	checkIn := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	first, err := uc.Execute(ctx, resortStay(checkIn, 2))
	require.NoError(t, err)
	b, err := store.Bookings().GetByID(ctx, first.BookingID)
	require.NoError(t, err)
	b.SetStatus(domain.StatusCancelled, now)
	require.NoError(t, store.Bookings().UpdateStatus(ctx, b))

	_, err = uc.Execute(ctx, resortStay(checkIn, 2))
	assert.NoError(t, err)

	// pending бронь с истекшим сроком тоже не занимает место
	_, err = uc.WithTimeProvider(fixedTime{now: now.Add(49 * time.Hour)}).Execute(ctx, resortStay(checkIn, 2))
	assert.NoError(t, err)
}

func TestExecute_HotelWithBoatAddOn(t *testing.T) {
	uc, store, sched := newUseCase(t)
	ctx := context.Background()
	checkIn := time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC)

	resp, err := uc.Execute(ctx, &Request{
		UserID: 42,
		Detail: domain.HotelDetail{
			HotelID:    10,
			RoomID:     101,
			CheckIn:    checkIn,
			CheckOut:   checkIn.AddDate(0, 0, 3),
			GuestCount: 2,
			BoatAddOn:  &domain.BoatDetail{RideAt: checkIn.Add(-2 * time.Hour), Adults: 2, Children: 1},
		},
		TotalPrice: 450,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.ReferenceCode)
	assert.Equal(t, "HTL-20250301-10-0001", *resp.ReferenceCode)
	require.NotNil(t, resp.BoatBookingID)
	// дата услуги через 30ч, окно 48ч
	assert.Equal(t, now.Add(48*time.Hour), resp.ExpiresAt)

	boat, err := store.Bookings().GetByID(ctx, *resp.BoatBookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindBoat, boat.Kind)
	require.NotNil(t, boat.ParentBookingID)
	assert.Equal(t, resp.BookingID, *boat.ParentBookingID)
	assert.Nil(t, boat.ResourceID)
	assert.Nil(t, boat.ReferenceCode)
	assert.Equal(t, 3, boat.GuestCount)
	assert.Equal(t, domain.BoatAwaitingAssignment, boat.Detail.(domain.BoatDetail).Status)

	assert.Len(t, sched.due, 2)
}

func TestExecute_RoomOfAnotherHotel(t *testing.T) {
	uc, _, _ := newUseCase(t)
	checkIn := time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC)

	_, err := uc.Execute(context.Background(), &Request{
		UserID: 42,
		Detail: domain.HotelDetail{HotelID: 10, RoomID: 201, CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 1), GuestCount: 1},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "roomId")
}

func TestExecute_CapacityRules(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 5, 19, 0, 0, 0, time.UTC)

	_, err := uc.Execute(ctx, &Request{UserID: 42, Detail: domain.LandingAreaDetail{LandingAreaID: 9, PickupAt: at, Passengers: 2}})
	assert.ErrorIs(t, err, domain.ErrCapacity, "maintenance")

	_, err = uc.Execute(ctx, &Request{UserID: 42, Detail: domain.RestaurantDetail{TableID: 3, ReservedAt: at, GuestCount: 7}})
	assert.ErrorIs(t, err, domain.ErrCapacity, "guest capacity")

	// стол вмещает три брони в день
	for i := 0; i < 3; i++ {
		_, err = uc.Execute(ctx, &Request{UserID: 42, Detail: domain.RestaurantDetail{TableID: 3, ReservedAt: at.Add(time.Duration(i) * time.Minute), GuestCount: 2}})
		require.NoError(t, err)
	}
	_, err = uc.Execute(ctx, &Request{UserID: 42, Detail: domain.RestaurantDetail{TableID: 3, ReservedAt: at, GuestCount: 2}})
	assert.ErrorIs(t, err, domain.ErrCapacity, "fully booked")

	_, err = uc.Execute(ctx, &Request{UserID: 42, Detail: domain.RestaurantDetail{TableID: 99, ReservedAt: at, GuestCount: 2}})
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestExecute_UnassignedBoatSkipsCalendar(t *testing.T) {
	uc, _, _ := newUseCase(t)
	resp, err := uc.Execute(context.Background(), &Request{
		UserID: 42,
		Detail: domain.BoatDetail{RideAt: now.Add(5 * time.Hour), Adults: 2},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.ReferenceCode)
	// дата услуги через 5ч, окно 6ч
	assert.Equal(t, now.Add(6*time.Hour), resp.ExpiresAt)
}

func TestExecute_Validation(t *testing.T) {
	uc, _, _ := newUseCase(t)

	tests := []struct {
		name   string
		req    *Request
		fields []string
	}{
		{
			name:   "missing detail",
			req:    &Request{UserID: 42},
			fields: []string{"kind"},
		},
		{
			name: "stay in the past with checkout before checkin",
			req: &Request{UserID: 0, TotalPrice: -1, Detail: domain.ResortDetail{
				ResortID: 7, CheckIn: now.AddDate(0, 0, -2), CheckOut: now.AddDate(0, 0, -3), GuestCount: 0,
			}},
			fields: []string{"userId", "totalPrice", "checkIn", "checkOut", "guestCount"},
		},
		{
			name: "stay too long",
			req: &Request{UserID: 42, Detail: domain.ResortDetail{
				ResortID: 7, CheckIn: now.AddDate(0, 0, 1), CheckOut: now.AddDate(0, 0, 62), GuestCount: 2,
			}},
			fields: []string{"checkOut"},
		},
		{
			name: "boat add-on without adults",
			req: &Request{UserID: 42, Detail: domain.HotelDetail{
				HotelID: 10, RoomID: 101, CheckIn: now.AddDate(0, 0, 1), CheckOut: now.AddDate(0, 0, 2), GuestCount: 2,
				BoatAddOn: &domain.BoatDetail{RideAt: now.Add(-time.Hour), Adults: 0},
			}},
			fields: []string{"boat.adults", "boat.rideAt"},
		},
		{
			name:   "restaurant in the past",
			req:    &Request{UserID: 42, Detail: domain.RestaurantDetail{TableID: 3, ReservedAt: now.Add(-time.Minute), GuestCount: 2}},
			fields: []string{"reservedAt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.req)
			require.ErrorIs(t, err, domain.ErrValidation)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			for _, field := range tt.fields {
				assert.Contains(t, verr.Fields, field)
			}
		})
	}
}

func TestExecute_AllocationFailureRollsBack(t *testing.T) {
	log := logger.NewNop()
	store := memory.NewStore()
	seed(store)
	uc := NewUseCase(store.Bookings(), store.Resources(), failingAllocator{}, store.TxManager(), nil, nil, nil, time.UTC, log).
		WithTimeProvider(fixedTime{now: now})

	_, err := uc.Execute(context.Background(), resortStay(time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), 2))
	assert.ErrorIs(t, err, domain.ErrTransaction)

	list, err := store.Bookings().List(context.Background(), domain.BookingFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecute_ConcurrentSameDatesOnlyOneWins(t *testing.T) {
	uc, _, _ := newUseCase(t)
	checkIn := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	var (
		wg       sync.WaitGroup
		ok       int32
		capacity int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), resortStay(checkIn, 2))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, domain.ErrCapacity):
				atomic.AddInt32(&capacity, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(19), capacity)
}
