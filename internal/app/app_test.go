package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c *client) do(method, path, userID, role string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		r.Header.Set(middleware.HeaderUserID, userID)
	}
	if role != "" {
		r.Header.Set(middleware.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func newTestApp(t *testing.T) (*client, *clock) {
	t.Helper()
	store := memory.NewStore()
	store.PutResource(domain.Resource{Kind: domain.KindResort, ID: 7, Name: "Lagoon", GuestCapacity: 4, UnitCapacity: 1})

	c := &clock{now: time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)}
	a := New(Storage{
		Bookings:  store.Bookings(),
		Resources: store.Resources(),
		Payments:  store.Payments(),
		Refunds:   store.Refunds(),
		Counters:  store.Counters(),
		TxManager: store.TxManager(),
	}, Options{Clock: c}, logger.NewNop())

	return &client{t: t, handler: a.Handler()}, c
}

func resortBody(checkIn, checkOut string) map[string]interface{} {
	return map[string]interface{}{
		"kind":       "resort",
		"totalPrice": 1000,
		"resort": map[string]interface{}{
			"resortId":   7,
			"checkIn":    checkIn,
			"checkOut":   checkOut,
			"guestCount": 2,
		},
	}
}

func TestBookingRefundFlow(t *testing.T) {
	api, clk := newTestApp(t)

	// Заезд через 10 часов: окно 6 часов
	rec := api.do(http.MethodPost, "/api/v1/bookings", "42", "", resortBody("2025-03-02", "2025-03-04"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		BookingID     int64   `json:"bookingId"`
		Status        string  `json:"status"`
		ReferenceCode *string `json:"referenceCode"`
		ExpiresAt     string  `json:"expiresAt"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "pending", created.Status)
	require.NotNil(t, created.ReferenceCode)
	assert.Equal(t, "RST-20250301-7-0001", *created.ReferenceCode)
	assert.Equal(t, "2025-03-01T20:00:00Z", created.ExpiresAt)
	bookingPath := "/api/v1/bookings/" + strconv.FormatInt(created.BookingID, 10)

	// Ресурс вмещает одно бронирование в день
	rec = api.do(http.MethodPost, "/api/v1/bookings", "43", "", resortBody("2025-03-03", "2025-03-05"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/resources/resort/7/availability?month=3&year=2025", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var calendar struct {
		Days []struct {
			Date   string `json:"date"`
			Status string `json:"status"`
		} `json:"days"`
	}
	decode(t, rec, &calendar)
	require.Len(t, calendar.Days, 31)
	assert.Equal(t, "available", calendar.Days[0].Status)
	assert.Equal(t, "fully_booked", calendar.Days[1].Status)
	assert.Equal(t, "fully_booked", calendar.Days[2].Status)
	assert.Equal(t, "available", calendar.Days[3].Status)

	// Чужое бронирование недоступно
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, bookingPath, "43", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, bookingPath, "", "", nil).Code)

	rec = api.do(http.MethodPost, "/api/v1/internal/payments", "", "system", map[string]interface{}{
		"bookingId": created.BookingID,
		"amount":    1000,
		"status":    "completed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	clk.Advance(5 * time.Hour)
	rec = api.do(http.MethodPost, bookingPath+"/refund", "42", "", map[string]interface{}{"reason": "plans changed"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var refund struct {
		ID           int64   `json:"id"`
		RefundAmount float64 `json:"refundAmount"`
		Status       string  `json:"status"`
	}
	decode(t, rec, &refund)
	assert.Equal(t, 700.0, refund.RefundAmount)
	assert.Equal(t, "pending", refund.Status)

	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, bookingPath+"/refund", "42", "", nil).Code)

	approvePath := "/api/v1/refunds/" + strconv.FormatInt(refund.ID, 10) + "/approve"
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, approvePath, "42", "", nil).Code)
	rec = api.do(http.MethodPatch, approvePath, "1", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &refund)
	assert.Equal(t, "approved", refund.Status)

	rec = api.do(http.MethodGet, bookingPath, "42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var booking struct {
		Status string `json:"status"`
	}
	decode(t, rec, &booking)
	assert.Equal(t, "cancelled", booking.Status)

	// Отмененное бронирование освобождает даты
	rec = api.do(http.MethodPost, "/api/v1/bookings", "43", "", resortBody("2025-03-03", "2025-03-05"))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestExpireOnRead(t *testing.T) {
	api, clk := newTestApp(t)

	rec := api.do(http.MethodPost, "/api/v1/bookings", "42", "", resortBody("2025-03-10", "2025-03-12"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		BookingID int64 `json:"bookingId"`
	}
	decode(t, rec, &created)
	bookingPath := "/api/v1/bookings/" + strconv.FormatInt(created.BookingID, 10)

	// Длинное окно 48 часов
	clk.Advance(49 * time.Hour)

	rec = api.do(http.MethodGet, bookingPath, "42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var booking struct {
		Status string `json:"status"`
	}
	decode(t, rec, &booking)
	assert.Equal(t, "expired", booking.Status)

	// Истекшее бронирование отменить нельзя
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPatch, bookingPath+"/cancel", "42", "", nil).Code)
}

func TestAdminStatusAndLists(t *testing.T) {
	api, _ := newTestApp(t)

	rec := api.do(http.MethodPost, "/api/v1/bookings", "42", "", resortBody("2025-03-10", "2025-03-12"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		BookingID int64 `json:"bookingId"`
	}
	decode(t, rec, &created)
	statusPath := "/api/v1/bookings/" + strconv.FormatInt(created.BookingID, 10) + "/status"

	assert.Equal(t, http.StatusForbidden,
		api.do(http.MethodPatch, statusPath, "42", "", map[string]string{"status": "accepted"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		api.do(http.MethodPatch, statusPath, "1", "admin", map[string]string{"status": "teleported"}).Code)

	rec = api.do(http.MethodPatch, statusPath, "1", "admin", map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// confirmed -> accepted не предусмотрен
	assert.Equal(t, http.StatusConflict,
		api.do(http.MethodPatch, statusPath, "1", "admin", map[string]string{"status": "accepted"}).Code)

	rec = api.do(http.MethodGet, "/api/v1/users/42/bookings", "42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "confirmed", list[0].Status)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/users/42/bookings", "43", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/resources/resort/7/bookings", "42", "", nil).Code)

	rec = api.do(http.MethodGet, "/api/v1/resources/resort/7/bookings?from=2025-03-01&to=2025-04-01", "1", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &list)
	assert.Len(t, list, 1)
}

func TestCreateBooking_Validation(t *testing.T) {
	api, _ := newTestApp(t)

	rec := api.do(http.MethodPost, "/api/v1/bookings", "42", "", map[string]interface{}{
		"kind":   "resort",
		"resort": map[string]interface{}{"resortId": 7, "checkIn": "02.03.2025", "checkOut": "2025-03-04", "guestCount": 0},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &resp)
	assert.Contains(t, resp.Fields, "resort.checkIn")
	assert.Contains(t, resp.Fields, "resort.guestCount")

	assert.Equal(t, http.StatusBadRequest,
		api.do(http.MethodPost, "/api/v1/bookings", "42", "", map[string]interface{}{"kind": "resort", "unknown": true}).Code)
	assert.Equal(t, http.StatusNotFound,
		api.do(http.MethodPost, "/api/v1/bookings", "42", "", map[string]interface{}{
			"kind":   "resort",
			"resort": map[string]interface{}{"resortId": 99, "checkIn": "2025-03-02", "checkOut": "2025-03-04", "guestCount": 2},
		}).Code)
}
