package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/clock"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/model"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/notify"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/recurrence"
	"github.com/Haus-des-Engagements/re-sharing-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDB — база в памяти с теми же ограничениями, что и схема:
// частичный уникальный индекс (series_id, date) и exclusion-ограничение
// на пересечение подтверждённых бронирований одного ресурса.
// Интерфейсы хранилищ реализуют обёртки fake*Store поверх общего состояния.
type fakeDB struct {
	mu sync.Mutex

	nextBookingID int64
	nextSeriesID  int64

	bookings      map[int64]*model.Booking
	series        map[int64]*model.RecurrenceSeries
	resources     map[int64]*model.Resource
	compensations map[int64]*model.Compensation
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		bookings:      make(map[int64]*model.Booking),
		series:        make(map[int64]*model.RecurrenceSeries),
		resources:     make(map[int64]*model.Resource),
		compensations: make(map[int64]*model.Compensation),
	}
}

func (db *fakeDB) addResource(resource *model.Resource) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.resources[resource.ID] = resource
}

func (db *fakeDB) addCompensation(compensation *model.Compensation) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.compensations[compensation.ID] = compensation
}

func (db *fakeDB) addSeries(series *model.RecurrenceSeries) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextSeriesID++
	series.ID = db.nextSeriesID
	copied := *series
	db.series[series.ID] = &copied
}

func (db *fakeDB) bookingCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.bookings)
}

func (db *fakeDB) seriesBookings(seriesID int64) []*model.Booking {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*model.Booking
	for _, b := range db.bookings {
		if b.SeriesID != nil && *b.SeriesID == seriesID {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Begin.Before(out[j].Begin) })
	return out
}

// removeBooking имитирует падение прошлого прогона: строка есть, кэш не обновлён.
func (db *fakeDB) removeBooking(id int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.bookings, id)
}

type fakeBookingStore struct{ db *fakeDB }

func (f *fakeBookingStore) Create(_ context.Context, booking *model.Booking) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	for _, existing := range f.db.bookings {
		if booking.SeriesID != nil && existing.SeriesID != nil &&
			*existing.SeriesID == *booking.SeriesID && existing.Date.Equal(booking.Date) {
			return repository.ErrDuplicateOccurrence
		}
		if booking.Status == model.BookingStatusConfirmed &&
			existing.Status == model.BookingStatusConfirmed &&
			existing.ResourceID == booking.ResourceID &&
			existing.Begin.Before(booking.End) && existing.End.After(booking.Begin) {
			return repository.ErrOverlapConflict
		}
	}

	f.db.nextBookingID++
	booking.ID = f.db.nextBookingID
	copied := *booking
	f.db.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	booking, ok := f.db.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) GetBySeriesID(_ context.Context, seriesID int64) ([]*model.Booking, error) {
	return f.db.seriesBookings(seriesID), nil
}

func (f *fakeBookingStore) ConfirmedOverlapExists(_ context.Context, resourceID int64, begin, end time.Time) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range f.db.bookings {
		if b.Status == model.BookingStatusConfirmed && b.ResourceID == resourceID &&
			b.Begin.Before(end) && b.End.After(begin) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingStore) SeriesOverlapExists(_ context.Context, seriesID, resourceID int64, begin, end time.Time, status model.BookingStatus) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range f.db.bookings {
		if b.SeriesID != nil && *b.SeriesID == seriesID && b.ResourceID == resourceID &&
			b.Status == status && b.Begin.Before(end) && b.End.After(begin) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingStore) MaxOccurrenceDate(_ context.Context, seriesID int64) (*time.Time, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var max *time.Time
	for _, b := range f.db.bookings {
		if b.SeriesID == nil || *b.SeriesID != seriesID {
			continue
		}
		if max == nil || b.Date.After(*max) {
			date := b.Date
			max = &date
		}
	}
	return max, nil
}

func (f *fakeBookingStore) UpdateStatus(_ context.Context, id int64, status model.BookingStatus) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	booking, ok := f.db.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	if status == model.BookingStatusConfirmed {
		for _, other := range f.db.bookings {
			if other.ID != id && other.Status == model.BookingStatusConfirmed &&
				other.ResourceID == booking.ResourceID &&
				other.Begin.Before(booking.End) && other.End.After(booking.Begin) {
				return repository.ErrOverlapConflict
			}
		}
	}
	booking.Status = status
	return nil
}

func (f *fakeBookingStore) CancelFutureBySeries(_ context.Context, seriesID int64, from time.Time) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var cancelled int64
	for _, b := range f.db.bookings {
		if b.SeriesID == nil || *b.SeriesID != seriesID {
			continue
		}
		if b.Status == model.BookingStatusCancelled || b.Begin.Before(from) {
			continue
		}
		b.Status = model.BookingStatusCancelled
		cancelled++
	}
	return cancelled, nil
}

type fakeSeriesStore struct{ db *fakeDB }

func (f *fakeSeriesStore) Create(_ context.Context, series *model.RecurrenceSeries) error {
	f.db.addSeries(series)
	return nil
}

func (f *fakeSeriesStore) GetByID(_ context.Context, id int64) (*model.RecurrenceSeries, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	series, ok := f.db.series[id]
	if !ok {
		return nil, nil
	}
	copied := *series
	return &copied, nil
}

func (f *fakeSeriesStore) GetAllActive(_ context.Context) ([]*model.RecurrenceSeries, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*model.RecurrenceSeries
	for _, s := range f.db.series {
		if s.IsActive() {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSeriesStore) UpdateStatus(_ context.Context, id int64, status model.SeriesStatus) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if series, ok := f.db.series[id]; ok {
		series.Status = status
	}
	return nil
}

func (f *fakeSeriesStore) UpdateLastOccurrenceDate(_ context.Context, id int64, date *time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if series, ok := f.db.series[id]; ok {
		series.LastOccurrenceDate = date
	}
	return nil
}

type fakeResourceStore struct{ db *fakeDB }

func (f *fakeResourceStore) GetByID(_ context.Context, id int64) (*model.Resource, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	resource, ok := f.db.resources[id]
	if !ok {
		return nil, nil
	}
	copied := *resource
	return &copied, nil
}

type fakeCompensationStore struct{ db *fakeDB }

func (f *fakeCompensationStore) GetByID(_ context.Context, id int64) (*model.Compensation, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	compensation, ok := f.db.compensations[id]
	if !ok {
		return nil, nil
	}
	copied := *compensation
	return &copied, nil
}

// testEnv собирает сервисный граф поверх fakeDB с остановленными часами.
type testEnv struct {
	db             *fakeDB
	bookings       *fakeBookingStore
	seriesStore    *fakeSeriesStore
	clock          *clock.Fixed
	location       *time.Location
	materializer   *Materializer
	extension      *ExtensionService
	seriesService  *SeriesService
	bookingService *BookingService
}

func newTestEnv(t *testing.T, now time.Time, maxFutureDays int) *testEnv {
	t.Helper()

	location, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	db := newFakeDB()
	bookings := &fakeBookingStore{db: db}
	seriesStore := &fakeSeriesStore{db: db}
	resources := &fakeResourceStore{db: db}
	compensations := &fakeCompensationStore{db: db}

	clk := clock.NewFixed(now)
	logger := zap.NewNop()

	materializer := NewMaterializer(bookings, resources, compensations, clk, location)
	guard := NewGuard(bookings)
	extension := NewExtensionService(seriesStore, bookings, materializer, guard, clk, location, maxFutureDays, notify.Nop{}, logger)

	return &testEnv{
		db:             db,
		bookings:       bookings,
		seriesStore:    seriesStore,
		clock:          clk,
		location:       location,
		materializer:   materializer,
		extension:      extension,
		seriesService:  NewSeriesService(seriesStore, bookings, extension, clk, location, notify.Nop{}, logger),
		bookingService: NewBookingService(bookings, resources, compensations, clk, location, notify.Nop{}, logger),
	}
}

// addActiveRoom добавляет активное помещение с указанным идентификатором.
func (e *testEnv) addActiveRoom(id int64) {
	e.db.addResource(&model.Resource{
		ID:             id,
		OrganizationID: 1,
		Name:           "Seminarraum 1",
		Slug:           "seminarraum-1",
		Kind:           model.ResourceKindRoom,
		IsActive:       true,
	})
}

// testSeries строит серию с разумными значениями по умолчанию:
// помещение 1, вхождения 10:00-12:00.
func testSeries(rule recurrence.Rule, firstDate time.Time, status model.SeriesStatus) *model.RecurrenceSeries {
	return &model.RecurrenceSeries{
		PublicID:            uuid.New(),
		Rule:                rule.Encode(),
		FirstOccurrenceDate: firstDate,
		ResourceID:          1,
		OrganizationID:      1,
		UserID:              1,
		StartHour:           10,
		EndHour:             12,
		Activity:            "Wöchentliches Plenum",
		AttendeeCount:       12,
		Status:              status,
	}
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	location, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return location
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
