package booking

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/cache"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/infra/repository"
	"github.com/BruksfildServices01/marketplace/internal/models"
	"github.com/BruksfildServices01/marketplace/internal/testutil"
	ucPricing "github.com/BruksfildServices01/marketplace/internal/usecase/pricing"
)

type publisherRecorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *publisherRecorder) Publish(_ context.Context, ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *publisherRecorder) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Name)
	}
	return out
}

type env struct {
	db        *gorm.DB
	f         testutil.Fixture
	repo      *repository.BookingGormRepository
	published *publisherRecorder

	create           *CreateBooking
	approve          *ApproveBooking
	reject           *RejectBooking
	cancel           *CancelBooking
	complete         *CompleteBooking
	acceptSuggestion *AcceptSuggestion
	rejectSuggestion *RejectSuggestion
	list             *ListBookings
}

func newEnv(t *testing.T, c cache.Cache) *env {
	t.Helper()

	db := testutil.NewDB(t)
	f := testutil.Seed(t, db, 100, 60)
	repo := repository.NewBookingGormRepository(db)
	pricer := ucPricing.NewResolver(repository.NewDiscountGormRepository(db), zap.NewNop())

	if c == nil {
		c = cache.New(nil, zap.NewNop())
	}
	pub := &publisherRecorder{}
	fanout := NewFanout(pub, c, nil, zap.NewNop())

	return &env{
		db:               db,
		f:                f,
		repo:             repo,
		published:        pub,
		create:           NewCreateBooking(repo, pricer, fanout),
		approve:          NewApproveBooking(repo, fanout),
		reject:           NewRejectBooking(repo, fanout),
		cancel:           NewCancelBooking(repo, fanout),
		complete:         NewCompleteBooking(repo, fanout),
		acceptSuggestion: NewAcceptSuggestion(repo, pricer, fanout),
		rejectSuggestion: NewRejectSuggestion(repo, fanout),
		list:             NewListBookings(repo),
	}
}

func (e *env) book(t *testing.T, date, clock string) *CreateBookingResult {
	t.Helper()
	res, err := e.create.Execute(context.Background(), CreateBookingInput{
		ClientID:           e.f.Client.ID,
		ServiceID:          e.f.Service.ID,
		ServiceVariationID: e.f.Variation.ID,
		StartDate:          date,
		StartTime:          clock,
	})
	require.NoError(t, err)
	return res
}

// seedBooking stores a booking directly in the given status.
func (e *env) seedBooking(t *testing.T, date, clock string, status domain.Status) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ClientID:           e.f.Client.ID,
		ProviderID:         e.f.Provider.ID,
		ServiceID:          e.f.Service.ID,
		ServiceVariationID: e.f.Variation.ID,
		StartDate:          date,
		StartTime:          clock,
		Status:             string(status),
		TotalPrice:         100,
	}
	require.NoError(t, e.repo.CreateBooking(context.Background(), b))
	return b
}

func (e *env) reload(t *testing.T, id uint) *models.Booking {
	t.Helper()
	b, err := e.repo.GetBooking(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (e *env) notifications(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("id ASC").Find(&out).Error)
	return out
}

func strp(s string) *string { return &s }

func TestScenarioA_CreateThenApprove(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	res := e.book(t, "2024-01-10", "14:00")
	assert.Empty(t, res.Warning)
	assert.Equal(t, string(domain.StatusPending), res.Booking.Status)
	assert.Equal(t, 100.0, res.Booking.TotalPrice)
	assert.Equal(t, e.f.Provider.ID, res.Booking.ProviderID)

	providerNotes := e.notifications(t, e.f.Provider.ID)
	require.Len(t, providerNotes, 1)
	assert.Equal(t, models.NotificationNewBooking, providerNotes[0].Type)

	approved, err := e.approve.Execute(ctx, e.f.Provider.ID, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), approved.Status)
	assert.Equal(t, string(domain.StatusConfirmed), e.reload(t, res.Booking.ID).Status)

	clientNotes := e.notifications(t, e.f.Client.ID)
	require.Len(t, clientNotes, 1)
	assert.Equal(t, models.NotificationBookingUpdated, clientNotes[0].Type)
	assert.Equal(t, res.Booking.ID, *clientNotes[0].BookingID)

	assert.Equal(t, []string{realtime.EventBookingCreated, realtime.EventBookingUpdated}, e.published.names())
	assert.ElementsMatch(t, []uint{e.f.Provider.ID, e.f.Client.ID}, e.published.events[1].UserIDs)
}

func TestScenarioB_ApproveBlockedByConfirmedOverlap(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	e.seedBooking(t, "2024-01-10", "14:00", domain.StatusConfirmed)

	res, err := e.create.Execute(ctx, CreateBookingInput{
		ClientID:           e.f.Client.ID,
		ServiceID:          e.f.Service.ID,
		ServiceVariationID: e.f.Variation.ID,
		StartDate:          "2024-01-10",
		StartTime:          "14:30",
		EndDate:            strp("2024-01-10"),
		EndTime:            strp("15:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, OverlapWarning, res.Warning)
	assert.Equal(t, string(domain.StatusPending), res.Booking.Status)

	_, err = e.approve.Execute(ctx, e.f.Provider.ID, res.Booking.ID)
	require.Error(t, err)
	be, ok := httperr.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, httperr.KindConflict, be.Kind)
	assert.Equal(t, "time_conflict", be.Code)

	assert.Equal(t, string(domain.StatusPending), e.reload(t, res.Booking.ID).Status)
	assert.Empty(t, e.notifications(t, e.f.Client.ID), "failed approval leaves no notification")
}

func TestApproveBlockedByOverlappingPending(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	first := e.book(t, "2024-01-10", "14:00")
	second := e.book(t, "2024-01-10", "14:30")
	assert.Empty(t, second.Warning, "pending bookings do not warn at creation")

	_, err := e.approve.Execute(ctx, e.f.Provider.ID, second.Booking.ID)
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))

	_, err = e.reject.Execute(ctx, e.f.Provider.ID, first.Booking.ID, RejectBookingInput{})
	require.NoError(t, err)

	_, err = e.approve.Execute(ctx, e.f.Provider.ID, second.Booking.ID)
	assert.NoError(t, err)
}

func TestTouchingBookingsDoNotConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	e.seedBooking(t, "2024-01-10", "14:00", domain.StatusConfirmed)

	res := e.book(t, "2024-01-10", "15:00")
	assert.Empty(t, res.Warning)

	_, err := e.approve.Execute(ctx, e.f.Provider.ID, res.Booking.ID)
	assert.NoError(t, err)
}

func TestOverlapAcrossMidnightAndMultiDay(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	late := e.seedBooking(t, "2024-01-09", "23:30", domain.StatusConfirmed)
	res := e.book(t, "2024-01-10", "00:00")
	assert.Equal(t, OverlapWarning, res.Warning)

	late.Status = string(domain.StatusCancelled)
	require.NoError(t, e.repo.UpdateBooking(ctx, late))

	long := e.seedBooking(t, "2024-01-01", "08:00", domain.StatusConfirmed)
	long.EndDate = strp("2024-01-20")
	long.EndTime = strp("18:00")
	require.NoError(t, e.repo.UpdateBooking(ctx, long))

	res = e.book(t, "2024-01-15", "10:00")
	assert.Equal(t, OverlapWarning, res.Warning)
}

func TestApproveBlockedByLongDurationOnlyBooking(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	threeDays := models.ServiceVariation{ServiceID: e.f.Service.ID, Name: "Deep clean", Price: 300, DurationMinutes: 3 * 24 * 60}
	require.NoError(t, e.db.Create(&threeDays).Error)

	long := &models.Booking{
		ClientID:           e.f.Client.ID,
		ProviderID:         e.f.Provider.ID,
		ServiceID:          e.f.Service.ID,
		ServiceVariationID: threeDays.ID,
		StartDate:          "2024-01-08",
		StartTime:          "10:00",
		Status:             string(domain.StatusConfirmed),
		TotalPrice:         300,
	}
	require.NoError(t, e.repo.CreateBooking(ctx, long))

	res := e.book(t, "2024-01-10", "09:00")
	assert.Equal(t, OverlapWarning, res.Warning)

	_, err := e.approve.Execute(ctx, e.f.Provider.ID, res.Booking.ID)
	assert.True(t, httperr.IsBusiness(err, "time_conflict"), "got %v", err)
	assert.Equal(t, string(domain.StatusPending), e.reload(t, res.Booking.ID).Status)

	after := e.book(t, "2024-01-11", "10:00")
	assert.Empty(t, after.Warning, "the span ends at 10:00 on the third day")
}

func TestCreateAppliesDayOfWeekDiscount(t *testing.T) {
	e := newEnv(t, nil)
	// 2024-01-10 is a Wednesday
	require.NoError(t, e.db.Create(&models.Discount{
		ServiceVariationID: e.f.Variation.ID, DayOfWeek: 3, Percentage: 20, IsActive: true,
	}).Error)

	res := e.book(t, "2024-01-10", "09:00")
	assert.Equal(t, 80.0, res.Booking.TotalPrice)

	res = e.book(t, "2024-01-11", "09:00")
	assert.Equal(t, 100.0, res.Booking.TotalPrice)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	other := testutil.Seed(t, e.db, 50, 30)

	base := CreateBookingInput{
		ClientID:           e.f.Client.ID,
		ServiceID:          e.f.Service.ID,
		ServiceVariationID: e.f.Variation.ID,
		StartDate:          "2024-01-10",
		StartTime:          "09:00",
	}

	tests := []struct {
		name   string
		mutate func(in *CreateBookingInput)
		code   string
	}{
		{"bad date", func(in *CreateBookingInput) { in.StartDate = "10/01/2024" }, "invalid_date"},
		{"bad time", func(in *CreateBookingInput) { in.StartTime = "9am" }, "invalid_time"},
		{"half end", func(in *CreateBookingInput) { in.EndDate = strp("2024-01-10") }, "incomplete_end"},
		{"unknown service", func(in *CreateBookingInput) { in.ServiceID = 9999 }, "service_not_found"},
		{"foreign variation", func(in *CreateBookingInput) { in.ServiceVariationID = other.Variation.ID }, "invalid_variation"},
		{"unknown variation", func(in *CreateBookingInput) { in.ServiceVariationID = 9999 }, "invalid_variation"},
		{"own service", func(in *CreateBookingInput) { in.ClientID = e.f.Provider.ID }, "own_service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := e.create.Execute(ctx, in)
			assert.True(t, httperr.IsBusiness(err, tt.code), "got %v", err)
		})
	}

	var count int64
	require.NoError(t, e.db.Model(&models.Booking{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestScenarioC_AcceptSuggestion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	original := e.book(t, "2024-01-10", "14:00").Booking

	rejected, err := e.reject.Execute(ctx, e.f.Provider.ID, original.ID, RejectBookingInput{
		Reason:        "fully booked",
		SuggestedDate: "2024-02-01",
		SuggestedTime: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRejected), rejected.Status)

	clientNotes := e.notifications(t, e.f.Client.ID)
	require.Len(t, clientNotes, 1)
	assert.Equal(t, models.NotificationBookingRejected, clientNotes[0].Type)
	assert.Contains(t, clientNotes[0].Message, "2024-02-01 at 09:00")

	res, err := e.acceptSuggestion.Execute(ctx, e.f.Client.ID, original.ID)
	require.NoError(t, err)

	alt := e.reload(t, res.Alternative.ID)
	assert.Equal(t, "2024-02-01", alt.StartDate)
	assert.Equal(t, "09:00", alt.StartTime)
	assert.Equal(t, string(domain.StatusPending), alt.Status)
	assert.Equal(t, 100.0, alt.TotalPrice)

	orig := e.reload(t, original.ID)
	require.NotNil(t, orig.AlternativeBookingID)
	assert.Equal(t, alt.ID, *orig.AlternativeBookingID)
	assert.Equal(t, string(domain.StatusRejected), orig.Status)

	assert.Contains(t, e.published.names(), realtime.EventSuggestionAccepted)

	_, err = e.acceptSuggestion.Execute(ctx, e.f.Client.ID, original.ID)
	assert.True(t, httperr.IsBusiness(err, "suggestion_already_accepted"))

	_, err = e.rejectSuggestion.Execute(ctx, e.f.Client.ID, original.ID)
	assert.True(t, httperr.IsBusiness(err, "suggestion_already_accepted"))

	var count int64
	require.NoError(t, e.db.Model(&models.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestAcceptSuggestionRepricesForNewDate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	// 2024-02-01 is a Thursday
	require.NoError(t, e.db.Create(&models.Discount{
		ServiceVariationID: e.f.Variation.ID, DayOfWeek: 4, Percentage: 30, IsActive: true,
	}).Error)

	original := e.book(t, "2024-01-10", "14:00").Booking
	_, err := e.reject.Execute(ctx, e.f.Provider.ID, original.ID, RejectBookingInput{SuggestedDate: "2024-02-01", SuggestedTime: "09:00"})
	require.NoError(t, err)

	res, err := e.acceptSuggestion.Execute(ctx, e.f.Client.ID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, res.Alternative.TotalPrice)
}

func TestAcceptSuggestionConflict(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	e.seedBooking(t, "2024-02-01", "09:30", domain.StatusConfirmed)

	original := e.book(t, "2024-01-10", "14:00").Booking
	_, err := e.reject.Execute(ctx, e.f.Provider.ID, original.ID, RejectBookingInput{SuggestedDate: "2024-02-01", SuggestedTime: "09:00"})
	require.NoError(t, err)

	_, err = e.acceptSuggestion.Execute(ctx, e.f.Client.ID, original.ID)
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))
	assert.Nil(t, e.reload(t, original.ID).AlternativeBookingID)
}

func TestSuggestionGuards(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	noSuggestion := e.book(t, "2024-01-10", "10:00").Booking
	_, err := e.reject.Execute(ctx, e.f.Provider.ID, noSuggestion.ID, RejectBookingInput{Reason: "no"})
	require.NoError(t, err)
	_, err = e.acceptSuggestion.Execute(ctx, e.f.Client.ID, noSuggestion.ID)
	assert.True(t, httperr.IsBusiness(err, "no_suggestion"))

	pending := e.book(t, "2024-01-11", "10:00").Booking
	_, err = e.acceptSuggestion.Execute(ctx, e.f.Client.ID, pending.ID)
	assert.True(t, httperr.IsBusiness(err, "booking_not_rejected"))

	_, err = e.reject.Execute(ctx, e.f.Provider.ID, pending.ID, RejectBookingInput{SuggestedDate: "2024-01-12"})
	assert.True(t, httperr.IsBusiness(err, "incomplete_suggestion"))
	assert.Equal(t, string(domain.StatusPending), e.reload(t, pending.ID).Status)
}

func TestRejectSuggestionIsSingleUse(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	original := e.book(t, "2024-01-10", "14:00").Booking
	_, err := e.reject.Execute(ctx, e.f.Provider.ID, original.ID, RejectBookingInput{SuggestedDate: "2024-02-01", SuggestedTime: "09:00"})
	require.NoError(t, err)

	b, err := e.rejectSuggestion.Execute(ctx, e.f.Client.ID, original.ID)
	require.NoError(t, err)
	assert.NotNil(t, b.SuggestionRejectedAt)

	providerNotes := e.notifications(t, e.f.Provider.ID)
	assert.Equal(t, models.NotificationBookingUpdated, providerNotes[len(providerNotes)-1].Type)

	_, err = e.rejectSuggestion.Execute(ctx, e.f.Client.ID, original.ID)
	assert.True(t, httperr.IsBusiness(err, "suggestion_already_rejected"))

	_, err = e.acceptSuggestion.Execute(ctx, e.f.Client.ID, original.ID)
	assert.True(t, httperr.IsBusiness(err, "suggestion_already_rejected"))
}

func TestCompleteOnlyFromConfirmed(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	b := e.book(t, "2024-01-10", "14:00").Booking

	_, err := e.complete.Execute(ctx, e.f.Provider.ID, b.ID)
	assert.True(t, httperr.IsBusiness(err, "booking_not_confirmed"))
	assert.Equal(t, string(domain.StatusPending), e.reload(t, b.ID).Status)

	_, err = e.approve.Execute(ctx, e.f.Provider.ID, b.ID)
	require.NoError(t, err)

	_, err = e.complete.Execute(ctx, e.f.Client.ID, b.ID)
	assert.True(t, httperr.IsBusiness(err, "not_booking_provider"))

	done, err := e.complete.Execute(ctx, e.f.Provider.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)

	_, err = e.complete.Execute(ctx, e.f.Provider.ID, b.ID)
	assert.True(t, httperr.IsBusiness(err, "booking_not_confirmed"))
}

func TestCancelDirections(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	t.Run("client cancels pending", func(t *testing.T) {
		b := e.book(t, "2024-03-01", "10:00").Booking
		out, err := e.cancel.Execute(ctx, e.f.Client.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCancelled), out.Status)

		notes := e.notifications(t, e.f.Provider.ID)
		assert.Equal(t, models.NotificationBookingCancelled, notes[len(notes)-1].Type)
	})

	t.Run("provider cancels confirmed", func(t *testing.T) {
		b := e.seedBooking(t, "2024-03-02", "10:00", domain.StatusConfirmed)
		_, err := e.cancel.Execute(ctx, e.f.Provider.ID, b.ID)
		require.NoError(t, err)

		notes := e.notifications(t, e.f.Client.ID)
		assert.Equal(t, models.NotificationBookingCancelled, notes[len(notes)-1].Type)
	})

	for _, status := range []domain.Status{domain.StatusRejected, domain.StatusCancelled, domain.StatusCompleted} {
		t.Run("refuses "+string(status), func(t *testing.T) {
			b := e.seedBooking(t, "2024-03-03", "10:00", status)
			_, err := e.cancel.Execute(ctx, e.f.Client.ID, b.ID)
			assert.True(t, httperr.IsBusiness(err, "booking_not_cancellable"))
			assert.Equal(t, string(status), e.reload(t, b.ID).Status)
		})
	}

	t.Run("stranger is forbidden", func(t *testing.T) {
		b := e.book(t, "2024-03-04", "10:00").Booking
		_, err := e.cancel.Execute(ctx, e.f.Provider.ID+e.f.Client.ID+100, b.ID)
		be, ok := httperr.AsBusiness(err)
		require.True(t, ok)
		assert.Equal(t, httperr.KindForbidden, be.Kind)
	})
}

func TestAuthorizationPrecedesStateChecks(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	b := e.seedBooking(t, "2024-01-10", "14:00", domain.StatusConfirmed)

	_, err := e.approve.Execute(ctx, e.f.Client.ID, b.ID)
	assert.True(t, httperr.IsBusiness(err, "not_booking_provider"))

	_, err = e.reject.Execute(ctx, e.f.Client.ID, b.ID, RejectBookingInput{})
	assert.True(t, httperr.IsBusiness(err, "not_booking_provider"))

	_, err = e.acceptSuggestion.Execute(ctx, e.f.Provider.ID, b.ID)
	assert.True(t, httperr.IsBusiness(err, "not_booking_client"))

	_, err = e.approve.Execute(ctx, e.f.Provider.ID, 9999)
	assert.True(t, httperr.IsBusiness(err, "booking_not_found"))
}

func TestTransitionInvalidatesAvailabilityCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, zap.NewNop())

	e := newEnv(t, c)
	c.Set(ctx, cache.AvailabilityKey(e.f.Provider.ID), []int{1}, cache.AvailabilityTTL)
	require.True(t, mr.Exists(cache.AvailabilityKey(e.f.Provider.ID)))

	e.book(t, "2024-01-10", "14:00")
	assert.False(t, mr.Exists(cache.AvailabilityKey(e.f.Provider.ID)))
}

func TestListBookingsByRole(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	e.book(t, "2024-01-10", "14:00")
	e.book(t, "2024-01-11", "14:00")

	asClient, err := e.list.Execute(ctx, e.f.Client.ID, models.RoleClient)
	require.NoError(t, err)
	require.Len(t, asClient, 2)
	assert.Equal(t, "Provider", asClient[0].ProviderName)
	assert.Equal(t, "Standard", asClient[0].VariationName)

	asProvider, err := e.list.Execute(ctx, e.f.Provider.ID, models.RoleProvider)
	require.NoError(t, err)
	assert.Len(t, asProvider, 2)
}
