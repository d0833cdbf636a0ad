package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"

	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/repository"
)

func testTariff(freeMinutes int64, rate string) *domain.Tariff {
	return &domain.Tariff{
		FreeDurationMinutes: freeMinutes,
		HourlyRate:          decimal.RequireFromString(rate),
		IsActive:            true,
	}
}

func TestComputeAmount(t *testing.T) {
	tariff := testTariff(30, "2000")

	tests := []struct {
		name       string
		minutes    int64
		isEmployee bool
		wantAmount string
		wantFree   bool
	}{
		{name: "0 phút", minutes: 0, wantAmount: "0", wantFree: true},
		{name: "đúng ngưỡng miễn phí", minutes: 30, wantAmount: "0", wantFree: true},
		{name: "quá ngưỡng 1 phút tính 1 giờ", minutes: 31, wantAmount: "2000", wantFree: false},
		{name: "vượt đúng 60 phút tính 1 giờ", minutes: 90, wantAmount: "2000", wantFree: false},
		{name: "vượt 61 phút tính 2 giờ", minutes: 91, wantAmount: "4000", wantFree: false},
		{name: "vượt 90 phút tính 2 giờ", minutes: 120, wantAmount: "4000", wantFree: false},
		{name: "vượt 181 phút tính 4 giờ", minutes: 211, wantAmount: "8000", wantFree: false},
		{name: "xe nhân viên luôn 0 đồng", minutes: 500, isEmployee: true, wantAmount: "0", wantFree: false},
		{name: "xe nhân viên trong ngưỡng vẫn không tính là miễn phí", minutes: 10, isEmployee: true, wantAmount: "0", wantFree: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, free := ComputeAmount(tt.minutes, tariff, tt.isEmployee)
			assert.True(t, amount.Equal(decimal.RequireFromString(tt.wantAmount)),
				"muốn %s, nhận %s", tt.wantAmount, amount.String())
			assert.Equal(t, tt.wantFree, free)
		})
	}
}

func newBillingFixture(t *testing.T) (*BillingService, *fakeStore, *fakeClock) {
	t.Helper()
	store := newFakeStore()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	bs := NewBillingService(store.repos(), &fakeAtomic{store: store}, newTestNormalizer(t), clock)
	return bs, store, clock
}

// seedClosedSession tạo xe + phiên đã đóng với duration cho trước.
func seedClosedSession(t *testing.T, store *fakeStore, plate string, minutes int64, employee bool) *domain.ParkingSession {
	t.Helper()
	ctx := context.Background()
	repos := store.repos()

	vehicle, _, err := repos.Vehicles.GetOrCreate(ctx, plate)
	require.NoError(t, err)
	if employee {
		require.NoError(t, repos.Vehicles.SetEmployeeFlag(ctx, vehicle.ID, true))
	}

	entry := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	session, err := repos.Sessions.Create(ctx, &domain.ParkingSession{VehicleID: vehicle.ID, EntryTime: entry})
	require.NoError(t, err)

	session.ExitTime = null.TimeFrom(entry.Add(time.Duration(minutes) * time.Minute))
	session.DurationMinutes = null.IntFrom(minutes)
	closed, err := repos.Sessions.Close(ctx, session)
	require.NoError(t, err)
	return closed
}

func seedActiveTariff(t *testing.T, store *fakeStore, freeMinutes int64, rate string) {
	t.Helper()
	created, err := store.repos().Tariffs.Create(context.Background(), testTariff(freeMinutes, rate))
	require.NoError(t, err)
	require.NoError(t, store.repos().Tariffs.Activate(context.Background(), created.ID))
}

func seedMethod(t *testing.T, store *fakeStore, name string) *domain.PaymentMethod {
	t.Helper()
	m, err := store.repos().PaymentMethods.Create(context.Background(), &domain.PaymentMethod{MethodName: name})
	require.NoError(t, err)
	return m
}

func TestBillSession(t *testing.T) {
	ctx := context.Background()

	t.Run("tạo thanh toán pending cho phiên đã đóng", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		method := seedMethod(t, store, "QPay")
		session := seedClosedSession(t, store, "1234УБА", 91, false)

		payment, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: method.ID})
		require.NoError(t, err)

		assert.Equal(t, session.ID, payment.SessionID)
		assert.True(t, payment.Amount.Equal(decimal.RequireFromString("4000")))
		assert.Equal(t, domain.PaymentPending, payment.Status)
		assert.Equal(t, domain.PaymentSettlement, payment.Kind)
		assert.False(t, payment.IsWithinFreePeriod)
		assert.False(t, payment.IsEmployeeVehicle)
		assert.Equal(t, int64(91), payment.DurationMinutes)
		assert.Equal(t, int64(method.ID), payment.MethodID.Int64)
	})

	t.Run("trong thời gian miễn phí", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		method := seedMethod(t, store, "QPay")
		session := seedClosedSession(t, store, "1234УБА", 25, false)

		payment, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: method.ID})
		require.NoError(t, err)
		assert.True(t, payment.Amount.IsZero())
		assert.True(t, payment.IsWithinFreePeriod)
	})

	t.Run("xe nhân viên", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		method := seedMethod(t, store, "QPay")
		session := seedClosedSession(t, store, "5678УБА", 480, true)

		payment, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: method.ID})
		require.NoError(t, err)
		assert.True(t, payment.Amount.IsZero())
		assert.True(t, payment.IsEmployeeVehicle)
		assert.False(t, payment.IsWithinFreePeriod)
	})

	t.Run("phiên còn mở bị từ chối", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		vehicle, _, err := store.repos().Vehicles.GetOrCreate(ctx, "1234")
		require.NoError(t, err)
		session, err := store.repos().Sessions.Create(ctx, &domain.ParkingSession{
			VehicleID: vehicle.ID, EntryTime: time.Now().UTC(),
		})
		require.NoError(t, err)

		_, err = bs.BillSession(ctx, session.ID, domain.BillSessionDTO{})
		assert.ErrorIs(t, err, ErrSessionNotClosed)
	})

	t.Run("không có biểu phí kích hoạt", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		session := seedClosedSession(t, store, "1234УБА", 90, false)

		_, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{})
		assert.ErrorIs(t, err, ErrNoTariffConfigured)
		assert.Empty(t, store.payments, "không được ghi thanh toán khi tính phí thất bại")
	})

	t.Run("nhiều biểu phí kích hoạt cũng thất bại", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		// Hai tariff active chen nhau, không qua Activate
		for i := 0; i < 2; i++ {
			_, err := store.repos().Tariffs.Create(ctx, testTariff(30, "2000"))
			require.NoError(t, err)
		}
		for k, tr := range store.tariffs {
			tr.IsActive = true
			store.tariffs[k] = tr
		}
		session := seedClosedSession(t, store, "1234УБА", 90, false)

		_, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{})
		assert.ErrorIs(t, err, ErrNoTariffConfigured)
	})

	t.Run("phiên không tồn tại", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		_, err := bs.BillSession(ctx, 999, domain.BillSessionDTO{})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("phương thức thanh toán không tồn tại", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		session := seedClosedSession(t, store, "1234УБА", 90, false)

		_, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: 777})
		assert.ErrorIs(t, err, ErrPaymentMethodNotFound)
	})

	t.Run("thiếu phương thức thanh toán", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		session := seedClosedSession(t, store, "1234УБА", 90, false)

		_, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{})
		assert.ErrorIs(t, err, ErrPaymentMethodRequired)
		assert.Empty(t, store.payments, "không được ghi thanh toán thiếu phương thức")
	})

	t.Run("commit thất bại sau khi ghi thanh toán không để lại bản ghi", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
		bs := NewBillingService(store.repos(), &fakeAtomic{store: store, failCommit: true}, newTestNormalizer(t), clock)
		seedActiveTariff(t, store, 30, "2000")
		method := seedMethod(t, store, "QPay")
		session := seedClosedSession(t, store, "1234УБА", 91, false)

		_, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: method.ID})
		require.Error(t, err)
		assert.Empty(t, store.payments, "thanh toán đã ghi trong transaction phải được hoàn tác")
		assert.False(t, store.sessions[session.ID].PaidStatus)
	})
}

func TestRecordManualPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("ghi thanh toán advance cho xe đang đỗ", func(t *testing.T) {
		bs, store, clock := newBillingFixture(t)
		method := seedMethod(t, store, "Tiền mặt")
		vehicle, _, err := store.repos().Vehicles.GetOrCreate(ctx, "1234УБА")
		require.NoError(t, err)
		_, err = store.repos().Sessions.Create(ctx, &domain.ParkingSession{
			VehicleID: vehicle.ID, EntryTime: clock.now.Add(-time.Hour),
		})
		require.NoError(t, err)

		payment, err := bs.RecordManualPayment(ctx, domain.ManualPaymentDTO{
			Plate:           "12-34 уба", // được chuẩn hóa trước khi tra cứu
			DurationMinutes: 60,
			Amount:          "2000",
			PaymentMethodID: method.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.PaymentAdvance, payment.Kind)
		assert.Equal(t, domain.PaymentPending, payment.Status)
		assert.Equal(t, clock.now, payment.PaymentTime)
		assert.True(t, payment.Amount.Equal(decimal.RequireFromString("2000")))
	})

	t.Run("thời điểm thanh toán RFC3339", func(t *testing.T) {
		bs, store, clock := newBillingFixture(t)
		method := seedMethod(t, store, "Tiền mặt")
		vehicle, _, err := store.repos().Vehicles.GetOrCreate(ctx, "1234")
		require.NoError(t, err)
		_, err = store.repos().Sessions.Create(ctx, &domain.ParkingSession{
			VehicleID: vehicle.ID, EntryTime: clock.now.Add(-time.Hour),
		})
		require.NoError(t, err)

		payment, err := bs.RecordManualPayment(ctx, domain.ManualPaymentDTO{
			Plate:           "1234",
			Amount:          "1000",
			PaymentTime:     "2025-03-01T09:30:00+08:00",
			PaymentMethodID: method.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 1, 1, 30, 0, 0, time.UTC), payment.PaymentTime)
	})

	t.Run("số tiền không hợp lệ", func(t *testing.T) {
		bs, _, _ := newBillingFixture(t)
		for _, amount := range []string{"abc", "-5", ""} {
			_, err := bs.RecordManualPayment(ctx, domain.ManualPaymentDTO{Plate: "1234", Amount: amount})
			assert.ErrorIs(t, err, ErrInvalidAmount, "amount=%q", amount)
		}
	})

	t.Run("xe chưa từng vào bãi", func(t *testing.T) {
		bs, _, _ := newBillingFixture(t)
		_, err := bs.RecordManualPayment(ctx, domain.ManualPaymentDTO{Plate: "1234", Amount: "1000"})
		assert.ErrorIs(t, err, ErrVehicleNotFound)
	})

	t.Run("xe không có phiên mở", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedClosedSession(t, store, "1234УБА", 60, false)

		_, err := bs.RecordManualPayment(ctx, domain.ManualPaymentDTO{Plate: "1234УБА", Amount: "1000"})
		assert.ErrorIs(t, err, repository.ErrNoActiveSession)
	})

	t.Run("thiếu phương thức thanh toán", func(t *testing.T) {
		bs, store, clock := newBillingFixture(t)
		vehicle, _, err := store.repos().Vehicles.GetOrCreate(ctx, "1234")
		require.NoError(t, err)
		_, err = store.repos().Sessions.Create(ctx, &domain.ParkingSession{
			VehicleID: vehicle.ID, EntryTime: clock.now.Add(-time.Hour),
		})
		require.NoError(t, err)

		_, err = bs.RecordManualPayment(ctx, domain.ManualPaymentDTO{Plate: "1234", Amount: "1000"})
		assert.ErrorIs(t, err, ErrPaymentMethodRequired)
		assert.Empty(t, store.payments)
	})
}

func TestMarkPaymentCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("settlement hoàn tất đánh dấu phiên đã trả", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		method := seedMethod(t, store, "QPay")
		session := seedClosedSession(t, store, "1234УБА", 90, false)
		payment, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: method.ID})
		require.NoError(t, err)

		completed, err := bs.MarkPaymentCompleted(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, completed.Status)
		assert.True(t, store.sessions[session.ID].PaidStatus)
	})

	t.Run("advance hoàn tất không chạm paid_status", func(t *testing.T) {
		bs, store, clock := newBillingFixture(t)
		method := seedMethod(t, store, "Tiền mặt")
		vehicle, _, err := store.repos().Vehicles.GetOrCreate(ctx, "1234")
		require.NoError(t, err)
		session, err := store.repos().Sessions.Create(ctx, &domain.ParkingSession{
			VehicleID: vehicle.ID, EntryTime: clock.now.Add(-time.Hour),
		})
		require.NoError(t, err)
		payment, err := bs.RecordManualPayment(ctx, domain.ManualPaymentDTO{
			Plate: "1234", Amount: "1000", PaymentMethodID: method.ID,
		})
		require.NoError(t, err)

		_, err = bs.MarkPaymentCompleted(ctx, payment.ID)
		require.NoError(t, err)
		assert.False(t, store.sessions[session.ID].PaidStatus)
	})

	t.Run("không hoàn tất hai lần", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		method := seedMethod(t, store, "QPay")
		session := seedClosedSession(t, store, "1234УБА", 90, false)
		payment, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: method.ID})
		require.NoError(t, err)

		_, err = bs.MarkPaymentCompleted(ctx, payment.ID)
		require.NoError(t, err)
		_, err = bs.MarkPaymentCompleted(ctx, payment.ID)
		assert.ErrorIs(t, err, ErrInvalidPaymentState)
	})

	t.Run("rollback khi ghi paid_status thất bại", func(t *testing.T) {
		bs, store, _ := newBillingFixture(t)
		seedActiveTariff(t, store, 30, "2000")
		method := seedMethod(t, store, "QPay")
		session := seedClosedSession(t, store, "1234УБА", 90, false)
		payment, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: method.ID})
		require.NoError(t, err)

		store.failSetPaid = true
		_, err = bs.MarkPaymentCompleted(ctx, payment.ID)
		require.Error(t, err)

		// Cả hai ghi cùng rollback: thanh toán vẫn pending, phiên chưa trả.
		assert.Equal(t, domain.PaymentPending, store.payments[payment.ID].Status)
		assert.False(t, store.sessions[session.ID].PaidStatus)
	})
}

func TestMarkPaymentFailed(t *testing.T) {
	ctx := context.Background()
	bs, store, _ := newBillingFixture(t)
	seedActiveTariff(t, store, 30, "2000")
	method := seedMethod(t, store, "QPay")
	session := seedClosedSession(t, store, "1234УБА", 90, false)
	payment, err := bs.BillSession(ctx, session.ID, domain.BillSessionDTO{PaymentMethodID: method.ID})
	require.NoError(t, err)

	failed, err := bs.MarkPaymentFailed(ctx, payment.ID, domain.MarkPaymentFailedDTO{Reason: "thẻ bị từ chối"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, failed.Status)
	assert.Equal(t, "thẻ bị từ chối", failed.FailureReason.String)
	assert.False(t, store.sessions[session.ID].PaidStatus)

	_, err = bs.MarkPaymentFailed(ctx, payment.ID, domain.MarkPaymentFailedDTO{Reason: "lại nữa"})
	assert.ErrorIs(t, err, ErrInvalidPaymentState)
}
