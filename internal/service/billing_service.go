package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"

	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/repository"
)

// BillingService tính tiền phiên đỗ và quản lý sổ thanh toán. Quy tắc tính:
//   - Xe nhân viên: luôn 0 đồng, KHÔNG tính là "trong thời gian miễn phí".
//   - Trong free_duration_minutes của biểu giá: 0 đồng, đánh dấu miễn phí.
//   - Quá thời gian miễn phí: chỉ tính PHẦN VƯỢT, làm tròn LÊN theo giờ
//     (vượt 1 phút cũng tính tròn 1 giờ). Tiền luôn là decimal, không float.
type BillingService struct {
	repos      repository.Repositories
	atomic     repository.Atomic
	normalizer *PlateNormalizer
	clock      Clock
}

func NewBillingService(repos repository.Repositories, atomic repository.Atomic, normalizer *PlateNormalizer, clock Clock) *BillingService {
	return &BillingService{repos: repos, atomic: atomic, normalizer: normalizer, clock: clock}
}

// ComputeAmount là lõi tính tiền thuần túy: (số tiền, có-trong-thời-gian-miễn-phí).
// Không chạm DB để test được bằng bảng giá trị.
func ComputeAmount(durationMinutes int64, tariff *domain.Tariff, isEmployeeVehicle bool) (decimal.Decimal, bool) {
	if isEmployeeVehicle {
		return decimal.Zero, false
	}
	if durationMinutes <= tariff.FreeDurationMinutes {
		return decimal.Zero, true
	}
	extraMinutes := durationMinutes - tariff.FreeDurationMinutes
	hours := extraMinutes / 60
	if extraMinutes%60 > 0 {
		hours++
	}
	return tariff.HourlyRate.Mul(decimal.NewFromInt(hours)), false
}

// BillSession tính tiền cho một phiên ĐÃ ĐÓNG và ghi bản ghi thanh toán trạng
// thái pending. Phiên còn mở trả ErrSessionNotClosed; không có đúng một biểu
// giá đang hiệu lực trả ErrNoTariffConfigured.
func (s *BillingService) BillSession(ctx context.Context, sessionID int, dto domain.BillSessionDTO) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		session, err := r.Sessions.FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if session.IsOpen() {
			return fmt.Errorf("%w: phiên %d chưa đóng", ErrSessionNotClosed, sessionID)
		}

		tariff, err := r.Tariffs.FindActive(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNoActiveTariff) || errors.Is(err, repository.ErrAmbiguousTariff) {
				return fmt.Errorf("%w: %v", ErrNoTariffConfigured, err)
			}
			return err
		}

		vehicle, err := r.Vehicles.FindByID(ctx, session.VehicleID)
		if err != nil {
			return err
		}

		// Phương thức thanh toán bắt buộc phải có lúc tạo; cột chỉ nullable
		// để phương thức bị xóa sau này không kéo theo bản ghi thanh toán cũ.
		if dto.PaymentMethodID == 0 {
			return ErrPaymentMethodRequired
		}
		method, err := r.PaymentMethods.FindByID(ctx, dto.PaymentMethodID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrPaymentMethodNotFound, dto.PaymentMethodID)
			}
			return err
		}
		methodID := null.IntFrom(int64(method.ID))

		amount, withinFree := ComputeAmount(session.DurationMinutes.Int64, tariff, vehicle.IsEmployeeVehicle)

		payment, err = r.Payments.Create(ctx, &domain.Payment{
			SessionID:          session.ID,
			VehicleID:          vehicle.ID,
			Amount:             amount,
			PaymentTime:        s.clock.Now().UTC(),
			DurationMinutes:    session.DurationMinutes.Int64,
			MethodID:           methodID,
			Status:             domain.PaymentPending,
			Kind:               domain.PaymentSettlement,
			IsWithinFreePeriod: withinFree,
			IsEmployeeVehicle:  vehicle.IsEmployeeVehicle,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("BillSession: Phiên %d được tính %s (miễn phí: %v, xe nhân viên: %v)",
		sessionID, payment.Amount.String(), payment.IsWithinFreePeriod, payment.IsEmployeeVehicle)
	return payment, nil
}

// RecordManualPayment ghi một khoản thanh toán nhập tay (kind=advance) cho xe
// đang có phiên mở, ví dụ khách trả trước tại quầy. Số tiền là chuỗi thập phân
// không âm; thời điểm thanh toán theo RFC3339, bỏ trống thì lấy giờ hiện tại.
func (s *BillingService) RecordManualPayment(ctx context.Context, dto domain.ManualPaymentDTO) (*domain.Payment, error) {
	amount, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidAmount, dto.Amount)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: số tiền âm '%s'", ErrInvalidAmount, dto.Amount)
	}
	if dto.DurationMinutes < 0 {
		return nil, fmt.Errorf("%w: thời gian đỗ âm", ErrInvalidAmount)
	}

	plate, err := s.normalizer.Normalize(dto.Plate)
	if err != nil {
		return nil, err
	}

	paymentTime := s.clock.Now().UTC()
	if dto.PaymentTime != "" {
		parsed, err := time.Parse(time.RFC3339, dto.PaymentTime)
		if err != nil {
			return nil, fmt.Errorf("%w: thời điểm thanh toán không hợp lệ '%s'", ErrInvalidAmount, dto.PaymentTime)
		}
		paymentTime = parsed.UTC()
	}

	var payment *domain.Payment
	err = s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		vehicle, err := r.Vehicles.FindByPlate(ctx, plate)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: biển số '%s'", ErrVehicleNotFound, plate)
			}
			return err
		}
		session, err := r.Sessions.FindActiveByVehicleID(ctx, vehicle.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: xe '%s' không có phiên đang mở", repository.ErrNoActiveSession, plate)
			}
			return err
		}

		if dto.PaymentMethodID == 0 {
			return ErrPaymentMethodRequired
		}
		method, err := r.PaymentMethods.FindByID(ctx, dto.PaymentMethodID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrPaymentMethodNotFound, dto.PaymentMethodID)
			}
			return err
		}
		methodID := null.IntFrom(int64(method.ID))

		payment, err = r.Payments.Create(ctx, &domain.Payment{
			SessionID:         session.ID,
			VehicleID:         vehicle.ID,
			Amount:            amount,
			PaymentTime:       paymentTime,
			DurationMinutes:   dto.DurationMinutes,
			MethodID:          methodID,
			Status:            domain.PaymentPending,
			Kind:              domain.PaymentAdvance,
			IsEmployeeVehicle: vehicle.IsEmployeeVehicle,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("RecordManualPayment: Đã ghi thanh toán tay %s cho biển số '%s'", payment.Amount.String(), plate)
	return payment, nil
}

// MarkPaymentCompleted chuyển thanh toán pending sang completed. Với thanh toán
// tất toán (settlement) thì đồng thời đánh dấu phiên đã trả tiền — hai cập nhật
// nằm trong cùng transaction.
func (s *BillingService) MarkPaymentCompleted(ctx context.Context, paymentID int) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		var err error
		payment, err = r.Payments.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrPaymentNotFound, paymentID)
			}
			return err
		}
		if payment.Status != domain.PaymentPending {
			return fmt.Errorf("%w: thanh toán %d đang ở trạng thái '%s'", ErrInvalidPaymentState, paymentID, payment.Status)
		}

		if err := r.Payments.UpdateStatus(ctx, paymentID, domain.PaymentCompleted, nil); err != nil {
			return err
		}
		payment.Status = domain.PaymentCompleted

		if payment.Kind == domain.PaymentSettlement {
			if err := r.Sessions.SetPaidStatus(ctx, payment.SessionID, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("MarkPaymentCompleted: Thanh toán %d hoàn tất", paymentID)
	return payment, nil
}

// MarkPaymentFailed chuyển thanh toán pending sang failed kèm lý do.
func (s *BillingService) MarkPaymentFailed(ctx context.Context, paymentID int, dto domain.MarkPaymentFailedDTO) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		var err error
		payment, err = r.Payments.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrPaymentNotFound, paymentID)
			}
			return err
		}
		if payment.Status != domain.PaymentPending {
			return fmt.Errorf("%w: thanh toán %d đang ở trạng thái '%s'", ErrInvalidPaymentState, paymentID, payment.Status)
		}

		reason := dto.Reason
		if err := r.Payments.UpdateStatus(ctx, paymentID, domain.PaymentFailed, &reason); err != nil {
			return err
		}
		payment.Status = domain.PaymentFailed
		payment.FailureReason = null.StringFrom(reason)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("MarkPaymentFailed: Thanh toán %d thất bại: %s", paymentID, dto.Reason)
	return payment, nil
}

func (s *BillingService) GetPayment(ctx context.Context, id int) (*domain.Payment, error) {
	payment, err := s.repos.Payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrPaymentNotFound, id)
		}
		return nil, err
	}
	return payment, nil
}

func (s *BillingService) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	return s.repos.Payments.ListAll(ctx)
}

func (s *BillingService) ListPaymentsBySession(ctx context.Context, sessionID int) ([]domain.Payment, error) {
	return s.repos.Payments.ListBySessionID(ctx, sessionID)
}
