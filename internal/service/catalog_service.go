package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"

	"github.com/nrngooooo/parkingpayBE/internal/blob"
	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/repository"
)

// CatalogService quản lý dữ liệu tham chiếu: biểu phí, phương thức thanh toán
// và kiosk. Core chỉ ĐỌC các bảng này khi tính tiền; mọi thay đổi đi qua đây.
type CatalogService struct {
	repos  repository.Repositories
	atomic repository.Atomic
	assets blob.Store
}

func NewCatalogService(repos repository.Repositories, atomic repository.Atomic, assets blob.Store) *CatalogService {
	return &CatalogService{repos: repos, atomic: atomic, assets: assets}
}

// CreateTariff tạo biểu phí mới. Nếu is_active=true thì kích hoạt nó và tắt
// mọi biểu phí khác trong cùng transaction, giữ bất biến "tối đa một biểu phí
// đang kích hoạt".
func (s *CatalogService) CreateTariff(ctx context.Context, dto domain.TariffDTO) (*domain.Tariff, error) {
	rate, err := decimal.NewFromString(dto.HourlyRate)
	if err != nil {
		return nil, fmt.Errorf("%w: đơn giá giờ không hợp lệ '%s'", ErrInvalidAmount, dto.HourlyRate)
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("%w: đơn giá giờ âm '%s'", ErrInvalidAmount, dto.HourlyRate)
	}
	if dto.FreeDurationMinutes < 0 {
		return nil, fmt.Errorf("%w: thời gian miễn phí âm", ErrInvalidAmount)
	}

	var created *domain.Tariff
	err = s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		var err error
		created, err = r.Tariffs.Create(ctx, &domain.Tariff{
			FreeDurationMinutes: dto.FreeDurationMinutes,
			HourlyRate:          rate,
			IsActive:            false,
		})
		if err != nil {
			return err
		}
		if dto.IsActive {
			if err := r.Tariffs.Activate(ctx, created.ID); err != nil {
				return err
			}
			created.IsActive = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("CreateTariff: Đã tạo biểu phí ID %d (miễn phí %d phút, %s/giờ, kích hoạt: %v)",
		created.ID, created.FreeDurationMinutes, created.HourlyRate.String(), created.IsActive)
	return created, nil
}

// ActivateTariff bật biểu phí id và tắt tất cả biểu phí còn lại.
func (s *CatalogService) ActivateTariff(ctx context.Context, id int) error {
	err := s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		return r.Tariffs.Activate(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: biểu phí ID %d", repository.ErrNotFound, id)
		}
		return err
	}
	log.Printf("ActivateTariff: Biểu phí %d hiện là biểu phí kích hoạt duy nhất", id)
	return nil
}

func (s *CatalogService) ListTariffs(ctx context.Context) ([]domain.Tariff, error) {
	return s.repos.Tariffs.FindAll(ctx)
}

// ActiveTariff trả về biểu phí đang kích hoạt duy nhất, dùng cho kiosk hiển thị giá.
func (s *CatalogService) ActiveTariff(ctx context.Context) (*domain.Tariff, error) {
	tariff, err := s.repos.Tariffs.FindActive(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveTariff) || errors.Is(err, repository.ErrAmbiguousTariff) {
			return nil, fmt.Errorf("%w: %v", ErrNoTariffConfigured, err)
		}
		return nil, err
	}
	return tariff, nil
}

// CreatePaymentMethod tạo phương thức thanh toán, kèm ảnh QR và logo (base64)
// nếu có. Lưu ảnh là best-effort: lỗi lưu trả về trong warnings, phương thức
// vẫn được tạo.
func (s *CatalogService) CreatePaymentMethod(ctx context.Context, dto domain.PaymentMethodDTO) (*domain.PaymentMethod, []string, error) {
	var warnings []string
	var qrPath, logoPath *string

	if dto.QRBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(dto.QRBase64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: ảnh QR base64 không hợp lệ: %v", ErrDecode, err)
		}
		path, err := s.assets.Save(ctx, fmt.Sprintf("payment_qrs/%s_%s.png", dto.MethodName, uuid.NewString()), data)
		if err != nil {
			log.Printf("CreatePaymentMethod: Lỗi lưu ảnh QR cho '%s': %v", dto.MethodName, err)
			warnings = append(warnings, "không lưu được ảnh QR")
		} else {
			qrPath = &path
		}
	}
	if dto.LogoBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(dto.LogoBase64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: ảnh logo base64 không hợp lệ: %v", ErrDecode, err)
		}
		path, err := s.assets.Save(ctx, fmt.Sprintf("payment_logos/%s_%s.png", dto.MethodName, uuid.NewString()), data)
		if err != nil {
			log.Printf("CreatePaymentMethod: Lỗi lưu logo cho '%s': %v", dto.MethodName, err)
			warnings = append(warnings, "không lưu được ảnh logo")
		} else {
			logoPath = &path
		}
	}

	var created *domain.PaymentMethod
	err := s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		var err error
		created, err = r.PaymentMethods.Create(ctx, &domain.PaymentMethod{MethodName: dto.MethodName})
		if err != nil {
			return err
		}
		if qrPath != nil || logoPath != nil {
			if err := r.PaymentMethods.UpdateAssets(ctx, created.ID, qrPath, logoPath); err != nil {
				return err
			}
			if qrPath != nil {
				created.QRPath = null.StringFrom(*qrPath)
			}
			if logoPath != nil {
				created.LogoPath = null.StringFrom(*logoPath)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("CreatePaymentMethod: Đã tạo phương thức thanh toán '%s' (ID: %d)", created.MethodName, created.ID)
	return created, warnings, nil
}

func (s *CatalogService) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return s.repos.PaymentMethods.FindAll(ctx)
}

func (s *CatalogService) GetPaymentMethod(ctx context.Context, id int) (*domain.PaymentMethod, error) {
	method, err := s.repos.PaymentMethods.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrPaymentMethodNotFound, id)
		}
		return nil, err
	}
	return method, nil
}

var validKioskStatuses = []domain.KioskStatus{
	domain.KioskActive,
	domain.KioskInactive,
	domain.KioskMaintenance,
}

func parseKioskStatus(raw string) (domain.KioskStatus, error) {
	if raw == "" {
		return domain.KioskActive, nil
	}
	for _, st := range validKioskStatuses {
		if domain.KioskStatus(raw) == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("trạng thái kiosk không hợp lệ: '%s' (cho phép: %v)", raw, validKioskStatuses)
}

func (s *CatalogService) CreateKiosk(ctx context.Context, dto domain.KioskDTO) (*domain.Kiosk, error) {
	status, err := parseKioskStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	kiosk := &domain.Kiosk{Location: dto.Location, Status: status}
	if dto.LastMaintenance != "" {
		parsed, err := time.Parse(time.RFC3339, dto.LastMaintenance)
		if err != nil {
			return nil, fmt.Errorf("thời điểm bảo trì không hợp lệ '%s': %w", dto.LastMaintenance, err)
		}
		kiosk.LastMaintenance = null.TimeFrom(parsed.UTC())
	}
	if dto.ManagedBy != nil {
		kiosk.ManagedBy = null.IntFrom(int64(*dto.ManagedBy))
	}

	created, err := s.repos.Kiosks.Create(ctx, kiosk)
	if err != nil {
		return nil, err
	}
	log.Printf("CreateKiosk: Đã tạo kiosk tại '%s' (ID: %d)", created.Location, created.ID)
	return created, nil
}

func (s *CatalogService) UpdateKiosk(ctx context.Context, id int, dto domain.KioskDTO) (*domain.Kiosk, error) {
	status, err := parseKioskStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	kiosk, err := s.repos.Kiosks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	kiosk.Location = dto.Location
	kiosk.Status = status
	if dto.LastMaintenance != "" {
		parsed, err := time.Parse(time.RFC3339, dto.LastMaintenance)
		if err != nil {
			return nil, fmt.Errorf("thời điểm bảo trì không hợp lệ '%s': %w", dto.LastMaintenance, err)
		}
		kiosk.LastMaintenance = null.TimeFrom(parsed.UTC())
	}
	if dto.ManagedBy != nil {
		kiosk.ManagedBy = null.IntFrom(int64(*dto.ManagedBy))
	}

	return s.repos.Kiosks.Update(ctx, kiosk)
}

func (s *CatalogService) ListKiosks(ctx context.Context) ([]domain.Kiosk, error) {
	return s.repos.Kiosks.FindAll(ctx)
}

func (s *CatalogService) GetKiosk(ctx context.Context, id int) (*domain.Kiosk, error) {
	return s.repos.Kiosks.FindByID(ctx, id)
}

func (s *CatalogService) DeleteKiosk(ctx context.Context, id int) error {
	return s.repos.Kiosks.Delete(ctx, id)
}
