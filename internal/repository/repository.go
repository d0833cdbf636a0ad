package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nrngooooo/parkingpayBE/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")
var ErrNoActiveSession = errors.New("không tìm thấy phiên đỗ xe đang mở cho xe này")
var ErrSessionAlreadyOpen = errors.New("xe này đã có một phiên đỗ xe đang mở")
var ErrStorageConflict = errors.New("xung đột ràng buộc dữ liệu ở tầng lưu trữ")
var ErrNoActiveTariff = errors.New("không có biểu phí nào đang kích hoạt")
var ErrAmbiguousTariff = errors.New("có nhiều hơn một biểu phí đang kích hoạt")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

type VehicleRepository interface {
	// GetOrCreate tạo xe mới theo biển số, hoặc trả về xe đã có nếu biển số đã tồn tại.
	// Idempotent dưới truy cập đồng thời nhờ ràng buộc UNIQUE(plate) + ON CONFLICT,
	// không dùng kiểu check-rồi-insert.
	GetOrCreate(ctx context.Context, plate string) (*domain.Vehicle, bool, error)
	FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	FindByID(ctx context.Context, id int) (*domain.Vehicle, error)
	FindFirstByPlatePrefix(ctx context.Context, prefix string) (*domain.Vehicle, error)
	UpdateEntryPhoto(ctx context.Context, id int, path string) error
	UpdatePlatePhoto(ctx context.Context, id int, path string) error
	SetEmployeeFlag(ctx context.Context, id int, isEmployee bool) error
}

type ParkingSessionRepository interface {
	// Create chèn một phiên mới đang mở. Partial unique index trên
	// (vehicle_id) WHERE exit_time IS NULL đảm bảo mỗi xe chỉ có một phiên mở;
	// vi phạm trả về ErrSessionAlreadyOpen.
	Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSession, error)
	// FindByIDForUpdate khóa bản ghi phiên trong transaction hiện tại (FOR UPDATE).
	FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSession, error)
	FindActiveByVehicleID(ctx context.Context, vehicleID int) (*domain.ParkingSession, error)
	// Close ghi exit_time, duration_minutes và ảnh ra (nếu có) cho phiên đang mở.
	Close(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error)
	SetPaidStatus(ctx context.Context, id int, paid bool) error
	ListOpen(ctx context.Context) ([]domain.ParkingSession, error)
	ListByVehicleID(ctx context.Context, vehicleID int) ([]domain.ParkingSession, error)
	ListAll(ctx context.Context) ([]domain.ParkingSession, error)
}

type TariffRepository interface {
	Create(ctx context.Context, tariff *domain.Tariff) (*domain.Tariff, error)
	// FindActive trả về biểu phí đang kích hoạt duy nhất. Không có biểu phí nào
	// trả về ErrNoActiveTariff; nhiều hơn một trả về ErrAmbiguousTariff.
	FindActive(ctx context.Context) (*domain.Tariff, error)
	FindAll(ctx context.Context) ([]domain.Tariff, error)
	// Activate bật biểu phí id và tắt tất cả biểu phí khác.
	Activate(ctx context.Context, id int) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	FindByID(ctx context.Context, id int) (*domain.Payment, error)
	FindByIDForUpdate(ctx context.Context, id int) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id int, status domain.PaymentStatus, reason *string) error
	ListAll(ctx context.Context) ([]domain.Payment, error)
	ListBySessionID(ctx context.Context, sessionID int) ([]domain.Payment, error)
}

type PaymentMethodRepository interface {
	Create(ctx context.Context, method *domain.PaymentMethod) (*domain.PaymentMethod, error)
	FindByID(ctx context.Context, id int) (*domain.PaymentMethod, error)
	FindAll(ctx context.Context) ([]domain.PaymentMethod, error)
	UpdateAssets(ctx context.Context, id int, qrPath, logoPath *string) error
}

type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) (*domain.Employee, error)
	FindByID(ctx context.Context, id int) (*domain.Employee, error)
	FindByVehicleID(ctx context.Context, vehicleID int) (*domain.Employee, error)
	FindAll(ctx context.Context) ([]domain.Employee, error)
	Delete(ctx context.Context, id int) error
}

type KioskRepository interface {
	Create(ctx context.Context, kiosk *domain.Kiosk) (*domain.Kiosk, error)
	FindByID(ctx context.Context, id int) (*domain.Kiosk, error)
	FindAll(ctx context.Context) ([]domain.Kiosk, error)
	Update(ctx context.Context, kiosk *domain.Kiosk) (*domain.Kiosk, error)
	Delete(ctx context.Context, id int) error
}

// Repositories gom toàn bộ repository để truyền vào một commit boundary.
type Repositories struct {
	Users          UserRepository
	Vehicles       VehicleRepository
	Sessions       ParkingSessionRepository
	Tariffs        TariffRepository
	Payments       PaymentRepository
	PaymentMethods PaymentMethodRepository
	Employees      EmployeeRepository
	Kiosks         KioskRepository
}

// Atomic chạy fn trong MỘT transaction: mọi ghi bên trong fn hoặc cùng commit,
// hoặc cùng rollback khi fn trả lỗi / ctx bị hủy. Các thao tác chậm (OCR, xử lý ảnh)
// phải được thực hiện TRƯỚC khi gọi RunInTx để không giữ transaction mở.
type Atomic interface {
	RunInTx(ctx context.Context, fn func(r Repositories) error) error
}
