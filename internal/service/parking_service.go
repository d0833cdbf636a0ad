package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"

	"github.com/nrngooooo/parkingpayBE/internal/blob"
	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/repository"
)

// ParkingService sở hữu vòng đời xe và phiên đỗ: ghi nhận xe vào (nhập tay hoặc
// nhận dạng từ ảnh), đóng phiên khi xe ra, tra cứu theo biển số.
// Nguyên tắc chia pha của mọi thao tác ghi:
//  1. Việc chậm và không transactional (OCR, xử lý ảnh, lưu blob) làm TRƯỚC.
//  2. Mọi ghi DB nằm trong MỘT commit boundary (atomic.RunInTx).
//  3. Lỗi lưu ảnh không làm hỏng thao tác: gắn vào Warnings của kết quả.
type ParkingService struct {
	repos      repository.Repositories
	atomic     repository.Atomic
	normalizer *PlateNormalizer
	recognizer *PlateRecognizer
	photos     blob.Store
	clock      Clock
}

func NewParkingService(
	repos repository.Repositories,
	atomic repository.Atomic,
	normalizer *PlateNormalizer,
	recognizer *PlateRecognizer,
	photos blob.Store,
	clock Clock,
) *ParkingService {
	return &ParkingService{
		repos:      repos,
		atomic:     atomic,
		normalizer: normalizer,
		recognizer: recognizer,
		photos:     photos,
		clock:      clock,
	}
}

// IngestEntry ghi nhận xe vào cổng: xác định biển số (nhập tay hoặc OCR từ ảnh),
// tạo-hoặc-lấy xe theo biển số rồi mở phiên mới. Xe đã có phiên mở trả về
// repository.ErrSessionAlreadyOpen, không bao giờ mở phiên thứ hai.
func (s *ParkingService) IngestEntry(ctx context.Context, dto domain.VehicleEntryDTO) (*domain.EntryResult, error) {
	var photoBytes []byte
	if dto.EntryPhotoBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(dto.EntryPhotoBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: dữ liệu base64 không hợp lệ: %v", ErrDecode, err)
		}
		photoBytes = decoded
	}

	// Pha 1: xác định biển số. OCR và cắt ảnh xong hết ở đây, trước transaction.
	var plate string
	var croppedBytes []byte
	switch {
	case dto.Plate != "":
		normalized, err := s.normalizer.Normalize(dto.Plate)
		if err != nil {
			return nil, err
		}
		plate = normalized
	case photoBytes != nil:
		rec, err := s.recognizer.Recognize(ctx, photoBytes)
		if err != nil {
			return nil, err
		}
		plate = rec.Plate
		croppedBytes = rec.CroppedImage
	default:
		return nil, &InvalidFormatError{Input: "", GrammarsTried: s.normalizer.GrammarNames()}
	}

	// Pha 1b: lưu ảnh bằng chứng (best-effort). Lỗi ở đây chỉ sinh warning.
	var warnings []string
	var entryPhotoPath, croppedPhotoPath string
	if photoBytes != nil {
		path, err := s.photos.Save(ctx, entryPhotoName(plate), photoBytes)
		if err != nil {
			log.Printf("IngestEntry: Lỗi lưu ảnh xe vào cho biển số '%s': %v", plate, err)
			warnings = append(warnings, "không lưu được ảnh xe vào")
		} else {
			entryPhotoPath = path
		}
	}
	if croppedBytes != nil {
		path, err := s.photos.Save(ctx, croppedPhotoName(plate), croppedBytes)
		if err != nil {
			log.Printf("IngestEntry: Lỗi lưu ảnh biển số cắt cho '%s': %v", plate, err)
			warnings = append(warnings, "không lưu được ảnh vùng biển số")
		} else {
			croppedPhotoPath = path
		}
	}

	// Pha 2: toàn bộ ghi DB trong một transaction.
	result := &domain.EntryResult{Warnings: warnings}
	err := s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		vehicle, created, err := r.Vehicles.GetOrCreate(ctx, plate)
		if err != nil {
			return err
		}
		if created {
			log.Printf("IngestEntry: Đã tạo xe mới với biển số '%s' (ID: %d)", plate, vehicle.ID)
		}

		if entryPhotoPath != "" {
			if err := r.Vehicles.UpdateEntryPhoto(ctx, vehicle.ID, entryPhotoPath); err != nil {
				return err
			}
			vehicle.EntryPhotoPath = null.StringFrom(entryPhotoPath)
		}
		if croppedPhotoPath != "" {
			if err := r.Vehicles.UpdatePlatePhoto(ctx, vehicle.ID, croppedPhotoPath); err != nil {
				return err
			}
			vehicle.PlatePhotoPath = null.StringFrom(croppedPhotoPath)
		}

		session, err := r.Sessions.Create(ctx, &domain.ParkingSession{
			VehicleID: vehicle.ID,
			EntryTime: s.clock.Now().UTC(),
		})
		if err != nil {
			return err
		}

		result.Vehicle = vehicle
		result.Session = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("IngestEntry: Đã mở phiên đỗ xe ID %d cho biển số '%s'", result.Session.ID, plate)
	return result, nil
}

// CloseSession đóng phiên khi xe ra: ghi exit_time và duration (làm tròn lên
// phút, kẹp về 0 khi lệch đồng hồ). Phiên đã đóng trả ErrSessionAlreadyClosed
// thay vì lặng lẽ tính lại duration.
func (s *ParkingService) CloseSession(ctx context.Context, sessionID int, dto domain.CloseSessionDTO) (*domain.CloseResult, error) {
	var warnings []string
	var exitPhotoPath string
	if dto.ExitPhotoBase64 != "" {
		photoBytes, err := base64.StdEncoding.DecodeString(dto.ExitPhotoBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: dữ liệu base64 không hợp lệ: %v", ErrDecode, err)
		}
		path, err := s.photos.Save(ctx, exitPhotoName(sessionID), photoBytes)
		if err != nil {
			log.Printf("CloseSession: Lỗi lưu ảnh xe ra cho phiên %d: %v", sessionID, err)
			warnings = append(warnings, "không lưu được ảnh xe ra")
		} else {
			exitPhotoPath = path
		}
	}

	result := &domain.CloseResult{Warnings: warnings}
	err := s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		session, err := r.Sessions.FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if !session.IsOpen() {
			return fmt.Errorf("%w: phiên %d", ErrSessionAlreadyClosed, sessionID)
		}

		exitTime := s.clock.Now().UTC()
		session.ExitTime = null.TimeFrom(exitTime)
		session.DurationMinutes = null.IntFrom(ceilMinutes(exitTime.Sub(session.EntryTime)))
		if exitPhotoPath != "" {
			session.ExitPhotoPath = null.StringFrom(exitPhotoPath)
		}

		closed, err := r.Sessions.Close(ctx, session)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Phiên bị đóng bởi request khác giữa chừng.
				return fmt.Errorf("%w: phiên %d", ErrSessionAlreadyClosed, sessionID)
			}
			return err
		}
		result.Session = closed
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("CloseSession: Đã đóng phiên %d, thời gian đỗ %d phút",
		result.Session.ID, result.Session.DurationMinutes.Int64)
	return result, nil
}

// ceilMinutes làm tròn LÊN phút và kẹp giá trị âm (lệch đồng hồ) về 0.
func ceilMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	mins := int64(d / time.Minute)
	if d%time.Minute > 0 {
		mins++
	}
	return mins
}

var searchPrefixRe = regexp.MustCompile(`^[0-9]{4}$`)

// SearchVehicleByPlatePrefix tìm xe đầu tiên có biển số bắt đầu bằng 4 chữ số
// cho trước. Không tìm thấy trả về (nil, nil).
func (s *ParkingService) SearchVehicleByPlatePrefix(ctx context.Context, prefix string) (*domain.Vehicle, error) {
	if !searchPrefixRe.MatchString(prefix) {
		return nil, &InvalidFormatError{Input: prefix, GrammarsTried: []string{"digits4"}}
	}

	vehicle, err := s.repos.Vehicles.FindFirstByPlatePrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return vehicle, nil
}

// VehicleDetails trả về xe cùng toàn bộ lịch sử phiên đỗ của nó.
func (s *ParkingService) VehicleDetails(ctx context.Context, rawPlate string) (*domain.Vehicle, error) {
	plate, err := s.normalizer.Normalize(rawPlate)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.repos.Vehicles.FindByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: biển số '%s'", ErrVehicleNotFound, plate)
		}
		return nil, err
	}
	sessions, err := s.repos.Sessions.ListByVehicleID(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	vehicle.Sessions = sessions
	return vehicle, nil
}

// ListOpenSessions trả về các phiên đang mở, kèm thông tin xe để kiosk hiển thị.
func (s *ParkingService) ListOpenSessions(ctx context.Context) ([]domain.ParkingSession, error) {
	sessions, err := s.repos.Sessions.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.attachVehicles(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *ParkingService) ListAllSessions(ctx context.Context) ([]domain.ParkingSession, error) {
	sessions, err := s.repos.Sessions.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.attachVehicles(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *ParkingService) attachVehicles(ctx context.Context, sessions []domain.ParkingSession) error {
	cache := map[int]*domain.Vehicle{}
	for i := range sessions {
		v, ok := cache[sessions[i].VehicleID]
		if !ok {
			var err error
			v, err = s.repos.Vehicles.FindByID(ctx, sessions[i].VehicleID)
			if err != nil {
				return err
			}
			cache[sessions[i].VehicleID] = v
		}
		sessions[i].Vehicle = v
	}
	return nil
}

// GetSession trả về một phiên theo ID.
func (s *ParkingService) GetSession(ctx context.Context, id int) (*domain.ParkingSession, error) {
	session, err := s.repos.Sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// RecognizePlate chạy riêng pipeline nhận dạng, dùng cho endpoint thử nghiệm
// của kiosk (xem trước kết quả OCR mà không mở phiên).
func (s *ParkingService) RecognizePlate(ctx context.Context, imageBytes []byte) (*RecognitionResult, error) {
	return s.recognizer.Recognize(ctx, imageBytes)
}

// RegisterEmployee tạo nhân viên; nếu kèm biển số thì tạo-hoặc-lấy xe và bật cờ
// miễn phí cho xe đó trong cùng transaction.
func (s *ParkingService) RegisterEmployee(ctx context.Context, dto domain.RegisterEmployeeDTO) (*domain.Employee, error) {
	var plate string
	if dto.Plate != "" {
		normalized, err := s.normalizer.Normalize(dto.Plate)
		if err != nil {
			return nil, err
		}
		plate = normalized
	}

	var created *domain.Employee
	err := s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		employee := &domain.Employee{Name: dto.Name}
		if dto.Position != "" {
			employee.Position = null.StringFrom(dto.Position)
		}
		if dto.Department != "" {
			employee.Department = null.StringFrom(dto.Department)
		}

		if plate != "" {
			vehicle, _, err := r.Vehicles.GetOrCreate(ctx, plate)
			if err != nil {
				return err
			}
			if err := r.Vehicles.SetEmployeeFlag(ctx, vehicle.ID, true); err != nil {
				return err
			}
			employee.VehicleID = null.IntFrom(int64(vehicle.ID))
		}

		var err error
		created, err = r.Employees.Create(ctx, employee)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("RegisterEmployee: Đã đăng ký nhân viên '%s' (ID: %d)", created.Name, created.ID)
	return created, nil
}

// RemoveEmployee xóa nhân viên và tắt cờ miễn phí trên xe của họ (nếu có).
func (s *ParkingService) RemoveEmployee(ctx context.Context, id int) error {
	return s.atomic.RunInTx(ctx, func(r repository.Repositories) error {
		employee, err := r.Employees.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if employee.VehicleID.Valid {
			if err := r.Vehicles.SetEmployeeFlag(ctx, int(employee.VehicleID.Int64), false); err != nil {
				return err
			}
		}
		return r.Employees.Delete(ctx, id)
	})
}

func (s *ParkingService) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repos.Employees.FindAll(ctx)
}

func entryPhotoName(plate string) string {
	return fmt.Sprintf("car_photos/entry/%s_%s_entry.jpg", plate, uuid.NewString())
}

func croppedPhotoName(plate string) string {
	return fmt.Sprintf("car_photos/cropped/%s_%s_plate.jpg", plate, uuid.NewString())
}

func exitPhotoName(sessionID int) string {
	return fmt.Sprintf("car_photos/exit/session_%d_%s_exit.jpg", sessionID, uuid.NewString())
}
