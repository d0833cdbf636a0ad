package service

import (
	"errors"
	"fmt"
	"strings"
)

// Lỗi của pipeline nhận dạng biển số. Mỗi bước thất bại phải phân biệt được
// với nhau qua errors.Is, không bao giờ trả lỗi chung chung cho caller.
var ErrInvalidFormat = errors.New("biển số không đúng định dạng")
var ErrDecode = errors.New("không giải mã được dữ liệu ảnh")
var ErrOcr = errors.New("dịch vụ nhận dạng văn bản gặp lỗi")
var ErrNoTextDetected = errors.New("không phát hiện văn bản nào trong ảnh")
var ErrCrop = errors.New("không cắt được vùng biển số từ ảnh")

// Lỗi vòng đời phiên đỗ xe.
var ErrSessionNotFound = errors.New("không tìm thấy phiên đỗ xe")
var ErrSessionAlreadyClosed = errors.New("phiên đỗ xe đã được đóng trước đó")
var ErrSessionNotClosed = errors.New("phiên đỗ xe chưa đóng, không thể quyết toán")

// Lỗi tính phí và thanh toán.
var ErrNoTariffConfigured = errors.New("chưa cấu hình đúng một biểu phí đang kích hoạt")
var ErrVehicleNotFound = errors.New("không tìm thấy xe")
var ErrPaymentNotFound = errors.New("không tìm thấy bản ghi thanh toán")
var ErrPaymentMethodNotFound = errors.New("không tìm thấy phương thức thanh toán")
var ErrPaymentMethodRequired = errors.New("chưa chọn phương thức thanh toán")
var ErrInvalidPaymentState = errors.New("thanh toán không ở trạng thái pending")
var ErrInvalidAmount = errors.New("số tiền không hợp lệ")

// InvalidFormatError mang theo đầu vào bị từ chối và danh sách grammar đã thử,
// đồng thời khớp errors.Is(err, ErrInvalidFormat).
type InvalidFormatError struct {
	Input         string
	GrammarsTried []string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("%v: '%s' (đã thử grammar: %s)",
		ErrInvalidFormat, e.Input, strings.Join(e.GrammarsTried, ", "))
}

func (e *InvalidFormatError) Unwrap() error {
	return ErrInvalidFormat
}
