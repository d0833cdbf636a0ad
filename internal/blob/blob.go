// Package blob lưu ảnh bằng chứng (ảnh xe vào/ra, ảnh biển số cắt, QR thanh toán).
// Lưu ảnh là thao tác best-effort: lỗi ở đây không được làm hỏng thao tác nghiệp vụ
// sở hữu nó, tầng service sẽ gắn lỗi vào warnings của kết quả.
package blob

import (
	"context"
)

// Store lưu bytes tại path tương đối và trả về tham chiếu (path/URL) đã lưu.
type Store interface {
	Save(ctx context.Context, path string, data []byte) (string, error)
}
