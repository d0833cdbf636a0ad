package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// localStore ghi file xuống đĩa dưới thư mục gốc cấu hình, ví dụ
// ./media/car_photos/entry/1234АБВ_entry.jpg.
type localStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) Store {
	return &localStore{baseDir: baseDir}
}

func (s *localStore) Save(ctx context.Context, path string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(s.baseDir, filepath.Clean(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("lỗi tạo thư mục lưu ảnh: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("lỗi ghi file ảnh: %w", err)
	}
	return full, nil
}
