package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRecognizer trả kết quả định sẵn, ghi lại language hint đã nhận.
type stubRecognizer struct {
	text     string
	err      error
	gotHint  string
	gotCalls int
}

func (s *stubRecognizer) RecognizeText(ctx context.Context, imageBytes []byte, languageHint string) (string, error) {
	s.gotHint = languageHint
	s.gotCalls++
	return s.text, s.err
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestRecognizer(t *testing.T, stub *stubRecognizer) *PlateRecognizer {
	t.Helper()
	return NewPlateRecognizer(stub, newTestNormalizer(t), "top_half", 5*time.Second, "mn")
}

func TestPlateRecognizer_Recognize(t *testing.T) {
	ctx := context.Background()

	t.Run("pipeline thành công", func(t *testing.T) {
		stub := &stubRecognizer{text: " 1234 уба "}
		r := newTestRecognizer(t, stub)

		result, err := r.Recognize(ctx, testJPEG(t, 80, 40))
		require.NoError(t, err)

		assert.Equal(t, "1234УБА", result.Plate)
		assert.Equal(t, "mn", stub.gotHint)
		assert.NotEmpty(t, result.CroppedImage)

		// Ảnh cắt phải là JPEG hợp lệ và đúng nửa trên
		cropped, _, err := image.Decode(bytes.NewReader(result.CroppedImage))
		require.NoError(t, err)
		assert.Equal(t, 80, cropped.Bounds().Dx())
		assert.Equal(t, 20, cropped.Bounds().Dy())
	})

	t.Run("dữ liệu không phải ảnh", func(t *testing.T) {
		r := newTestRecognizer(t, &stubRecognizer{text: "1234"})
		_, err := r.Recognize(ctx, []byte("không phải ảnh"))
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("OCR trả lỗi", func(t *testing.T) {
		r := newTestRecognizer(t, &stubRecognizer{err: errors.New("dịch vụ sập")})
		_, err := r.Recognize(ctx, testJPEG(t, 80, 40))
		assert.ErrorIs(t, err, ErrOcr)
	})

	t.Run("không phát hiện văn bản", func(t *testing.T) {
		r := newTestRecognizer(t, &stubRecognizer{text: "   "})
		_, err := r.Recognize(ctx, testJPEG(t, 80, 40))
		assert.ErrorIs(t, err, ErrNoTextDetected)
	})

	t.Run("văn bản không khớp grammar nào", func(t *testing.T) {
		r := newTestRecognizer(t, &stubRecognizer{text: "EXIT ONLY"})
		_, err := r.Recognize(ctx, testJPEG(t, 80, 40))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("ảnh quá thấp không cắt được nửa trên", func(t *testing.T) {
		r := newTestRecognizer(t, &stubRecognizer{text: "1234"})
		_, err := r.Recognize(ctx, testJPEG(t, 80, 1))
		assert.ErrorIs(t, err, ErrCrop)
	})

	t.Run("chính sách cắt full giữ nguyên kích thước", func(t *testing.T) {
		stub := &stubRecognizer{text: "1234"}
		r := NewPlateRecognizer(stub, newTestNormalizer(t), "full", 5*time.Second, "mn")

		result, err := r.Recognize(ctx, testJPEG(t, 80, 40))
		require.NoError(t, err)

		cropped, _, err := image.Decode(bytes.NewReader(result.CroppedImage))
		require.NoError(t, err)
		assert.Equal(t, 40, cropped.Bounds().Dy())
	})

	t.Run("chính sách cắt không hỗ trợ", func(t *testing.T) {
		stub := &stubRecognizer{text: "1234"}
		r := NewPlateRecognizer(stub, newTestNormalizer(t), "bottom_half", 5*time.Second, "mn")
		_, err := r.Recognize(ctx, testJPEG(t, 80, 40))
		assert.ErrorIs(t, err, ErrCrop)
	})
}
