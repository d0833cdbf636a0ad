package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	_ "image/jpeg"
	_ "image/png"
)

// TextRecognizer là năng lực nhận dạng văn bản từ ảnh (OCR). Triển khai thật
// gọi AWS Rekognition; test thay bằng stub tất định. Trả về chuỗi rỗng khi
// không thấy văn bản nào — đó KHÔNG phải lỗi của recognizer.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, imageBytes []byte, languageHint string) (string, error)
}

// RecognitionResult là kết quả nhận dạng: biển số đã chuẩn hóa và ảnh vùng
// biển số đã cắt (JPEG).
type RecognitionResult struct {
	Plate        string
	CroppedImage []byte
}

// PlateRecognizer biến ảnh chụp thành biển số chuẩn hóa + ảnh cắt.
// Mỗi bước thất bại với một loại lỗi riêng: ErrDecode, ErrOcr, ErrNoTextDetected,
// ErrInvalidFormat, ErrCrop.
type PlateRecognizer struct {
	recognizer TextRecognizer
	normalizer *PlateNormalizer
	cropPolicy string
	ocrTimeout time.Duration
	langHint   string
}

func NewPlateRecognizer(recognizer TextRecognizer, normalizer *PlateNormalizer,
	cropPolicy string, ocrTimeout time.Duration, langHint string) *PlateRecognizer {
	return &PlateRecognizer{
		recognizer: recognizer,
		normalizer: normalizer,
		cropPolicy: cropPolicy,
		ocrTimeout: ocrTimeout,
		langHint:   langHint,
	}
}

// Recognize chạy toàn bộ pipeline trên ảnh đầu vào. Gọi OCR có giới hạn thời
// gian riêng để một lần OCR treo không giữ request (và transaction phía sau) mở.
func (r *PlateRecognizer) Recognize(ctx context.Context, imageBytes []byte) (*RecognitionResult, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	ocrCtx, cancel := context.WithTimeout(ctx, r.ocrTimeout)
	defer cancel()

	rawText, err := r.recognizer.RecognizeText(ocrCtx, imageBytes, r.langHint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOcr, err)
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrNoTextDetected
	}
	log.Printf("PlateRecognizer: OCR trả về văn bản thô: '%s'", rawText)

	plate, err := r.normalizer.Normalize(rawText)
	if err != nil {
		return nil, err
	}

	cropped, err := r.crop(img)
	if err != nil {
		return nil, err
	}

	return &RecognitionResult{Plate: plate, CroppedImage: cropped}, nil
}

// crop cắt vùng biển số theo chính sách cấu hình và mã hóa lại thành JPEG.
// Kích thước suy biến (rộng/cao bằng 0) trả ErrCrop thay vì ảnh rỗng.
func (r *PlateRecognizer) crop(img image.Image) ([]byte, error) {
	b := img.Bounds()

	var rect image.Rectangle
	switch r.cropPolicy {
	case "top_half":
		rect = image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+b.Dy()/2)
	case "full":
		rect = b
	default:
		return nil, fmt.Errorf("%w: chính sách cắt ảnh không được hỗ trợ: '%s'", ErrCrop, r.cropPolicy)
	}

	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("%w: vùng cắt suy biến %dx%d", ErrCrop, rect.Dx(), rect.Dy())
	}

	croppedImg := imaging.Crop(img, rect)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, croppedImg, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("%w: lỗi mã hóa JPEG: %v", ErrCrop, err)
	}
	return buf.Bytes(), nil
}
