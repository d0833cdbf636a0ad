package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/service"
)

type RecognitionHandler struct {
	parkingService *service.ParkingService
}

func NewRecognitionHandler(ps *service.ParkingService) *RecognitionHandler {
	return &RecognitionHandler{parkingService: ps}
}

// POST /recognition/process-image — chạy pipeline OCR trên ảnh mà không mở phiên,
// cho kiosk xem trước kết quả nhận dạng.
func (h *RecognitionHandler) ProcessImage(c *gin.Context) {
	var dto domain.RecognizeRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(dto.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu ảnh base64 không hợp lệ"})
		return
	}

	result, err := h.parkingService.RecognizePlate(c.Request.Context(), imageBytes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDecode), errors.Is(err, service.ErrInvalidFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoTextDetected), errors.Is(err, service.ErrCrop):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrOcr):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xử lý ảnh", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, domain.RecognizeResponseDTO{
		Plate:              result.Plate,
		CroppedImageBase64: base64.StdEncoding.EncodeToString(result.CroppedImage),
	})
}
