package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nrngooooo/parkingpayBE/internal/domain"
	"github.com/nrngooooo/parkingpayBE/internal/repository"
	"github.com/nrngooooo/parkingpayBE/internal/service"
)

type SessionHandler struct {
	parkingService *service.ParkingService
}

func NewSessionHandler(ps *service.ParkingService) *SessionHandler {
	return &SessionHandler{parkingService: ps}
}

// POST /sessions/entry — ghi nhận xe vào (biển số nhập tay hoặc ảnh để OCR)
func (h *SessionHandler) IngestEntry(c *gin.Context) {
	var dto domain.VehicleEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	result, err := h.parkingService.IngestEntry(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFormat), errors.Is(err, service.ErrDecode):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoTextDetected):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrOcr):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrSessionAlreadyOpen), errors.Is(err, repository.ErrStorageConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể ghi nhận xe vào", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, result)
}

// POST /sessions/:id/close — ghi nhận xe ra, đóng phiên
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID phiên đỗ xe không hợp lệ"})
		return
	}

	var dto domain.CloseSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	result, err := h.parkingService.CloseSession(c.Request.Context(), id, dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDecode):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSessionAlreadyClosed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể ghi nhận xe ra", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID phiên đỗ xe không hợp lệ"})
		return
	}

	session, err := h.parkingService.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy phiên đỗ xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin phiên đỗ xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

// GET /sessions?status=open|all
func (h *SessionHandler) ListSessions(c *gin.Context) {
	status := c.DefaultQuery("status", "open")

	var sessions []domain.ParkingSession
	var err error
	switch status {
	case "open":
		sessions, err = h.parkingService.ListOpenSessions(c.Request.Context())
	case "all":
		sessions, err = h.parkingService.ListAllSessions(c.Request.Context())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tham số status không hợp lệ (cho phép: open, all)"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách phiên đỗ xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessions)
}
