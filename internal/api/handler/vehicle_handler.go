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

type VehicleHandler struct {
	parkingService *service.ParkingService
}

func NewVehicleHandler(ps *service.ParkingService) *VehicleHandler {
	return &VehicleHandler{parkingService: ps}
}

// GET /vehicles/search?prefix=1234 — kiosk tra cứu nhanh theo 4 số đầu
func (h *VehicleHandler) SearchByPlatePrefix(c *gin.Context) {
	prefix := c.Query("prefix")
	vehicle, err := h.parkingService.SearchVehicleByPlatePrefix(c.Request.Context(), prefix)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi tìm kiếm xe", "details": err.Error()})
		return
	}
	if vehicle == nil {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": true, "vehicle": vehicle})
}

// GET /vehicles/:plate — chi tiết xe kèm lịch sử phiên đỗ
func (h *VehicleHandler) GetVehicleDetails(c *gin.Context) {
	vehicle, err := h.parkingService.VehicleDetails(c.Request.Context(), c.Param("plate"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrVehicleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin xe", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// POST /employees — đăng ký nhân viên (kèm biển số xe để miễn phí nếu có)
func (h *VehicleHandler) RegisterEmployee(c *gin.Context) {
	var dto domain.RegisterEmployeeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	employee, err := h.parkingService.RegisterEmployee(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đăng ký nhân viên", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, employee)
}

// GET /employees
func (h *VehicleHandler) ListEmployees(c *gin.Context) {
	employees, err := h.parkingService.ListEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách nhân viên", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, employees)
}

// DELETE /employees/:id
func (h *VehicleHandler) RemoveEmployee(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID nhân viên không hợp lệ"})
		return
	}

	if err := h.parkingService.RemoveEmployee(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy nhân viên"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa nhân viên", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa nhân viên"})
}
