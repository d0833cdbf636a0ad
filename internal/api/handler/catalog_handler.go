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

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(cs *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// POST /tariffs
func (h *CatalogHandler) CreateTariff(c *gin.Context) {
	var dto domain.TariffDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	tariff, err := h.catalogService.CreateTariff(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo biểu phí", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, tariff)
}

// POST /tariffs/:id/activate
func (h *CatalogHandler) ActivateTariff(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID biểu phí không hợp lệ"})
		return
	}

	if err := h.catalogService.ActivateTariff(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể kích hoạt biểu phí", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã kích hoạt biểu phí"})
}

// GET /tariffs
func (h *CatalogHandler) ListTariffs(c *gin.Context) {
	tariffs, err := h.catalogService.ListTariffs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách biểu phí", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tariffs)
}

// GET /tariffs/active
func (h *CatalogHandler) GetActiveTariff(c *gin.Context) {
	tariff, err := h.catalogService.ActiveTariff(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoTariffConfigured) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy biểu phí", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tariff)
}

// POST /payment-methods
func (h *CatalogHandler) CreatePaymentMethod(c *gin.Context) {
	var dto domain.PaymentMethodDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	method, warnings, err := h.catalogService.CreatePaymentMethod(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrDecode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo phương thức thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment_method": method, "warnings": warnings})
}

// GET /payment-methods
func (h *CatalogHandler) ListPaymentMethods(c *gin.Context) {
	methods, err := h.catalogService.ListPaymentMethods(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách phương thức thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, methods)
}

// POST /kiosks
func (h *CatalogHandler) CreateKiosk(c *gin.Context) {
	var dto domain.KioskDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	kiosk, err := h.catalogService.CreateKiosk(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, kiosk)
}

// PUT /kiosks/:id
func (h *CatalogHandler) UpdateKiosk(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID kiosk không hợp lệ"})
		return
	}

	var dto domain.KioskDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	kiosk, err := h.catalogService.UpdateKiosk(c.Request.Context(), id, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy kiosk"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật kiosk", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, kiosk)
}

// GET /kiosks
func (h *CatalogHandler) ListKiosks(c *gin.Context) {
	kiosks, err := h.catalogService.ListKiosks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách kiosk", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, kiosks)
}

// GET /kiosks/:id
func (h *CatalogHandler) GetKiosk(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID kiosk không hợp lệ"})
		return
	}

	kiosk, err := h.catalogService.GetKiosk(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy kiosk"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin kiosk", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, kiosk)
}

// DELETE /kiosks/:id
func (h *CatalogHandler) DeleteKiosk(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID kiosk không hợp lệ"})
		return
	}

	if err := h.catalogService.DeleteKiosk(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy kiosk"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa kiosk", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa kiosk"})
}
