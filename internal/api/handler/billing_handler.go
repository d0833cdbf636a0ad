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

type BillingHandler struct {
	billingService *service.BillingService
}

func NewBillingHandler(bs *service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: bs}
}

// POST /sessions/:id/bill — tính tiền phiên đã đóng, tạo thanh toán pending
func (h *BillingHandler) BillSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID phiên đỗ xe không hợp lệ"})
		return
	}

	var dto domain.BillSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	payment, err := h.billingService.BillSession(c.Request.Context(), id, dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentMethodRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrPaymentMethodNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSessionNotClosed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoTariffConfigured):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tính tiền phiên đỗ xe", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// POST /payments/manual — nhân viên ghi thanh toán nhập tay
func (h *BillingHandler) RecordManualPayment(c *gin.Context) {
	var dto domain.ManualPaymentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	payment, err := h.billingService.RecordManualPayment(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidFormat),
			errors.Is(err, service.ErrPaymentMethodRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrVehicleNotFound), errors.Is(err, service.ErrPaymentMethodNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNoActiveSession):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể ghi nhận thanh toán", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// POST /payments/:id/complete
func (h *BillingHandler) MarkPaymentCompleted(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID thanh toán không hợp lệ"})
		return
	}

	payment, err := h.billingService.MarkPaymentCompleted(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidPaymentState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể hoàn tất thanh toán", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, payment)
}

// POST /payments/:id/fail
func (h *BillingHandler) MarkPaymentFailed(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID thanh toán không hợp lệ"})
		return
	}

	var dto domain.MarkPaymentFailedDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	payment, err := h.billingService.MarkPaymentFailed(c.Request.Context(), id, dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidPaymentState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật thanh toán", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, payment)
}

// GET /payments/:id
func (h *BillingHandler) GetPayment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID thanh toán không hợp lệ"})
		return
	}

	payment, err := h.billingService.GetPayment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payment)
}

// GET /payments?session_id=
func (h *BillingHandler) ListPayments(c *gin.Context) {
	if sessionIDStr := c.Query("session_id"); sessionIDStr != "" {
		sessionID, err := strconv.Atoi(sessionIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id không hợp lệ"})
			return
		}
		payments, err := h.billingService.ListPaymentsBySession(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách thanh toán", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, payments)
		return
	}

	payments, err := h.billingService.ListPayments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payments)
}
