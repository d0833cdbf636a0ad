package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nrngooooo/parkingpayBE/internal/api/handler"
	"github.com/nrngooooo/parkingpayBE/internal/api/middleware"
	"github.com/nrngooooo/parkingpayBE/internal/service"
)

func SetupRouter(
	as *service.AuthService,
	ps *service.ParkingService,
	bs *service.BillingService,
	cs *service.CatalogService,
	authMw *middleware.AuthMiddleware,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		sessionH := handler.NewSessionHandler(ps)
		billingH := handler.NewBillingHandler(bs)
		sessionRoutes := v1.Group("/sessions")
		{
			sessionRoutes.POST("/entry", sessionH.IngestEntry)
			sessionRoutes.POST("/:id/close", sessionH.CloseSession)
			sessionRoutes.POST("/:id/bill", billingH.BillSession)
			sessionRoutes.GET("", sessionH.ListSessions)
			sessionRoutes.GET("/:id", sessionH.GetSession)
		}

		paymentRoutes := v1.Group("/payments")
		{
			paymentRoutes.POST("/manual", billingH.RecordManualPayment)
			paymentRoutes.POST("/:id/complete", billingH.MarkPaymentCompleted)
			paymentRoutes.POST("/:id/fail", billingH.MarkPaymentFailed)
			paymentRoutes.GET("", billingH.ListPayments)
			paymentRoutes.GET("/:id", billingH.GetPayment)
		}

		vehicleH := handler.NewVehicleHandler(ps)
		vehicleRoutes := v1.Group("/vehicles")
		{
			vehicleRoutes.GET("/search", vehicleH.SearchByPlatePrefix)
			vehicleRoutes.GET("/:plate", vehicleH.GetVehicleDetails)
		}

		employeeRoutes := v1.Group("/employees")
		employeeRoutes.Use(authMw.AuthorizeRole("admin"))
		{
			employeeRoutes.POST("", vehicleH.RegisterEmployee)
			employeeRoutes.GET("", vehicleH.ListEmployees)
			employeeRoutes.DELETE("/:id", vehicleH.RemoveEmployee)
		}

		catalogH := handler.NewCatalogHandler(cs)
		tariffRoutes := v1.Group("/tariffs")
		{
			tariffRoutes.POST("", authMw.AuthorizeRole("admin"), catalogH.CreateTariff)
			tariffRoutes.POST("/:id/activate", authMw.AuthorizeRole("admin"), catalogH.ActivateTariff)
			tariffRoutes.GET("", catalogH.ListTariffs)
			tariffRoutes.GET("/active", catalogH.GetActiveTariff)
		}

		methodRoutes := v1.Group("/payment-methods")
		{
			methodRoutes.POST("", authMw.AuthorizeRole("admin"), catalogH.CreatePaymentMethod)
			methodRoutes.GET("", catalogH.ListPaymentMethods)
		}

		kioskRoutes := v1.Group("/kiosks")
		{
			kioskRoutes.POST("", authMw.AuthorizeRole("admin"), catalogH.CreateKiosk)
			kioskRoutes.GET("", catalogH.ListKiosks)
			kioskRoutes.GET("/:id", catalogH.GetKiosk)
			kioskRoutes.PUT("/:id", authMw.AuthorizeRole("admin"), catalogH.UpdateKiosk)
			kioskRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), catalogH.DeleteKiosk)
		}

		recognitionH := handler.NewRecognitionHandler(ps)
		recognitionRoutes := v1.Group("/recognition")
		recognitionRoutes.Use(authMw.AuthorizeRole("admin", "operator"))
		{
			recognitionRoutes.POST("/process-image", recognitionH.ProcessImage)
		}
	}
	return r
}
