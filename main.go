package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsgo_config "github.com/aws/aws-sdk-go-v2/config" // Alias để tránh trùng tên
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nrngooooo/parkingpayBE/internal/api"
	"github.com/nrngooooo/parkingpayBE/internal/api/middleware"
	"github.com/nrngooooo/parkingpayBE/internal/blob"
	"github.com/nrngooooo/parkingpayBE/internal/config"
	"github.com/nrngooooo/parkingpayBE/internal/repository/postgresql"
	"github.com/nrngooooo/parkingpayBE/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Không thể kết nối database: %v", err)
	}
	defer db.Close()
	log.Println("Đã kết nối database thành công!")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgresql.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		log.Fatalf("Không thể áp schema database: %v", err)
	}
	cancelMigrate()
	log.Println("Schema database đã sẵn sàng.")

	// 3. Khởi tạo AWS SDK Config
	awsSDKCfg, err := awsgo_config.LoadDefaultConfig(context.TODO(), awsgo_config.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Không thể tải AWS SDK config: %v", err)
	}
	log.Println("Đã tải AWS SDK config thành công cho region:", cfg.AWSRegion)

	rekognitionClient := rekognition.NewFromConfig(awsSDKCfg)

	// 4. Lưu trữ ảnh: local cho môi trường dev, S3 cho production
	var photoStore blob.Store
	switch cfg.BlobBackend {
	case "s3":
		if cfg.S3Bucket == "" {
			log.Fatalf("BLOB_BACKEND=s3 nhưng S3_BUCKET chưa được cấu hình")
		}
		photoStore = blob.NewS3Store(s3.NewFromConfig(awsSDKCfg), cfg.S3Bucket)
		log.Println("Lưu ảnh vào S3 bucket:", cfg.S3Bucket)
	default:
		photoStore = blob.NewLocalStore(cfg.BlobLocalDir)
		log.Println("Lưu ảnh vào thư mục local:", cfg.BlobLocalDir)
	}

	// 5. Initialize Repositories + commit boundary
	repos := postgresql.NewRepositories(db)
	txManager := postgresql.NewTxManager(db)

	// 6. Initialize Services
	clock := service.NewRealClock()

	normalizer, err := service.NewPlateNormalizer(cfg.PlateGrammars, cfg.PlateAlphabet)
	if err != nil {
		log.Fatalf("Cấu hình grammar biển số không hợp lệ: %v", err)
	}
	recognizer := service.NewPlateRecognizer(
		service.NewRekognitionRecognizer(rekognitionClient),
		normalizer, cfg.CropPolicy, cfg.OCRTimeout, cfg.OCRLanguageHint)

	authService := service.NewAuthService(repos.Users, cfg.JWTSecret, cfg.JWTExpirationHours, clock)
	parkingService := service.NewParkingService(repos, txManager, normalizer, recognizer, photoStore, clock)
	billingService := service.NewBillingService(repos, txManager, normalizer, clock)
	catalogService := service.NewCatalogService(repos, txManager, photoStore)

	// 7. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 8. Setup HTTP Router
	router := api.SetupRouter(authService, parkingService, billingService, catalogService, authMiddleware)

	// 9. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}
