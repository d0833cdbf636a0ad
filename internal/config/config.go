package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// Cấu hình nhận dạng biển số
	PlateGrammars   []string      // Danh sách grammar chấp nhận, theo thứ tự ưu tiên
	PlateAlphabet   string        // Bảng chữ cái cho phần chữ của biển số
	CropPolicy      string        // Chính sách cắt ảnh vùng biển số: "top_half" | "full"
	OCRTimeout      time.Duration // Giới hạn thời gian chờ OCR
	OCRLanguageHint string

	// Lưu trữ ảnh
	BlobBackend  string // "local" | "s3"
	BlobLocalDir string
	S3Bucket     string
	AWSRegion    string

	JWTSecret          string        // Secret key cho JWT
	JWTExpirationHours time.Duration // Thời gian hết hạn của JWT
}

// Bảng chữ cái Kirin dùng trên biển số Mông Cổ.
const defaultPlateAlphabet = "АБВГДЕЁЖЗИЙКЛМНОӨПРСТУҮФХЦЧШЩЪЫЬЭЮЯ"

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	ocrTimeoutSec, _ := strconv.Atoi(getEnv("OCR_TIMEOUT_SECONDS", "15"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking"),
		DBPassword: getEnv("DB_PASSWORD", "parking"),
		DBName:     getEnv("DB_NAME", "parkingpay_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		PlateGrammars:   strings.Split(getEnv("PLATE_GRAMMARS", "digits4,digits4cyr3"), ","),
		PlateAlphabet:   getEnv("PLATE_ALPHABET", defaultPlateAlphabet),
		CropPolicy:      getEnv("CROP_POLICY", "top_half"),
		OCRTimeout:      time.Duration(ocrTimeoutSec) * time.Second,
		OCRLanguageHint: getEnv("OCR_LANGUAGE_HINT", "mn"),

		BlobBackend:  getEnv("BLOB_BACKEND", "local"),
		BlobLocalDir: getEnv("BLOB_LOCAL_DIR", "./media"),
		S3Bucket:     getEnv("S3_BUCKET", ""),
		AWSRegion:    getEnv("AWS_REGION", "ap-southeast-1"),

		JWTSecret:          getEnv("JWT_SECRET", "parkingpay-dev-secret-thay-khi-deploy"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định: '%s'", key, fallback)
	return fallback
}
