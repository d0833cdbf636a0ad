package domain

// RecognizeRequestDTO dùng khi kiosk gửi ảnh lên để nhận dạng biển số.
type RecognizeRequestDTO struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

// RecognizeResponseDTO trả về biển số đã chuẩn hóa và ảnh vùng biển số đã cắt.
type RecognizeResponseDTO struct {
	Plate              string `json:"plate"`
	CroppedImageBase64 string `json:"cropped_image_base64,omitempty"`
}
