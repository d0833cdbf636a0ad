package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionRecognizer triển khai TextRecognizer bằng AWS Rekognition DetectText.
type RekognitionRecognizer struct {
	client *rekognition.Client
}

func NewRekognitionRecognizer(client *rekognition.Client) *RekognitionRecognizer {
	return &RekognitionRecognizer{client: client}
}

// RecognizeText gọi Rekognition và trả về dòng văn bản có độ tin cậy cao nhất.
// Không thấy văn bản nào thì trả chuỗi rỗng, KHÔNG trả lỗi — tầng trên phân
// biệt "không có chữ" với "OCR hỏng". Rekognition không nhận language hint
// nên tham số này được bỏ qua ở đây.
func (s *RekognitionRecognizer) RecognizeText(ctx context.Context, imageBytes []byte, languageHint string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("Rekognition client chưa được khởi tạo")
	}

	input := &rekognition.DetectTextInput{
		Image: &types.Image{
			Bytes: imageBytes,
		},
	}

	result, err := s.client.DetectText(ctx, input)
	if err != nil {
		return "", fmt.Errorf("lỗi Rekognition DetectText: %w", err)
	}
	log.Printf("RekognitionRecognizer: Rekognition trả về %d khối văn bản.", len(result.TextDetections))

	var bestText string
	var maxConfidence float32
	for _, detection := range result.TextDetections {
		if detection.Type != types.TextTypesLine {
			continue
		}
		if detection.DetectedText == nil || detection.Confidence == nil {
			continue
		}
		txt := strings.TrimSpace(*detection.DetectedText)
		if txt == "" {
			continue
		}
		if *detection.Confidence > maxConfidence {
			maxConfidence = *detection.Confidence
			bestText = txt
		}
	}

	if bestText != "" {
		log.Printf("RekognitionRecognizer: Chọn dòng '%s' với độ tin cậy %.2f", bestText, maxConfidence)
	}
	return bestText, nil
}
