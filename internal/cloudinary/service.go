// Package cloudinary は Cloudinary への署名付きアップロード/削除を提供します。
// API 秘密鍵は署名計算にのみ使用し、リクエストには含めません。
package cloudinary

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/share-board/internal/config"
)

const (
	defaultBaseURL = "https://api.cloudinary.com/v1_1"

	uploadFolder         = "profile_pictures"
	uploadTransformation = "c_fill,w_300,h_300,f_auto,q_auto"
)

// Service は Cloudinary API クライアントです。
type Service struct {
	cloudName string
	apiKey    string
	apiSecret string

	client  *http.Client
	baseURL string

	// now はテストからタイムスタンプを固定するために差し替えます。
	now func() time.Time
}

// NewService は設定から Service を作成します。
func NewService(cfg *config.Config) *Service {
	return &Service{
		cloudName: cfg.CloudinaryCloudName,
		apiKey:    cfg.CloudinaryAPIKey,
		apiSecret: cfg.CloudinaryAPISecret,
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   defaultBaseURL,
		now:       time.Now,
	}
}

// UploadImage は base64 画像データを署名付きでアップロードし secure_url を返します。
// data URL 形式（data:image/png;base64,...）のプレフィックスは取り除きます。
func (s *Service) UploadImage(ctx context.Context, base64Data string, publicID string) (string, error) {
	imageData := base64Data
	if strings.HasPrefix(base64Data, "data:") {
		if _, rest, found := strings.Cut(base64Data, ","); found {
			imageData = rest
		}
	}

	imageBytes, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	params := map[string]string{
		"timestamp":      timestamp,
		"folder":         uploadFolder,
		"transformation": uploadTransformation,
	}
	if publicID != "" {
		params["public_id"] = publicID
	}
	signature := SignParams(params, s.apiSecret)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filePart, err := writer.CreateFormFile("file", "profile.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := filePart.Write(imageBytes); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}

	fields := map[string]string{
		"timestamp":      timestamp,
		"api_key":        s.apiKey,
		"signature":      signature,
		"folder":         uploadFolder,
		"transformation": uploadTransformation,
	}
	if publicID != "" {
		fields["public_id"] = publicID
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", s.baseURL, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("cloudinary upload failed: %s", string(detail))
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse cloudinary response: %w", err)
	}
	if payload.SecureURL == "" {
		return "", fmt.Errorf("no secure_url in cloudinary response")
	}

	return payload.SecureURL, nil
}

// DeleteImage は指定した public_id のアセットを削除します。
func (s *Service) DeleteImage(ctx context.Context, publicID string) error {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}
	signature := SignParams(params, s.apiSecret)

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("signature", signature)
	form.Set("api_key", s.apiKey)

	endpoint := fmt.Sprintf("%s/%s/image/destroy", s.baseURL, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cloudinary delete failed: %s", string(detail))
	}

	return nil
}
