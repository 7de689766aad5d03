package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/share-board/internal/users"
)

const profileFolder = "profile_pictures"

// Uploader は署名付きアップロードを行うクライアントのインターフェースです。
type Uploader interface {
	UploadImage(ctx context.Context, base64Data string, publicID string) (string, error)
}

// AssetCleanupEnqueuer は置き換え済みアセットの削除タスク投入を抽象化します。
type AssetCleanupEnqueuer interface {
	EnqueueAssetCleanup(ctx context.Context, publicID string) error
}

type profileResponse struct {
	ID                int64   `json:"id"`
	Email             string  `json:"email"`
	Name              *string `json:"name"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

// GetMyProfile は GET /auth/myprofile のハンドラーです。
func (m *Manager) GetMyProfile(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		internalError(c, "Missing authenticated user")
		return
	}

	user, err := m.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User no longer exists",
			})
			return
		}
		internalError(c, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		ProfilePictureURL: user.ProfilePictureURL,
	})
}

type updatePictureRequest struct {
	Image string `json:"image" binding:"required"`
}

// UpdateProfilePicture は POST /auth/myprofile/picture のハンドラーです。
// base64画像を署名付きでアップロードし、URLをユーザーに保存します。
// 置き換え前のアセットはバックグラウンドで削除します。
func (m *Manager) UpdateProfilePicture(c *gin.Context) {
	if m.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "SUBSYSTEM_DISABLED",
			"message": "Image uploads are not configured",
		})
		return
	}

	userID, ok := CurrentUserID(c)
	if !ok {
		internalError(c, "Missing authenticated user")
		return
	}

	var req updatePictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "image field is required",
		})
		return
	}

	imageBytes, err := decodeImagePayload(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "image must be valid base64 data",
		})
		return
	}

	if mt := mimetype.Detect(imageBytes); !strings.HasPrefix(mt.String(), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": fmt.Sprintf("expected an image, got %s", mt.String()),
		})
		return
	}

	user, err := m.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "Failed to load profile")
		return
	}

	publicID := fmt.Sprintf("user_%d_%s", userID, uuid.NewString())
	secureURL, err := m.uploader.UploadImage(c.Request.Context(), req.Image, publicID)
	if err != nil {
		internalError(c, "Failed to upload image")
		return
	}

	if err := m.users.UpdateProfilePicture(c.Request.Context(), userID, secureURL, profileFolder+"/"+publicID); err != nil {
		internalError(c, "Failed to save profile picture")
		return
	}

	// 旧アセットの削除はリクエストを失敗させない
	if user.ProfilePicturePublic != nil && m.cleanup != nil {
		if err := m.cleanup.EnqueueAssetCleanup(c.Request.Context(), *user.ProfilePicturePublic); err != nil {
			log.Printf("failed to enqueue asset cleanup public_id=%s: %v", *user.ProfilePicturePublic, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"profile_picture_url": secureURL,
	})
}

// decodeImagePayload は data URL プレフィックスを取り除いてbase64をデコードします。
func decodeImagePayload(payload string) ([]byte, error) {
	data := payload
	if strings.HasPrefix(payload, "data:") {
		if _, rest, found := strings.Cut(payload, ","); found {
			data = rest
		}
	}
	return base64.StdEncoding.DecodeString(data)
}
