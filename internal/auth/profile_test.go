package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yourusername/share-board/internal/users"
)

// 1x1 PNG（mimetype判定を通すための最小の実画像データ）
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

type stubUploader struct {
	secureURL  string
	err        error
	gotData    string
	gotPublic  string
	callsCount int
}

func (s *stubUploader) UploadImage(_ context.Context, base64Data, publicID string) (string, error) {
	s.callsCount++
	s.gotData = base64Data
	s.gotPublic = publicID
	return s.secureURL, s.err
}

type stubCleanup struct {
	enqueued []string
}

func (s *stubCleanup) EnqueueAssetCleanup(_ context.Context, publicID string) error {
	s.enqueued = append(s.enqueued, publicID)
	return nil
}

func postJSON(router http.Handler, path string, body any, cookie string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetMyProfile(t *testing.T) {
	repo := users.NewMemoryRepository()
	router := newTestRouter(NewManager(repo, nil, nil))

	form := registerForm("a@b.com", "secret1")
	form.Set("name", "Alice")
	rec := postForm(router, "/auth/register", form, "")
	cookie := sessionCookie(t, rec)

	profileRec := get(router, "/auth/myprofile", cookie)
	if profileRec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", profileRec.Code, profileRec.Body.String())
	}

	var profile profileResponse
	if err := json.Unmarshal(profileRec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if profile.ID != 1 || profile.Email != "a@b.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.Name == nil || *profile.Name != "Alice" {
		t.Fatalf("unexpected name: %+v", profile.Name)
	}
	if profile.ProfilePictureURL != nil {
		t.Fatalf("fresh user must not have a picture: %+v", profile.ProfilePictureURL)
	}
}

func TestUpdateProfilePicture(t *testing.T) {
	repo := users.NewMemoryRepository()
	uploader := &stubUploader{secureURL: "https://res.cloudinary.com/demo/new.jpg"}
	cleanup := &stubCleanup{}
	router := newTestRouter(NewManager(repo, uploader, cleanup))

	rec := postForm(router, "/auth/register", registerForm("a@b.com", "secret1"), "")
	cookie := sessionCookie(t, rec)

	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString(tinyPNG)
	upRec := postJSON(router, "/auth/myprofile/picture", map[string]string{"image": image}, cookie)
	if upRec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", upRec.Code, upRec.Body.String())
	}
	if uploader.callsCount != 1 {
		t.Fatalf("expected one upload, got %d", uploader.callsCount)
	}
	if !strings.HasPrefix(uploader.gotPublic, "user_1_") {
		t.Fatalf("unexpected public_id: %s", uploader.gotPublic)
	}
	if len(cleanup.enqueued) != 0 {
		t.Fatalf("first upload must not enqueue cleanup: %v", cleanup.enqueued)
	}

	stored, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ProfilePictureURL == nil || *stored.ProfilePictureURL != uploader.secureURL {
		t.Fatalf("picture url not persisted: %+v", stored.ProfilePictureURL)
	}

	// 2回目のアップロードで旧アセットの削除が投入される
	oldPublic := *stored.ProfilePicturePublic
	upRec = postJSON(router, "/auth/myprofile/picture", map[string]string{"image": image}, cookie)
	if upRec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", upRec.Code, upRec.Body.String())
	}
	if len(cleanup.enqueued) != 1 || cleanup.enqueued[0] != oldPublic {
		t.Fatalf("expected cleanup of %s, got %v", oldPublic, cleanup.enqueued)
	}
}

func TestUpdateProfilePictureRejectsNonImage(t *testing.T) {
	repo := users.NewMemoryRepository()
	uploader := &stubUploader{secureURL: "https://unused"}
	router := newTestRouter(NewManager(repo, uploader, nil))

	rec := postForm(router, "/auth/register", registerForm("a@b.com", "secret1"), "")
	cookie := sessionCookie(t, rec)

	text := base64.StdEncoding.EncodeToString([]byte("plain text, not an image"))
	upRec := postJSON(router, "/auth/myprofile/picture", map[string]string{"image": text}, cookie)
	if upRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", upRec.Code, upRec.Body.String())
	}
	if uploader.callsCount != 0 {
		t.Fatal("non-image payload must not be uploaded")
	}
}

func TestUpdateProfilePictureSubsystemDisabled(t *testing.T) {
	repo := users.NewMemoryRepository()
	router := newTestRouter(NewManager(repo, nil, nil))

	rec := postForm(router, "/auth/register", registerForm("a@b.com", "secret1"), "")
	cookie := sessionCookie(t, rec)

	upRec := postJSON(router, "/auth/myprofile/picture", map[string]string{"image": "aGVsbG8="}, cookie)
	if upRec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", upRec.Code)
	}
}
