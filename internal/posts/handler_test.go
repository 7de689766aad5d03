package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/share-board/internal/auth"
)

type stubRepository struct {
	listByUserResult []Post
	listAllResult    []Post
	createResult     *Post
	updateResult     bool
	deleteResult     bool
	err              error

	gotUserID     int64
	gotTypeFilter *PostType
	gotNewPost    NewPost
	gotPost       Post
	gotDeleteID   int64
}

func (s *stubRepository) ListByUser(_ context.Context, userID int64, typeFilter *PostType) ([]Post, error) {
	s.gotUserID = userID
	s.gotTypeFilter = typeFilter
	return s.listByUserResult, s.err
}

func (s *stubRepository) ListAll(_ context.Context, typeFilter *PostType) ([]Post, error) {
	s.gotTypeFilter = typeFilter
	return s.listAllResult, s.err
}

func (s *stubRepository) Create(_ context.Context, userID int64, np NewPost) (*Post, error) {
	s.gotUserID = userID
	s.gotNewPost = np
	return s.createResult, s.err
}

func (s *stubRepository) Update(_ context.Context, userID int64, post Post) (bool, error) {
	s.gotUserID = userID
	s.gotPost = post
	return s.updateResult, s.err
}

func (s *stubRepository) Delete(_ context.Context, userID int64, id int64) (bool, error) {
	s.gotUserID = userID
	s.gotDeleteID = id
	return s.deleteResult, s.err
}

func fakeLogin(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextUserIDKey, userID)
		c.Next()
	}
}

func newPostsRouter(repo Repository, userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(repo)

	router := gin.New()
	router.Use(fakeLogin(userID))
	router.GET("/posts", handler.ListMine)
	router.GET("/posts/offers", handler.ListMineOffers)
	router.GET("/community", handler.ListCommunity)
	router.POST("/posts/create", handler.Create)
	router.POST("/posts/update", handler.Update)
	router.DELETE("/posts/delete/:id", handler.Delete)
	return router
}

func TestListMinePassesUserAndFilter(t *testing.T) {
	repo := &stubRepository{listByUserResult: []Post{
		{ID: 1, Description: "ladder", Category: "tools", UserID: 42, PostType: PostTypeOffer},
	}}
	router := newPostsRouter(repo, 42)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/offers", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if repo.gotUserID != 42 {
		t.Fatalf("unexpected user id: %d", repo.gotUserID)
	}
	if repo.gotTypeFilter == nil || *repo.gotTypeFilter != PostTypeOffer {
		t.Fatalf("unexpected filter: %v", repo.gotTypeFilter)
	}

	var result []Post
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 1 || result[0].Description != "ladder" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestListCommunityIgnoresOwner(t *testing.T) {
	repo := &stubRepository{listAllResult: []Post{
		{ID: 1, UserID: 1, PostType: PostTypeRequest},
		{ID: 2, UserID: 2, PostType: PostTypeOffer},
	}}
	router := newPostsRouter(repo, 42)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/community", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if repo.gotTypeFilter != nil {
		t.Fatalf("community view must not filter by type: %v", repo.gotTypeFilter)
	}
}

func TestCreateParsesFormAndType(t *testing.T) {
	repo := &stubRepository{createResult: &Post{
		ID: 7, Description: "need a drill", Category: "tools", UserID: 42, PostType: PostTypeRequest,
	}}
	router := newPostsRouter(repo, 42)

	form := url.Values{}
	form.Set("description", "need a drill")
	form.Set("category", "tools")
	form.Set("post_type", "bogus-type")

	req := httptest.NewRequest(http.MethodPost, "/posts/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	// 未知の post_type は request に倒れる
	if repo.gotNewPost.PostType != PostTypeRequest {
		t.Fatalf("unexpected post type: %q", repo.gotNewPost.PostType)
	}
	if repo.gotUserID != 42 {
		t.Fatalf("unexpected user id: %d", repo.gotUserID)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo := &stubRepository{updateResult: false}
	router := newPostsRouter(repo, 42)

	body, _ := json.Marshal(Post{ID: 99, Description: "x", PostType: PostTypeOffer})
	req := httptest.NewRequest(http.MethodPost, "/posts/update", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteSuccessAndNotFound(t *testing.T) {
	repo := &stubRepository{deleteResult: true}
	router := newPostsRouter(repo, 42)

	req := httptest.NewRequest(http.MethodDelete, "/posts/delete/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp DeleteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.ID != 5 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if repo.gotDeleteID != 5 || repo.gotUserID != 42 {
		t.Fatalf("unexpected repo call: id=%d user=%d", repo.gotDeleteID, repo.gotUserID)
	}

	repo.deleteResult = false
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/posts/delete/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteRejectsNonIntegerID(t *testing.T) {
	repo := &stubRepository{}
	router := newPostsRouter(repo, 42)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/posts/delete/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
