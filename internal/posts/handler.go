package posts

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/share-board/internal/auth"
)

// Handler は投稿系エンドポイントのハンドラー群です。
// すべてのルートが RequireLogin の後段で動くことを前提にします。
type Handler struct {
	repo Repository
}

// NewHandler は Handler を作成します。
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// ListMine は自分の投稿一覧を返します。
func (h *Handler) ListMine(c *gin.Context) {
	h.listMine(c, nil)
}

// ListMineOffers は自分の offer 投稿のみを返します。
func (h *Handler) ListMineOffers(c *gin.Context) {
	t := PostTypeOffer
	h.listMine(c, &t)
}

// ListMineRequests は自分の request 投稿のみを返します。
func (h *Handler) ListMineRequests(c *gin.Context) {
	t := PostTypeRequest
	h.listMine(c, &t)
}

// ListCommunity は全ユーザーの投稿一覧を返します。
func (h *Handler) ListCommunity(c *gin.Context) {
	h.listCommunity(c, nil)
}

// ListCommunityOffers は全ユーザーの offer 投稿のみを返します。
func (h *Handler) ListCommunityOffers(c *gin.Context) {
	t := PostTypeOffer
	h.listCommunity(c, &t)
}

// ListCommunityRequests は全ユーザーの request 投稿のみを返します。
func (h *Handler) ListCommunityRequests(c *gin.Context) {
	t := PostTypeRequest
	h.listCommunity(c, &t)
}

// Create は POST /posts/create のハンドラーです。
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		internalError(c, "Missing authenticated user")
		return
	}

	description := c.PostForm("description")
	category := c.PostForm("category")
	postType := ParsePostType(c.PostForm("post_type"))

	post, err := h.repo.Create(c.Request.Context(), userID, NewPost{
		Description: description,
		Category:    category,
		PostType:    postType,
	})
	if err != nil {
		internalError(c, "Failed to create post")
		return
	}

	c.JSON(http.StatusOK, post)
}

// Update は POST /posts/update のハンドラーです。
func (h *Handler) Update(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		internalError(c, "Missing authenticated user")
		return
	}

	var post Post
	if err := c.ShouldBindJSON(&post); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "post body must be valid JSON",
		})
		return
	}
	post.PostType = ParsePostType(post.PostType.String())

	updated, err := h.repo.Update(c.Request.Context(), userID, post)
	if err != nil {
		internalError(c, "Failed to update post")
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "POST_NOT_FOUND",
			"message": fmt.Sprintf("Post with id %d not found for update.", post.ID),
		})
		return
	}

	post.UserID = userID
	c.JSON(http.StatusOK, post)
}

// Delete は DELETE /posts/delete/:id のハンドラーです。
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		internalError(c, "Missing authenticated user")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "id must be an integer",
		})
		return
	}

	deleted, err := h.repo.Delete(c.Request.Context(), userID, id)
	if err != nil {
		internalError(c, "Failed to delete post")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "POST_NOT_FOUND",
			"message": fmt.Sprintf("Post with id %d not found for deletion.", id),
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Success: true,
		ID:      id,
		Message: fmt.Sprintf("Post with id %d deleted successfully.", id),
	})
}

func (h *Handler) listMine(c *gin.Context, typeFilter *PostType) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		internalError(c, "Missing authenticated user")
		return
	}

	result, err := h.repo.ListByUser(c.Request.Context(), userID, typeFilter)
	if err != nil {
		internalError(c, "Failed to list posts")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listCommunity(c *gin.Context, typeFilter *PostType) {
	result, err := h.repo.ListAll(c.Request.Context(), typeFilter)
	if err != nil {
		internalError(c, "Failed to list posts")
		return
	}
	c.JSON(http.StatusOK, result)
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": message,
	})
}
