package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/zenhq/helpdesk/internal/db"
	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/gorm"
)

// CommentHandler manages forum comment endpoints.
type CommentHandler struct {
	db *gorm.DB
}

// NewCommentHandler constructs a CommentHandler.
func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

func commentView(comment models.Comment) gin.H {
	return gin.H{
		"id":         comment.ID,
		"post":       comment.PostID,
		"content":    comment.Content,
		"author":     comment.AuthorID,
		"created_at": comment.CreatedAt,
		"updated_at": comment.UpdatedAt,
	}
}

// List returns comments, optionally filtered by post id or a search term.
func (h *CommentHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Comment{})
	if postQ := strings.TrimSpace(c.Query("post")); postQ != "" {
		postID, errParse := strconv.ParseUint(postQ, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
			return
		}
		q = q.Where("post_id = ?", postID)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "content"), pattern)
	}

	var comments []models.Comment
	if errFind := q.Order("id").Find(&comments).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list comments failed"})
		return
	}

	out := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		out = append(out, commentView(comment))
	}
	c.JSON(http.StatusOK, out)
}

// createCommentRequest defines the request body for comment creation.
type createCommentRequest struct {
	Post    uint64 `json:"post" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Create creates a comment on an existing post, authored by the caller.
func (h *CommentHandler) Create(c *gin.Context) {
	var body createCommentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	var post models.Post
	if errFind := h.db.WithContext(ctx).First(&post, body.Post).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create comment failed"})
		return
	}

	comment := models.Comment{PostID: &post.ID, Content: body.Content}
	if user, ok := CurrentUser(c); ok {
		comment.AuthorID = &user.ID
	}
	if errCreate := h.db.WithContext(ctx).Create(&comment).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create comment failed"})
		return
	}
	c.JSON(http.StatusCreated, commentView(comment))
}

// Get returns one comment.
func (h *CommentHandler) Get(c *gin.Context) {
	comment, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, commentView(*comment))
}

// updateCommentRequest defines the partial-update body for comments.
type updateCommentRequest struct {
	Content *string `json:"content"`
}

// Update applies a partial update to a comment.
func (h *CommentHandler) Update(c *gin.Context) {
	comment, ok := h.find(c)
	if !ok {
		return
	}

	var body updateCommentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if body.Content != nil {
		errUpdate := h.db.WithContext(c.Request.Context()).
			Model(comment).
			Update("content", *body.Content).Error
		if errUpdate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update comment failed"})
			return
		}
	}
	c.JSON(http.StatusOK, commentView(*comment))
}

// Delete soft-deletes a comment.
func (h *CommentHandler) Delete(c *gin.Context) {
	comment, ok := h.find(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(comment).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete comment failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommentHandler) find(c *gin.Context) (*models.Comment, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return nil, false
	}

	var comment models.Comment
	errFind := h.db.WithContext(c.Request.Context()).First(&comment, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load comment failed"})
		return nil, false
	}
	return &comment, true
}
