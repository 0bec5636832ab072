package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zenhq/helpdesk/internal/authz"
	dbutil "github.com/zenhq/helpdesk/internal/db"
	"github.com/zenhq/helpdesk/internal/models"
	"gorm.io/gorm"
)

// PostHandler manages forum post endpoints.
type PostHandler struct {
	db      *gorm.DB
	checker authz.PermissionChecker
	rt      *authz.ResourceType
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(db *gorm.DB) *PostHandler {
	rt, _ := authz.DefaultCatalog.Lookup("post")
	return &PostHandler{db: db, checker: authz.NewService(db), rt: rt}
}

func postView(post models.Post) gin.H {
	return gin.H{
		"id":         post.ID,
		"title":      post.Title,
		"content":    post.Content,
		"author":     post.AuthorID,
		"created_at": post.CreatedAt,
		"updated_at": post.UpdatedAt,
	}
}

// List returns posts, optionally filtered by a search term matched
// against the title or content.
func (h *PostHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Post{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(h.db.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "title"), pattern).
			Or(dbutil.CaseInsensitiveLikeExpr(h.db, "content"), pattern))
	}

	var posts []models.Post
	if errFind := q.Order("id").Find(&posts).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list posts failed"})
		return
	}

	out := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		out = append(out, postView(post))
	}
	c.JSON(http.StatusOK, out)
}

// createPostRequest defines the request body for post creation.
type createPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Create creates a post authored by the caller.
func (h *PostHandler) Create(c *gin.Context) {
	var body createPostRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	post := models.Post{Title: body.Title, Content: body.Content}
	if user, ok := CurrentUser(c); ok {
		post.AuthorID = &user.ID
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&post).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create post failed"})
		return
	}
	c.JSON(http.StatusCreated, postView(post))
}

// Get returns one post with its comments.
func (h *PostHandler) Get(c *gin.Context) {
	post, ok := h.find(c)
	if !ok {
		return
	}

	var comments []models.Comment
	errFind := h.db.WithContext(c.Request.Context()).
		Where("post_id = ?", post.ID).
		Order("id").
		Find(&comments).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load post failed"})
		return
	}

	view := postView(*post)
	nested := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		nested = append(nested, commentView(comment))
	}
	view["comments"] = nested
	c.JSON(http.StatusOK, view)
}

// updatePostRequest defines the partial-update body for posts.
type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Update applies a partial update. Fields the caller may not change
// are dropped without error.
func (h *PostHandler) Update(c *gin.Context) {
	post, ok := h.find(c)
	if !ok {
		return
	}

	var body updatePostRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if body.Title != nil {
		updates["title"] = *body.Title
	}
	if body.Content != nil {
		updates["content"] = *body.Content
	}

	user, _ := CurrentUser(c)
	updates = authz.FilterWritable(h.checker, h.rt, post, user, updates)
	if len(updates) > 0 {
		errUpdate := h.db.WithContext(c.Request.Context()).
			Model(post).
			Updates(updates).Error
		if errUpdate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update post failed"})
			return
		}
	}

	c.JSON(http.StatusOK, postView(*post))
}

// Delete soft-deletes a post.
func (h *PostHandler) Delete(c *gin.Context) {
	post, ok := h.find(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(post).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete post failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) find(c *gin.Context) (*models.Post, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return nil, false
	}

	var post models.Post
	errFind := h.db.WithContext(c.Request.Context()).First(&post, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load post failed"})
		return nil, false
	}
	return &post, true
}
