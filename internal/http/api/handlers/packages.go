package handlers

import (
	"context"
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

// PackageHandler manages package and registry endpoints.
type PackageHandler struct {
	db      *gorm.DB
	checker authz.PermissionChecker
	rt      *authz.ResourceType
}

// NewPackageHandler constructs a PackageHandler.
func NewPackageHandler(db *gorm.DB) *PackageHandler {
	rt, _ := authz.DefaultCatalog.Lookup("package")
	return &PackageHandler{db: db, checker: authz.NewService(db), rt: rt}
}

func registryView(registry models.Registry) gin.H {
	return gin.H{
		"id":    registry.ID,
		"title": registry.Title,
		"link":  registry.Link,
		"logo":  registry.Logo,
	}
}

func packageView(pkg models.Package) gin.H {
	socials := make([]gin.H, 0, len(pkg.Socials))
	for _, social := range pkg.Socials {
		socials = append(socials, gin.H{
			"id":     social.ID,
			"link":   social.Link,
			"social": social.Social,
		})
	}
	view := gin.H{
		"id":          pkg.ID,
		"title":       pkg.Title,
		"description": pkg.Description,
		"version":     pkg.Version,
		"socials":     socials,
		"image":       pkg.Image,
		"cover_image": pkg.CoverImage,
		"created_at":  pkg.CreatedAt,
		"updated_at":  pkg.UpdatedAt,
	}
	if pkg.Registry != nil {
		view["registry"] = registryView(*pkg.Registry)
	} else {
		view["registry"] = nil
	}
	return view
}

// ListRegistries returns all registries.
func (h *PackageHandler) ListRegistries(c *gin.Context) {
	var registries []models.Registry
	errFind := h.db.WithContext(c.Request.Context()).Order("id").Find(&registries).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list registries failed"})
		return
	}

	out := make([]gin.H, 0, len(registries))
	for _, registry := range registries {
		out = append(out, registryView(registry))
	}
	c.JSON(http.StatusOK, out)
}

// createRegistryRequest defines the request body for registry creation.
type createRegistryRequest struct {
	Title string `json:"title" binding:"required"`
	Link  string `json:"link"`
	Logo  string `json:"logo"`
}

// CreateRegistry creates a registry.
func (h *PackageHandler) CreateRegistry(c *gin.Context) {
	var body createRegistryRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	registry := models.Registry{Title: body.Title, Link: body.Link, Logo: body.Logo}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&registry).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create registry failed"})
		return
	}
	c.JSON(http.StatusCreated, registryView(registry))
}

// List returns packages, optionally filtered by a search term matched
// against the title or description.
func (h *PackageHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Package{}).
		Preload("Registry").
		Preload("Socials")
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Joins("LEFT JOIN registries ON registries.id = packages.registry_id").
			Where(h.db.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "packages.title"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(h.db, "registries.title"), pattern))
	}

	var packages []models.Package
	if errFind := q.Order("packages.id").Find(&packages).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list packages failed"})
		return
	}

	out := make([]gin.H, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, packageView(pkg))
	}
	c.JSON(http.StatusOK, out)
}

// socialRequest describes one external link in a package payload.
type socialRequest struct {
	Link   string `json:"link" binding:"required"`
	Social string `json:"social"`
}

// createPackageRequest defines the request body for package creation.
type createPackageRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Version     string          `json:"version" binding:"required"`
	Registry    *uint64         `json:"registry"`
	Socials     []socialRequest `json:"socials"`
	Image       string          `json:"image"`
	CoverImage  string          `json:"cover_image"`
}

// Create creates a package with its social links.
func (h *PackageHandler) Create(c *gin.Context) {
	var body createPackageRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	socials, errSocials := buildSocials(body.Socials)
	if errSocials != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errSocials.Error()})
		return
	}

	ctx := c.Request.Context()
	if body.Registry != nil {
		var registry models.Registry
		if errFind := h.db.WithContext(ctx).First(&registry, *body.Registry).Error; errFind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "registry not found"})
			return
		}
	}

	pkg := models.Package{
		Title:       body.Title,
		Description: body.Description,
		Version:     body.Version,
		RegistryID:  body.Registry,
		Socials:     socials,
		Image:       body.Image,
		CoverImage:  body.CoverImage,
	}
	if errCreate := h.db.WithContext(ctx).Create(&pkg).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create package failed"})
		return
	}
	c.JSON(http.StatusCreated, packageView(h.reload(ctx, pkg.ID, &pkg)))
}

// Get returns one package.
func (h *PackageHandler) Get(c *gin.Context) {
	pkg, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, packageView(*pkg))
}

// updatePackageRequest defines the partial-update body for packages.
type updatePackageRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Version     *string          `json:"version"`
	Registry    *uint64          `json:"registry"`
	Socials     *[]socialRequest `json:"socials"`
	Image       *string          `json:"image"`
	CoverImage  *string          `json:"cover_image"`
}

// Update applies a partial update. The title is guarded by a field
// permission and is dropped silently when the caller lacks it.
func (h *PackageHandler) Update(c *gin.Context) {
	pkg, ok := h.find(c)
	if !ok {
		return
	}

	var body updatePackageRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if body.Title != nil {
		updates["title"] = *body.Title
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.Version != nil {
		updates["version"] = *body.Version
	}
	if body.Image != nil {
		updates["image"] = *body.Image
	}
	if body.CoverImage != nil {
		updates["cover_image"] = *body.CoverImage
	}

	ctx := c.Request.Context()
	if body.Registry != nil {
		var registry models.Registry
		if errFind := h.db.WithContext(ctx).First(&registry, *body.Registry).Error; errFind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "registry not found"})
			return
		}
		updates["registry_id"] = *body.Registry
	}

	user, _ := CurrentUser(c)
	updates = authz.FilterWritable(h.checker, h.rt, pkg, user, updates)

	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if errUpdate := tx.Model(pkg).Updates(updates).Error; errUpdate != nil {
				return errUpdate
			}
		}
		if body.Socials != nil {
			socials, errSocials := buildSocials(*body.Socials)
			if errSocials != nil {
				return errSocials
			}
			if errReplace := tx.Model(pkg).Association("Socials").Replace(socials); errReplace != nil {
				return errReplace
			}
		}
		return nil
	})
	if errTx != nil {
		if errors.Is(errTx, errBadSocial) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errTx.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update package failed"})
		return
	}

	c.JSON(http.StatusOK, packageView(h.reload(ctx, pkg.ID, pkg)))
}

// Delete soft-deletes a package.
func (h *PackageHandler) Delete(c *gin.Context) {
	pkg, ok := h.find(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(pkg).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete package failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

var errBadSocial = errors.New("invalid social value")

func buildSocials(reqs []socialRequest) ([]models.PackageSocial, error) {
	socials := make([]models.PackageSocial, 0, len(reqs))
	for _, req := range reqs {
		social := req.Social
		if social == "" {
			social = models.SocialWebsite
		}
		switch social {
		case models.SocialGithub, models.SocialWebsite, models.SocialGitlab:
		default:
			return nil, errBadSocial
		}
		socials = append(socials, models.PackageSocial{Link: req.Link, Social: social})
	}
	return socials, nil
}

func (h *PackageHandler) find(c *gin.Context) (*models.Package, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return nil, false
	}

	var pkg models.Package
	errFind := h.db.WithContext(c.Request.Context()).
		Preload("Registry").
		Preload("Socials").
		First(&pkg, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load package failed"})
		return nil, false
	}
	return &pkg, true
}

func (h *PackageHandler) reload(ctx context.Context, id uint64, fallback *models.Package) models.Package {
	var pkg models.Package
	errFind := h.db.WithContext(ctx).
		Preload("Registry").
		Preload("Socials").
		First(&pkg, id).Error
	if errFind != nil {
		return *fallback
	}
	return pkg
}
