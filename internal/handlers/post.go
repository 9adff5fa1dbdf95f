package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"inkwell/internal/common"
	"inkwell/internal/db"
	"inkwell/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PostHandler struct{}

func NewPostHandler() *PostHandler {
	return &PostHandler{}
}

// slugify lowercases a title and collapses everything that is not a
// letter or digit into single hyphens.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// fillCommentCounts batch-fills the approved comment count per post.
func fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type CountResult struct {
		PostID uint
		Count  int
	}
	var results []CountResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ? AND status = ?", postIDs, models.StatusApproved).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}

// List serves the public post index, newest first, paginated.
func (h *PostHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)

	var total int64
	if err := db.DB.Model(&models.Post{}).Count(&total).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to count posts")
		return
	}

	var posts []models.Post
	if err := db.DB.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&posts).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load posts")
		return
	}

	fillCommentCounts(posts)

	common.SuccessResponse(c, posts, common.NewMeta(total, page, limit))
}

// Get serves a single post by slug.
func (h *PostHandler) Get(c *gin.Context) {
	slug := c.Param("slug")

	var post models.Post
	if err := db.DB.Where("slug = ?", slug).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, common.ErrPostNotFound.Error())
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "failed to load post")
		}
		return
	}

	var count int64
	db.DB.Model(&models.Comment{}).
		Where("post_id = ? AND status = ?", post.ID, models.StatusApproved).
		Count(&count)
	post.CommentCount = int(count)

	common.SuccessResponse(c, post, nil)
}
