package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/common"
	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentHandler struct {
	limiter *services.RateLimiter
}

func NewCommentHandler(limiter *services.RateLimiter) *CommentHandler {
	return &CommentHandler{limiter: limiter}
}

// CommentRequest is the submit body. parent_id is optional; the guest
// fields are required only for anonymous callers.
type CommentRequest struct {
	Content    string `json:"content"`
	ParentID   *uint  `json:"parent_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
}

// ThreadedComment is one node of the public reply tree.
type ThreadedComment struct {
	Cid         string             `json:"cid"`
	Author      string             `json:"author"`
	Content     string             `json:"content"`
	ContentHTML template.HTML      `json:"content_html"`
	CreatedAt   time.Time          `json:"created_at"`
	Replies     []*ThreadedComment `json:"replies"`
}

// validateCommentInput enforces the submit rules: content must be
// non-empty after trimming, and anonymous callers must identify
// themselves with a name and email.
func validateCommentInput(req *CommentRequest, user *models.User) error {
	if strings.TrimSpace(req.Content) == "" {
		return common.ErrEmptyContent
	}
	if user == nil {
		if strings.TrimSpace(req.GuestName) == "" || strings.TrimSpace(req.GuestEmail) == "" {
			return common.ErrGuestFields
		}
	}
	return nil
}

// buildThread assembles the two-level public view from a flat,
// created_at-ascending slice of approved comments. Replies land under
// their nearest top-level ancestor, so a reply to a reply is flattened
// into the root comment's list. Replies whose ancestor chain is not in
// the slice (parent still pending or rejected) have nothing to anchor to
// and are left out.
func buildThread(comments []models.Comment) []*ThreadedComment {
	nodes := make(map[uint]*models.Comment, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &comments[i]
	}

	// Resolve the top-level ancestor of a comment, nil when the chain
	// leaves the visible set.
	rootOf := func(c *models.Comment) *models.Comment {
		for c.ParentID != nil {
			parent, ok := nodes[*c.ParentID]
			if !ok {
				return nil
			}
			c = parent
		}
		return c
	}

	views := make(map[uint]*ThreadedComment, len(comments))
	var thread []*ThreadedComment

	for i := range comments {
		c := &comments[i]
		if c.ParentID != nil {
			continue
		}
		view := &ThreadedComment{
			Cid:         c.Cid,
			Author:      c.AuthorName(),
			Content:     c.Content,
			ContentHTML: utils.RenderMarkdown(c.Content),
			CreatedAt:   c.CreatedAt,
			Replies:     []*ThreadedComment{},
		}
		views[c.ID] = view
		thread = append(thread, view)
	}

	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			continue
		}
		root := rootOf(c)
		if root == nil {
			continue
		}
		parentView := views[root.ID]
		parentView.Replies = append(parentView.Replies, &ThreadedComment{
			Cid:         c.Cid,
			Author:      c.AuthorName(),
			Content:     c.Content,
			ContentHTML: utils.RenderMarkdown(c.Content),
			CreatedAt:   c.CreatedAt,
			Replies:     []*ThreadedComment{},
		})
	}

	if thread == nil {
		thread = []*ThreadedComment{}
	}
	return thread
}

func threadCacheKey(slug string) string {
	return fmt.Sprintf("comments:thread:%s", slug)
}

// ListThreaded serves the public reply tree for one post. Only approved
// comments are ever visible here; moderation state is an admin concern.
func (h *CommentHandler) ListThreaded(c *gin.Context) {
	slug := c.Param("slug")

	cacheKey := threadCacheKey(slug)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if thread, ok := cached.([]*ThreadedComment); ok {
			common.SuccessResponse(c, thread, nil)
			return
		}
	}

	var post models.Post
	if err := db.DB.Where("slug = ?", slug).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, common.ErrPostNotFound.Error())
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "failed to load post")
		}
		return
	}

	var comments []models.Comment
	if err := db.DB.Preload("User").
		Where("post_id = ? AND status = ?", post.ID, models.StatusApproved).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load comments")
		return
	}

	thread := buildThread(comments)

	utils.GetCache().Set(cacheKey, thread, 1*time.Minute)

	common.SuccessResponse(c, thread, nil)
}

// Create accepts a comment from a logged-in user or a guest. New comments
// are always pending; they stay out of the public view until a moderator
// approves them.
func (h *CommentHandler) Create(c *gin.Context) {
	if !services.BoolSetting(models.SettingCommentsEnabled) {
		common.ErrorResponse(c, http.StatusForbidden, "comments are disabled")
		return
	}

	user := middleware.CurrentUser(c)
	if user == nil && !services.BoolSetting(models.SettingGuestComments) {
		common.ErrorResponse(c, http.StatusForbidden, "guest comments are disabled")
		return
	}

	if !h.limiter.Allow(c.ClientIP()) {
		common.ErrorResponse(c, http.StatusTooManyRequests, common.ErrRateLimited.Error())
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, common.ErrInvalidInput.Error())
		return
	}

	if err := validateCommentInput(&req, user); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

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

	// Dangling parent references are rejected at the boundary rather than
	// stored as orphans. The parent must live on the same post.
	if req.ParentID != nil {
		var parent models.Comment
		if err := db.DB.First(&parent, *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				common.ErrorResponse(c, http.StatusBadRequest, common.ErrBadParent.Error())
			} else {
				common.ErrorResponse(c, http.StatusInternalServerError, "failed to load parent comment")
			}
			return
		}
		if parent.PostID != post.ID {
			common.ErrorResponse(c, http.StatusBadRequest, common.ErrBadParent.Error())
			return
		}
	}

	comment := models.Comment{
		Cid:      utils.RandStringBytesMaskImpr(8),
		PostID:   post.ID,
		PostSlug: post.Slug,
		ParentID: req.ParentID,
		Content:  strings.TrimSpace(req.Content),
		Status:   models.StatusPending,
	}
	if user != nil {
		comment.UserID = &user.ID
	} else {
		comment.GuestName = strings.TrimSpace(req.GuestName)
		comment.GuestEmail = strings.TrimSpace(req.GuestEmail)
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to create comment")
		return
	}

	// Invalidate the cached thread for this post
	utils.GetCache().Delete(threadCacheKey(post.Slug))

	c.JSON(http.StatusCreated, common.APIResponse{Data: comment})
}
