package handlers

import (
	"errors"
	"net/http"
	"strings"

	"inkwell/internal/common"
	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	mailService *services.MailService
}

func NewAdminHandler() *AdminHandler {
	return &AdminHandler{
		mailService: services.NewMailService(),
	}
}

// ListComments serves the moderation queue: all statuses, optionally
// filtered, newest first, paginated. The count and the page are two
// separate reads; a concurrent moderation action may slip between them,
// which is acceptable for a moderation UI.
func (h *AdminHandler) ListComments(c *gin.Context) {
	var filter *models.CommentStatus
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseCommentStatus(raw)
		if !ok {
			common.ErrorResponse(c, http.StatusBadRequest, "unknown status filter")
			return
		}
		filter = &status
	}

	filtered := func() *gorm.DB {
		q := db.DB.Model(&models.Comment{})
		if filter != nil {
			q = q.Where("status = ?", *filter)
		}
		return q
	}

	page, limit := parsePagination(c)

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to count comments")
		return
	}

	var comments []models.Comment
	if err := filtered().Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&comments).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load comments")
		return
	}

	common.SuccessResponse(c, comments, common.NewMeta(total, page, limit))
}

// Approve handles PUT /api/admin/comments/:cid/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	h.setStatus(c, models.StatusApproved)
}

// Reject handles PUT /api/admin/comments/:cid/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	h.setStatus(c, models.StatusRejected)
}

// setStatus overwrites the moderation state unconditionally. Any state
// may move to either target, and re-applying the current state is a
// harmless no-op, so there is nothing to check beyond existence.
func (h *AdminHandler) setStatus(c *gin.Context, status models.CommentStatus) {
	if !status.IsModerationTarget() {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid moderation status")
		return
	}

	cid := c.Param("cid")
	var comment models.Comment
	if err := db.DB.Preload("User").Where("cid = ?", cid).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, common.ErrCommentNotFound.Error())
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "failed to load comment")
		}
		return
	}

	wasApproved := comment.Status == models.StatusApproved
	comment.Status = status
	if err := db.DB.Model(&models.Comment{}).Where("id = ?", comment.ID).
		Update("status", status).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to update comment")
		return
	}

	utils.GetCache().Delete(threadCacheKey(comment.PostSlug))

	// A freshly approved reply triggers a notification to the parent
	// comment's author.
	if status == models.StatusApproved && !wasApproved && comment.ParentID != nil {
		go h.notifyParent(&comment)
	}

	common.SuccessResponse(c, comment, nil)
}

func (h *AdminHandler) notifyParent(reply *models.Comment) {
	var parent models.Comment
	if err := db.DB.Preload("User").First(&parent, *reply.ParentID).Error; err != nil {
		return
	}

	// Don't notify someone replying to themselves
	if reply.UserID != nil && parent.UserID != nil && *reply.UserID == *parent.UserID {
		return
	}

	var post models.Post
	if err := db.DB.First(&post, reply.PostID).Error; err != nil {
		return
	}

	h.mailService.SendReplyNotification(
		parent.NotifyEmail(),
		parent.AuthorName(),
		reply.AuthorName(),
		post.Title,
		reply.Content,
	)
}

// Stats returns per-status comment counts for the dashboard.
func (h *AdminHandler) Stats(c *gin.Context) {
	type row struct {
		Status models.CommentStatus
		Count  int64
	}
	var rows []row
	if err := db.DB.Model(&models.Comment{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load stats")
		return
	}

	stats := map[models.CommentStatus]int64{
		models.StatusPending:  0,
		models.StatusApproved: 0,
		models.StatusRejected: 0,
	}
	for _, r := range rows {
		stats[r.Status] = r.Count
	}

	common.SuccessResponse(c, stats, nil)
}

// GetSettings returns the current site toggles.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	common.SuccessResponse(c, services.GetSettings(), nil)
}

// UpdateSettings accepts a partial key/value map and upserts each known
// key. Unknown keys are rejected to catch typos early.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, common.ErrInvalidInput.Error())
		return
	}

	known := map[string]bool{
		models.SettingCommentsEnabled: true,
		models.SettingGuestComments:   true,
	}
	for key := range req {
		if !known[key] {
			common.ErrorResponse(c, http.StatusBadRequest, "unknown setting: "+key)
			return
		}
	}

	for key, value := range req {
		if err := db.DB.Model(&models.Setting{}).Where("key = ?", key).
			Update("value", value).Error; err != nil {
			common.ErrorResponse(c, http.StatusInternalServerError, "failed to update settings")
			return
		}
	}

	services.InvalidateSettings()
	common.SuccessResponse(c, services.GetSettings(), nil)
}

// PostRequest is the admin post-creation body.
type PostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreatePost provisions a post for comments to attach to. The slug is
// derived from the title plus a random suffix to keep it unique.
func (h *AdminHandler) CreatePost(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, common.ErrInvalidInput.Error())
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "title must not be empty")
		return
	}

	post := models.Post{
		Slug:    slugify(req.Title) + "-" + utils.RandStringBytesMaskImpr(8),
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
	}

	if err := db.DB.Create(&post).Error; err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to create post")
		return
	}

	c.JSON(http.StatusCreated, common.APIResponse{Data: post})
}
