package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB points the package-global handle at an in-memory sqlite
// database unique to the test. The shared-cache DSN keeps the database
// alive across pooled connections.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Setting{},
	))

	for key, value := range map[string]string{
		models.SettingCommentsEnabled: "true",
		models.SettingGuestComments:   "true",
	} {
		require.NoError(t, gdb.Create(&models.Setting{Key: key, Value: value}).Error)
	}

	db.DB = gdb
	services.InvalidateSettings()

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
}

// closeTestDB severs the underlying connection so every later query
// fails with a driver error rather than a missing row.
func closeTestDB(t *testing.T) {
	t.Helper()
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

// newModerationRouter mounts the comment and moderation routes the way
// the real router does, with the given user injected into the request
// context and a limiter generous enough to stay out of the way.
func newModerationRouter(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.CheckUserKey, user)
		}
		c.Next()
	})

	commentHandler := NewCommentHandler(services.NewRateLimiter(1000, time.Minute))
	adminHandler := NewAdminHandler()

	r.GET("/api/posts/:slug/comments", commentHandler.ListThreaded)
	r.POST("/api/posts/:slug/comments", commentHandler.Create)

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminRequired())
	admin.GET("/comments", adminHandler.ListComments)
	admin.PUT("/comments/:cid/approve", adminHandler.Approve)
	admin.PUT("/comments/:cid/reject", adminHandler.Reject)

	return r
}

func adminUser() *models.User {
	return &models.User{ID: 1, Username: "admin", Role: "admin"}
}

func seedPost(t *testing.T, slug string) models.Post {
	t.Helper()
	post := models.Post{Slug: slug, Title: "Post " + slug}
	require.NoError(t, db.DB.Create(&post).Error)
	return post
}

func seedComment(t *testing.T, post models.Post, cid string, status models.CommentStatus, createdAt time.Time) models.Comment {
	t.Helper()
	comment := models.Comment{
		Cid:        cid,
		PostID:     post.ID,
		PostSlug:   post.Slug,
		GuestName:  "Eve",
		GuestEmail: "eve@example.com",
		Content:    "comment " + cid,
		Status:     status,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.DB.Create(&comment).Error)
	return comment
}

func commentStatus(t *testing.T, cid string) models.CommentStatus {
	t.Helper()
	var comment models.Comment
	require.NoError(t, db.DB.Where("cid = ?", cid).First(&comment).Error)
	return comment.Status
}

func doRequest(r *gin.Engine, method, path string, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func threadFrom(t *testing.T, w *httptest.ResponseRecorder) []*ThreadedComment {
	t.Helper()
	var resp struct {
		Data []*ThreadedComment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestSubmitCommentStartsPending(t *testing.T) {
	setupTestDB(t)
	post := seedPost(t, "submit-pending")
	r := newModerationRouter(nil)

	w := doRequest(r, http.MethodPost, "/api/posts/"+post.Slug+"/comments",
		`{"content":"hello there","guest_name":"Eve","guest_email":"eve@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data models.Comment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusPending, resp.Data.Status)
	assert.Equal(t, models.StatusPending, commentStatus(t, resp.Data.Cid))

	// The fresh comment must not leak into the public view.
	w = doRequest(r, http.MethodGet, "/api/posts/"+post.Slug+"/comments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, threadFrom(t, w))
}

func TestModerationRoundTrip(t *testing.T) {
	setupTestDB(t)
	post := seedPost(t, "round-trip")
	comment := seedComment(t, post, "roundtri", models.StatusPending, time.Now())
	r := newModerationRouter(adminUser())

	w := doRequest(r, http.MethodPut, "/api/admin/comments/"+comment.Cid+"/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusApproved, commentStatus(t, comment.Cid))

	w = doRequest(r, http.MethodPut, "/api/admin/comments/"+comment.Cid+"/reject", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusRejected, commentStatus(t, comment.Cid))

	w = doRequest(r, http.MethodPut, "/api/admin/comments/"+comment.Cid+"/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusApproved, commentStatus(t, comment.Cid))
}

func TestApproveTwiceIsIdempotent(t *testing.T) {
	setupTestDB(t)
	post := seedPost(t, "double-approve")
	comment := seedComment(t, post, "idempot1", models.StatusPending, time.Now())
	r := newModerationRouter(adminUser())

	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodPut, "/api/admin/comments/"+comment.Cid+"/approve", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.StatusApproved, commentStatus(t, comment.Cid))
	}
}

func TestThreadedViewShowsOnlyApproved(t *testing.T) {
	setupTestDB(t)
	post := seedPost(t, "only-approved")
	base := time.Now().Add(-time.Hour)
	seedComment(t, post, "pendcomm", models.StatusPending, base)
	approved := seedComment(t, post, "apprcomm", models.StatusApproved, base.Add(time.Minute))
	seedComment(t, post, "rejecomm", models.StatusRejected, base.Add(2*time.Minute))
	r := newModerationRouter(nil)

	w := doRequest(r, http.MethodGet, "/api/posts/"+post.Slug+"/comments", "")
	require.Equal(t, http.StatusOK, w.Code)

	thread := threadFrom(t, w)
	require.Len(t, thread, 1)
	assert.Equal(t, approved.Cid, thread[0].Cid)
}

func TestAdminListStatusFilter(t *testing.T) {
	setupTestDB(t)
	post := seedPost(t, "queue-filter")
	base := time.Now().Add(-time.Hour)
	seedComment(t, post, "qpending", models.StatusPending, base)
	seedComment(t, post, "qapprove", models.StatusApproved, base.Add(time.Minute))
	seedComment(t, post, "qrejectd", models.StatusRejected, base.Add(2*time.Minute))
	r := newModerationRouter(adminUser())

	w := doRequest(r, http.MethodGet, "/api/admin/comments?status=pending", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Comment `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "qpending", resp.Data[0].Cid)
	assert.Equal(t, int64(1), resp.Meta.Total)

	// Without a filter the queue shows every status.
	w = doRequest(r, http.MethodGet, "/api/admin/comments", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 3)

	w = doRequest(r, http.MethodGet, "/api/admin/comments?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModerateUnknownCommentNotFound(t *testing.T) {
	setupTestDB(t)
	r := newModerationRouter(adminUser())

	w := doRequest(r, http.MethodPut, "/api/admin/comments/missing1/approve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestThreadUnknownPostNotFound(t *testing.T) {
	setupTestDB(t)
	r := newModerationRouter(nil)

	w := doRequest(r, http.MethodGet, "/api/posts/no-such-post/comments", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// A broken store is a server-side failure, not a missing resource.
func TestStorageFailureIsServerError(t *testing.T) {
	setupTestDB(t)
	post := seedPost(t, "broken-store")
	comment := seedComment(t, post, "brokenc1", models.StatusPending, time.Now())
	closeTestDB(t)

	r := newModerationRouter(adminUser())

	w := doRequest(r, http.MethodGet, "/api/posts/"+post.Slug+"/comments", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(r, http.MethodPut, "/api/admin/comments/"+comment.Cid+"/approve", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
