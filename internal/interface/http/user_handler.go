package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/response"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

const maxAvatarBytes = 5 << 20

// AccountService is the subset of application.Service the HTTP layer drives.
type AccountService interface {
	Get(ctx context.Context, id string) (*entity.User, error)
	Create(ctx context.Context, in *application.CreateUserInput) (*entity.User, error)
	Delete(ctx context.Context, id string) (*entity.User, error)
	ListByStatus(ctx context.Context, p application.ListParams) (*application.Page, error)
	Authenticate(ctx context.Context, email, password string) (*application.AuthResult, error)
	ChangePassword(ctx context.Context, id, current, next string) error
	UploadAvatar(ctx context.Context, id string, r io.Reader, filename, contentType string) (string, error)
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
}

type UserHandler struct {
	Svc     AccountService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc AccountService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,basicemail"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	Current string `json:"current_password" binding:"required"`
	Next    string `json:"new_password" binding:"required"`
}

type listQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=active deleted all"`
	Limit  int    `form:"limit" binding:"gte=0,lte=100"`
	Page   int    `form:"page" binding:"gte=0"`
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, application.ErrInvalidArgument), errors.Is(err, repository.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	var appErr *application.Error
	switch {
	case errors.As(err, &appErr):
	case status == http.StatusConflict:
		msg = "Email or username is already taken."
	case status == http.StatusBadRequest:
		msg = "Invalid id."
	default:
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		helpers.LogError(h.Logger, "request failed", err, logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		})
	}
	response.Error[any](c, status, msg, nil)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req application.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Create(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "user created", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.SetToken(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusOK, res, "login successful", nil)
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil {
		response.Error[any](c, http.StatusNotFound, "No user found", nil)
		return
	}
	response.Success(c, http.StatusOK, u, "user", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	st, err := application.ParseStatus(q.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.Svc.ListByStatus(c.Request.Context(), application.ListParams{Status: st, Limit: q.Limit, Page: q.Page})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page.Docs, "users", gin.H{
		"total":   page.Total,
		"page":    page.Page,
		"perPage": page.PerPage,
		"pages":   page.Pages,
		"status":  st.String(),
	})
}

func (h *UserHandler) Delete(c *gin.Context) {
	u, err := h.Svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, u, "user deleted", nil)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), c.Param("id"), req.Current, req.Next); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"changed": true}, "password changed", nil)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), c.Param("id"), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"image": url}, "avatar updated", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}

// Me returns the authenticated user.
// Me returns the caller's own record. Tokens outlive Delete, so a
// soft-deleted account answers 404 here.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Svc.Get(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil || u.Deleted {
		response.Error[any](c, http.StatusNotFound, "No user found", nil)
		return
	}
	response.Success(c, http.StatusOK, u, "user", nil)
}
