package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"user-registry/internal/adapter/gin/render"
	"user-registry/internal/usecase/user"
	pkgerrors "user-registry/pkg/errors"
	"user-registry/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Plain-text bodies sent on failure.
const (
	msgCreateFailed = "Database error"
	msgListFailed   = "DB error"
	msgUploadFailed = "Upload failed"
	msgFileTooLarge = "File too large"
)

// Form fields of the registration form.
const (
	NameField  = "name"
	EmailField = "email"
	PhotoField = "photo"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	if _, err := c.MultipartForm(); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		log.Warn("Invalid create user form", zap.Error(err))
		h.handleUploadError(c, err)
		return
	}

	photo, err := formPhoto(c)
	if err != nil {
		log.Warn("Invalid photo upload", zap.Error(err))
		h.handleUploadError(c, err)
		return
	}

	name := postFormValue(c, NameField)
	email := postFormValue(c, EmailField)
	log.Info("CreateUser request", zap.Stringp("name", name), zap.Stringp("email", email))

	_, err = h.uc.CreateUser(ctx, user.CreateUserRequest{
		Name:  name,
		Email: email,
		Photo: photo,
	})
	if err != nil {
		log.Error("CreateUser failed", zap.Error(err))
		h.handleError(c, err, msgCreateFailed)
		return
	}

	c.Redirect(http.StatusFound, "/users")
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	resp, err := h.uc.ListUsers(ctx, user.ListUsersRequest{})
	if err != nil {
		log.Error("ListUsers failed", zap.Error(err))
		h.handleError(c, err, msgListFailed)
		return
	}

	page, err := render.Users(resp.Users)
	if err != nil {
		log.Error("ListUsers render failed", zap.Error(err))
		c.String(http.StatusInternalServerError, msgListFailed)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// postFormValue returns the submitted value of key, or nil when the form has
// no such field. An empty value is returned as an empty string.
func postFormValue(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

// formPhoto returns the uploaded photo, or nil when the request carries none.
func formPhoto(c *gin.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(PhotoField)
	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, err
	}
}

// handleError converts usecase errors to plain-text HTTP responses.
// fallback is the body used for errors without a more specific message.
func (h *UserHandler) handleError(c *gin.Context, err error, fallback string) {
	var (
		tooLargeErr *pkgerrors.UploadTooLargeError
		storageErr  *pkgerrors.StorageError
	)

	switch {
	case errors.As(err, &tooLargeErr):
		c.String(tooLargeErr.HTTPStatus(), msgFileTooLarge)
	case errors.As(err, &storageErr):
		c.String(storageErr.HTTPStatus(), msgUploadFailed)
	default:
		c.String(pkgerrors.StatusOf(err), fallback)
	}
}

// handleUploadError answers a request whose form could not be parsed.
func (h *UserHandler) handleUploadError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		c.String(http.StatusRequestEntityTooLarge, msgFileTooLarge)
		return
	}
	c.String(http.StatusBadRequest, msgUploadFailed)
}
