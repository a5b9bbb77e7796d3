package asset

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/response"
)

// multipartOverhead leaves room for boundaries and part headers around the file itself.
const multipartOverhead = 1 << 20

// Handler exposes the profile-image store over HTTP. The owner is the user placed in the
// context by the identity middleware (or by LoadRequestedUser for /user/:user_id routes).
type Handler struct {
	service        *Service
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

// UploadProfile godoc
// @Summary Upload a profile image
// @Description Stores a resized primary image and a JPEG thumbnail and appends a version.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image (jpeg, png, webp)"
// @Success 200 {object} map[string]interface{}
// @Failure 400,401,404,409,413,415,500 {object} map[string]interface{}
// @Router /upload/profile [post]
func (h *Handler) UploadProfile(c *gin.Context) {
	owner, principal, ok := h.identity(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(c, ErrPayloadTooLarge)
			return
		}
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "no file provided")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		h.writeError(c, ErrPayloadTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "could not read file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "could not read file")
		return
	}

	sum, err := h.service.Upload(c.Request.Context(), UploadInput{
		OwnerID:      owner.ID,
		Principal:    principal,
		Data:         data,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		OriginalName: fileHeader.Filename,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "profile image updated",
		"data":    sum,
	})
}

// GetThumbnail godoc
// @Summary Stream the profile thumbnail
// @Tags Uploads
// @Produce image/jpeg
// @Success 200 {file} binary
// @Failure 404,500 {object} map[string]interface{}
// @Router /upload/profile/thumb [get]
func (h *Handler) GetThumbnail(c *gin.Context) {
	h.stream(c, RoleThumbnail)
}

// GetFull godoc
// @Summary Stream the full-size profile image
// @Tags Uploads
// @Produce image/jpeg,image/png
// @Success 200 {file} binary
// @Failure 404,500 {object} map[string]interface{}
// @Router /upload/profile/full [get]
func (h *Handler) GetFull(c *gin.Context) {
	h.stream(c, RoleFull)
}

// GetVersions godoc
// @Summary Profile image metadata and version history
// @Tags Uploads
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /upload/profile/versions [get]
func (h *Handler) GetVersions(c *gin.Context) {
	owner, _, ok := h.identity(c)
	if !ok {
		return
	}

	u, a, err := h.service.History(c.Request.Context(), owner.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"owner": user.PublicView(u),
		"asset": PublicView(a),
	})
}

func (h *Handler) stream(c *gin.Context, role Role) {
	owner, _, ok := h.identity(c)
	if !ok {
		return
	}

	blob, err := h.service.Retrieve(c.Request.Context(), owner.ID, role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer blob.Body.Close()

	c.Header("Content-Type", blob.ContentType)
	c.Header("Content-Disposition", contentDisposition(blob.Filename))
	c.Header("Content-Length", strconv.FormatInt(blob.Size, 10))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, blob.Body); err != nil {
		// Headers are already out; the only option is to cut the response short.
		log.Printf("stream_error owner_id=%s role=%s error=%q", owner.ID, role, err)
		_ = c.Error(err)
		c.Abort()
	}
}

// contentDisposition always carries a quoted ASCII filename. Names outside printable ASCII
// also get an RFC 5987 filename* with the exact UTF-8 bytes.
func contentDisposition(name string) string {
	var fallback strings.Builder
	ascii := true
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			fallback.WriteByte('\\')
			fallback.WriteRune(r)
		case r < 0x20 || r > 0x7e:
			fallback.WriteByte('_')
			ascii = false
		default:
			fallback.WriteRune(r)
		}
	}

	v := `inline; filename="` + fallback.String() + `"`
	if !ascii {
		v += "; filename*=UTF-8''" + encodeExtValue(name)
	}
	return v
}

func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}

func (h *Handler) identity(c *gin.Context) (*user.User, user.Principal, bool) {
	p, exists := c.Get("principal")
	principal, isPrincipal := p.(user.Principal)
	if !exists || !isPrincipal || principal.ID == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return nil, user.Principal{}, false
	}

	v, exists := c.Get("requested_user")
	owner, isUser := v.(*user.User)
	if !exists || !isUser || owner == nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "user not found")
		return nil, user.Principal{}, false
	}
	return owner, principal, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("asset_error method=%s path=%s status=%d error=%q", c.Request.Method, c.Request.URL.Path, status, err)
		_ = c.Error(err)
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		response.ErrorWithDetails(c, status, code, message, verr.Fields)
		return
	}
	response.Error(c, status, code, message)
}

// classify maps an error kind to a stable status, code and client-safe message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrEmptyPayload):
		return http.StatusBadRequest, "EMPTY_PAYLOAD", ErrEmptyPayload.Error()
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", ErrInvalidInput.Error()
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", ErrUnsupportedMedia.Error()
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", ErrPayloadTooLarge.Error()
	case errors.Is(err, ErrInvalidOwnerID):
		return http.StatusBadRequest, "INVALID_OWNER_ID", ErrInvalidOwnerID.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error()
	case errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict, "CONCURRENCY_CONFLICT", ErrConcurrencyConflict.Error()
	case errors.Is(err, ErrStorageWrite):
		return http.StatusInternalServerError, "STORAGE_WRITE_FAILED", ErrStorageWrite.Error()
	case errors.Is(err, ErrStorageRead):
		return http.StatusInternalServerError, "STORAGE_READ_FAILED", ErrStorageRead.Error()
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "upload failed"
}
