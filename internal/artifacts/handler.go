package artifacts

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"speedr-backend/internal/shared/metrics"
	"speedr-backend/internal/shared/server/middleware"
	"speedr-backend/internal/shared/server/respond"
	"speedr-backend/internal/shared/telemetry"
)

const defaultMaxUploadBytes int64 = 500 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches artifact routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/artifacts", h.upload)
	rg.GET("/artifacts/:id", h.get)
	rg.GET("/artifacts/:id/stream", h.stream)
}

func (h *Handler) upload(c *gin.Context) {
	// Multipart framing overhead on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit", gin.H{"maxBytes": h.MaxUploadBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit", gin.H{"maxBytes": h.MaxUploadBytes})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	a, err := h.Svc.Upload(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "only mp4, mov, avi and webm videos are accepted", nil)
		case errors.Is(err, ErrEmptyFile):
			respond.Error(c, http.StatusBadRequest, "validation_error", "file is empty", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "file name is required", nil)
		default:
			respond.Internal(c, "failed to upload artifact", err)
		}
		return
	}

	middleware.SetArtifactID(c, a.ID)
	telemetry.Info("artifact.uploaded", map[string]any{
		"artifact_id": a.ID,
		"mime_type":   a.MimeType,
		"size_bytes":  a.SizeBytes,
	})
	respond.JSON(c, http.StatusCreated, toResponse(a))
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	middleware.SetArtifactID(c, id)

	a, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	respond.OK(c, toResponse(a))
}

// stream serves the artifact's bytes, honoring a single byte range.
func (h *Handler) stream(c *gin.Context) {
	id := c.Param("id")
	middleware.SetArtifactID(c, id)
	ctx := c.Request.Context()

	a, err := h.Svc.Get(ctx, id)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	size, err := h.Svc.ContentSize(ctx, a)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	header := c.Writer.Header()
	header.Set("Accept-Ranges", "bytes")

	window, outcome := parseRange(c.GetHeader("Range"), size)
	status := http.StatusOK
	switch outcome {
	case rangeUnsatisfiable:
		header.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		respond.Error(c, http.StatusRequestedRangeNotSatisfiable, "range_not_satisfiable", "requested range starts beyond end of artifact", gin.H{"size": size})
		return
	case rangePartial:
		status = http.StatusPartialContent
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", window.Start, window.End, size))
	default:
		window = byteRange{Start: 0, End: size - 1}
	}

	length := window.Length()
	body, err := h.Svc.OpenWindow(ctx, a, window.Start, length)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	defer body.Close()

	header.Set("Content-Type", a.MimeType)
	header.Set("Content-Length", strconv.FormatInt(length, 10))
	c.Status(status)

	written, err := io.Copy(c.Writer, body)
	metrics.AddArtifactBytesStreamed(written)
	if err != nil {
		// Headers are already sent; the client sees a truncated body.
		telemetry.Error("artifact.stream_interrupted", map[string]any{
			"artifact_id": a.ID,
			"start":       window.Start,
			"length":      length,
			"written":     written,
			"error":       err,
		})
	}
}

func (h *Handler) writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "artifact not found", nil)
		return
	}
	respond.Internal(c, "failed to load artifact", err)
}
