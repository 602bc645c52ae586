package analyses

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"speedr-backend/internal/shared/server/middleware"
	"speedr-backend/internal/shared/server/respond"
)

const maxWebhookBodyBytes = 8 << 20

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service

	polls *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// LimitPolling makes GET /analysis/:id answer 429 when the same client reads
// the same analysis again within interval.
func (h *Handler) LimitPolling(interval time.Duration, now func() time.Time) {
	h.polls = newPollLimiter(interval, now)
}

// RegisterRoutes attaches the client-facing analysis routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analysis", h.createAnalysis)
	rg.GET("/analysis", h.listAnalyses)
	rg.GET("/analysis/:id", h.getAnalysis)
}

// RegisterWebhookRoutes attaches the worker callback routes. The request id
// in the path is the only capability the worker needs.
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/analysis/:id/progress", h.progress)
	rg.POST("/analysis/:id/callback", h.callback)
}

type createRequest struct {
	ArtifactID        string   `json:"artifactId"`
	SportType         string   `json:"sportType"`
	ReferenceLengthCm *float64 `json:"referenceLengthCm"`
	PlayerHeightCm    *float64 `json:"playerHeightCm"`
}

func (h *Handler) createAnalysis(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	middleware.SetArtifactID(c, req.ArtifactID)

	in := CreateInput{ArtifactID: req.ArtifactID, SportType: req.SportType}
	if req.ReferenceLengthCm != nil || req.PlayerHeightCm != nil {
		in.CalibrationHints = &CalibrationHints{
			ReferenceLengthCm: req.ReferenceLengthCm,
			PlayerHeightCm:    req.PlayerHeightCm,
		}
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	a, err := h.Svc.Create(ctx, in)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), []map[string]string{
				{"field": verr.Field, "issue": verr.Issue},
			})
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "artifact not found", nil)
		default:
			respond.Internal(c, "failed to create analysis", err)
		}
		return
	}

	middleware.SetAnalysisID(c, a.ID)
	respond.JSON(c, http.StatusAccepted, toResponse(a))
}

func (h *Handler) getAnalysis(c *gin.Context) {
	id := c.Param("id")
	middleware.SetAnalysisID(c, id)

	if ok, wait := h.polls.Allow(c.ClientIP(), id); !ok {
		retryMs := int(wait / time.Millisecond)
		if retryMs <= 0 {
			retryMs = 1
		}
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "analysis polled too frequently", gin.H{
			"retryAfterMs": retryMs,
		})
		return
	}

	a, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Internal(c, "failed to fetch analysis", err)
		}
		return
	}
	respond.OK(c, toResponse(a))
}

func (h *Handler) listAnalyses(c *gin.Context) {
	page := 0
	size := defaultPageSize
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page = parsed
		}
	}
	if v := c.Query("size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			size = parsed
		}
	}

	p, err := h.Svc.History(c.Request.Context(), page, size)
	if err != nil {
		respond.Internal(c, "failed to list analyses", err)
		return
	}
	respond.OK(c, toPageResponse(p))
}

func (h *Handler) progress(c *gin.Context) {
	id := c.Param("id")
	middleware.SetAnalysisID(c, id)

	body, ok := readWebhookBody(c)
	if !ok {
		return
	}
	percent, err := parseProgress(body)
	if err != nil {
		writeValidation(c, err)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	change, err := h.Svc.UpdateProgress(ctx, id, percent)
	if err != nil {
		h.writeWebhookError(c, err)
		return
	}
	middleware.SetStatusTransition(c, change.Transition)
	c.Status(http.StatusOK)
}

func (h *Handler) callback(c *gin.Context) {
	id := c.Param("id")
	middleware.SetAnalysisID(c, id)

	body, ok := readWebhookBody(c)
	if !ok {
		return
	}
	outcome, err := parseCompletion(body)
	if err != nil {
		writeValidation(c, err)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	change, err := h.Svc.Complete(ctx, id, outcome)
	if err != nil {
		h.writeWebhookError(c, err)
		return
	}
	middleware.SetStatusTransition(c, change.Transition)
	c.Status(http.StatusOK)
}

func readWebhookBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "callback body too large", nil)
			return nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read body", nil)
		return nil, false
	}
	return body, true
}

func writeValidation(c *gin.Context, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), []map[string]string{
			{"field": verr.Field, "issue": verr.Issue},
		})
		return
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", "invalid payload", nil)
}

func (h *Handler) writeWebhookError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		return
	}
	respond.Internal(c, "failed to apply callback", err)
}
