// Package transport exposes the radiograph screen over HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/xray-tools-mcp/internal/config"
	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
	"github.com/ironsheep/xray-tools-mcp/internal/imaging"
	"github.com/ironsheep/xray-tools-mcp/internal/service"
	"github.com/ironsheep/xray-tools-mcp/internal/storage"
)

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("bad request")

// UploadField is the multipart field carrying an uploaded capture.
const UploadField = "image"

// AnalysisRequest is the JSON body of POST /v1/analyze.
type AnalysisRequest struct {
	URL string `json:"url" binding:"required"`
}

// AnalysisResponse is returned by POST /v1/analyze.
type AnalysisResponse struct {
	*service.Analysis

	// Image is the enhanced frame, present when include_image or annotate
	// is set.
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Handler serves the HTTP API.
type Handler struct {
	svc     *service.Service
	cfg     *config.Config
	log     *logrus.Entry
	version string
}

// NewHandler builds the gin router for svc.
func NewHandler(svc *service.Service, cfg *config.Config, log *logrus.Entry, version string) http.Handler {
	h := &Handler{svc: svc, cfg: cfg, log: log, version: version}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(log),
		requestSizeLimiter(cfg.MaxBodyBytes),
	)

	r.GET("/health", h.healthCheck)
	r.POST("/v1/analyze", h.analyzeImage)

	return r
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "available",
		"version":       h.version,
		"time":          time.Now().UTC().Format(time.RFC3339),
		"cached_images": h.svc.Cache().Len(),
	})
}

func (h *Handler) analyzeImage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	o, err := parseOverrides(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid query", err)
		return
	}
	includeImage, err := queryBool(c, "include_image")
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid query", err)
		return
	}
	annotate, err := queryBool(c, "annotate")
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid query", err)
		return
	}

	var analysis *service.Analysis
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		analysis, err = h.analyzeUpload(c, o)
	} else {
		analysis, err = h.analyzeURL(ctx, c, o)
	}
	if err != nil {
		h.respondError(c, statusFor(err), "analysis failed", err)
		return
	}

	resp := AnalysisResponse{Analysis: analysis}
	if includeImage || annotate {
		img, err := h.svc.Render(analysis, annotate)
		if err != nil {
			h.respondError(c, http.StatusInternalServerError, "render failed", err)
			return
		}
		if resp.Image, err = imaging.EncodePNG(img); err != nil {
			h.respondError(c, http.StatusInternalServerError, "encode failed", err)
			return
		}
	}

	h.log.WithFields(logrus.Fields{
		"source":     analysis.Source,
		"status":     analysis.Report.Status,
		"confidence": analysis.Report.ConfidencePercent,
	}).Info("analysis completed")

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) analyzeUpload(c *gin.Context, o service.Overrides) (*service.Analysis, error) {
	fh, err := c.FormFile(UploadField)
	if err != nil {
		if tooLarge(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: multipart field %q: %v", errBadRequest, UploadField, err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	return h.svc.AnalyzeReader(f, o)
}

func (h *Handler) analyzeURL(ctx context.Context, c *gin.Context, o service.Overrides) (*service.Analysis, error) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			return nil, err
		}
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: expected a multipart upload or a JSON body with url", errBadRequest)
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := validateImageURL(req.URL); err != nil {
		return nil, err
	}
	return h.svc.AnalyzeSource(ctx, req.URL, o)
}

// validateImageURL accepts only remote sources; local paths are not
// reachable over HTTP.
func validateImageURL(imageURL string) error {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL format: %v", errBadRequest, err)
	}
	switch parsed.Scheme {
	case "http", "https", "azblob":
	default:
		return fmt.Errorf("%w: URL scheme must be http, https or azblob (got %q)", errBadRequest, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: URL must have a valid host", errBadRequest)
	}
	return nil
}

func parseOverrides(c *gin.Context) (service.Overrides, error) {
	o := service.Overrides{Strategy: c.Query("strategy")}
	if v := c.Query("contrast_level"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("contrast_level must be an integer (got %q)", v)
		}
		o.ContrastLevel = &level
	}
	return o, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	v := c.Query(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean (got %q)", key, v)
	}
	return b, nil
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}).Info("request handled")
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case tooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, dsp.ErrInvalidConfiguration),
		errors.Is(err, storage.ErrUnsupportedSource):
		return http.StatusBadRequest
	case errors.Is(err, imaging.ErrDecode), errors.Is(err, dsp.ErrInvalidBuffer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, storage.ErrFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, code int, message string, err error) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
