package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/anatolykoptev/go-aidetect"
)

const anonymousClient = "anonymous"

var (
	validate = validator.New()

	errBodyTooLarge = errors.New("body too large")
)

type handler struct {
	analyzer Analyzer
	limiter  aidetect.RateLimiter
	samples  SampleLister
	maxBody  int64
	log      *slog.Logger
}

// analyze handles POST /api/analyze. Checks run in order: declared size,
// rate limit, streamed size, JSON shape, field validation.
func (h *handler) analyze(c *gin.Context) {
	if c.Request.ContentLength > h.maxBody {
		c.String(http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	clientID := clientIdentifier(c.Request)
	decision, err := h.limiter.Check(c.Request.Context(), clientID)
	switch {
	case err != nil:
		h.log.Warn("rate limiter unavailable, allowing request", "client", clientID, "error", err.Error())
	case !decision.Allowed:
		c.Header("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
		c.String(http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	body, err := readBodyWithLimit(c.Request.Body, h.maxBody)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		c.String(http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	req, err := decodeAnalysisRequest(body)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		c.String(http.StatusBadRequest, msg)
		return
	}

	resp, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) listSamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"samples": h.samples.Samples(c.Request.Context())})
}

// respondError maps engine errors to status codes. The message is sent as plain text.
func (h *handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, aidetect.ErrValidation):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, aidetect.ErrPayloadTooLarge):
		c.String(http.StatusRequestEntityTooLarge, "Payload too large")
	default:
		h.log.Error("analysis failed", "error", err.Error(), "request_id", c.GetString(requestIDHeader))
		msg := err.Error()
		if msg == "" {
			msg = "Failed to analyze image"
		}
		c.String(http.StatusInternalServerError, msg)
	}
}

// rawAnalysisRequest accepts any JSON type per field so that a wrongly typed
// value reaches validation instead of failing the whole body.
type rawAnalysisRequest struct {
	MediaType any `json:"mediaType"`
	DataURL   any `json:"dataUrl"`
	URL       any `json:"url"`
}

// decodeAnalysisRequest parses a JSON object into a request. Fields that are
// not strings are treated as absent. Only malformed JSON or a non-object body
// is an error.
func decodeAnalysisRequest(body []byte) (aidetect.AnalysisRequest, error) {
	var raw rawAnalysisRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return aidetect.AnalysisRequest{}, err
	}
	mediaType, _ := raw.MediaType.(string)
	dataURL, _ := raw.DataURL.(string)
	rawURL, _ := raw.URL.(string)
	return aidetect.AnalysisRequest{
		MediaType: aidetect.MediaType(mediaType),
		DataURL:   dataURL,
		URL:       rawURL,
	}, nil
}

// validateRequest returns a client-facing message for the first problem in
// req, or "" when req is acceptable. mediaType is reported before sources.
func validateRequest(req aidetect.AnalysisRequest) string {
	err := validate.Struct(req)
	if err == nil {
		return ""
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "Invalid request"
	}
	for _, fe := range fieldErrs {
		if fe.StructField() == "MediaType" {
			return "mediaType must be image or frame"
		}
	}
	return "Provide either dataUrl or url"
}

// clientIdentifier keys the rate limiter: the first X-Forwarded-For hop,
// then X-Real-IP, then a shared anonymous bucket.
func clientIdentifier(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return anonymousClient
}

// readBodyWithLimit reads at most limit bytes and stops as soon as the limit
// is crossed.
func readBodyWithLimit(body io.Reader, limit int64) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}
