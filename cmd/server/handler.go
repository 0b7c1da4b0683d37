package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/model"
	"github.com/spetersoncode/imagegate/prompt"
	"github.com/spetersoncode/imagegate/registry"
)

// kindInvalidRequest marks a malformed request body. It never comes from the gateway.
const kindInvalidRequest imagegate.Kind = "invalid_request"

// statusClientClosedRequest is the nginx convention for a client that went away.
const statusClientClosedRequest = 499

const maxRequestBytes = 32 << 20

// Generator is the gateway surface the handlers need.
type Generator interface {
	Generate(ctx context.Context, prompt string, hint imagegate.ProviderName, opts ...imagegate.ImageOption) (*imagegate.Result, error)
	Providers() []registry.ProviderStatus
}

type generateOptions struct {
	Style       string `json:"style"`
	Quality     string `json:"quality"`
	Type        string `json:"type"`
	Size        string `json:"size"`
	SourceImage string `json:"sourceImage"`
}

type generateRequest struct {
	Prompt   string          `json:"prompt"`
	Provider string          `json:"provider"`
	Options  generateOptions `json:"options"`
}

type responseMetadata struct {
	Provider  imagegate.ProviderName `json:"provider"`
	Model     string                 `json:"model,omitempty"`
	Prompt    string                 `json:"prompt"`
	Style     string                 `json:"style,omitempty"`
	Quality   string                 `json:"quality,omitempty"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`

	// EstimatedCost is the list price in USD when the model publishes one.
	EstimatedCost float64 `json:"estimatedCost,omitempty"`
}

type attemptFailure struct {
	Provider imagegate.ProviderName `json:"provider"`
	Error    string                 `json:"error"`
}

type generateResponse struct {
	Success  bool              `json:"success"`
	ImageURL string            `json:"imageUrl,omitempty"`
	Metadata *responseMetadata `json:"metadata,omitempty"`
	Error    string            `json:"error,omitempty"`
	Kind     imagegate.Kind    `json:"kind,omitempty"`
	Attempts []attemptFailure  `json:"attempts,omitempty"`
}

// GenerateHandler handles image generation requests.
type GenerateHandler struct {
	gen     Generator
	timeout time.Duration
}

// NewGenerateHandler creates a handler bounding each generation by timeout.
func NewGenerateHandler(gen Generator, timeout time.Duration) *GenerateHandler {
	return &GenerateHandler{gen: gen, timeout: timeout}
}

// ServeHTTP handles POST requests to generate an image.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := log.FromContextOrDiscard(r.Context())

	if r.Method != http.MethodPost {
		logger.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		logger.Warn("invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, generateResponse{Error: "Invalid request body: " + err.Error(), Kind: kindInvalidRequest})
		return
	}

	hint := imagegate.ProviderName(strings.ToLower(strings.TrimSpace(req.Provider)))
	imageType := prompt.Type(strings.ToLower(req.Options.Type))
	if imageType == "" {
		imageType = prompt.TypeGeneral
	}
	enhanced, opts := prompt.Prepare(req.Prompt, hint, prompt.Options{
		Style:   req.Options.Style,
		Quality: imagegate.ImageQuality(strings.ToLower(req.Options.Quality)),
		Type:    imageType,
		Size:    imagegate.ImageSize(req.Options.Size),
	})

	if req.Options.SourceImage != "" {
		src, err := imagegate.ParseDataURI(req.Options.SourceImage)
		if err != nil {
			logger.Warn("invalid source image", "error", err)
			writeJSON(w, http.StatusBadRequest, generateResponse{Error: err.Error(), Kind: kindInvalidRequest})
			return
		}
		opts = append(opts, imagegate.WithSourceImage(src))
	}

	logger.Info("generation started", "provider", hint, "type", imageType,
		"edit", req.Options.SourceImage != "", log.Prompt(req.Prompt))

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.gen.Generate(ctx, enhanced, hint, opts...)
	if err != nil {
		status := statusFor(err)
		logger.Warn("generation failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"kind", imagegate.KindOf(err),
			"status", status,
			"error", err,
		)
		writeError(w, status, err)
		return
	}

	cost, _ := model.EstimateCost(res.Model, imagegate.ApplyImageOptions(opts...).Quality)
	logger.Info("generation completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"provider", res.Provider,
		"model", res.Model,
	)
	writeJSON(w, http.StatusOK, generateResponse{
		Success:  true,
		ImageURL: res.URL,
		Metadata: &responseMetadata{
			Provider:  res.Provider,
			Model:     res.Model,
			Prompt:    req.Prompt,
			Style:     req.Options.Style,
			Quality:   req.Options.Quality,
			Type:      string(imageType),
			Timestamp: time.Now().UTC(),

			EstimatedCost: cost,
		},
	})
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch imagegate.KindOf(err) {
	case imagegate.KindInvalidPrompt, imagegate.KindUnsupportedOperation:
		return http.StatusBadRequest
	case imagegate.KindProviderNotFound:
		return http.StatusNotFound
	case imagegate.KindProviderNotConfigured:
		return http.StatusConflict
	case imagegate.KindNoProvidersConfigured:
		return http.StatusServiceUnavailable
	case imagegate.KindProviderError, imagegate.KindAllProvidersFailed:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case imagegate.KindPollTimedOut:
		return http.StatusGatewayTimeout
	case imagegate.KindPollCancelled, imagegate.KindCancelled:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := generateResponse{Error: err.Error(), Kind: imagegate.KindOf(err)}

	var all *imagegate.AllProvidersFailedError
	if errors.As(err, &all) {
		for _, a := range all.Attempts {
			msg := a.Err.Error()
			var pe *imagegate.ProviderError
			if errors.As(a.Err, &pe) && pe.Provider == a.Provider && pe.Cause != nil {
				msg = pe.Cause.Error()
			}
			resp.Attempts = append(resp.Attempts, attemptFailure{Provider: a.Provider, Error: msg})
		}
	}
	if d := imagegate.RetryAfterOf(err); d > 0 {
		secs := int((d + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// providersHandler reports registry status.
func providersHandler(gen Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"providers": gen.Providers()})
	}
}

// requestContext gives each request an id and a request-scoped logger.
func requestContext(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		logger := base.With("request_id", id)
		next.ServeHTTP(w, r.WithContext(log.NewContext(r.Context(), logger)))
	})
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
