// Package midjourney implements the job based Midjourney provider. A prompt
// submission returns a message handle that is polled until the image is ready.
package midjourney

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/model"
	"github.com/spetersoncode/imagegate/poll"
)

const (
	DefaultBaseURL = "https://api.midjourney.com"
	DefaultTimeout = 30 * time.Second
)

// DefaultModel is reported in results when a request names no model.
var DefaultModel = model.DefaultMidjourneyModel.String()

// Provider submits imagine jobs and polls them to completion.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	poll       poll.Config
	events     chan<- poll.Event
}

// Option configures the provider.
type Option func(*Provider)

// WithBaseURL replaces the API root.
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout bounds each submit and status request, not the whole job.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient = &http.Client{Timeout: d}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithPollConfig sets the job polling budget.
func WithPollConfig(cfg poll.Config) Option {
	return func(p *Provider) {
		p.poll = cfg
	}
}

// WithPollEvents forwards job poller events to ch.
func WithPollEvents(ch chan<- poll.Event) Option {
	return func(p *Provider) {
		p.events = ch
	}
}

// New creates the provider. An empty key leaves it unconfigured.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		poll:       poll.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() imagegate.ProviderName { return imagegate.ProviderMidjourney }
func (p *Provider) IsConfigured() bool           { return p.apiKey != "" }

type imagineRequest struct {
	Msg        string `json:"msg"`
	Dimensions string `json:"dimensions,omitempty"`
	Model      string `json:"model,omitempty"`
}

type imagineResponse struct {
	MessageID string          `json:"messageId"`
	TaskID    string          `json:"taskId"`
	Error     json.RawMessage `json:"error"`
}

type messageResponse struct {
	Progress  int             `json:"progress"`
	ImageURLs []string        `json:"imageUrls"`
	Error     json.RawMessage `json:"error"`
}

// GenerateImage submits the prompt and waits for the job within the poll budget.
func (p *Provider) GenerateImage(ctx context.Context, prompt string, opts ...imagegate.ImageOption) (*imagegate.Result, error) {
	options := imagegate.ApplyImageOptions(opts...)
	logger := log.FromContextOrDiscard(ctx)

	jobID, err := p.submit(ctx, prompt, options)
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderMidjourney, err)
	}
	logger.Info("midjourney job submitted", "job_id", jobID, "budget", p.poll.Budget())

	var pollOpts []poll.Option
	if p.events != nil {
		pollOpts = append(pollOpts, poll.WithEvents(p.events))
	}
	poller := poll.New(jobID, p.poll, pollOpts...)
	imageURL, err := poller.Run(ctx, func(ctx context.Context) (poll.Status, error) {
		return p.status(ctx, jobID)
	})
	if err != nil {
		return nil, imagegate.NewProviderError(imagegate.ProviderMidjourney, err)
	}

	model := DefaultModel
	if options.Model != "" {
		model = options.Model
	}
	return &imagegate.Result{
		URL:      imageURL,
		Provider: imagegate.ProviderMidjourney,
		Model:    model,
		Metadata: map[string]string{
			"job_id":   jobID,
			"attempts": fmt.Sprint(poller.Attempts()),
		},
	}, nil
}

func (p *Provider) submit(ctx context.Context, prompt string, options *imagegate.ImageOptions) (string, error) {
	body, err := json.Marshal(imagineRequest{
		Msg:        prompt,
		Dimensions: dimensions(options.SizeOrDefault()),
		Model:      options.Model,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var out imagineResponse
	if err := p.do(ctx, http.MethodPost, "/v2/imagine", bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	if msg := errorMessage(out.Error); msg != "" {
		return "", imagegate.NewUserInputError("midjourney rejected the prompt: "+msg, 0, nil)
	}

	jobID := out.MessageID
	if jobID == "" {
		jobID = out.TaskID
	}
	if jobID == "" {
		return "", fmt.Errorf("response missing messageId")
	}
	return jobID, nil
}

// status maps one message lookup onto the poller's states.
// Progress 100 with an image is done, -1 is a failed job, anything else is pending.
func (p *Provider) status(ctx context.Context, jobID string) (poll.Status, error) {
	var out messageResponse
	if err := p.do(ctx, http.MethodGet, "/v2/message/"+url.PathEscape(jobID), nil, &out); err != nil {
		return poll.Status{}, err
	}

	switch {
	case out.Progress == -1:
		return poll.Status{State: poll.StateFailed, Reason: errorMessage(out.Error)}, nil
	case out.Progress >= 100:
		var u string
		if len(out.ImageURLs) > 0 {
			u = out.ImageURLs[0]
		}
		return poll.Status{State: poll.StateCompleted, URL: u}, nil
	default:
		return poll.Status{State: poll.StatePending}, nil
	}
}

func (p *Provider) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error json.RawMessage `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &e) == nil {
			if m := errorMessage(e.Error); m != "" {
				msg = m
			}
		}
		return imagegate.NewStatusErrorWithRetry(msg, resp.StatusCode, imagegate.ParseRetryAfter(resp.Header), nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage reads an error field that is either a string or {"message": "..."}.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}

// dimensions maps a size to the API's aspect names.
func dimensions(size imagegate.ImageSize) string {
	w, h, ok := size.Dimensions()
	switch {
	case !ok || w == h:
		return "square"
	case w > h:
		return "landscape"
	default:
		return "portrait"
	}
}
