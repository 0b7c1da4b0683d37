package openai

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/imagegate"
)

// wrapError categorizes an OpenAI SDK error by status code.
// It keeps the Retry-After hint so callers can surface it.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		// Not an API error: network failure or context end
		return err
	}

	code := apiErr.StatusCode
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(code)
	}
	if apiErr.Code == "insufficient_quota" || strings.Contains(err.Error(), "insufficient_quota") {
		msg = "insufficient quota, check the billing settings of the OpenAI account"
	}

	var retryAfter time.Duration
	if apiErr.Response != nil {
		retryAfter = imagegate.ParseRetryAfter(apiErr.Response.Header)
	}
	return imagegate.NewStatusErrorWithRetry(msg, code, retryAfter, err)
}
