package google

import (
	"errors"

	"github.com/spetersoncode/imagegate"
	"google.golang.org/genai"
)

// wrapError categorizes a Google GenAI error by status code.
// Note: genai.APIError doesn't expose headers, so Retry-After is not available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Not an API error: network failure or context end
		return err
	}

	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Status
	}
	return imagegate.NewStatusError(msg, apiErr.Code, err)
}
