package imagegate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Result is a generated image returned by a provider.
type Result struct {
	// URL is either a remote URL or a self-contained data URI.
	URL string
	// Provider is the provider that produced the image.
	Provider ProviderName
	// Model is the provider model identifier, if known.
	Model string
	// Metadata carries provider specific details such as the effective size or seed.
	Metadata map[string]string
}

// SourceImage is an input image for edit and variation flows.
type SourceImage struct {
	Data     []byte
	MIMEType string
}

// ImageSize represents image dimensions as "WIDTHxHEIGHT".
type ImageSize string

const (
	ImageSize512x512   ImageSize = "512x512"
	ImageSize1024x1024 ImageSize = "1024x1024"
	ImageSize1024x1792 ImageSize = "1024x1792" // Portrait
	ImageSize1792x1024 ImageSize = "1792x1024" // Landscape
)

// DefaultImageSize is used when no size is requested.
const DefaultImageSize = ImageSize1024x1024

// Dimensions parses the size into width and height.
// It returns false when the size is empty or malformed.
func (s ImageSize) Dimensions() (width, height int, ok bool) {
	if _, err := fmt.Sscanf(string(s), "%dx%d", &width, &height); err != nil {
		return 0, 0, false
	}
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// ImageQuality is the requested quality tier.
type ImageQuality string

const (
	ImageQualityStandard ImageQuality = "standard"
	ImageQualityHD       ImageQuality = "hd"
	ImageQuality4K       ImageQuality = "4k"
)

// IsHigh reports whether the tier asks for more than standard quality.
func (q ImageQuality) IsHigh() bool {
	return q == ImageQualityHD || q == ImageQuality4K
}

// ImageStyle is a free-form style tag. Providers that do not understand a style ignore it.
type ImageStyle string

const (
	ImageStyleVivid   ImageStyle = "vivid"
	ImageStyleNatural ImageStyle = "natural"
)

// DataURI encodes raw image bytes as a data URI.
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a base64 data URI such as "data:image/png;base64,...".
// Failures are returned as *ImageError.
func ParseDataURI(uri string) (*SourceImage, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, &ImageError{Op: "decode", URL: "base64", Err: errors.New("not a data URI")}
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, &ImageError{Op: "decode", URL: "base64", Err: errors.New("missing data separator")}
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, &ImageError{Op: "decode", URL: "base64", Err: errors.New("data URI is not base64 encoded")}
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, &ImageError{Op: "decode", URL: "base64", Err: fmt.Errorf("unsupported media type %q", mimeType)}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &ImageError{Op: "decode", URL: "base64", Err: err}
	}
	if len(data) == 0 {
		return nil, &ImageError{Op: "decode", URL: "base64", Err: errors.New("empty image")}
	}
	return &SourceImage{Data: data, MIMEType: mimeType}, nil
}
