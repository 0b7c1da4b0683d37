package imagegate

// ImageOptions contains configuration for an image generation request.
// The gateway treats every field as opaque pass-through data except SourceImage.
type ImageOptions struct {
	Model       string
	Size        ImageSize
	Quality     ImageQuality
	Style       ImageStyle
	SourceImage *SourceImage
	Extra       map[string]string
}

// ImageOption is a functional option for configuring image generation requests.
type ImageOption func(*ImageOptions)

// WithImageModel overrides the provider's default model.
func WithImageModel(model string) ImageOption {
	return func(o *ImageOptions) {
		o.Model = model
	}
}

// WithImageSize sets the dimensions for generated images.
// Providers snap the size to the nearest one they support.
func WithImageSize(size ImageSize) ImageOption {
	return func(o *ImageOptions) {
		o.Size = size
	}
}

// WithImageQuality sets the quality tier for generated images.
// Supported values: "standard", "hd", "4k"
func WithImageQuality(q ImageQuality) ImageOption {
	return func(o *ImageOptions) {
		o.Quality = q
	}
}

// WithImageStyle sets the visual style tag.
func WithImageStyle(s ImageStyle) ImageOption {
	return func(o *ImageOptions) {
		o.Style = s
	}
}

// WithSourceImage switches the request to edit mode.
// Only providers implementing EditCapable are considered.
func WithSourceImage(img *SourceImage) ImageOption {
	return func(o *ImageOptions) {
		o.SourceImage = img
	}
}

// WithImageExtra attaches a provider specific key/value pair.
func WithImageExtra(key, value string) ImageOption {
	return func(o *ImageOptions) {
		if o.Extra == nil {
			o.Extra = make(map[string]string)
		}
		o.Extra[key] = value
	}
}

// ApplyImageOptions applies functional options to an ImageOptions struct.
func ApplyImageOptions(opts ...ImageOption) *ImageOptions {
	o := &ImageOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// SizeOrDefault returns the requested size, or DefaultImageSize when unset.
func (o *ImageOptions) SizeOrDefault() ImageSize {
	if o.Size == "" {
		return DefaultImageSize
	}
	return o.Size
}
