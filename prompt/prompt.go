// Package prompt rewrites user prompts with quality and style modifiers
// before they reach a provider.
package prompt

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/model"
)

// Type is the kind of image being requested.
type Type string

const (
	TypeGeneral Type = "general"
	TypeAvatar  Type = "avatar"
)

// Options selects the modifiers appended to a prompt. Empty fields fall back
// to no style, standard quality and a general image.
type Options struct {
	Style   string
	Quality imagegate.ImageQuality
	Type    Type

	// Size is passed through to the provider by Prepare.
	Size imagegate.ImageSize
}

var qualitySuffixes = map[imagegate.ImageQuality]string{
	imagegate.ImageQualityHD: ", highly detailed, sharp focus, high resolution",
	imagegate.ImageQuality4K: ", ultra high definition, extremely detailed, 4K resolution, maximum quality, sharp focus",
}

var generalStyles = map[string]string{
	"anime":        ", high quality anime artwork, detailed anime art style, vibrant colors, manga-inspired, professional anime illustration",
	"photographic": ", professional photography, perfect lighting, high-end camera, photorealistic quality, masterful composition, 8k resolution",
	"digital-art":  ", professional digital artwork, detailed digital painting, concept art quality, trending on artstation, vibrant colors, masterful digital illustration",
	"oil-painting": ", masterful oil painting, rich textures, traditional oil painting techniques, detailed brushwork, gallery quality artwork, fine art",
	"watercolor":   ", beautiful watercolor painting, delicate brushstrokes, artistic watercolor effects, traditional watercolor techniques, professional watercolor illustration",
}

var avatarStyles = map[string]string{
	"realistic": ", professional headshot portrait, photorealistic, 8k, detailed facial features, professional lighting, high-end camera, clean background",
	"anime":     ", high quality anime portrait, detailed anime character design, studio ghibli inspired, professional anime illustration, clean background",
	"3d":        ", 3D rendered portrait, pixar style, high quality 3D character, detailed textures, professional 3D modeling, clean background",
	"pixel":     ", high quality pixel art portrait, 32-bit style, detailed pixel art character, professional pixel art, clean background",
}

const highQualityGeneral = ", masterpiece, best quality, highly detailed"

// Enhance appends the modifiers selected by opts to raw. It is a pure
// function; a blank prompt is returned unchanged so validation still rejects it.
func Enhance(raw string, opts Options) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}

	t := opts.Type
	if t == "" {
		t = TypeGeneral
	}
	style := strings.ToLower(strings.TrimSpace(opts.Style))

	var b strings.Builder
	b.WriteString(raw)
	b.WriteString(qualitySuffixes[opts.Quality])

	switch t {
	case TypeGeneral:
		b.WriteString(generalStyles[style])
		if opts.Quality.IsHigh() {
			b.WriteString(highQualityGeneral)
		}
	case TypeAvatar:
		b.WriteString(avatarStyles[style])
	}
	return b.String()
}

// Styles returns the style names understood for t, sorted.
func Styles(t Type) []string {
	var table map[string]string
	switch t {
	case TypeAvatar:
		table = avatarStyles
	default:
		table = generalStyles
	}
	names := lo.Keys(table)
	slices.Sort(names)
	return names
}

// ProviderDefaults returns provider specific options for an image type.
// Avatars favor high detail models; general images need nothing extra.
func ProviderDefaults(t Type, provider imagegate.ProviderName) []imagegate.ImageOption {
	if t != TypeAvatar {
		return nil
	}
	switch provider {
	case imagegate.ProviderOpenAI:
		return []imagegate.ImageOption{
			imagegate.WithImageModel(model.DallE3.String()),
			imagegate.WithImageQuality(imagegate.ImageQualityHD),
			imagegate.WithImageStyle(imagegate.ImageStyleVivid),
		}
	case imagegate.ProviderHuggingFace:
		return []imagegate.ImageOption{
			imagegate.WithImageModel(model.StableDiffusionXL.String()),
			imagegate.WithImageExtra("guidance_scale", "8.5"),
			imagegate.WithImageExtra("num_inference_steps", "50"),
		}
	default:
		return nil
	}
}

// Prepare enhances raw and collects the image options implied by opts for
// provider. Request fields override the provider defaults. The styles
// "vivid" and "natural" are provider render styles rather than prompt modifiers.
func Prepare(raw string, provider imagegate.ProviderName, opts Options) (string, []imagegate.ImageOption) {
	imgOpts := ProviderDefaults(opts.Type, provider)
	if opts.Quality != "" {
		imgOpts = append(imgOpts, imagegate.WithImageQuality(opts.Quality))
	}
	if opts.Size != "" {
		imgOpts = append(imgOpts, imagegate.WithImageSize(opts.Size))
	}
	switch s := imagegate.ImageStyle(strings.ToLower(strings.TrimSpace(opts.Style))); s {
	case imagegate.ImageStyleVivid, imagegate.ImageStyleNatural:
		imgOpts = append(imgOpts, imagegate.WithImageStyle(s))
		opts.Style = ""
	}
	return Enhance(raw, opts), imgOpts
}
