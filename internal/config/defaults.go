package config

import "git.home.luguber.info/inful/sitekicker/internal/options"

// Recognised site option keys.
const (
	KeyName                    = "name"
	KeyBaseURL                 = "base_url"
	KeyTemplateDir             = "template_dir"
	KeyOutputDir               = "output_dir"
	KeyAssetDirs               = "asset_dirs"
	KeyIgnoreDirs              = "ignore_dirs"
	KeyResponsiveImages        = "responsive_images"
	KeyResponsiveImageSizes    = "responsive_image_sizes"
	KeyImagePlaceholderSize    = "image_placeholder_size"
	KeyImagePlaceholderQuality = "image_placeholder_quality"
	KeyMaximumImageWidth       = "maximum_image_width"
	KeyCompressImage           = "compress_image"
	KeyCompressImageQuality    = "compress_image_quality"
	KeyHighlightStyle          = "highlight_style"
)

const (
	defaultPlaceholderSize    = 48
	defaultPlaceholderQuality = 15
	defaultMaximumImageWidth  = 1500
	defaultCompressQuality    = 80
)

// Defaults returns a fresh map holding the built-in site options.
func Defaults() *options.Map {
	return options.FromPairs(
		KeyName, "An Awesome Website",
		KeyBaseURL, "",
		KeyTemplateDir, "templates",
		KeyOutputDir, ".dist",
		KeyAssetDirs, []any{"assets"},
		KeyIgnoreDirs, []any{},
		KeyResponsiveImages, false,
		KeyResponsiveImageSizes, []any{500, 1000, 1500},
		KeyImagePlaceholderSize, defaultPlaceholderSize,
		KeyImagePlaceholderQuality, defaultPlaceholderQuality,
		KeyMaximumImageWidth, defaultMaximumImageWidth,
		KeyCompressImage, true,
		KeyCompressImageQuality, defaultCompressQuality,
		KeyHighlightStyle, "",
	)
}
