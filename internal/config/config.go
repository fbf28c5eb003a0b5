// Package config loads the site options file and resolves the typed settings
// the build needs from it.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/chroma/v2/styles"

	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekicker/internal/options"
)

// FileName is the required site options file at the working root.
const FileName = "sitekicker.yml"

// ErrConfigNotFound is wrapped by the fatal error Load returns when the site
// options file is absent.
var ErrConfigNotFound = stderrors.New("site options file not found")

// Site holds the resolved site settings.
//
// Options carries the full ordered mapping (defaults with the site file merged
// on top); the typed fields are read from it once at load time.
type Site struct {
	Root    string
	Options *options.Map

	Name                    string
	BaseURL                 string
	TemplateDir             string
	OutputDir               string
	AssetDirs               []string
	IgnoreDirs              []string
	ResponsiveImages        bool
	ResponsiveImageSizes    []int
	ImagePlaceholderSize    int
	ImagePlaceholderQuality int
	MaximumImageWidth       int
	CompressImage           bool
	CompressImageQuality    int
	// HighlightStyle is a chroma style name for fenced code. Empty emits
	// CSS classes for the site stylesheet instead.
	HighlightStyle string
}

// Overrides are command-line values that take precedence over the site file.
type Overrides struct {
	OutputDir string
}

// Load reads <root>/sitekicker.yml, expanding ${VAR} references from the
// environment after loading <root>/.env.
func Load(root string, ov Overrides) (*Site, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve working directory").
			Fatal().WithContext("path", root).Build()
	}

	if err := loadEnvFile(absRoot); err != nil {
		return nil, err
	}

	path := filepath.Join(absRoot, FileName)
	// #nosec G304 -- path is the site file under the working root
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapError(ErrConfigNotFound, errors.CategoryConfig, "site options file not found").
				Fatal().WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read site options file").
			Fatal().WithContext("path", path).Build()
	}

	fileOpts, err := options.Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse site options file").
			Fatal().WithContext("path", path).Build()
	}

	merged := options.MergeAll(Defaults(), fileOpts)
	if ov.OutputDir != "" {
		merged.Set(KeyOutputDir, ov.OutputDir)
	}
	return FromOptions(absRoot, merged)
}

// FromOptions builds a Site from an already merged options map.
func FromOptions(root string, opts *options.Map) (*Site, error) {
	s := &Site{
		Root:                    root,
		Options:                 opts,
		Name:                    opts.String(KeyName),
		BaseURL:                 opts.String(KeyBaseURL),
		TemplateDir:             opts.String(KeyTemplateDir),
		OutputDir:               opts.String(KeyOutputDir),
		AssetDirs:               opts.Strings(KeyAssetDirs),
		IgnoreDirs:              opts.Strings(KeyIgnoreDirs),
		ResponsiveImages:        opts.Bool(KeyResponsiveImages, false),
		ResponsiveImageSizes:    opts.Ints(KeyResponsiveImageSizes),
		ImagePlaceholderSize:    opts.Int(KeyImagePlaceholderSize, defaultPlaceholderSize),
		ImagePlaceholderQuality: opts.Int(KeyImagePlaceholderQuality, defaultPlaceholderQuality),
		MaximumImageWidth:       opts.Int(KeyMaximumImageWidth, defaultMaximumImageWidth),
		CompressImage:           opts.Bool(KeyCompressImage, true),
		CompressImageQuality:    opts.Int(KeyCompressImageQuality, defaultCompressQuality),
		HighlightStyle:          opts.String(KeyHighlightStyle),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OutputPath returns the absolute output directory. A relative output_dir is
// resolved against the working root.
func (s *Site) OutputPath() string {
	if filepath.IsAbs(s.OutputDir) {
		return filepath.Clean(s.OutputDir)
	}
	return filepath.Join(s.Root, s.OutputDir)
}

// TemplatePath returns the absolute template directory.
func (s *Site) TemplatePath() string {
	return filepath.Join(s.Root, s.TemplateDir)
}

// DerivativeQuality is the quality used for non-placeholder image derivatives.
func (s *Site) DerivativeQuality() int {
	if s.CompressImage {
		return s.CompressImageQuality
	}
	return 100
}

func (s *Site) validate() error {
	invalid := func(key string, value any, reason string) error {
		return errors.ConfigError(fmt.Sprintf("invalid %s: %s", key, reason)).
			WithContext("value", value).Build()
	}
	if s.TemplateDir == "" {
		return invalid(KeyTemplateDir, s.TemplateDir, "must not be empty")
	}
	if s.OutputDir == "" {
		return invalid(KeyOutputDir, s.OutputDir, "must not be empty")
	}
	for i, w := range s.ResponsiveImageSizes {
		if w <= 0 {
			return invalid(KeyResponsiveImageSizes, s.ResponsiveImageSizes, "widths must be positive")
		}
		if i > 0 && w <= s.ResponsiveImageSizes[i-1] {
			return invalid(KeyResponsiveImageSizes, s.ResponsiveImageSizes, "widths must be ascending")
		}
	}
	if s.ResponsiveImages && len(s.ResponsiveImageSizes) == 0 {
		return invalid(KeyResponsiveImageSizes, s.ResponsiveImageSizes, "required when responsive_images is enabled")
	}
	for key, q := range map[string]int{
		KeyCompressImageQuality:    s.CompressImageQuality,
		KeyImagePlaceholderQuality: s.ImagePlaceholderQuality,
	} {
		if q < 1 || q > 100 {
			return invalid(key, q, "must be between 1 and 100")
		}
	}
	if s.MaximumImageWidth <= 0 {
		return invalid(KeyMaximumImageWidth, s.MaximumImageWidth, "must be positive")
	}
	if s.ImagePlaceholderSize <= 0 {
		return invalid(KeyImagePlaceholderSize, s.ImagePlaceholderSize, "must be positive")
	}
	if _, ok := styles.Registry[s.HighlightStyle]; s.HighlightStyle != "" && !ok {
		return invalid(KeyHighlightStyle, s.HighlightStyle, "unknown style")
	}
	return nil
}
