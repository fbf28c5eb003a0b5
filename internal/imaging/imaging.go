// Package imaging probes image dimensions and writes resized derivatives.
package imaging

import (
	stderrors "errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
)

// ErrUnsupportedFormat is returned when a derivative would have to be
// encoded in a format without an encoder.
var ErrUnsupportedFormat = stderrors.New("unsupported derivative format")

// Resizable reports whether derivatives of name can be written. WebP
// decodes but has no encoder, so WebP images are only ever copied.
func Resizable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

// Probe returns the pixel dimensions of the image at path without decoding
// the full image.
func Probe(path string) (width, height int, err error) {
	// #nosec G304 -- path is an image referenced by site content
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.WrapError(err, errors.CategoryImage, "probe image").
			WithContext("path", path).Build()
	}
	return cfg.Width, cfg.Height, nil
}

// Resize writes a derivative of src to dest scaled to width, keeping the
// aspect ratio. Images narrower than width are never upscaled. The encoder
// follows the extension of dest; quality applies to JPEG output.
func Resize(src, dest string, width, quality int) error {
	if !Resizable(dest) {
		return errors.ImageError("no encoder for derivative").
			WithCause(fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(dest))).
			WithContext("path", dest).Build()
	}
	// #nosec G304 -- src is an image referenced by site content
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	img, _, err := image.Decode(in)
	if err != nil {
		return errors.WrapError(err, errors.CategoryImage, "decode image").
			WithContext("path", src).Build()
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if width > 0 && w > width {
		newH := h * width / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("create derivative dir: %w", err)
	}
	// #nosec G304 -- dest is inside the output directory
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := encode(out, dest, img, quality); err != nil {
		_ = out.Close()
		return errors.WrapError(err, errors.CategoryImage, "encode derivative").
			WithContext("path", dest).Build()
	}
	return out.Close()
}

func encode(w io.Writer, dest string, img image.Image, quality int) error {
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".jpg", ".jpeg":
		if quality < 1 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
	case ".png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	case ".gif":
		if err := gif.Encode(w, img, nil); err != nil {
			return fmt.Errorf("encode gif: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(dest))
	}
	return nil
}

// ResponsiveWidths returns the srcset widths for an image of the given real
// width. Breakpoints are visited in ascending order; once one exceeds the
// real width a final entry at the real width is emitted and iteration stops.
func ResponsiveWidths(realWidth int, breakpoints []int) []int {
	out := make([]int, 0, len(breakpoints))
	for _, bp := range breakpoints {
		if realWidth < bp {
			if len(out) == 0 || out[len(out)-1] != realWidth {
				out = append(out, realWidth)
			}
			break
		}
		out = append(out, bp)
	}
	return out
}

// DerivativeName inserts "-<width>px" before the extension of name, so
// "img/photo.jpg" becomes "img/photo-500px.jpg". Directory parts are kept.
func DerivativeName(name string, width int) string {
	suffix := "-" + strconv.Itoa(width) + "px"
	slash := strings.LastIndex(name, "/")
	dot := strings.LastIndex(name, ".")
	if dot <= slash+1 {
		return name + suffix
	}
	return name[:dot] + suffix + name[dot:]
}
