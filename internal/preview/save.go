package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

var ErrUnsupportedImage = errors.New("unsupported image extension")

// Save encodes img by the extension of path: .webp (lossless) or .png.
// Parent directories are created as needed.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".webp" && ext != ".png" {
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if ext == ".webp" {
		err = nativewebp.Encode(f, img, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// OutputPath picks where a preview of src is written. If out has an image
// extension it is used as-is, otherwise it names a directory and the file is
// src's base name with the given format extension.
func OutputPath(src, out, format string) string {
	switch strings.ToLower(filepath.Ext(out)) {
	case ".webp", ".png":
		return out
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(out, base+"."+strings.TrimPrefix(format, "."))
}
