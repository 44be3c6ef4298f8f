package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	perrors "github.com/odralabshq/polis/internal/errors"
)

// Image is the resolved VM image source.
type Image struct {
	// Launch is the argument passed to multipass launch.
	Launch string
	// Source and SHA256 are recorded only for local image files.
	Source string
	SHA256 string
}

// ResolveImage interprets source as a local image file when it has a
// file:// scheme or names an existing path, and as a multipass image alias
// or URL otherwise.
func ResolveImage(source string) (Image, error) {
	path, isFile := strings.CutPrefix(source, "file://")
	if !isFile {
		if _, err := os.Stat(source); err != nil {
			return Image{Launch: source}, nil
		}
		path = source
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Image{}, perrors.ConfigError(fmt.Sprintf("invalid image path %q", path), err)
	}
	sum, err := FileSHA256(abs)
	if err != nil {
		return Image{}, perrors.ConfigError(fmt.Sprintf("cannot read VM image %s", abs), err)
	}
	return Image{
		Launch: "file://" + filepath.ToSlash(abs),
		Source: source,
		SHA256: sum,
	}, nil
}
