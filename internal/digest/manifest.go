package digest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/tidwall/jsonc"

	perrors "github.com/odralabshq/polis/internal/errors"
)

//go:embed images.json
var embeddedManifest []byte

// Manifest maps an image reference to its expected "sha256:<hex>" digest.
// An empty Manifest means verification is intentionally skipped.
type Manifest map[string]string

// Embedded returns the manifest compiled into this binary.
func Embedded() (Manifest, error) {
	return Parse(embeddedManifest)
}

// Parse decodes a manifest. Comments and trailing commas are allowed.
// Every key must be a valid image reference and every value a valid digest.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, perrors.Integrity("malformed digest manifest", err, "reinstall polis")
	}
	if m == nil {
		m = Manifest{}
	}
	for image, digest := range m {
		if _, err := name.ParseReference(image, name.StrictValidation); err != nil {
			return nil, perrors.Integrity(fmt.Sprintf("digest manifest: invalid image reference %q", image), err, "reinstall polis")
		}
		if _, err := v1.NewHash(digest); err != nil {
			return nil, perrors.Integrity(fmt.Sprintf("digest manifest: invalid digest for %s", image), err, "reinstall polis")
		}
	}
	return m, nil
}

// Images returns the manifest keys in a stable order.
func (m Manifest) Images() []string {
	images := make([]string, 0, len(m))
	for image := range m {
		images = append(images, image)
	}
	sort.Strings(images)
	return images
}
