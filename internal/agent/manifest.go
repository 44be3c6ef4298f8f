// Package agent turns declarative agent manifests into compose overlays
// that attach an agent's service to the workspace stack.
package agent

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/go-containerregistry/pkg/name"
	"gopkg.in/yaml.v3"

	perrors "github.com/odralabshq/polis/internal/errors"
)

// ManifestFile is the manifest's name inside agents/<name>/.
const ManifestFile = "agent.yaml"

// agentNameRegex keeps names usable as compose service suffixes and paths.
var agentNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// ValidateName checks if an agent name is valid.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("agent name cannot be empty")
	}
	if !agentNameRegex.MatchString(name) {
		return fmt.Errorf("invalid agent name %q: must start with a lowercase letter or digit, contain only lowercase letters, digits, underscores, or hyphens, and be at most 63 characters", name)
	}
	return nil
}

// Manifest describes an agent workload.
type Manifest struct {
	Name            string            `yaml:"name"`
	Image           string            `yaml:"image"`
	Command         []string          `yaml:"command,omitempty"`
	Environment     map[string]string `yaml:"environment,omitempty"`
	Volumes         []string          `yaml:"volumes,omitempty"`
	CredentialsFile string            `yaml:"credentials_file,omitempty"`
}

// Validate checks that the Manifest is valid.
func (m *Manifest) Validate() error {
	if err := ValidateName(m.Name); err != nil {
		return err
	}
	if m.Image == "" {
		return fmt.Errorf("image is required")
	}
	if _, err := name.ParseReference(m.Image); err != nil {
		return fmt.Errorf("invalid image %q: %w", m.Image, err)
	}
	for k := range m.Environment {
		if k == "" {
			return fmt.Errorf("environment variable names cannot be empty")
		}
	}
	return nil
}

// Dir resolves agents/<name> inside agentsDir.
func Dir(agentsDir, agentName string) (string, error) {
	if err := ValidateName(agentName); err != nil {
		return "", perrors.ConfigError("invalid agent", err)
	}
	dir, err := securejoin.SecureJoin(agentsDir, agentName)
	if err != nil {
		return "", perrors.ConfigError(fmt.Sprintf("invalid agent %q", agentName), err)
	}
	return dir, nil
}

// LoadManifest reads and validates agents/<name>/agent.yaml. Unknown keys
// are rejected. A manifest without a name takes the directory's name.
func LoadManifest(agentsDir, agentName string) (*Manifest, error) {
	dir, err := Dir(agentsDir, agentName)
	if err != nil {
		return nil, err
	}
	path, err := securejoin.SecureJoin(dir, ManifestFile)
	if err != nil {
		return nil, perrors.ConfigError(fmt.Sprintf("invalid manifest path for %s", agentName), err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, perrors.ConfigError(fmt.Sprintf("unknown agent %q: %s not found", agentName, path), nil).
			WithHint("create " + path)
	}
	if err != nil {
		return nil, perrors.ConfigError(fmt.Sprintf("failed to read agent %s", agentName), err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, perrors.ConfigError(fmt.Sprintf("failed to parse agent %s", agentName), err)
	}

	if m.Name == "" {
		m.Name = agentName
	}
	if m.Name != agentName {
		return nil, perrors.ConfigError(fmt.Sprintf("agent manifest in %s declares name %q", dir, m.Name), nil)
	}
	if err := m.Validate(); err != nil {
		return nil, perrors.ConfigError(fmt.Sprintf("invalid agent %s", agentName), err)
	}
	return &m, nil
}
