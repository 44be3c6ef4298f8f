package agent

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"gopkg.in/yaml.v3"

	perrors "github.com/odralabshq/polis/internal/errors"
)

const (
	// OverlayFile is the generated compose overlay's file name.
	OverlayFile = "compose.agent.yaml"

	generatedDir = ".generated"

	remoteCredentials = "credentials"
	secretMount       = "/run/secrets/agent-credentials"
)

// Artifacts are the generated files for one agent and where they go in the VM.
type Artifacts struct {
	Name    string
	Service string

	// Overlay is the host path of the generated compose overlay.
	Overlay string
	// Credentials is the host path of the optional credentials file.
	Credentials string

	RemoteDir         string
	RemoteOverlay     string
	RemoteCredentials string
}

type overlayFile struct {
	Services map[string]overlayService `yaml:"services"`
}

type overlayService struct {
	Image       string                       `yaml:"image"`
	Command     []string                     `yaml:"command,omitempty"`
	Environment map[string]string            `yaml:"environment,omitempty"`
	Volumes     []string                     `yaml:"volumes,omitempty"`
	Labels      map[string]string            `yaml:"labels"`
	DependsOn   map[string]map[string]string `yaml:"depends_on"`
	Restart     string                       `yaml:"restart"`
}

// ServiceName is the compose service an agent runs as.
func ServiceName(agentName string) string {
	return "agent-" + agentName
}

// Generate validates the agent's manifest and writes its compose overlay to
// agents/<name>/.generated/. The overlay starts once workspaceService is healthy.
// remoteAgentsDir is where agent directories live inside the VM.
func Generate(agentsDir, agentName, workspaceService, remoteAgentsDir string) (*Artifacts, error) {
	m, err := LoadManifest(agentsDir, agentName)
	if err != nil {
		return nil, err
	}
	dir, err := Dir(agentsDir, agentName)
	if err != nil {
		return nil, err
	}

	a := &Artifacts{
		Name:      m.Name,
		Service:   ServiceName(m.Name),
		RemoteDir: path.Join(remoteAgentsDir, m.Name),
	}
	a.RemoteOverlay = path.Join(a.RemoteDir, OverlayFile)

	volumes := append([]string(nil), m.Volumes...)
	if m.CredentialsFile != "" {
		creds, err := securejoin.SecureJoin(dir, m.CredentialsFile)
		if err != nil {
			return nil, perrors.ConfigError(fmt.Sprintf("invalid credentials_file for agent %s", m.Name), err)
		}
		a.Credentials = creds
		a.RemoteCredentials = path.Join(a.RemoteDir, remoteCredentials)
		volumes = append(volumes, a.RemoteCredentials+":"+secretMount+":ro")
	}

	overlay := overlayFile{
		Services: map[string]overlayService{
			a.Service: {
				Image:       m.Image,
				Command:     m.Command,
				Environment: m.Environment,
				Volumes:     volumes,
				Labels:      map[string]string{"polis.agent": m.Name},
				DependsOn: map[string]map[string]string{
					workspaceService: {"condition": "service_healthy"},
				},
				Restart: "unless-stopped",
			},
		},
	}
	data, err := yaml.Marshal(&overlay)
	if err != nil {
		return nil, fmt.Errorf("marshal overlay for %s: %w", m.Name, err)
	}

	outDir := filepath.Join(dir, generatedDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}
	a.Overlay = filepath.Join(outDir, OverlayFile)
	if err := os.WriteFile(a.Overlay, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", a.Overlay, err)
	}
	return a, nil
}
