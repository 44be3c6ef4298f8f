package provision

import (
	"github.com/odralabshq/polis/internal/config"
)

// composeBase returns `docker compose` with the project, base file and any
// overlay files.
func composeBase(c config.ComposeConfig, overlays ...string) []string {
	args := []string{"docker", "compose", "-p", c.Project, "-f", c.File}
	for _, o := range overlays {
		args = append(args, "-f", o)
	}
	return args
}

func composePull(c config.ComposeConfig, overlays ...string) []string {
	return append(composeBase(c, overlays...), "pull", "--quiet")
}

// composeUp recreates only services whose definition changed and removes
// services no longer in the file set, such as a detached agent.
func composeUp(c config.ComposeConfig, overlays ...string) []string {
	return append(composeBase(c, overlays...), "up", "-d", "--remove-orphans")
}
