package digest

import (
	"context"
	"fmt"
	"strings"

	perrors "github.com/odralabshq/polis/internal/errors"
	"github.com/odralabshq/polis/internal/logging"
	"github.com/odralabshq/polis/internal/vm"
)

// RecoveryCommand is suggested when a pulled image does not match.
const RecoveryCommand = "polis delete && polis start"

// Outcome distinguishes a verified pull from a skipped one.
type Outcome int

const (
	Verified Outcome = iota + 1
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Warner receives non-fatal notices.
type Warner interface {
	Warn(msg string)
}

// Verifier checks pulled images inside the VM against a Manifest.
type Verifier struct {
	Exec vm.ShellExecutor
	Warn Warner
}

// Verify inspects each image's repo digests and requires the expected
// digest to appear in them. It stops at the first mismatch. An empty
// manifest runs nothing and returns Skipped after a warning.
func (v *Verifier) Verify(ctx context.Context, m Manifest) (Outcome, error) {
	if len(m) == 0 {
		msg := "image digest verification skipped: no pinned digests in this build"
		logging.Warn(msg)
		if v.Warn != nil {
			v.Warn.Warn(msg)
		}
		return Skipped, nil
	}

	for _, image := range m.Images() {
		expected := m[image]
		out, err := v.Exec.Exec(ctx, InspectCommand(image)...)
		if err := vm.RequireSuccess("inspect image "+image, out, err); err != nil {
			return 0, err
		}
		actual := strings.TrimSpace(string(out.Stdout))
		if !strings.Contains(actual, expected) {
			return 0, perrors.Integrity(
				fmt.Sprintf("image %s failed digest verification: expected %s, got %s; run `%s` to rebuild the workspace", image, expected, actual, RecoveryCommand),
				nil,
				RecoveryCommand,
			)
		}
		logging.Debug("image digest verified", "image", image, "digest", expected)
	}
	return Verified, nil
}

// InspectCommand returns the in-VM command printing image's repo digests.
func InspectCommand(image string) []string {
	return []string{"docker", "image", "inspect", "--format", "{{json .RepoDigests}}", image}
}
