package vm

import (
	"fmt"
	"strconv"
	"time"

	"github.com/docker/go-units"
)

// DefaultLaunchTimeout bounds Launch when the spec leaves it unset.
const DefaultLaunchTimeout = 600 * time.Second

// InstanceSpec holds launch parameters. It is built once per launch and never persisted.
type InstanceSpec struct {
	Image         string
	CPUs          int
	Memory        string
	Disk          string
	CloudInit     string
	LaunchTimeout time.Duration
}

// Validate checks the sizes and counts of the spec.
func (s InstanceSpec) Validate() error {
	if s.Image == "" {
		return fmt.Errorf("image is required")
	}
	if s.CPUs < 1 {
		return fmt.Errorf("cpus must be at least 1 (got %d)", s.CPUs)
	}
	if _, err := ParseSize(s.Memory); err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	if _, err := ParseSize(s.Disk); err != nil {
		return fmt.Errorf("disk: %w", err)
	}
	return nil
}

// ParseSize parses a size such as "8G" or "512M". multipass takes whole
// mebibytes, so anything smaller than 1M is rejected.
func ParseSize(v string) (int64, error) {
	n, err := units.RAMInBytes(v)
	if err != nil {
		return 0, err
	}
	if n < units.MiB {
		return 0, fmt.Errorf("size %q is below 1M", v)
	}
	return n, nil
}

// Timeout returns the launch budget, falling back to DefaultLaunchTimeout.
func (s InstanceSpec) Timeout() time.Duration {
	if s.LaunchTimeout > 0 {
		return s.LaunchTimeout
	}
	return DefaultLaunchTimeout
}

// Args renders the multipass launch arguments for instance.
// Sizes are normalized to whole mebibytes.
func (s InstanceSpec) Args(instance string) ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	mem, _ := units.RAMInBytes(s.Memory)
	disk, _ := units.RAMInBytes(s.Disk)

	args := []string{
		"launch", s.Image,
		"--name", instance,
		"--cpus", strconv.Itoa(s.CPUs),
		"--memory", mebibytes(mem),
		"--disk", mebibytes(disk),
		"--timeout", strconv.Itoa(int(s.Timeout() / time.Second)),
	}
	if s.CloudInit != "" {
		args = append(args, "--cloud-init", s.CloudInit)
	}
	return args, nil
}

// String summarizes the spec for progress output.
func (s InstanceSpec) String() string {
	mem, _ := units.RAMInBytes(s.Memory)
	disk, _ := units.RAMInBytes(s.Disk)
	return fmt.Sprintf("%s, %d vCPU, %s memory, %s disk", s.Image, s.CPUs, units.BytesSize(float64(mem)), units.BytesSize(float64(disk)))
}

func mebibytes(n int64) string {
	return strconv.FormatInt(n/units.MiB, 10) + "M"
}
