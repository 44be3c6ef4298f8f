// Package bundle locates and fingerprints the configuration bundle that is
// transferred into the workspace VM.
package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	securejoin "github.com/cyphar/filepath-securejoin"

	perrors "github.com/odralabshq/polis/internal/errors"
)

// Files every bundle must contain, relative to its root.
const (
	ComposeFile   = "docker-compose.yml"
	SecretsScript = "scripts/generate-secrets.sh"
)

// Bundle is a validated configuration bundle directory.
type Bundle struct {
	Dir string
	// Hash is the hex sha256 over the bundle's paths and contents.
	Hash string
}

// Load validates dir and computes its hash.
func Load(dir string) (*Bundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, perrors.ConfigError(fmt.Sprintf("configuration bundle not found at %s", dir), err)
	}
	if !info.IsDir() {
		return nil, perrors.ConfigError(fmt.Sprintf("configuration bundle %s is not a directory", dir), nil)
	}

	for _, rel := range []string{ComposeFile, SecretsScript} {
		p, err := Path(dir, rel)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(p); err != nil {
			return nil, perrors.ConfigError(fmt.Sprintf("configuration bundle is missing %s", rel), err)
		}
	}

	hash, err := Hash(dir)
	if err != nil {
		return nil, err
	}
	return &Bundle{Dir: dir, Hash: hash}, nil
}

// Path resolves rel inside dir without following symlinks out of it.
func Path(dir, rel string) (string, error) {
	p, err := securejoin.SecureJoin(dir, rel)
	if err != nil {
		return "", perrors.ConfigError(fmt.Sprintf("invalid bundle path %q", rel), err)
	}
	return p, nil
}

// Hash fingerprints every regular file under dir. Paths are hashed in
// sorted slash-separated form so the result is stable across hosts.
func Hash(dir string) (string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk bundle %s: %w", dir, err)
	}
	sort.Strings(files)

	h := sha256.New()
	for _, rel := range files {
		fmt.Fprintf(h, "%s\x00", rel)
		if err := hashFile(h, filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			return "", err
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// FileSHA256 returns the hex sha256 of one file.
func FileSHA256(path string) (string, error) {
	h := sha256.New()
	if err := hashFile(h, path); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
