// Package vault guards the artifact directory. Every filename that reaches
// the filesystem goes through Resolve, which allow-lists characters and pins
// the resolved path inside the vault root.
package vault

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/clipd/errors"
)

// namePattern allow-lists artifact names: letters, digits, underscore,
// space, dash, dot and hash. Path separators never match.
var namePattern = regexp.MustCompile(`^[\p{L}\p{N}_ \-.#]+$`)

// Vault is the artifact directory with safe name resolution
type Vault struct {
	root string
	log  *zap.SugaredLogger
}

// New creates the vault directory if needed and pins its absolute root
func New(dir string, log *zap.SugaredLogger) (*Vault, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve vault directory %s", dir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create vault directory %s", abs)
	}

	return &Vault{root: abs, log: log}, nil
}

// Root returns the absolute vault directory
func (v *Vault) Root() string {
	return v.root
}

// Resolve maps an artifact name to an absolute path inside the vault.
// Returns ErrPathTraversal for anything that fails the allow-list or would
// escape the root, no matter how it was encoded.
func (v *Vault) Resolve(name string) (string, error) {
	if name == "" || !namePattern.MatchString(name) {
		return "", errors.Wrapf(errors.ErrPathTraversal, "invalid artifact name %q", name)
	}
	if strings.Contains(name, "..") {
		return "", errors.Wrapf(errors.ErrPathTraversal, "invalid artifact name %q", name)
	}

	path := filepath.Join(v.root, name)

	// Belt and suspenders: the joined path must stay a descendant of the
	// root even if the checks above ever drift.
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve artifact path %q", name)
	}
	if abs != v.root && !strings.HasPrefix(abs, v.root+string(filepath.Separator)) {
		return "", errors.Wrapf(errors.ErrPathTraversal, "artifact name %q escapes vault", name)
	}

	return abs, nil
}

// Open opens an artifact for reading. ErrNotFound when it does not exist,
// ErrEmptyArtifact when it is zero bytes.
func (v *Vault) Open(name string) (*os.File, os.FileInfo, error) {
	path, err := v.Resolve(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "artifact %s", name)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open artifact %s", name)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "failed to stat artifact %s", name)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "artifact %s", name)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, nil, errors.Wrapf(errors.ErrEmptyArtifact, "artifact %s", name)
	}

	return f, info, nil
}

// Remove deletes an artifact. Missing files are not an error; the sweeper
// treats them as already gone.
func (v *Vault) Remove(name string) error {
	path, err := v.Resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove artifact %s", name)
	}

	return nil
}
