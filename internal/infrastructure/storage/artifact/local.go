package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// LocalSource reads artifacts from a directory.
type LocalSource struct {
	dir string
}

// NewLocalSource checks that dir exists and is a directory.
func NewLocalSource(dir string) (*LocalSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound.WithDetail(dir)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "stat artifact dir")
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrCodeValidation, "artifact dir %s is not a directory", dir)
	}
	return &LocalSource{dir: dir}, nil
}

// Dir is the artifact root.
func (s *LocalSource) Dir() string { return s.dir }

// Open implements Source.
func (s *LocalSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return openWithFallback(ctx, name, s.open)
}

func (s *LocalSource) open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "open artifact %s", name)
	}
	return f, nil
}

//Personal.AI order the ending
