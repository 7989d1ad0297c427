// Package artifact serves the pretrained model artifacts (weights, scalers,
// property list) from a local directory or an S3-compatible bucket, and
// watches the local directory for replacements.
package artifact

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// Source opens named artifacts. A missing artifact is reported with
// errors.ErrCodeNotFound.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// CompressedSuffix marks a zstd-compressed artifact.
const CompressedSuffix = ".zst"

// ErrNotFound is returned (with the name as detail) for missing artifacts.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "artifact not found")

func notFound(name string) error { return ErrNotFound.WithDetail(name) }

// validName rejects names that could escape the artifact root.
func validName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return errors.Newf(errors.ErrCodeValidation, "invalid artifact name %q", name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return errors.Newf(errors.ErrCodeValidation, "invalid artifact name %q", name)
		}
	}
	if path.Clean(name) != name {
		return errors.Newf(errors.ErrCodeValidation, "invalid artifact name %q", name)
	}
	return nil
}

// openWithFallback tries name, then name+".zst". Decoders detect
// compression from content, so callers never see the difference.
func openWithFallback(ctx context.Context, name string, open func(context.Context, string) (io.ReadCloser, error)) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	rc, err := open(ctx, name)
	if err == nil || !errors.IsCode(err, errors.ErrCodeNotFound) || strings.HasSuffix(name, CompressedSuffix) {
		return rc, err
	}
	rc, zerr := open(ctx, name+CompressedSuffix)
	if zerr != nil {
		if errors.IsCode(zerr, errors.ErrCodeNotFound) {
			return nil, err
		}
		return nil, zerr
	}
	return rc, nil
}

// New builds the source selected by cfg.Inference.Artifacts.Source.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (Source, error) {
	a := cfg.Inference.Artifacts
	switch a.Source {
	case "local":
		return NewLocalSource(a.Dir)
	case "minio":
		return NewMinIOSource(ctx, cfg.MinIO, a.Prefix, logger)
	default:
		return nil, fmt.Errorf("artifact: unknown source %q", a.Source)
	}
}

//Personal.AI order the ending
