// Package prediction runs the property-prediction pipeline: SMILES to
// fingerprint, feature scaling, the transformer regressor, inverse target
// scaling and confidence grading. It owns the immutable inference context
// and the engine that publishes it to request handlers.
package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/molecule"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	pt "github.com/turtacn/MolProp-Intelligence/internal/intelligence/prop_transformer"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// ArtifactSource opens named artifacts. Implementations report a missing
// artifact with errors.ErrCodeNotFound.
type ArtifactSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// ArtifactNames are the object names of one artifact set.
type ArtifactNames struct {
	Weights       string
	FeatureScaler string
	TargetScaler  string
	Targets       string
}

// DefaultArtifactNames matches the layout written by `molprop artifacts demo`.
func DefaultArtifactNames() ArtifactNames {
	return ArtifactNames{
		Weights:       "model.safetensors",
		FeatureScaler: "scaler_x.json",
		TargetScaler:  "scaler_y.json",
		Targets:       "targets.json",
	}
}

// LoadOptions parameterize LoadContext.
type LoadOptions struct {
	Names     ArtifactNames
	ModelName string
	// Heads overrides the checkpoint's "heads" metadata when positive.
	Heads             int
	FingerprintRadius int
	// FingerprintBits must equal the model input width; zero adopts it.
	FingerprintBits int
	// Logger receives load warnings. Nil discards them.
	Logger logging.Logger
}

// LoadOptionsFromConfig maps the inference section onto LoadOptions. Empty
// artifact names keep their defaults.
func LoadOptionsFromConfig(cfg config.InferenceConfig) LoadOptions {
	return LoadOptions{
		Names: ArtifactNames{
			Weights:       cfg.Artifacts.Weights,
			FeatureScaler: cfg.Artifacts.FeatureScaler,
			TargetScaler:  cfg.Artifacts.TargetScaler,
			Targets:       cfg.Artifacts.Targets,
		},
		ModelName:         cfg.ModelName,
		Heads:             cfg.Heads,
		FingerprintRadius: cfg.FingerprintRadius,
		FingerprintBits:   cfg.FingerprintBits,
	}
}

// SourceLoader binds LoadContext to src.
func SourceLoader(src ArtifactSource, opts LoadOptions) Loader {
	return func(ctx context.Context) (*InferenceContext, error) {
		return LoadContext(ctx, src, opts)
	}
}

// Checkpoint metadata keys understood by LoadContext.
const (
	MetaHeads   = "heads"
	MetaTargets = "targets"
	MetaVersion = "version"
)

// InferenceContext is everything one prediction needs. It is built once,
// validated, and never modified, so any number of requests may share it.
type InferenceContext struct {
	Model         *pt.Model
	FeatureScaler *pt.ScalerParams
	TargetScaler  *pt.ScalerParams
	Catalog       *property.Catalog
	Extractor     *molecule.Extractor
	ModelName     string
	Version       string
	LoadedAt      time.Time
}

// NewInferenceContext cross-validates the parts: fingerprint width, feature
// scaler width and model input width agree; target scaler width, property
// count and model output width agree.
func NewInferenceContext(model *pt.Model, fx, fy *pt.ScalerParams, catalog *property.Catalog, ex *molecule.Extractor, version string) (*InferenceContext, error) {
	if model == nil {
		return nil, errors.ErrModelNotLoaded
	}
	if fx == nil || fy == nil || catalog == nil || ex == nil {
		return nil, errors.New(errors.ErrCodeArtifactInvalid, "").WithDetail("inference context is incomplete")
	}
	d := model.Descriptor()
	if ex.Bits != d.InputWidth {
		return nil, errors.DimensionMismatch("fingerprint", d.InputWidth, ex.Bits)
	}
	if fx.Width() != d.InputWidth {
		return nil, errors.DimensionMismatch("feature scaler", d.InputWidth, fx.Width())
	}
	if fy.Width() != d.OutputWidth {
		return nil, errors.DimensionMismatch("target scaler", d.OutputWidth, fy.Width())
	}
	if catalog.Len() != d.OutputWidth {
		return nil, errors.DimensionMismatch("property list", d.OutputWidth, catalog.Len())
	}
	return &InferenceContext{
		Model:         model,
		FeatureScaler: fx,
		TargetScaler:  fy,
		Catalog:       catalog,
		Extractor:     ex,
		Version:       version,
		LoadedAt:      time.Now().UTC(),
	}, nil
}

// Descriptor returns the model architecture.
func (c *InferenceContext) Descriptor() pt.ArtifactDescriptor { return c.Model.Descriptor() }

// LoadContext reads weights, derives the descriptor, reads both scalers and
// the property list, then cross-validates. Any failure aborts the load; no
// partially built context is returned.
func LoadContext(ctx context.Context, src ArtifactSource, opts LoadOptions) (*InferenceContext, error) {
	names := opts.Names
	defaults := DefaultArtifactNames()
	if names.Weights == "" {
		names.Weights = defaults.Weights
	}
	if names.FeatureScaler == "" {
		names.FeatureScaler = defaults.FeatureScaler
	}
	if names.TargetScaler == "" {
		names.TargetScaler = defaults.TargetScaler
	}
	if names.Targets == "" {
		names.Targets = defaults.Targets
	}

	ckpt, digest, err := readCheckpoint(ctx, src, names.Weights)
	if err != nil {
		return nil, err
	}

	heads := opts.Heads
	if heads <= 0 {
		heads = pt.QM9Architecture.Heads
		if s, ok := ckpt.Metadata[MetaHeads]; ok {
			if heads, err = strconv.Atoi(s); err != nil {
				return nil, errors.Wrapf(err, errors.ErrCodeArtifactInvalid, "checkpoint metadata heads=%q", s)
			}
		}
	}
	model, err := pt.NewModel(ckpt.Weights, heads)
	if err != nil {
		return nil, err
	}
	desc := model.Descriptor()

	fx, err := readScaler(ctx, src, names.FeatureScaler)
	if err != nil {
		return nil, err
	}
	fy, err := readScaler(ctx, src, names.TargetScaler)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	codes, err := readTargets(ctx, src, names.Targets, ckpt.Metadata, logger)
	if err != nil {
		return nil, err
	}
	catalog, err := property.NewCatalog(codes)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactInvalid, "property list")
	}

	bits := opts.FingerprintBits
	if bits == 0 {
		bits = desc.InputWidth
	}
	radius := opts.FingerprintRadius
	if radius <= 0 {
		radius = molecule.DefaultRadius
	}
	ex := &molecule.Extractor{Radius: radius, Bits: bits}

	version := ckpt.Metadata[MetaVersion]
	if version == "" {
		version = digest
	}
	ictx, err := NewInferenceContext(model, fx, fy, catalog, ex, version)
	if err != nil {
		return nil, err
	}
	ictx.ModelName = opts.ModelName
	return ictx, nil
}

func open(ctx context.Context, src ArtifactSource, name string) (io.ReadCloser, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, errors.ErrCodeArtifactInvalid, "open artifact %s", name)
	}
	return rc, nil
}

// readCheckpoint decodes the weights and returns a content digest used as
// the fallback model version.
func readCheckpoint(ctx context.Context, src ArtifactSource, name string) (*pt.Checkpoint, string, error) {
	rc, err := open(ctx, src, name)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	h := xxhash.New()
	ckpt, err := pt.ReadCheckpoint(io.TeeReader(rc, h))
	if err != nil {
		return nil, "", err
	}
	return ckpt, fmt.Sprintf("%016x", h.Sum64()), nil
}

func readScaler(ctx context.Context, src ArtifactSource, name string) (*pt.ScalerParams, error) {
	rc, err := open(ctx, src, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	p, err := pt.ReadScaler(rc)
	if err != nil {
		var ae *errors.AppError
		if errors.As(err, &ae) && ae.Detail == "" {
			return nil, ae.WithDetail(name)
		}
		return nil, err
	}
	return p, nil
}

// readTargets resolves the property list: the targets artifact when present,
// else the checkpoint's comma-separated "targets" metadata, else the QM9
// default order. Outputs are matched to codes by position only, so the last
// fallback is logged.
func readTargets(ctx context.Context, src ArtifactSource, name string, meta map[string]string, logger logging.Logger) ([]string, error) {
	rc, err := src.Open(ctx, name)
	if err == nil {
		defer rc.Close()
		return decodeTargets(rc)
	}
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		return nil, errors.Wrapf(err, errors.ErrCodeArtifactInvalid, "open artifact %s", name)
	}
	if s := meta[MetaTargets]; s != "" {
		codes := strings.Split(s, ",")
		for i := range codes {
			codes[i] = strings.TrimSpace(codes[i])
		}
		return codes, nil
	}
	logger.Warn("no target list in artifacts or checkpoint metadata, assuming the default QM9 order",
		logging.String("artifact", name),
		logging.Strings("order", property.DefaultCodes))
	return append([]string(nil), property.DefaultCodes...), nil
}

// decodeTargets accepts a bare JSON array or {"targets": [...]}.
func decodeTargets(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactInvalid, "read targets")
	}
	var codes []string
	if err := json.Unmarshal(raw, &codes); err == nil {
		return codes, nil
	}
	var wrapped struct {
		Targets []string `json:"targets"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactInvalid, "decode targets")
	}
	return wrapped.Targets, nil
}

// WriteTargets encodes codes as a JSON array.
func WriteTargets(w io.Writer, codes []string) error {
	return json.NewEncoder(w).Encode(codes)
}

//Personal.AI order the ending
