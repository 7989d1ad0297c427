package cli

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/storage/artifact"
	pt "github.com/turtacn/MolProp-Intelligence/internal/intelligence/prop_transformer"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// NewArtifactsCmd creates the artifacts command group.
func NewArtifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Manage model artifacts",
	}
	cmd.AddCommand(newArtifactsDemoCmd(), newArtifactsListCmd())
	return cmd
}

type demoOptions struct {
	dir        string
	seed       int64
	push       bool
	layers     int
	modelWidth int
	ffWidth    int
	headWidth  int
}

func newArtifactsDemoCmd() *cobra.Command {
	opts := &demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write a deterministic, untrained artifact set",
		Long: "Write weights, scalers and the target list for an untrained model with\n" +
			"the configured fingerprint width and head count. The output loads like a\n" +
			"trained checkpoint; its predictions are not meaningful.",
		Example: `  molprop artifacts demo --dir ./artifacts
  molprop artifacts demo --seed 7 --layers 1 --model-width 32 --push`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactsDemo(cmd, opts)
		},
	}

	qm9 := pt.QM9Architecture
	cmd.Flags().StringVar(&opts.dir, "dir", "", "output directory (default: inference.artifacts.dir)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 42, "weight initialization seed")
	cmd.Flags().BoolVar(&opts.push, "push", false, "upload to the configured MinIO bucket instead of writing files")
	cmd.Flags().IntVar(&opts.layers, "layers", qm9.LayerCount, "encoder layers")
	cmd.Flags().IntVar(&opts.modelWidth, "model-width", qm9.ModelWidth, "embedding width")
	cmd.Flags().IntVar(&opts.ffWidth, "ff-width", qm9.FeedForwardWidth, "feed-forward width")
	cmd.Flags().IntVar(&opts.headWidth, "head-width", qm9.HeadWidth, "regression head width")
	return cmd
}

func runArtifactsDemo(cmd *cobra.Command, opts *demoOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	inf := cliCtx.Config.Inference

	arch := pt.ArtifactDescriptor{
		InputWidth:       inf.FingerprintBits,
		OutputWidth:      pt.QM9Architecture.OutputWidth,
		LayerCount:       opts.layers,
		ModelWidth:       opts.modelWidth,
		FeedForwardWidth: opts.ffWidth,
		HeadWidth:        opts.headWidth,
		Heads:            inf.Heads,
	}
	if arch.InputWidth <= 0 || arch.LayerCount <= 0 || arch.ModelWidth <= 0 || arch.FeedForwardWidth <= 0 || arch.HeadWidth <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "invalid architecture: %s", arch)
	}
	if arch.Heads <= 0 || arch.ModelWidth%arch.Heads != 0 {
		return errors.Newf(errors.ErrCodeValidation, "model width %d is not divisible by %d heads", arch.ModelWidth, arch.Heads)
	}

	set, err := prediction.NewDemoArtifactSet(arch, opts.seed)
	if err != nil {
		return err
	}
	names := prediction.LoadOptionsFromConfig(inf).Names

	if opts.push {
		return pushArtifacts(cmd, cliCtx, set, names)
	}

	dir := opts.dir
	if dir == "" {
		dir = inf.Artifacts.Dir
	}
	if dir == "" {
		return errors.New(errors.ErrCodeValidation, "--dir is required when inference.artifacts.dir is empty")
	}
	written, err := set.WriteDir(dir, names)
	if err != nil {
		return err
	}
	cliCtx.Logger.Debug("demo artifacts written", logging.String("architecture", arch.String()))
	for _, p := range written {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	PrintSuccess(cmd, fmt.Sprintf("wrote %d artifacts to %s (seed %d)", len(written), dir, opts.seed))
	return nil
}

func pushArtifacts(cmd *cobra.Command, cliCtx *CLIContext, set *prediction.ArtifactSet, names prediction.ArtifactNames) error {
	ctx, cancel := cliCtx.withTimeout(cmd.Context())
	defer cancel()

	cfg := cliCtx.Config
	src, err := artifact.NewMinIOSource(ctx, cfg.MinIO, cfg.Inference.Artifacts.Prefix, cliCtx.Logger.Named("artifact"))
	if err != nil {
		return err
	}
	files, err := set.Files(names)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(files))
	for name := range files {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		data := files[name]
		if err := src.Upload(ctx, name, bytes.NewReader(data), int64(len(data))); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	PrintSuccess(cmd, fmt.Sprintf("uploaded %d artifacts to %s", len(keys), cfg.MinIO.Bucket))
	return nil
}

func newArtifactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List artifacts in the configured MinIO bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()

			cfg := cliCtx.Config
			src, err := artifact.NewMinIOSource(ctx, cfg.MinIO, cfg.Inference.Artifacts.Prefix, cliCtx.Logger.Named("artifact"))
			if err != nil {
				return err
			}
			objects, err := src.List(ctx)
			if err != nil {
				return err
			}
			for _, o := range objects {
				fmt.Fprintln(cmd.OutOrStdout(), o)
			}
			return nil
		},
	}
}

//Personal.AI order the ending
