package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/internal/bootstrap"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/molecule"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	prom "github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
	ptypes "github.com/turtacn/MolProp-Intelligence/pkg/types/prediction"
)

// NewPredictCmd creates the predict command.
func NewPredictCmd() *cobra.Command {
	var (
		smiles []string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the QM9 properties of one or more molecules",
		Long: "Predict the 19 QM9 properties from SMILES. One --smiles prints a single\n" +
			"result; several --smiles (or --file with one SMILES per line) run a batch.",
		Example: `  molprop predict --smiles CCO
  molprop predict --smiles CCO --smiles c1ccccc1 --format json
  molprop predict --file molecules.smi --server http://localhost:8000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := append([]string(nil), smiles...)
			if file != "" {
				fromFile, err := readSMILESFile(file)
				if err != nil {
					return err
				}
				inputs = append(inputs, fromFile...)
			}
			if len(inputs) == 0 {
				return errors.New(errors.ErrCodeValidation, "at least one --smiles or a --file is required")
			}
			return runPredict(cmd, inputs)
		},
	}

	cmd.Flags().StringArrayVarP(&smiles, "smiles", "s", nil, "SMILES string (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "file with one SMILES per line ('#' starts a comment)")
	return cmd
}

// readSMILESFile returns the non-empty, non-comment lines of path. A second
// whitespace-separated column (a molecule name) is ignored.
func readSMILESFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "cannot open SMILES file")
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, strings.Fields(line)[0])
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "cannot read SMILES file")
	}
	return out, nil
}

func runPredict(cmd *cobra.Command, inputs []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.withTimeout(cmd.Context())
	defer cancel()

	if len(inputs) == 1 {
		resp, err := predictOne(ctx, cliCtx, inputs[0])
		if err != nil {
			return err
		}
		if err := PrintResult(cmd, predictionView{resp}); err != nil {
			return err
		}
		if !resp.Success {
			return errors.New(errors.ErrorCode(resp.ErrorCode), *resp.Error)
		}
		return nil
	}

	resp, err := predictMany(ctx, cliCtx, inputs)
	if err != nil {
		return err
	}
	return PrintResult(cmd, batchView{resp})
}

func predictOne(ctx context.Context, cliCtx *CLIContext, smiles string) (ptypes.PredictionResponse, error) {
	if cliCtx.Remote() {
		resp, err := cliCtx.Client.Predict(ctx, smiles)
		if err != nil {
			return ptypes.PredictionResponse{}, err
		}
		return *resp, nil
	}
	rt, err := localRuntime(ctx, cliCtx)
	if err != nil {
		return ptypes.PredictionResponse{}, err
	}
	defer rt.Close()
	res, err := rt.Engine.Predict(ctx, smiles)
	return prediction.ToResponse(smiles, res, err), nil
}

func predictMany(ctx context.Context, cliCtx *CLIContext, inputs []string) (ptypes.BatchPredictResponse, error) {
	if cliCtx.Remote() {
		resp, err := cliCtx.Client.PredictBatch(ctx, inputs)
		if err != nil {
			return ptypes.BatchPredictResponse{}, err
		}
		return *resp, nil
	}
	rt, err := localRuntime(ctx, cliCtx)
	if err != nil {
		return ptypes.BatchPredictResponse{}, err
	}
	defer rt.Close()
	items, err := rt.Engine.PredictBatch(ctx, inputs)
	if err != nil {
		return ptypes.BatchPredictResponse{}, err
	}
	return prediction.ToBatchResponse(items), nil
}

// localRuntime builds an in-process engine without cache, history or
// metrics and loads the configured artifacts.
func localRuntime(ctx context.Context, cliCtx *CLIContext) (*bootstrap.Runtime, error) {
	rt, err := bootstrap.Build(ctx, cliCtx.Config, cliCtx.Logger, bootstrap.Options{
		Metrics:        prom.NewNopAppMetrics(),
		DisableCache:   true,
		DisableHistory: true,
	})
	if err != nil {
		return nil, err
	}
	if err := rt.LoadModel(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// predictionView renders one response as a property table.
type predictionView struct {
	ptypes.PredictionResponse
}

func (v predictionView) Summary() string {
	if !v.Success {
		return fmt.Sprintf("%s: %s", v.SMILES, errorText(v.PredictionResponse))
	}
	s := v.SMILES
	if m := v.MoleculeInfo; m != nil {
		s += fmt.Sprintf("  %s  MW %.2f  atoms %d  bonds %d  rings %d", m.Formula, m.MolecularWeight, m.NumAtoms, m.NumBonds, m.NumRings)
		if m.Aromatic {
			s += "  aromatic"
		}
	}
	return s + "  confidence " + v.ModelConfidence
}

func (v predictionView) TableHeaders() []string {
	return []string{"CODE", "PROPERTY", "VALUE", "UNIT", "CONFIDENCE"}
}

func (v predictionView) TableRows() [][]string {
	rows := make([][]string, len(v.Predictions))
	for i, p := range v.Predictions {
		rows[i] = []string{p.Code, p.PropertyName, formatValue(p.Value), p.Unit, p.Confidence}
	}
	return rows
}

func (v predictionView) String() string {
	if !v.Success {
		return v.Summary()
	}
	var sb strings.Builder
	sb.WriteString(v.Summary())
	for _, p := range v.Predictions {
		fmt.Fprintf(&sb, "\n%s=%s %s", p.Code, formatValue(p.Value), p.Unit)
	}
	return sb.String()
}

// batchView renders a batch as one row per molecule.
type batchView struct {
	ptypes.BatchPredictResponse
}

func (v batchView) Summary() string {
	return fmt.Sprintf("%d/%d predicted", v.Succeeded, v.Total)
}

func (v batchView) TableHeaders() []string {
	return []string{"#", "SMILES", "FORMULA", "CONFIDENCE", "GAP", "ERROR"}
}

func (v batchView) TableRows() [][]string {
	rows := make([][]string, len(v.Results))
	for i, r := range v.Results {
		row := []string{strconv.Itoa(i + 1), r.SMILES, "", r.ModelConfidence, "", ""}
		if r.MoleculeInfo != nil {
			row[2] = r.MoleculeInfo.Formula
		}
		for _, p := range r.Predictions {
			if p.Code == "gap" {
				row[4] = formatValue(p.Value)
			}
		}
		if !r.Success {
			row[5] = errorText(r)
		}
		rows[i] = row
	}
	return rows
}

func (v batchView) String() string {
	var sb strings.Builder
	sb.WriteString(v.Summary())
	for _, r := range v.Results {
		sb.WriteString("\n")
		sb.WriteString(predictionView{r}.Summary())
	}
	return sb.String()
}

func errorText(r ptypes.PredictionResponse) string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

func formatValue(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// NewFingerprintCmd creates the fingerprint command.
func NewFingerprintCmd() *cobra.Command {
	var (
		smiles string
		radius int
		bits   int
	)

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Compute the Morgan fingerprint of a molecule",
		Example: `  molprop fingerprint --smiles CCO
  molprop fingerprint --smiles c1ccccc1 --radius 3 --bits 1024 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("radius") {
				radius = cliCtx.Config.Inference.FingerprintRadius
			}
			if !cmd.Flags().Changed("bits") {
				bits = cliCtx.Config.Inference.FingerprintBits
			}
			return runFingerprint(cmd, smiles, radius, bits)
		},
	}

	cmd.Flags().StringVarP(&smiles, "smiles", "s", "", "SMILES string (required)")
	cmd.Flags().IntVar(&radius, "radius", molecule.DefaultRadius, "Morgan radius")
	cmd.Flags().IntVar(&bits, "bits", molecule.DefaultBits, "fingerprint length")
	_ = cmd.MarkFlagRequired("smiles")
	return cmd
}

func runFingerprint(cmd *cobra.Command, smiles string, radius, bits int) error {
	if radius < 0 || bits <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "invalid fingerprint shape: radius %d, bits %d", radius, bits)
	}
	fp, mol, err := molecule.NewExtractor(radius, bits).Extract(smiles)
	if err != nil {
		return err
	}
	return PrintResult(cmd, fingerprintView{
		SMILES:  smiles,
		Formula: mol.Formula,
		Radius:  radius,
		Bits:    fp.Len(),
		OnCount: fp.Count(),
		OnBits:  fp.OnBits(),
	})
}

// fingerprintView is the fingerprint command output.
type fingerprintView struct {
	SMILES  string `json:"smiles"`
	Formula string `json:"formula"`
	Radius  int    `json:"radius"`
	Bits    int    `json:"bits"`
	OnCount int    `json:"on_count"`
	OnBits  []int  `json:"on_bits"`
}

func (v fingerprintView) Summary() string {
	return fmt.Sprintf("%s  %s  radius %d  %d/%d bits set", v.SMILES, v.Formula, v.Radius, v.OnCount, v.Bits)
}

func (v fingerprintView) TableHeaders() []string { return []string{"BIT"} }

func (v fingerprintView) TableRows() [][]string {
	rows := make([][]string, len(v.OnBits))
	for i, b := range v.OnBits {
		rows[i] = []string{strconv.Itoa(b)}
	}
	return rows
}

func (v fingerprintView) String() string {
	parts := make([]string, len(v.OnBits))
	for i, b := range v.OnBits {
		parts[i] = strconv.Itoa(b)
	}
	return v.Summary() + "\n" + strings.Join(parts, " ")
}

// NewPropertiesCmd creates the properties command.
func NewPropertiesCmd() *cobra.Command {
	var catalog bool

	cmd := &cobra.Command{
		Use:   "properties",
		Short: "List the properties the model predicts",
		Long: "List the properties in model output order. Without --catalog the\n" +
			"configured artifacts (or the --server) decide the list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProperties(cmd, catalog)
		},
	}
	cmd.Flags().BoolVar(&catalog, "catalog", false, "print the built-in QM9 catalog without loading a model")
	return cmd
}

func runProperties(cmd *cobra.Command, catalog bool) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.withTimeout(cmd.Context())
	defer cancel()

	var resp ptypes.PropertiesResponse
	switch {
	case catalog:
		resp = prediction.ToPropertiesResponse(property.Default().All())
	case cliCtx.Remote():
		r, err := cliCtx.Client.Properties(ctx)
		if err != nil {
			return err
		}
		resp = *r
	default:
		rt, err := localRuntime(ctx, cliCtx)
		if err != nil {
			return err
		}
		defer rt.Close()
		props, err := rt.Engine.Properties()
		if err != nil {
			return err
		}
		resp = prediction.ToPropertiesResponse(props)
	}
	return PrintResult(cmd, propertiesView{resp})
}

type propertiesView struct {
	ptypes.PropertiesResponse
}

func (v propertiesView) TableHeaders() []string { return []string{"#", "CODE", "PROPERTY", "UNIT"} }

func (v propertiesView) TableRows() [][]string {
	rows := make([][]string, len(v.Properties))
	for i, p := range v.Properties {
		rows[i] = []string{strconv.Itoa(i + 1), p.Code, p.Name, p.Unit}
	}
	return rows
}

func (v propertiesView) String() string {
	var sb strings.Builder
	for i, p := range v.Properties {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s", p.Code, p.Name, p.Unit)
	}
	return sb.String()
}

//Personal.AI order the ending
