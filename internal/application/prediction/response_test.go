package prediction_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/molecule"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

func TestToResponse_Success(t *testing.T) {
	res := &prediction.Result{
		SMILES: "CCO",
		Molecule: &molecule.Molecule{
			Formula:         "C2H6O",
			MolecularWeight: 46.06844,
			NumAtoms:        3,
			NumBonds:        2,
		},
		Predictions: []prediction.PropertyPrediction{
			{Code: "mu", Name: "Dipole moment", Value: 1.23456789, Unit: "Debye", Confidence: "High"},
			{Code: "gap", Name: "HOMO-LUMO gap", Value: math.NaN(), Unit: "eV", Confidence: "Low"},
		},
		ModelConfidence: prediction.ConfidenceHigh,
	}

	out := prediction.ToResponse("CCO", res, nil)
	assert.True(t, out.Success)
	assert.Nil(t, out.Error)
	assert.Equal(t, "High", out.ModelConfidence)
	require.NotNil(t, out.MoleculeInfo)
	assert.Nil(t, out.MoleculeInfo.Name)
	assert.Equal(t, 46.07, out.MoleculeInfo.MolecularWeight)
	assert.Equal(t, 3, out.MoleculeInfo.NumAtoms)

	require.Len(t, out.Predictions, 2)
	assert.Equal(t, "Dipole moment", out.Predictions[0].PropertyName)
	require.NotNil(t, out.Predictions[0].Value)
	assert.Equal(t, 1.234568, *out.Predictions[0].Value)
	assert.Nil(t, out.Predictions[1].Value)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":null`)
}

func TestToResponse_Failures(t *testing.T) {
	out := prediction.ToResponse("xx", nil, errors.New(errors.ErrCodeInvalidStructure, "bad"))
	assert.False(t, out.Success)
	require.NotNil(t, out.Error)
	assert.Equal(t, prediction.MessageInvalidStructure, *out.Error)
	assert.Equal(t, string(errors.ErrCodeInvalidStructure), out.ErrorCode)
	assert.Equal(t, "Medium", out.ModelConfidence)
	assert.Nil(t, out.MoleculeInfo)
	assert.Empty(t, out.Predictions)

	out = prediction.ToResponse("CCO", nil, errors.New(errors.ErrCodeModelNotLoaded, ""))
	assert.Equal(t, "Model not loaded", *out.Error)
}

func TestToBatchResponse(t *testing.T) {
	e := readyEngine(t)
	items, err := e.PredictBatch(context.Background(), []string{"CCO", "not_a_molecule", "c1ccccc1"})
	require.NoError(t, err)

	out := prediction.ToBatchResponse(items)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, "CCO", out.Results[0].SMILES)
	assert.False(t, out.Results[1].Success)
	assert.True(t, out.Results[2].MoleculeInfo.Aromatic)
}

func TestToPropertiesResponse(t *testing.T) {
	out := prediction.ToPropertiesResponse(property.Default().All())
	assert.Equal(t, 19, out.Total)
	assert.Equal(t, "mu", out.Properties[0].Code)
	assert.Equal(t, "C", out.Properties[18].Code)
}

func TestToRecentResponse(t *testing.T) {
	rec := property.NewRecord("CCO")
	rec.Success = true
	rec.Latency = 1500 * time.Microsecond
	rec.Predictions = []property.Prediction{{Code: "mu", Name: "Dipole moment", Value: 2, Unit: "Debye", Confidence: "High"}}

	out := prediction.ToRecentResponse([]*property.Record{rec})
	require.Equal(t, 1, out.Total)
	r := out.Records[0]
	assert.Equal(t, rec.ID.String(), r.ID)
	assert.Equal(t, 1.5, r.LatencyMS)
	assert.Equal(t, rec.CreatedAt, r.CreatedAt.Time())
	require.Len(t, r.Predictions, 1)
	assert.Equal(t, 2.0, *r.Predictions[0].Value)
}

//Personal.AI order the ending
