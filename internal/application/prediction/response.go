package prediction

import (
	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	"github.com/turtacn/MolProp-Intelligence/pkg/types/common"
	ptypes "github.com/turtacn/MolProp-Intelligence/pkg/types/prediction"
)

// Decimal places used in responses.
const (
	ValuePlaces  = 6
	WeightPlaces = 2
)

// ToResponse renders one prediction outcome. Exactly one of res and err is
// expected to be non-nil.
func ToResponse(smiles string, res *Result, err error) ptypes.PredictionResponse {
	if err != nil || res == nil {
		return ptypes.NewFailure(smiles, string(ErrorCode(err)), ErrorMessage(err))
	}
	out := ptypes.PredictionResponse{
		Success:         true,
		SMILES:          smiles,
		Predictions:     toPropertyPredictions(res.Predictions),
		ModelConfidence: string(res.ModelConfidence),
	}
	if out.ModelConfidence == "" {
		out.ModelConfidence = ptypes.DefaultModelConfidence
	}
	if m := res.Molecule; m != nil {
		out.MoleculeInfo = &ptypes.MoleculeInfo{
			Formula:         m.Formula,
			MolecularWeight: ptypes.Round(m.MolecularWeight, WeightPlaces),
			NumAtoms:        m.NumAtoms,
			NumBonds:        m.NumBonds,
			NumRings:        m.NumRings,
			Aromatic:        m.Aromatic,
		}
	}
	return out
}

func toPropertyPredictions(preds []PropertyPrediction) []ptypes.PropertyPrediction {
	out := make([]ptypes.PropertyPrediction, len(preds))
	for i, p := range preds {
		out[i] = ptypes.PropertyPrediction{
			PropertyName: p.Name,
			Code:         p.Code,
			Value:        ptypes.FiniteOrNil(p.Value, ValuePlaces),
			Unit:         p.Unit,
			Confidence:   p.Confidence,
		}
	}
	return out
}

// ToBatchResponse renders batch items in order.
func ToBatchResponse(items []BatchItem) ptypes.BatchPredictResponse {
	out := ptypes.BatchPredictResponse{
		Total:   len(items),
		Results: make([]ptypes.PredictionResponse, len(items)),
	}
	for i, it := range items {
		out.Results[i] = ToResponse(it.SMILES, it.Result, it.Err)
		if out.Results[i].Success {
			out.Succeeded++
		}
	}
	return out
}

// ToPropertiesResponse renders the catalog.
func ToPropertiesResponse(props []property.Property) ptypes.PropertiesResponse {
	out := ptypes.PropertiesResponse{
		Total:      len(props),
		Properties: make([]ptypes.PropertyInfo, len(props)),
	}
	for i, p := range props {
		out.Properties[i] = ptypes.PropertyInfo{Code: p.Code, Name: p.Name, Unit: p.Unit}
	}
	return out
}

// ToHistoryRecord renders a stored record.
func ToHistoryRecord(r *property.Record) ptypes.HistoryRecord {
	return ptypes.HistoryRecord{
		ID:              r.ID.String(),
		SMILES:          r.SMILES,
		Success:         r.Success,
		Formula:         r.Formula,
		ModelConfidence: r.ModelConfidence,
		Predictions:     toPropertyPredictions(r.Predictions),
		Error:           r.Error,
		ModelVersion:    r.ModelVersion,
		LatencyMS:       ptypes.Round(float64(r.Latency.Microseconds())/1000, 3),
		CreatedAt:       common.Timestamp(r.CreatedAt),
	}
}

// ToRecentResponse renders a history listing.
func ToRecentResponse(records []*property.Record) ptypes.RecentResponse {
	out := ptypes.RecentResponse{Total: len(records), Records: make([]ptypes.HistoryRecord, len(records))}
	for i, r := range records {
		out.Records[i] = ToHistoryRecord(r)
	}
	return out
}

//Personal.AI order the ending
