// Package prediction defines the JSON contract of the prediction API, the
// batch-job messages and the history listing.
package prediction

import (
	"math"

	"github.com/turtacn/MolProp-Intelligence/pkg/types/common"
)

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	SMILES string `json:"smiles"`
}

// BatchPredictRequest is the body of POST /predict/batch.
type BatchPredictRequest struct {
	SMILES []string `json:"smiles"`
}

// MoleculeInfo describes the parsed structure. Name is always null; it is
// kept for response compatibility.
type MoleculeInfo struct {
	Name            *string `json:"name"`
	Formula         string  `json:"formula"`
	MolecularWeight float64 `json:"molecular_weight"`
	NumAtoms        int     `json:"num_atoms"`
	NumBonds        int     `json:"num_bonds"`
	NumRings        int     `json:"num_rings"`
	Aromatic        bool    `json:"aromatic"`
}

// PropertyPrediction is one predicted property. Value is null when the
// model produced NaN or an infinity.
type PropertyPrediction struct {
	PropertyName string   `json:"property_name"`
	Code         string   `json:"code"`
	Value        *float64 `json:"value"`
	Unit         string   `json:"unit"`
	Confidence   string   `json:"confidence"`
}

// DefaultModelConfidence is reported when no prediction was made.
const DefaultModelConfidence = "Medium"

// PredictionResponse is returned for every prediction attempt. Failures set
// Success=false and Error; MoleculeInfo and Predictions are then empty.
type PredictionResponse struct {
	Success         bool                 `json:"success"`
	SMILES          string               `json:"smiles"`
	MoleculeInfo    *MoleculeInfo        `json:"molecule_info"`
	Predictions     []PropertyPrediction `json:"predictions"`
	ModelConfidence string               `json:"model_confidence"`
	Error           *string              `json:"error"`
	ErrorCode       string               `json:"error_code,omitempty"`
}

// NewFailure builds a failed response.
func NewFailure(smiles, code, message string) PredictionResponse {
	return PredictionResponse{
		SMILES:          smiles,
		Predictions:     []PropertyPrediction{},
		ModelConfidence: DefaultModelConfidence,
		Error:           &message,
		ErrorCode:       code,
	}
}

// BatchPredictResponse holds per-item responses in request order.
type BatchPredictResponse struct {
	Total     int                  `json:"total"`
	Succeeded int                  `json:"succeeded"`
	Results   []PredictionResponse `json:"results"`
}

// PropertyInfo is one catalog entry.
type PropertyInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// PropertiesResponse is the body of GET /properties.
type PropertiesResponse struct {
	Total      int            `json:"total"`
	Properties []PropertyInfo `json:"properties"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string                   `json:"status"`
	ModelLoaded     bool                     `json:"model_loaded"`
	PropertiesCount int                      `json:"properties_count"`
	ModelVersion    string                   `json:"model_version,omitempty"`
	Components      []common.ComponentHealth `json:"components,omitempty"`
}

// ServiceInfo is the body of GET /.
type ServiceInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// HistoryRecord is one row of GET /predictions/recent.
type HistoryRecord struct {
	ID              string               `json:"id"`
	SMILES          string               `json:"smiles"`
	Success         bool                 `json:"success"`
	Formula         string               `json:"formula,omitempty"`
	ModelConfidence string               `json:"model_confidence,omitempty"`
	Predictions     []PropertyPrediction `json:"predictions,omitempty"`
	Error           string               `json:"error,omitempty"`
	ModelVersion    string               `json:"model_version,omitempty"`
	LatencyMS       float64              `json:"latency_ms"`
	CreatedAt       common.Timestamp     `json:"created_at"`
}

// RecentResponse is the body of GET /predictions/recent.
type RecentResponse struct {
	Total   int             `json:"total"`
	Records []HistoryRecord `json:"records"`
}

// PredictionJob is a batch request consumed from Kafka.
type PredictionJob struct {
	JobID       string           `json:"job_id"`
	SMILES      []string         `json:"smiles"`
	SubmittedAt common.Timestamp `json:"submitted_at"`
}

// PredictionJobResult is published once a job completes.
type PredictionJobResult struct {
	JobID       string               `json:"job_id"`
	Results     []PredictionResponse `json:"results"`
	Error       string               `json:"error,omitempty"`
	CompletedAt common.Timestamp     `json:"completed_at"`
}

// Round rounds v to places decimals, half away from zero. Non-finite values
// are returned unchanged.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// FiniteOrNil returns a pointer to v rounded to places, or nil when v is not
// finite.
func FiniteOrNil(v float64, places int) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := Round(v, places)
	return &r
}

//Personal.AI order the ending
