package property

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Prediction is one predicted value, labelled with the catalog entry at its
// output position.
type Prediction struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Confidence string  `json:"confidence"`
}

// Record is one entry of the prediction history.
type Record struct {
	ID              uuid.UUID     `json:"id"`
	SMILES          string        `json:"smiles"`
	Success         bool          `json:"success"`
	Formula         string        `json:"formula,omitempty"`
	ModelConfidence string        `json:"model_confidence,omitempty"`
	Predictions     []Prediction  `json:"predictions,omitempty"`
	Error           string        `json:"error,omitempty"`
	ModelVersion    string        `json:"model_version,omitempty"`
	Latency         time.Duration `json:"latency"`
	CreatedAt       time.Time     `json:"created_at"`
}

// NewRecord stamps a fresh record with an ID and creation time.
func NewRecord(smiles string) *Record {
	return &Record{ID: uuid.New(), SMILES: smiles, CreatedAt: time.Now().UTC()}
}

// RecordRepository persists prediction history.
type RecordRepository interface {
	// Save inserts a record. IDs are unique; saving the same ID twice is an
	// error.
	Save(ctx context.Context, r *Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*Record, error)
}

//Personal.AI order the ending
