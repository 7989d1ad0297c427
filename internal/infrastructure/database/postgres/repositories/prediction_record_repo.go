package repositories

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// MaxRecentLimit caps Recent.
const MaxRecentLimit = 500

const recordColumns = `id, smiles, success, formula, model_confidence, predictions, error, model_version, latency_ms, created_at`

type postgresRecordRepo struct {
	db     queryExecutor
	logger logging.Logger
}

// NewPostgresRecordRepo returns a property.RecordRepository on conn.
func NewPostgresRecordRepo(conn *postgres.Connection, log logging.Logger) property.RecordRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresRecordRepo{db: conn.DB(), logger: log}
}

// predictionRow is the JSONB form of property.Prediction. Non-finite values
// are stored as null and read back as NaN.
type predictionRow struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit"`
	Confidence string   `json:"confidence"`
}

func encodePredictions(preds []property.Prediction) ([]byte, error) {
	rows := make([]predictionRow, len(preds))
	for i, p := range preds {
		rows[i] = predictionRow{Code: p.Code, Name: p.Name, Unit: p.Unit, Confidence: p.Confidence}
		if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
			v := p.Value
			rows[i].Value = &v
		}
	}
	return json.Marshal(rows)
}

func decodePredictions(data []byte) ([]property.Prediction, error) {
	var rows []predictionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	preds := make([]property.Prediction, len(rows))
	for i, row := range rows {
		preds[i] = property.Prediction{Code: row.Code, Name: row.Name, Value: math.NaN(), Unit: row.Unit, Confidence: row.Confidence}
		if row.Value != nil {
			preds[i].Value = *row.Value
		}
	}
	return preds, nil
}

func (r *postgresRecordRepo) Save(ctx context.Context, rec *property.Record) error {
	predsJSON, err := encodePredictions(rec.Predictions)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to encode predictions")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO prediction_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.SMILES, rec.Success, rec.Formula, rec.ModelConfidence, predsJSON,
		rec.Error, rec.ModelVersion, float64(rec.Latency)/float64(time.Millisecond), rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert prediction record", logging.Err(err), logging.String("smiles", rec.SMILES))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert prediction record")
	}
	return nil
}

func (r *postgresRecordRepo) Recent(ctx context.Context, limit int) ([]*property.Record, error) {
	if limit <= 0 {
		return []*property.Record{}, nil
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM prediction_records
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query prediction records")
	}
	defer rows.Close()

	records := make([]*property.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate prediction records")
	}
	return records, nil
}

func scanRecord(s scanner) (*property.Record, error) {
	var (
		rec       property.Record
		predsJSON []byte
		latencyMS float64
	)
	err := s.Scan(&rec.ID, &rec.SMILES, &rec.Success, &rec.Formula, &rec.ModelConfidence,
		&predsJSON, &rec.Error, &rec.ModelVersion, &latencyMS, &rec.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan prediction record")
	}
	if len(predsJSON) > 0 {
		preds, err := decodePredictions(predsJSON)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to decode predictions")
		}
		if len(preds) > 0 {
			rec.Predictions = preds
		}
	}
	rec.Latency = time.Duration(latencyMS * float64(time.Millisecond))
	return &rec, nil
}

//Personal.AI order the ending
