package repositories

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

var recordRowColumns = []string{
	"id", "smiles", "success", "formula", "model_confidence", "predictions",
	"error", "model_version", "latency_ms", "created_at",
}

type RecordRepoTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo property.RecordRepository
}

func (s *RecordRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)
	log := logging.NewNopLogger()
	s.repo = NewPostgresRecordRepo(postgres.NewConnectionWithDB(s.db, log), log)
}

func (s *RecordRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *RecordRepoTestSuite) TestSave_Success() {
	rec := property.NewRecord("CCO")
	rec.Success = true
	rec.Formula = "C2H6O"
	rec.ModelConfidence = "High"
	rec.ModelVersion = "demo-7"
	rec.Latency = 1500 * time.Microsecond
	rec.Predictions = []property.Prediction{
		{Code: "mu", Name: "Dipole moment", Value: 1.69, Unit: "Debye", Confidence: "High"},
		{Code: "gap", Name: "HOMO-LUMO gap", Value: math.NaN(), Unit: "eV", Confidence: "Low"},
	}

	s.mock.ExpectExec("INSERT INTO prediction_records").
		WithArgs(rec.ID, "CCO", true, "C2H6O", "High",
			[]byte(`[{"code":"mu","name":"Dipole moment","value":1.69,"unit":"Debye","confidence":"High"},{"code":"gap","name":"HOMO-LUMO gap","value":null,"unit":"eV","confidence":"Low"}]`),
			"", "demo-7", 1.5, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Save(context.Background(), rec))
}

func (s *RecordRepoTestSuite) TestSave_Failure() {
	rec := property.NewRecord("bad")
	rec.Error = "Invalid SMILES string. Please check the molecule structure."

	s.mock.ExpectExec("INSERT INTO prediction_records").
		WithArgs(rec.ID, "bad", false, "", "", []byte(`[]`), rec.Error, "", 0.0, rec.CreatedAt).
		WillReturnError(errors.New("duplicate key value violates unique constraint"))

	err := s.repo.Save(context.Background(), rec)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func (s *RecordRepoTestSuite) TestRecent() {
	id1, id2 := uuid.New(), uuid.New()
	now := time.Now().UTC()
	s.mock.ExpectQuery("SELECT (.+) FROM prediction_records ORDER BY created_at DESC LIMIT").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(recordRowColumns).
			AddRow(id1.String(), "C", true, "CH4", "High", []byte(`[{"code":"mu","name":"Dipole moment","value":null,"unit":"Debye","confidence":"Low"}]`), "", "v1", 2.5, now).
			AddRow(id2.String(), "bad", false, "", "", []byte(`[]`), "boom", "v1", 0.25, now.Add(-time.Second)))

	recs, err := s.repo.Recent(context.Background(), 2)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)

	s.Equal(id1, recs[0].ID)
	s.Equal("CH4", recs[0].Formula)
	s.Require().Len(recs[0].Predictions, 1)
	s.True(math.IsNaN(recs[0].Predictions[0].Value))
	s.Equal(2500*time.Microsecond, recs[0].Latency)

	s.Equal(id2, recs[1].ID)
	s.False(recs[1].Success)
	s.Nil(recs[1].Predictions)
	s.Equal("boom", recs[1].Error)
}

func (s *RecordRepoTestSuite) TestRecent_ClampsLimit() {
	s.mock.ExpectQuery("SELECT (.+) FROM prediction_records").
		WithArgs(MaxRecentLimit).
		WillReturnRows(sqlmock.NewRows(recordRowColumns))

	recs, err := s.repo.Recent(context.Background(), 10_000)
	s.NoError(err)
	s.Empty(recs)

	recs, err = s.repo.Recent(context.Background(), 0)
	s.NoError(err)
	s.Empty(recs)
}

func (s *RecordRepoTestSuite) TestRecent_QueryError() {
	s.mock.ExpectQuery("SELECT (.+) FROM prediction_records").WillReturnError(sql.ErrConnDone)

	_, err := s.repo.Recent(context.Background(), 5)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestRecordRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RecordRepoTestSuite))
}

//Personal.AI order the ending
