package prediction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	ptypes "github.com/turtacn/MolProp-Intelligence/pkg/types/prediction"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	args := m.Called(ctx, topic, key, v)
	return args.Error(0)
}

func capturedResult(t *testing.T, pub *mockPublisher) ptypes.PredictionJobResult {
	t.Helper()
	require.Len(t, pub.Calls, 1)
	res, ok := pub.Calls[0].Arguments.Get(3).(ptypes.PredictionJobResult)
	require.True(t, ok)
	return res
}

func TestDecodeJob(t *testing.T) {
	job, err := prediction.DecodeJob([]byte(`{"job_id":"j1","smiles":["CCO"],"submitted_at":"2024-01-02T03:04:05Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "j1", job.JobID)
	assert.Equal(t, []string{"CCO"}, job.SMILES)
	assert.Equal(t, 2024, job.SubmittedAt.Time().Year())

	job, err = prediction.DecodeJob([]byte(`{"smiles":["C"]}`))
	require.NoError(t, err)
	assert.Len(t, job.JobID, 36)

	_, err = prediction.DecodeJob([]byte(`{`))
	assert.Error(t, err)
}

func TestJobProcessor_Success(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, "results", "job-1", mock.Anything).Return(nil)
	p := prediction.NewJobProcessor(readyEngine(t), pub, "results", nil, nil)

	err := p.Handle(context.Background(), []byte(`{"job_id":"job-1","smiles":["CCO","not_a_molecule"]}`))
	require.NoError(t, err)

	res := capturedResult(t, pub)
	assert.Equal(t, "job-1", res.JobID)
	assert.Empty(t, res.Error)
	require.Len(t, res.Results, 2)
	assert.True(t, res.Results[0].Success)
	assert.False(t, res.Results[1].Success)
	assert.False(t, res.CompletedAt.Time().IsZero())
}

func TestJobProcessor_MalformedPayload(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, "results", mock.Anything, mock.Anything).Return(nil)
	p := prediction.NewJobProcessor(readyEngine(t), pub, "results", nil, nil)

	require.NoError(t, p.Handle(context.Background(), []byte("not json")))
	res := capturedResult(t, pub)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Results)
}

func TestJobProcessor_OversizedBatch(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, "results", "big", mock.Anything).Return(nil)
	e := readyEngine(t, prediction.WithBatchLimits(1, 1))
	p := prediction.NewJobProcessor(e, pub, "results", nil, nil)

	require.NoError(t, p.Handle(context.Background(), []byte(`{"job_id":"big","smiles":["C","CC"]}`)))
	res := capturedResult(t, pub)
	assert.Contains(t, res.Error, "exceeds the limit")
}

func TestJobProcessor_PublishFailure(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, "results", "j", mock.Anything).Return(errors.New("broker down"))
	p := prediction.NewJobProcessor(readyEngine(t), pub, "results", nil, nil)

	err := p.Handle(context.Background(), []byte(`{"job_id":"j","smiles":["C"]}`))
	assert.EqualError(t, err, "broker down")
}

//Personal.AI order the ending
