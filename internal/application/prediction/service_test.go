package prediction_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	pt "github.com/turtacn/MolProp-Intelligence/internal/intelligence/prop_transformer"
	"github.com/turtacn/MolProp-Intelligence/internal/testutil"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
}

type mockRecords struct {
	mock.Mock
	saved chan *property.Record
}

func (m *mockRecords) Save(ctx context.Context, r *property.Record) error {
	args := m.Called(ctx, r)
	m.saved <- r
	return args.Error(0)
}

func (m *mockRecords) Recent(ctx context.Context, limit int) ([]*property.Record, error) {
	args := m.Called(ctx, limit)
	recs, _ := args.Get(0).([]*property.Record)
	return recs, args.Error(1)
}

func readyEngine(t *testing.T, opts ...prediction.EngineOption) *prediction.Engine {
	t.Helper()
	e := prediction.NewEngine(nil, opts...)
	e.Install(testutil.TinyContext(t, 7))
	return e
}

func TestEngine_NotLoaded(t *testing.T) {
	e := prediction.NewEngine(nil)

	_, err := e.Predict(context.Background(), "CCO")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelNotLoaded))
	assert.Equal(t, "Model not loaded", prediction.ErrorMessage(err))

	_, err = e.Properties()
	assert.True(t, errors.Is(err, errors.ErrModelNotLoaded))

	h := e.Health()
	assert.Equal(t, "unhealthy", h.Status)
	assert.False(t, h.ModelLoaded)
	assert.Zero(t, h.PropertiesCount)
	assert.Nil(t, e.Current())
}

func TestEngine_Predict(t *testing.T) {
	e := readyEngine(t)

	res, err := e.Predict(context.Background(), "CCO")
	require.NoError(t, err)

	assert.Equal(t, "CCO", res.SMILES)
	assert.Equal(t, "C2H6O", res.Molecule.Formula)
	assert.Equal(t, 3, res.Molecule.NumAtoms)
	assert.Equal(t, 0, res.Molecule.NumRings)
	assert.False(t, res.Molecule.Aromatic)
	assert.Equal(t, "demo-7", res.ModelVersion)
	assert.False(t, res.Cached)

	// one prediction per catalog entry, in output order
	require.Len(t, res.Predictions, e.Current().Catalog.Len())
	require.Len(t, res.Predictions, e.Current().Descriptor().OutputWidth)
	for i, p := range res.Predictions {
		want := e.Current().Catalog.At(i)
		assert.Equal(t, want.Code, p.Code)
		assert.Equal(t, want.Name, p.Name)
		assert.Equal(t, want.Unit, p.Unit)
		assert.False(t, math.IsNaN(p.Value))
		assert.Equal(t, string(res.ModelConfidence), p.Confidence)
	}
	assert.Equal(t, "Dipole moment", res.Predictions[0].Name)
	assert.Equal(t, prediction.ConfidenceHigh, res.ModelConfidence)

	again, err := e.Predict(context.Background(), "OCC")
	require.NoError(t, err)
	assert.Equal(t, res.Predictions, again.Predictions, "equivalent SMILES predict identically")

	benzene, err := e.Predict(context.Background(), "c1ccccc1")
	require.NoError(t, err)
	assert.NotEqual(t, res.Predictions, benzene.Predictions)
	assert.True(t, benzene.Molecule.Aromatic)
}

func TestEngine_InvalidStructure(t *testing.T) {
	e := readyEngine(t)
	for _, s := range []string{"", "not_a_molecule", "C1CC", "C(C"} {
		res, err := e.Predict(context.Background(), s)
		require.Error(t, err, s)
		assert.Nil(t, res)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStructure), s)
		assert.Equal(t, "Invalid SMILES string. Please check the molecule structure.", prediction.ErrorMessage(err))
	}
}

func TestEngine_Properties(t *testing.T) {
	e := readyEngine(t)
	props, err := e.Properties()
	require.NoError(t, err)
	require.Len(t, props, 19)
	assert.Equal(t, property.Property{Code: "mu", Name: "Dipole moment", Unit: "Debye"}, props[0])

	h := e.Health()
	assert.Equal(t, "healthy", h.Status)
	assert.True(t, h.ModelLoaded)
	assert.Equal(t, 19, h.PropertiesCount)
	assert.Equal(t, "demo-7", h.ModelVersion)
}

func TestEngine_Reload(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	src := testutil.NewMemorySource(testutil.TinyArtifacts(t, 7))
	loader := func(ctx context.Context) (*prediction.InferenceContext, error) {
		return prediction.LoadContext(ctx, src, prediction.LoadOptions{ModelName: "tiny"})
	}
	e := prediction.NewEngine(loader, prediction.WithLogger(logger))

	require.NoError(t, e.Reload(context.Background()))
	require.NotNil(t, e.Current())
	first := e.Current()
	assert.True(t, logger.Has("info", "inference context installed"))
	assert.Len(t, logger.Find("info", "property"), 19)

	// a broken artifact set leaves the current context in place
	src.Put(prediction.DefaultArtifactNames().Weights, []byte("garbage!"))
	err := e.Reload(context.Background())
	require.Error(t, err)
	assert.Same(t, first, e.Current())
	assert.True(t, logger.Has("error", "artifact load failed"))

	_, err = e.Predict(context.Background(), "CCO")
	assert.NoError(t, err)

	// a new, valid set replaces it
	next := testutil.TinyArtifacts(t, 8)
	files, err := next.Files(prediction.DefaultArtifactNames())
	require.NoError(t, err)
	for name, data := range files {
		src.Put(name, data)
	}
	require.NoError(t, e.Reload(context.Background()))
	assert.NotSame(t, first, e.Current())
	assert.Equal(t, "demo-8", e.Current().Version)
}

func TestEngine_ReloadWithoutLoader(t *testing.T) {
	e := prediction.NewEngine(nil)
	assert.Error(t, e.Reload(context.Background()))
	assert.Nil(t, e.Current())
}

func TestEngine_Cache(t *testing.T) {
	cache := newMemCache()
	e := readyEngine(t, prediction.WithCache(cache))

	first, err := e.Predict(context.Background(), "CCO")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, cache.sets)

	second, err := e.Predict(context.Background(), "CCO")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Predictions, second.Predictions)
	assert.Equal(t, first.Molecule, second.Molecule)
	assert.Equal(t, 1, cache.sets)

	// failures are not cached
	_, err = e.Predict(context.Background(), "C1CC")
	require.Error(t, err)
	assert.Equal(t, 1, cache.sets)

	// a new model version misses
	e.Install(testutil.TinyContext(t, 9))
	third, err := e.Predict(context.Background(), "CCO")
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, cache.sets)
}

func TestEngine_NumericAnomaly(t *testing.T) {
	set := testutil.TinyArtifacts(t, 7)
	set.Weights[pt.KeyHead2Bias].Data[3] = math.NaN()
	ictx, err := prediction.LoadContext(context.Background(), testutil.NewMemorySource(set), prediction.LoadOptions{})
	require.NoError(t, err)

	logger := testutil.NewRecordingLogger()
	cache := newMemCache()
	e := prediction.NewEngine(nil, prediction.WithLogger(logger), prediction.WithCache(cache))
	e.Install(ictx)

	res, err := e.Predict(context.Background(), "CCO")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.Predictions[3].Value))
	assert.Equal(t, "Low", res.Predictions[3].Confidence)
	assert.Equal(t, prediction.ConfidenceHigh, res.ModelConfidence)
	assert.Equal(t, "High", res.Predictions[0].Confidence)
	assert.True(t, logger.Has("warn", "non-finite prediction"))
	assert.Zero(t, cache.sets)
}

func TestEngine_PredictBatch(t *testing.T) {
	e := readyEngine(t, prediction.WithBatchLimits(4, 2))
	in := []string{"CCO", "not_a_molecule", "c1ccccc1", "C"}

	items, err := e.PredictBatch(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, items, 4)
	for i, item := range items {
		assert.Equal(t, in[i], item.SMILES)
	}
	assert.NotNil(t, items[0].Result)
	assert.NoError(t, items[0].Err)
	assert.Nil(t, items[1].Result)
	assert.True(t, errors.IsCode(items[1].Err, errors.ErrCodeInvalidStructure))
	assert.Equal(t, "C6H6", items[2].Result.Molecule.Formula)
	assert.Equal(t, "CH4", items[3].Result.Molecule.Formula)

	single, err := e.Predict(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Equal(t, single.Predictions, items[0].Result.Predictions)

	_, err = e.PredictBatch(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	_, err = e.PredictBatch(context.Background(), []string{"C", "C", "C", "C", "C"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.PredictBatch(ctx, in)
	assert.Error(t, err)
}

func TestEngine_History(t *testing.T) {
	repo := &mockRecords{saved: make(chan *property.Record, 2)}
	repo.On("Save", mock.Anything, mock.AnythingOfType("*property.Record")).Return(nil).Once()
	repo.On("Save", mock.Anything, mock.AnythingOfType("*property.Record")).Return(fmt.Errorf("db down")).Once()

	logger := testutil.NewRecordingLogger()
	e := readyEngine(t, prediction.WithHistory(repo, time.Second), prediction.WithLogger(logger))

	_, err := e.Predict(context.Background(), "CCO")
	require.NoError(t, err)
	rec := <-repo.saved
	assert.True(t, rec.Success)
	assert.Equal(t, "CCO", rec.SMILES)
	assert.Equal(t, "C2H6O", rec.Formula)
	assert.Equal(t, "High", rec.ModelConfidence)
	assert.Len(t, rec.Predictions, 19)
	assert.Equal(t, "demo-7", rec.ModelVersion)

	// a failed write is logged, never returned
	_, err = e.Predict(context.Background(), "C1CC")
	require.Error(t, err)
	rec = <-repo.saved
	assert.False(t, rec.Success)
	assert.Equal(t, prediction.MessageInvalidStructure, rec.Error)
	assert.Eventually(t, func() bool { return logger.Has("warn", "history write failed") }, time.Second, 5*time.Millisecond)
	repo.AssertExpectations(t)

	repo.On("Recent", mock.Anything, 5).Return([]*property.Record{rec}, nil)
	recent, err := e.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestEngine_RecentWithoutHistory(t *testing.T) {
	_, err := readyEngine(t).Recent(context.Background(), 10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestEngine_ConcurrentPredict(t *testing.T) {
	e := readyEngine(t, prediction.WithCache(newMemCache()))
	want, err := e.Predict(context.Background(), "c1ccncc1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Predict(context.Background(), "c1ccncc1")
			assert.NoError(t, err)
			assert.Equal(t, want.Predictions, got.Predictions)
		}()
	}
	wg.Wait()
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", prediction.ErrorMessage(nil))
	assert.Equal(t, "Prediction error: boom", prediction.ErrorMessage(fmt.Errorf("boom")))
	assert.Equal(t, "Prediction error: model input: expected width 64, got 2",
		prediction.ErrorMessage(errors.DimensionMismatch("model input", 64, 2)))
	assert.Equal(t, "Prediction error: artifact invalid: bad header",
		prediction.ErrorMessage(errors.New(errors.ErrCodeArtifactInvalid, "").WithDetail("bad header")))
	assert.Equal(t, errors.ErrCodeInvalidStructure, prediction.ErrorCode(errors.ErrInvalidStructure))
	assert.Equal(t, errors.ErrorCode(""), prediction.ErrorCode(nil))
}

//Personal.AI order the ending
