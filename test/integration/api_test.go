//go:build integration

package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/bootstrap"
	httpserver "github.com/turtacn/MolProp-Intelligence/internal/interfaces/http"
	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/MolProp-Intelligence/internal/testutil"
	"github.com/turtacn/MolProp-Intelligence/pkg/client"
)

// serve exposes rt over HTTP the way the API server does and returns a client.
func serve(t *testing.T, rt *bootstrap.Runtime) *client.Client {
	t.Helper()
	var history handlers.HistoryReader
	if rt.History != nil {
		history = rt.Engine
	}
	checkers := make([]handlers.HealthChecker, len(rt.Checks))
	for i, c := range rt.Checks {
		checkers[i] = c
	}
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Mode:              "test",
		PredictionHandler: handlers.NewPredictionHandler(rt.Engine, history, rt.Logger),
		HealthHandler:     handlers.NewHealthHandler(rt.Engine, "integration", checkers...),
		Logger:            rt.Logger,
		Metrics:           rt.Metrics,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	c, err := client.NewClient(srv.URL, client.WithRetryMax(0))
	require.NoError(t, err)
	return c
}

func TestAPI_RoundTrip(t *testing.T) {
	cfg := baseConfig(t)
	ctx := context.Background()

	rt, err := bootstrap.Build(ctx, cfg, nil, bootstrap.Options{Source: testutil.NewMemorySource(testutil.TinyArtifacts(t, 9))})
	require.NoError(t, err)
	defer rt.Close()
	c := serve(t, rt)

	// before the model is loaded
	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.False(t, health.ModelLoaded)

	resp, err := c.Predict(ctx, "CCO")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Model not loaded", *resp.Error)

	_, err = c.Properties(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsModelNotLoaded())

	require.NoError(t, rt.LoadModel(ctx))

	health, err = c.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.ModelLoaded)
	assert.Equal(t, 19, health.PropertiesCount)

	resp, err = c.Predict(ctx, "CCO")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Predictions, 19)
	assert.Equal(t, "C2H6O", resp.MoleculeInfo.Formula)

	batch, err := c.PredictBatch(ctx, []string{"C", "C(C", "c1ccncc1"})
	require.NoError(t, err)
	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, "C(C", batch.Results[1].SMILES)

	props, err := c.Properties(ctx)
	require.NoError(t, err)
	assert.Equal(t, 19, props.Total)

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "integration", info.Version)

	_, err = c.Recent(ctx, 5)
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestAPI_RecentWithPostgres(t *testing.T) {
	requireIntegration(t)
	cfg := baseConfig(t)
	startPostgres(t, cfg)
	ctx := context.Background()

	rt, err := bootstrap.Build(ctx, cfg, nil, bootstrap.Options{Source: testutil.NewMemorySource(testutil.TinyArtifacts(t, 4))})
	require.NoError(t, err)
	defer rt.Close()
	require.NoError(t, rt.LoadModel(ctx))
	c := serve(t, rt)

	for _, s := range []string{"C", "CC", "CCC"} {
		_, err := c.Predict(ctx, s)
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		recent, err := c.Recent(ctx, 2)
		return err == nil && recent.Total == 2
	}, 10*time.Second, 100*time.Millisecond)

	recent, err := c.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, recent.Total)
	for _, r := range recent.Records {
		assert.True(t, r.Success)
		assert.Equal(t, "demo-4", r.ModelVersion)
	}

	health, err := c.Health(ctx)
	require.NoError(t, err)
	require.Len(t, health.Components, 1)
	assert.Equal(t, "postgres", health.Components[0].Name)
}

//Personal.AI order the ending
