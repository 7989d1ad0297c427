//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/bootstrap"
	"github.com/turtacn/MolProp-Intelligence/internal/testutil"
)

func TestRedisCache_SharedAcrossEngines(t *testing.T) {
	requireIntegration(t)
	cfg := baseConfig(t)
	startRedis(t, cfg)
	ctx := context.Background()
	set := testutil.TinyArtifacts(t, 5)

	build := func() *bootstrap.Runtime {
		rt, err := bootstrap.Build(ctx, cfg, nil, bootstrap.Options{Source: testutil.NewMemorySource(set)})
		require.NoError(t, err)
		t.Cleanup(func() { _ = rt.Close() })
		require.NoError(t, rt.LoadModel(ctx))
		return rt
	}

	first := build()
	require.Len(t, first.Checks, 1)
	assert.Equal(t, "redis", first.Checks[0].Name())
	assert.NoError(t, first.Checks[0].Check(ctx))

	res, err := first.Engine.Predict(ctx, "c1ccccc1")
	require.NoError(t, err)
	assert.False(t, res.Cached)

	// a second process has an empty local tier but shares Redis
	second := build()
	again, err := second.Engine.Predict(ctx, "c1ccccc1")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	require.Len(t, again.Predictions, len(res.Predictions))
	for i := range res.Predictions {
		assert.Equal(t, res.Predictions[i].Code, again.Predictions[i].Code)
		assert.InDelta(t, res.Predictions[i].Value, again.Predictions[i].Value, 1e-9)
	}
}

//Personal.AI order the ending
