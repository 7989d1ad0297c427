// Package cache provides the prediction result cache: an in-process
// freecache tier in front of an optional Redis tier. Keys are xxhash digests
// so arbitrary SMILES fit both stores. Every failure degrades to a miss.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/coocood/freecache"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

const (
	TierLocal  = "local"
	TierRemote = "remote"

	minLocalSizeMB = 1
)

// Options configure a Tiered cache.
type Options struct {
	LocalSizeMB int
	LocalTTL    time.Duration
	RemoteTTL   time.Duration
	Metrics     *prometheus.AppMetrics
	Logger      logging.Logger
}

// Tiered satisfies prediction.ResultCache.
type Tiered struct {
	local     *freecache.Cache
	remote    redis.Cache
	localTTL  time.Duration
	remoteTTL time.Duration
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewTiered builds the cache. remote may be nil.
func NewTiered(remote redis.Cache, opts Options) *Tiered {
	if opts.LocalSizeMB < minLocalSizeMB {
		opts.LocalSizeMB = minLocalSizeMB
	}
	if opts.Metrics == nil {
		opts.Metrics = prometheus.NewNopAppMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Tiered{
		local:     freecache.NewCache(opts.LocalSizeMB * 1024 * 1024),
		remote:    remote,
		localTTL:  opts.LocalTTL,
		remoteTTL: opts.RemoteTTL,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// Key hashes key to a hex digest.
func Key(key string) string {
	return strconv.FormatUint(xxhash.Sum64String(key), 16)
}

// Get checks the local tier, then the remote tier. A remote hit is
// promoted to the local tier.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	k := Key(key)
	if v, err := t.local.Get([]byte(k)); err == nil {
		prometheus.RecordCacheAccess(t.metrics, TierLocal, true)
		return v, true
	}
	prometheus.RecordCacheAccess(t.metrics, TierLocal, false)

	if t.remote == nil {
		return nil, false
	}
	v, err := t.remote.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			t.logger.Warn("remote cache get failed", logging.Err(err))
		}
		prometheus.RecordCacheAccess(t.metrics, TierRemote, false)
		return nil, false
	}
	prometheus.RecordCacheAccess(t.metrics, TierRemote, true)
	t.setLocal(k, v)
	return v, true
}

// Set writes both tiers.
func (t *Tiered) Set(ctx context.Context, key string, value []byte) {
	k := Key(key)
	t.setLocal(k, value)
	if t.remote == nil {
		return
	}
	if err := t.remote.Set(ctx, k, value, t.remoteTTL); err != nil {
		t.logger.Warn("remote cache set failed", logging.Err(err))
	}
}

func (t *Tiered) setLocal(k string, v []byte) {
	if err := t.local.Set([]byte(k), v, int(t.localTTL.Seconds())); err != nil {
		// freecache rejects entries larger than 1/1024 of its size
		t.logger.Debug("local cache set skipped", logging.Err(err), logging.Int("size", len(v)))
	}
}

//Personal.AI order the ending
