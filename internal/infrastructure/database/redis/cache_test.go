package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = NewClientFromUniversal(db, config.RedisConfig{KeyPrefix: "molprop:"}, logging.NewNopLogger())
	s.cache = NewRedisCache(s.client, nil, WithPrefix("test:"), WithJitter(0), WithDefaultTTL(time.Minute))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *CacheTestSuite) TestGet_Hit() {
	s.mock.ExpectGet("test:k1").SetVal(`{"success":true}`)

	data, err := s.cache.Get(context.Background(), "k1")
	s.NoError(err)
	s.Equal(`{"success":true}`, string(data))
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k1").RedisNil()

	_, err := s.cache.Get(context.Background(), "k1")
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_Error() {
	s.mock.ExpectGet("test:k1").SetErr(errors.New("connection refused"))

	_, err := s.cache.Get(context.Background(), "k1")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestSet_DefaultTTL() {
	s.mock.ExpectSet("test:k1", []byte("v"), time.Minute).SetVal("OK")
	s.NoError(s.cache.Set(context.Background(), "k1", []byte("v"), 0))
}

func (s *CacheTestSuite) TestSet_ExplicitTTL() {
	s.mock.ExpectSet("test:k1", []byte("v"), 5*time.Second).SetVal("OK")
	s.NoError(s.cache.Set(context.Background(), "k1", []byte("v"), 5*time.Second))
}

func (s *CacheTestSuite) TestSet_Error() {
	s.mock.ExpectSet("test:k1", []byte("v"), time.Minute).SetErr(errors.New("oom"))
	err := s.cache.Set(context.Background(), "k1", []byte("v"), 0)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "a", "b"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestPing() {
	s.mock.ExpectPing().SetVal("PONG")
	s.NoError(s.cache.Ping(context.Background()))
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestJitterTTL(t *testing.T) {
	c := &redisCache{jitter: 0.1}
	for i := 0; i < 100; i++ {
		got := c.jitterTTL(time.Minute)
		assert.GreaterOrEqual(t, got, 54*time.Second)
		assert.LessOrEqual(t, got, 66*time.Second)
	}
	assert.Equal(t, time.Duration(0), c.jitterTTL(0))
}

func TestNewRedisCache_UsesClientPrefix(t *testing.T) {
	db, _ := redismock.NewClientMock()
	c := NewRedisCache(NewClientFromUniversal(db, config.RedisConfig{KeyPrefix: "molprop:"}, nil), nil).(*redisCache)
	assert.Equal(t, "molprop:x", c.fullKey("x"))
}

//Personal.AI order the ending
