package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	c := NewJSON[[]entry](rdb, "related:", time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "D1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := []entry{{Name: "Frog", Count: 2}}
	require.NoError(t, c.Set(ctx, "D1", want))
	assert.Equal(t, time.Minute, rdb.ttls["related:D1"])

	got, ok, err := c.Get(ctx, "D1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "D1"))
	_, ok, err = c.Get(ctx, "D1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONDefaultTTL(t *testing.T) {
	c := NewJSON[string](newFakeRedis(), "", 0)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestJSONGetErrors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	c := NewJSON[string](rdb, "k:", time.Minute)

	_, ok, err := c.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.False(t, ok)

	rdb.err = nil
	rdb.data["k:bad"] = "{not json"
	_, ok, err = c.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisClientRequiresAddr(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "")
	assert.Error(t, err)
}
