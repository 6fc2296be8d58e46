package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTripAndExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))

	s.SetString("greeting", "hello", time.Second)
	v, err := s.GetString("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	ttl, exists := s.TTL("greeting")
	assert.True(t, exists)
	assert.Equal(t, time.Second, ttl)

	now = now.Add(2 * time.Second)
	_, err = s.GetString("greeting")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestWrongType(t *testing.T) {
	s := New()
	_, err := s.Push("l", false, "a")
	require.NoError(t, err)

	_, err = s.GetString("l")
	assert.ErrorIs(t, err, ErrWrongType)
	_, err = s.HSet("l", "f", "v")
	assert.ErrorIs(t, err, ErrWrongType)
	_, err = s.IncrBy("l", 1)
	assert.ErrorIs(t, err, ErrWrongType)
	assert.Equal(t, TypeList, s.TypeOf("l"))
}

func TestIncrBy(t *testing.T) {
	s := New()

	n, err := s.IncrBy("counter", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = s.IncrBy("counter", -7)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), n)

	s.SetString("word", "abc", 0)
	_, err = s.IncrBy("word", 1)
	assert.ErrorIs(t, err, ErrNotInteger)

	s.SetString("big", "9223372036854775807", 0)
	_, err = s.IncrBy("big", 1)
	assert.ErrorIs(t, err, ErrNotInteger)
}

func TestListOperations(t *testing.T) {
	s := New()

	n, err := s.Push("l", true, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	items, err := s.LRange("l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, items)

	items, err = s.LRange("l", -2, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, items)

	v, ok, err := s.LIndex("l", -1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	for _, want := range []string{"a", "b", "c"} {
		v, ok, err := s.Pop("l", false)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, TypeNone, s.TypeOf("l"), "empty list is removed")
}

func TestHashAndSet(t *testing.T) {
	s := New()

	created, err := s.HSet("h", "b", "2")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.HSet("h", "a", "1")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.HSet("h", "a", "one")
	require.NoError(t, err)
	assert.False(t, created)

	all, err := s.HGetAll("h")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "one", "b", "2"}, all)

	n, err := s.HDel("h", "a", "b", "zzz")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, s.Exists("h"))

	added, err := s.SAdd("s", "x", "y", "x")
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	members, err := s.SMembers("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, members)
	ok, err := s.SIsMember("s", "y")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeysPatternAndDel(t *testing.T) {
	s := New()
	s.SetString("user:1", "a", 0)
	s.SetString("user:2", "b", 0)
	s.SetString("order:1", "c", 0)

	keys, err := s.Keys("user:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1", "user:2"}, keys)

	_, err = s.Keys("[")
	assert.Error(t, err)

	assert.Equal(t, 2, s.Del("user:1", "order:1", "missing"))
	assert.Equal(t, 1, s.Len())
}

func TestSeed(t *testing.T) {
	now := time.Now()
	s := New(WithClock(func() time.Time { return now }))
	entries, err := LoadSeed(strings.NewReader(`
- key: greeting
  value: hello
- key: count
  value: 42
- key: queue
  type: list
  value: [a, b]
- key: profile
  type: hash
  value: {name: ada, age: 36}
- key: tags
  type: set
  value: [go, lua]
  ttl: 30
`))
	require.NoError(t, err)
	require.NoError(t, s.Seed(entries))

	v, err := s.GetString("count")
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	items, err := s.LRange("queue", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, items)

	age, ok, err := s.HGet("profile", "age")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "36", age)

	ttl, _ := s.TTL("tags")
	assert.Equal(t, 30*time.Second, ttl)

	err = s.Seed([]SeedEntry{{Key: "bad", Type: "hash", Value: "nope"}})
	assert.Error(t, err)
}
