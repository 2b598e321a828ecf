package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Файл unit-тестов кэша в памяти.
//
// Покрываем контракт Cache:
//  - happy-path (Set -> Get отдаёт записанное значение);
//  - просроченная запись -> промах + ленивое удаление;
//  - битый payload -> промах без ошибки;
//  - Invalidate убирает запись;
//  - Get отдаёт независимую копию, а не ссылку на внутреннее состояние.

type testValue struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

func TestMemory_SetGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()

	want := testValue{Name: "latest", Tags: []string{"a", "b"}, Count: 3}
	require.NoError(t, c.Set(ctx, "k", want, time.Minute))

	var got testValue
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestMemory_MissOnAbsentKey(t *testing.T) {
	t.Parallel()

	var got testValue
	ok, err := NewMemory().Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestMemory_ExpiredEntryIsMissAndPurged — просрочка обнаруживается лениво при
// чтении; вторая попытка чтения уже не находит записи вовсе.
func TestMemory_ExpiredEntryIsMissAndPurged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Set(ctx, "k", testValue{Name: "v"}, 5*time.Minute))

	// До истечения срока — попадание.
	var got testValue
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)

	// Ровно на границе срок уже истёк.
	c.now = func() time.Time { return base.Add(5 * time.Minute) }

	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.Empty(t, c.records, "expired entry must be purged lazily")
}

// TestMemory_MalformedPayloadIsMiss — запись, не раскладывающаяся в dst,
// эквивалентна отсутствующей: ok=false, err=nil, запись удалена.
func TestMemory_MalformedPayloadIsMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()

	c.records["k"] = record{
		payload:   []byte(`{"name": 42`),
		expiresAt: time.Now().Add(time.Hour),
	}

	var got testValue
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, c.records)
}

func TestMemory_Invalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.Set(ctx, "k", testValue{Name: "v"}, time.Minute))
	require.NoError(t, c.Invalidate(ctx, "k"))

	var got testValue
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestMemory_GetReturnsIndependentCopy — мутация значения, полученного из
// кэша, не должна менять то, что прочитают следующие.
func TestMemory_GetReturnsIndependentCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.Set(ctx, "k", testValue{Tags: []string{"a"}}, time.Minute))

	var first testValue
	ok, err := c.Get(ctx, "k", &first)
	require.NoError(t, err)
	require.True(t, ok)

	first.Tags[0] = "mutated"

	var second testValue
	ok, err = c.Get(ctx, "k", &second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"a"}, second.Tags)
}
