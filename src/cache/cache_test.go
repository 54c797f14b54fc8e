package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Posts int
	Users int
	Names []string
}

func TestSetAndGet(t *testing.T) {
	c, err := New(100)
	require.Nil(t, err)
	ctx := context.Background()

	require.Nil(t, c.Set(ctx, "stats", stats{Posts: 3, Users: 2, Names: []string{"a"}}, time.Minute))
	c.Wait()

	var got stats
	require.Nil(t, c.Get(ctx, "stats", &got))
	assert.Equal(t, 3, got.Posts)
	assert.Equal(t, 2, got.Users)
	assert.Equal(t, []string{"a"}, got.Names)

	assert.NotNil(t, c.Get(ctx, "missing", &got))
}

func TestInvalidateByTag(t *testing.T) {
	c, err := New(100)
	require.Nil(t, err)
	ctx := context.Background()

	require.Nil(t, c.Set(ctx, "home", stats{Posts: 1}, time.Minute, "posts"))
	c.Wait()
	require.Nil(t, c.Invalidate(ctx, "posts"))
	c.Wait()

	var got stats
	assert.NotNil(t, c.Get(ctx, "home", &got))
}

func TestRemember(t *testing.T) {
	c, err := New(100)
	require.Nil(t, err)
	ctx := context.Background()

	calls := 0
	fetch := func() (*stats, error) {
		calls++
		return &stats{Posts: calls}, nil
	}

	first, err := Remember(ctx, c, "k", time.Minute, nil, fetch)
	require.Nil(t, err)
	assert.Equal(t, 1, first.Posts)
	c.Wait()

	second, err := Remember(ctx, c, "k", time.Minute, nil, fetch)
	require.Nil(t, err)
	assert.Equal(t, 1, second.Posts)
	assert.Equal(t, 1, calls)

	_, err = Remember(ctx, c, "other", time.Minute, nil, func() (*stats, error) {
		return nil, errors.New("db down")
	})
	assert.NotNil(t, err)
}
