package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticResolverCaseInsensitive(t *testing.T) {
	r := NewStaticResolver(map[string]string{"Sam": "sam@example.com"})

	id, err := r.ResolveAttendee(context.Background(), "sam")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", id)

	id, err = r.ResolveAttendee(context.Background(), "  SAM ")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", id)

	_, err = r.ResolveAttendee(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

// countingResolver records how many lookups reach it.
type countingResolver struct {
	inner Resolver
	calls int
}

func (c *countingResolver) ResolveAttendee(ctx context.Context, name string) (string, error) {
	c.calls++
	return c.inner.ResolveAttendee(ctx, name)
}

func TestCachedResolver(t *testing.T) {
	counting := &countingResolver{inner: NewStaticResolver(map[string]string{"priya": "priya@example.com"})}
	r := NewCachedResolver(counting)

	for i := 0; i < 3; i++ {
		id, err := r.ResolveAttendee(context.Background(), "Priya")
		require.NoError(t, err)
		assert.Equal(t, "priya@example.com", id)
	}
	assert.Equal(t, 1, counting.calls)

	// Misses are not cached.
	_, err := r.ResolveAttendee(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.ResolveAttendee(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, counting.calls)

	// Invalidation forces the next lookup through.
	r.Invalidate("priya")
	_, err = r.ResolveAttendee(context.Background(), "priya")
	require.NoError(t, err)
	assert.Equal(t, 4, counting.calls)
}
