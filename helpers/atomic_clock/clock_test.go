package atomic_clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApi(t *testing.T) {
	t.Parallel()
	c := Now()
	tim := time.Now()
	const delta = 100 * time.Millisecond

	assert.InDelta(t, tim.UnixNano(), c.UnixNano(), float64(delta))

	c.SetTime(tim)
	assert.Equal(t, tim.UnixNano(), c.UnixNano())
	assert.True(t, tim.Equal(c.Time()))

	c.SetNow()
	assert.True(t, Since(c) < delta)
}

func TestZero(t *testing.T) {
	t.Parallel()
	var c Clock
	assert.True(t, c.IsZero())
	assert.True(t, c.Time().IsZero())
	c.SetTime(time.Unix(1, 0))
	assert.False(t, c.IsZero())
	assert.Equal(t, int64(1), c.Time().Unix())
}
