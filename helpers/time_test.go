package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100*time.Millisecond, IntMillisecondDefault(0, 100*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, IntMillisecondDefault(250, 100*time.Millisecond))
}
