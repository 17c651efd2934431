package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixed(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	c := Fixed{T: at}
	assert.Equal(t, at, c.Now())
	assert.Equal(t, c.Now(), c.Now())
}

func TestParse(t *testing.T) {
	fallback := Fixed{T: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}

	c, err := Parse("", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, c)

	c, err = Parse("2025-06-30", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), c.Now())

	c, err = Parse("2025-06-30T08:15:00Z", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 30, 8, 15, 0, 0, time.UTC), c.Now())

	_, err = Parse("30/06/2025", fallback)
	assert.ErrorContains(t, err, "as-of")
}
