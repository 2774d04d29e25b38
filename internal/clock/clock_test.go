package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOfKeepsWallDate(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	late := time.Date(2025, 3, 10, 23, 30, 0, 0, loc)

	got := DateOf(late)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestFixedClock(t *testing.T) {
	c := Fixed(time.Date(2025, 1, 5, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), c.Today())
}
