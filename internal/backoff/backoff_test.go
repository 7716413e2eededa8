package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	c := NewConstant(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Delay(1))
	assert.Equal(t, 3*time.Second, c.Delay(10))
}

func TestExponential(t *testing.T) {
	e := NewExponential(time.Second, 10*time.Second)
	assert.Equal(t, time.Second, e.Delay(0))
	assert.Equal(t, time.Second, e.Delay(1))
	assert.Equal(t, 2*time.Second, e.Delay(2))
	assert.Equal(t, 8*time.Second, e.Delay(4))
	assert.Equal(t, 10*time.Second, e.Delay(5))
}

func TestExponentialWithJitter_Bounded(t *testing.T) {
	e := NewExponentialWithJitter(100*time.Millisecond, time.Second)
	for attempt := 1; attempt <= 8; attempt++ {
		d := e.Delay(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestDefault(t *testing.T) {
	assert.Equal(t, time.Second, Default().Delay(1))
	assert.Equal(t, time.Minute, Default().Delay(20))
}

func TestExponential_LargeAttemptsStayCapped(t *testing.T) {
	e := NewExponential(time.Second, time.Minute)
	j := NewExponentialWithJitter(time.Second, time.Minute)
	for _, attempt := range []int{35, 40, 64, 70, 1000} {
		assert.Equal(t, time.Minute, e.Delay(attempt), "attempt %d", attempt)
		d := j.Delay(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, d, time.Minute, "attempt %d", attempt)
	}
}

func TestExponential_Uncapped(t *testing.T) {
	e := NewExponential(time.Second, 0)
	assert.Equal(t, 4*time.Second, e.Delay(3))
	assert.Positive(t, e.Delay(100))
}
