package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_Builders(t *testing.T) {
	assert.Equal(t, "jobq:job:abc", Job("abc"))
	assert.Equal(t, "jobq:in-progress:abc", InProgress("abc"))
	assert.Equal(t, "jobq:result:abc", Result("abc"))
	assert.Equal(t, "jobq:{email}:queue", Pending("email"))
	assert.Equal(t, "jobq:{email}:delayed", Delayed("email"))
}

func TestKeys_For(t *testing.T) {
	q := For("video")
	assert.Equal(t, "video", q.Name)
	assert.Equal(t, "jobq:{video}:queue", q.Pending)
	assert.Equal(t, "jobq:{video}:delayed", q.Delayed)
}

func TestKeys_IDFromResult(t *testing.T) {
	assert.Equal(t, "abc", IDFromResult(Result("abc")))
	assert.Equal(t, "", IDFromResult("jobq:result:"))
	assert.Equal(t, "", IDFromResult(Job("abc")))
}
