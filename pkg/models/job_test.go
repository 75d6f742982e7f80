package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRank_Ordering(t *testing.T) {
	order := []string{
		JobStatusQueued,
		JobStatusResolvingChannel,
		JobStatusChannelResolved,
		JobStatusFetchingVideos,
		JobStatusVideosFetched,
	}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, StatusRank(order[i]), StatusRank(order[i-1]), "%s must outrank %s", order[i], order[i-1])
	}
	for _, s := range order[:len(order)-1] {
		assert.Greater(t, StatusRank(JobStatusFailed), StatusRank(s), "failed must be reachable from %s", s)
	}
}

func TestStatusRank_Unknown(t *testing.T) {
	assert.Equal(t, -1, StatusRank("banana"))
	assert.False(t, ValidStatus("banana"))
	assert.True(t, ValidStatus(JobStatusQueued))
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, TerminalStatus(JobStatusVideosFetched))
	assert.True(t, TerminalStatus(JobStatusFailed))
	assert.False(t, TerminalStatus(JobStatusQueued))
	assert.False(t, TerminalStatus(JobStatusFetchingVideos))
}
