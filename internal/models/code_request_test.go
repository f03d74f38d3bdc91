package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("level5")
	require.NoError(t, err)
	assert.Equal(t, 5, level)

	level, err = ParseLevel("level0")
	require.NoError(t, err)
	assert.Equal(t, 0, level)

	_, err = ParseLevel("pallet")
	assert.Error(t, err)
	_, err = ParseLevel("level")
	assert.Error(t, err)
}

func TestStatusOnlyAdvancesForward(t *testing.T) {
	assert.True(t, StatusRequested.CanAdvanceTo(StatusInProgress))
	assert.True(t, StatusInProgress.CanAdvanceTo(StatusCompleted))
	assert.True(t, StatusRequested.CanAdvanceTo(StatusCompleted))

	assert.False(t, StatusCompleted.CanAdvanceTo(StatusInProgress))
	assert.False(t, StatusInProgress.CanAdvanceTo(StatusRequested))
	assert.False(t, StatusInProgress.CanAdvanceTo(StatusInProgress))
	assert.False(t, RequestStatus("unknown").CanAdvanceTo(StatusCompleted))
}

func TestIsContainerLevel(t *testing.T) {
	assert.True(t, IsContainerLevel(5))
	assert.True(t, IsContainerLevel(6))
	assert.False(t, IsContainerLevel(0))
	assert.False(t, IsContainerLevel(4))
}

func TestPredecessors(t *testing.T) {
	assert.Equal(t, []RequestStatus{StatusRequested}, StatusInProgress.Predecessors())
	assert.Equal(t, []RequestStatus{StatusRequested, StatusInProgress}, StatusCompleted.Predecessors())
	assert.Empty(t, StatusRequested.Predecessors())
}
