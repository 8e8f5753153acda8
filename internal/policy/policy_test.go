package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskapi/internal/policy"
)

func TestCanMutateTask(t *testing.T) {
	assert.True(t, policy.CanMutateTask(7, 7))
	assert.False(t, policy.CanMutateTask(7, 8))
	assert.False(t, policy.CanMutateTask(8, 7))
}
