package filters

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessedSetBasics(t *testing.T) {
	set := NewProcessedSet()

	assert.False(t, set.Contains("a"))
	set.Add("a")
	assert.True(t, set.Contains("a"))
	assert.Equal(t, 1, set.Len())

	set.Add("a")
	assert.Equal(t, 1, set.Len())
}

func TestProcessedSetEviction(t *testing.T) {
	set := NewProcessedSet()

	for i := 0; i < processedCap+1; i++ {
		set.Add(fmt.Sprintf("id-%d", i))
	}

	assert.Equal(t, processedKeep, set.Len())
	assert.False(t, set.Contains("id-0"), "oldest entries should be evicted")
	assert.True(t, set.Contains(fmt.Sprintf("id-%d", processedCap)), "newest entry survives")
	assert.True(t, set.Contains(fmt.Sprintf("id-%d", processedCap-processedKeep+1)))
	assert.False(t, set.Contains(fmt.Sprintf("id-%d", processedCap-processedKeep)))
}
