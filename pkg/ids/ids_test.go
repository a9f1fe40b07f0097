package ids

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewTemp(t *testing.T) {
	a, b := NewTemp(), NewTemp()
	assert.NotEqual(t, a, b)
	assert.True(t, IsTemp(a))
	assert.Len(t, a, len(TempPrefix)+26)
	assert.False(t, IsTemp(uuid.NewString()))
}

func TestNewULID_Sortable(t *testing.T) {
	now := time.Now()
	first := NewULID(now)
	second := NewULID(now)
	assert.Less(t, first, second)
}
