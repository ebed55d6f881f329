package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/homecare-labs/caremem-go/pkg/core"
)

func TestMemoryErrorFormat(t *testing.T) {
	err := &core.MemoryError{
		Op:  "AddMemory",
		Err: core.ErrEmbeddingFailed,
	}

	assert.Equal(t, "caremem: AddMemory: embedding generation failed", err.Error())
}

func TestMemoryErrorUnwrap(t *testing.T) {
	err := core.NewMemoryError("SearchMemory", core.ErrInvalidInput)

	assert.True(t, errors.Is(err, core.ErrInvalidInput))
	assert.False(t, errors.Is(err, core.ErrNotFound))

	var memErr *core.MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, "SearchMemory", memErr.Op)
}

func TestMemoryErrorUnwrapThroughChain(t *testing.T) {
	inner := fmt.Errorf("%w: limit must be between 1 and 10", core.ErrInvalidInput)
	err := core.NewMemoryError("SearchMemory", inner)

	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestNewMemoryErrorNil(t *testing.T) {
	assert.Nil(t, core.NewMemoryError("AddMemory", nil))
}
