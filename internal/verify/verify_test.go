package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunWithNoPathsReturnsNil(t *testing.T) {
	out, err := Run(context.Background(), "anything", nil, Options{CaseSensitive: true})
	assert.NoError(t, err)
	assert.Nil(t, out)
}
