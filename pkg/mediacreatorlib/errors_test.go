// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaCreatorErrorMessage(t *testing.T) {
	err := NewMediaCreatorError("Test:Thing", "something went wrong")
	assert.Equal(t, "Test:Thing", err.Name())
	assert.Equal(t, "something went wrong", err.Error())
}

func TestGetAllMediaCreatorErrorsCollectsWrappedChain(t *testing.T) {
	inner := NewMediaCreatorError("Inner:Cause", "inner cause")
	outer := NewMediaCreatorError("Outer:Operation", "outer operation")

	err := fmt.Errorf("%w:\n%w", outer, fmt.Errorf("context:\n%w", inner))

	named := GetAllMediaCreatorErrors(err)
	require.Len(t, named, 2)
	assert.Equal(t, "Outer:Operation", named[0].Name())
	assert.Equal(t, "Inner:Cause", named[1].Name())
}

func TestGetAllMediaCreatorErrorsNoNamedErrors(t *testing.T) {
	named := GetAllMediaCreatorErrors(fmt.Errorf("plain error"))
	assert.Empty(t, named)
}
