// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	v, err := Parse("4.12.92.0")
	assert.NoError(t, err)
	assert.Equal(t, Version{4, 12, 92, 0}, v)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("4.x.0")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestCmpUnevenLengths(t *testing.T) {
	assert.Equal(t, 0, Version{1}.Cmp(Version{1, 0}))
	assert.Equal(t, 1, Version{2}.Cmp(Version{1, 9}))
	assert.Equal(t, -1, Version{1, 9}.Cmp(Version{2}))
}

func TestGe(t *testing.T) {
	assert.True(t, Version{2}.Ge(Version{1}))
	assert.True(t, Version{2}.Ge(Version{2}))
	assert.False(t, Version{1, 9}.Ge(Version{2}))
}

func TestLt(t *testing.T) {
	assert.True(t, Version{1}.Lt(Version{2}))
	assert.False(t, Version{2}.Lt(Version{2}))
}

func TestString(t *testing.T) {
	assert.Equal(t, "", Version{}.String())
	assert.Equal(t, "1.2.3", Version{1, 2, 3}.String())
}
