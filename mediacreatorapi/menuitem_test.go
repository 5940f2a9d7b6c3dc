// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMenuActionTypeIsValid(t *testing.T) {
	action := MenuActionTypeDownload
	err := action.IsValid()
	assert.NoError(t, err)
}

func TestMenuActionTypeIsValidInvalid(t *testing.T) {
	action := MenuActionType("prompt")
	err := action.IsValid()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "invalid menu action type (prompt)")
}

func TestMenuActionTypeUnmarshalYaml(t *testing.T) {
	item := MenuItem{}
	err := UnmarshalAndValidateYaml([]byte("action: redirect\ntargets: [os-version]\n"), &item)
	assert.NoError(t, err)
	assert.Equal(t, MenuActionTypeRedirect, item.Action)
}

func TestMenuActionTypeUnmarshalYamlInvalidValue(t *testing.T) {
	item := MenuItem{}
	err := UnmarshalAndValidateYaml([]byte("action: prompt\n"), &item)
	assert.Error(t, err)
	assert.ErrorContains(t, err, "failed to parse menu action type: prompt")
	assert.ErrorContains(t, err, "download, menu, redirect, warn")
}

func TestMenuItemDownloadIsValid(t *testing.T) {
	item := MenuItem{
		Action:  MenuActionTypeDownload,
		Targets: []string{"https://example.com/kits/room-kit-4.12.msi"},
	}

	err := item.IsValid()
	assert.NoError(t, err)
}

func TestMenuItemDownloadIsValidNoTargets(t *testing.T) {
	item := MenuItem{
		Action: MenuActionTypeDownload,
	}

	err := item.IsValid()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "at least one target URL")
}

func TestMenuItemDownloadIsValidBadUrl(t *testing.T) {
	item := MenuItem{
		Action:  MenuActionTypeDownload,
		Targets: []string{"not a url"},
	}

	err := item.IsValid()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "invalid target URL")
}

func TestMenuItemRedirectIsValidMultipleTargets(t *testing.T) {
	item := MenuItem{
		Action:  MenuActionTypeRedirect,
		Targets: []string{"a", "b"},
	}

	err := item.IsValid()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "exactly one target node")
}

func TestMenuItemWarnIsValid(t *testing.T) {
	item := MenuItem{
		Action:  MenuActionTypeWarn,
		Message: "This OS version is no longer supported.",
	}

	err := item.IsValid()
	assert.NoError(t, err)
}

func TestMenuItemWarnIsValidMissingMessage(t *testing.T) {
	item := MenuItem{
		Action: MenuActionTypeWarn,
	}

	err := item.IsValid()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "must have a message")
}
