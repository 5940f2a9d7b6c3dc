// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorapi

import (
	"fmt"
	"strings"

	"github.com/microsoft/roomsystems-media-tools/internal/sliceutils"
)

// MenuActionType selects how a menu node is processed.
type MenuActionType string

const (
	// MenuActionTypeDownload fetches and verifies each target URL. Terminal.
	MenuActionTypeDownload MenuActionType = "download"
	// MenuActionTypeMenu prompts the operator to choose one of the target nodes.
	MenuActionTypeMenu MenuActionType = "menu"
	// MenuActionTypeRedirect silently continues at the single target node.
	MenuActionTypeRedirect MenuActionType = "redirect"
	// MenuActionTypeWarn shows a message and stops. Terminal.
	MenuActionTypeWarn MenuActionType = "warn"
)

var supportedMenuActionTypes = []string{
	string(MenuActionTypeDownload),
	string(MenuActionTypeMenu),
	string(MenuActionTypeRedirect),
	string(MenuActionTypeWarn),
}

func (at *MenuActionType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var val string
	if err := unmarshal(&val); err != nil {
		return err
	}

	if sliceutils.ContainsValue(SupportedMenuActionTypes(), val) {
		*at = MenuActionType(val)
		return nil
	}

	return fmt.Errorf("failed to parse menu action type: %s. Supported types: %s",
		val, strings.Join(SupportedMenuActionTypes(), ", "))
}

func (at *MenuActionType) IsValid() error {
	if !sliceutils.ContainsValue(SupportedMenuActionTypes(), string(*at)) {
		return fmt.Errorf("invalid menu action type (%s)", *at)
	}

	return nil
}

// SupportedMenuActionTypes returns all valid menu action types.
func SupportedMenuActionTypes() []string {
	return supportedMenuActionTypes
}
