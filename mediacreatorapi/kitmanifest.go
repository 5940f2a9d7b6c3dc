// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorapi

import (
	"fmt"
	"slices"

	"github.com/microsoft/roomsystems-media-tools/internal/sliceutils"
)

// KitManifest is the vendor-supplied deployment-kit metadata document. It is
// loaded once at process start and treated as read-only afterwards.
type KitManifest struct {
	// RootMenu names the node the menu resolution starts at.
	RootMenu string `yaml:"rootMenu" json:"rootMenu"`
	// MenuItems maps node names to nodes. Names are unique; insertion order
	// carries no meaning.
	MenuItems map[string]MenuItem `yaml:"menuItems" json:"menuItems"`
	// OsReleases maps OS major-version identifiers (e.g. "10", "11") to
	// their configuration blocks.
	OsReleases map[string]OsRelease `yaml:"osReleases" json:"osReleases"`
	// MinToolVersion is the minimum media-tool version this kit requires.
	// Empty means any version is accepted.
	MinToolVersion string `yaml:"minToolVersion" json:"minToolVersion,omitempty"`
}

func (m *KitManifest) IsValid() error {
	if m.RootMenu == "" {
		return fmt.Errorf("kit manifest must name a root menu node")
	}

	if len(m.MenuItems) == 0 {
		return fmt.Errorf("kit manifest must define menu nodes")
	}

	if _, defined := m.MenuItems[m.RootMenu]; !defined {
		return fmt.Errorf("root menu node (%s) is not defined", m.RootMenu)
	}

	for name, item := range m.MenuItems {
		err := item.IsValid()
		if err != nil {
			return fmt.Errorf("invalid menu node (%s):\n%w", name, err)
		}

		// Menu and redirect targets must resolve within the manifest. A
		// dangling name is a structural defect of the kit, caught at load
		// time rather than mid-run.
		if item.Action == MenuActionTypeMenu || item.Action == MenuActionTypeRedirect {
			for _, target := range item.Targets {
				if _, defined := m.MenuItems[target]; !defined {
					return fmt.Errorf("menu node (%s) references undefined node (%s)", name, target)
				}
			}
		}
	}

	if len(m.OsReleases) == 0 {
		return fmt.Errorf("kit manifest must define at least one OS release")
	}

	for id, release := range m.OsReleases {
		err := release.IsValid()
		if err != nil {
			return fmt.Errorf("invalid OS release (%s):\n%w", id, err)
		}
	}

	return nil
}

// OsReleaseIds returns the manifest's OS release identifiers, sorted.
func (m *KitManifest) OsReleaseIds() []string {
	ids := sliceutils.MapToSlice(m.OsReleases)
	slices.Sort(ids)
	return ids
}
