// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"fmt"

	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
)

var (
	ErrInvalidOptions = NewMediaCreatorError("Options:Invalid", "invalid media creator options")
)

type MediaCreatorOptions struct {
	// BuildDir holds scratch state for one run.
	BuildDir string

	// KitPath points at a local deployment kit: either an already-extracted
	// kit directory or a kit file. Mutually exclusive with KitSource.
	KitPath string
	// KitSource pulls the deployment kit from a remote location.
	KitSource *mediacreatorapi.KitSource

	// BaseMediaDir is the root of the operator-supplied installation media
	// tree (a mounted ISO or an extracted copy).
	BaseMediaDir string
	// BaseImageFile overrides the install image checked against the kit's
	// pinned identity. Empty means <BaseMediaDir>/sources/install.wim.
	BaseImageFile string

	// MediaRoot is the root of the target removable media (e.g. "E:\\").
	MediaRoot string
	// FormatDisk, when set, wipes and formats the given disk number before
	// writing. Nil means the media is already formatted.
	FormatDisk *int

	ProductKey       string
	LegacyBoot       bool
	RebootAfterSetup bool

	CacheDir                string
	ProxyUrl                string
	SignatureTool           string
	SettingsFile            string
	SupportBundleFile       string
	DisableDefaultSelection bool
}

func (o *MediaCreatorOptions) IsValid() error {
	if o.BuildDir == "" {
		return fmt.Errorf("%w: 'BuildDir' must be specified", ErrInvalidOptions)
	}

	if o.KitPath == "" && o.KitSource == nil {
		return fmt.Errorf("%w: either 'KitPath' or 'KitSource' must be specified", ErrInvalidOptions)
	}

	if o.KitPath != "" && o.KitSource != nil {
		return fmt.Errorf("%w: 'KitPath' and 'KitSource' are mutually exclusive", ErrInvalidOptions)
	}

	if o.KitSource != nil {
		err := o.KitSource.IsValid()
		if err != nil {
			return fmt.Errorf("%w: invalid 'KitSource':\n%w", ErrInvalidOptions, err)
		}
	}

	if o.BaseMediaDir == "" {
		return fmt.Errorf("%w: 'BaseMediaDir' must be specified", ErrInvalidOptions)
	}

	if o.MediaRoot == "" {
		return fmt.Errorf("%w: 'MediaRoot' must be specified", ErrInvalidOptions)
	}

	if o.FormatDisk != nil && *o.FormatDisk < 0 {
		return fmt.Errorf("%w: 'FormatDisk' must not be negative", ErrInvalidOptions)
	}

	return nil
}
