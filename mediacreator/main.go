// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Tool to create bootable installation media for room console appliances.

package main

import (
	"context"
	"log"
	"os"

	"github.com/microsoft/roomsystems-media-tools/internal/envfile"
	"github.com/microsoft/roomsystems-media-tools/internal/exe"
	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/microsoft/roomsystems-media-tools/internal/telemetry"
	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
	"github.com/microsoft/roomsystems-media-tools/pkg/mediacreatorlib"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("mediacreator", "Creates bootable installation media for room console appliances")

	buildDir                = app.Flag("build-dir", "Directory to run the build out of.").Required().String()
	kitPath                 = app.Flag("kit-path", "Path of a local deployment kit file or extracted kit directory.").String()
	kitUrl                  = app.Flag("kit-url", "URL to download the deployment kit from.").String()
	kitOciUri               = app.Flag("kit-oci-uri", "OCI artifact reference to pull the deployment kit from.").String()
	kitTrustCertificate     = app.Flag("kit-trust-certificate", "Path of the X509 certificate OCI kit signatures are verified against.").String()
	baseMediaDir            = app.Flag("base-media-dir", "Root of the operator-supplied installation media tree.").Required().String()
	baseImageFile           = app.Flag("base-image-file", "Path of the install image to check against the kit's pinned identity. Defaults to sources\\install.wim under the base media.").String()
	mediaRoot               = app.Flag("media-root", "Root of the target removable media (e.g. 'E:\\').").Required().String()
	formatDisk              = app.Flag("format-disk", "Disk number to wipe and format before writing. Omit if the media is already formatted.").Default("-1").Int()
	productKey              = app.Flag("product-key", "License key to inject into the answer file.").String()
	legacyBoot              = app.Flag("legacy-boot", "Prepare the media for legacy (BIOS) boot instead of UEFI.").Bool()
	rebootAfterSetup        = app.Flag("reboot-after-setup", "Reboot instead of shutting down when unattended setup completes.").Bool()
	cacheDir                = app.Flag("cache-dir", "Directory downloads are cached in.").String()
	proxyUrl                = app.Flag("proxy-url", "HTTP proxy URL for downloads.").String()
	settingsFile            = app.Flag("settings-file", "Path of the operator settings file.").String()
	supportBundleFile       = app.Flag("support-bundle-file", "Write a diagnostic archive of the run to this path.").String()
	disableDefaultSelection = app.Flag("disable-default-selection", "Require an explicit choice at every menu instead of defaulting to the first entry.").Bool()
	disableTelemetry        = app.Flag("disable-telemetry", "Disable the telemetry exporter.").Bool()
	logFlags                = exe.SetupLogFlags(app)
)

func main() {
	var err error

	app.Version(mediacreatorlib.ToolVersion)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger.InitBestEffort(logFlags)

	ctx := context.Background()

	err = telemetry.InitTelemetry(telemetryDisabled(*disableTelemetry, *settingsFile), mediacreatorlib.ToolVersion)
	if err != nil {
		logger.Log.Warnf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownErr := telemetry.ShutdownTelemetry(ctx)
		if shutdownErr != nil {
			logger.Log.Warnf("Failed to shut down telemetry: %v", shutdownErr)
		}
	}()

	err = createMedia(ctx)
	if err != nil {
		log.Fatalf("media creation failed:\n%v", err)
	}
}

func createMedia(ctx context.Context) error {
	options := mediacreatorlib.MediaCreatorOptions{
		BuildDir:                *buildDir,
		KitPath:                 *kitPath,
		BaseMediaDir:            *baseMediaDir,
		BaseImageFile:           *baseImageFile,
		MediaRoot:               *mediaRoot,
		ProductKey:              *productKey,
		LegacyBoot:              *legacyBoot,
		RebootAfterSetup:        *rebootAfterSetup,
		CacheDir:                *cacheDir,
		ProxyUrl:                *proxyUrl,
		SettingsFile:            *settingsFile,
		SupportBundleFile:       *supportBundleFile,
		DisableDefaultSelection: *disableDefaultSelection,
	}

	if *kitUrl != "" || *kitOciUri != "" {
		kitSource := &mediacreatorapi.KitSource{
			Url: *kitUrl,
		}
		if *kitOciUri != "" {
			kitSource.Oci = &mediacreatorapi.OciKitSource{
				Uri:              *kitOciUri,
				TrustCertificate: *kitTrustCertificate,
			}
		}
		options.KitSource = kitSource
	}

	if *formatDisk >= 0 {
		options.FormatDisk = formatDisk
	}

	return mediacreatorlib.CreateMedia(ctx, options)
}

// telemetryDisabled merges the command line opt-out with the settings file's
// so the exporter is never created for an opted-out operator. The settings
// file is consulted here because the exporter must be configured before the
// media creation run opens its span.
func telemetryDisabled(disabledFlag bool, settingsFile string) bool {
	if disabledFlag {
		return true
	}

	settings, err := envfile.Load(settingsFile)
	if err != nil {
		logger.Log.Warnf("Failed to load settings file: %v", err)
		return false
	}

	return settings.DisableTelemetry
}
