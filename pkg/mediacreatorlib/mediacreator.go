// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/microsoft/roomsystems-media-tools/internal/envfile"
	"github.com/microsoft/roomsystems-media-tools/internal/file"
	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/microsoft/roomsystems-media-tools/internal/mirror"
	"github.com/microsoft/roomsystems-media-tools/internal/randomization"
	"github.com/microsoft/roomsystems-media-tools/internal/sliceutils"
	"github.com/microsoft/roomsystems-media-tools/internal/tarutils"
	"github.com/microsoft/roomsystems-media-tools/internal/version"
	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	OtelTracerName = "mediacreatorlib"

	kitManifestFileName = "kit.yaml"
	unattendFileName    = "unattend.xml"
	installImageRelPath = "sources/install.wim"
	updatesDirName      = "updates"
	extractedKitDirName = "kit"
	mediaLabelPrefix    = "RSMEDIA"

	// Menu variable names consumed by the orchestrator after resolution.
	VarOsRelease  = "os-release"
	VarLegacyBoot = "legacy-boot"
)

// ToolVersion specifies the version of the media creation tool.
// The value of this string is inserted during compilation via a linker flag.
var ToolVersion = ""

var (
	ErrCreateBuildDir   = NewMediaCreatorError("MediaCreator:CreateBuildDir", "failed to create build directory")
	ErrKitAcquire       = NewMediaCreatorError("MediaCreator:KitAcquire", "failed to acquire deployment kit")
	ErrKitManifest      = NewMediaCreatorError("MediaCreator:KitManifest", "failed to load kit manifest")
	ErrToolTooOld       = NewMediaCreatorError("MediaCreator:ToolTooOld", "deployment kit requires a newer tool version")
	ErrOsReleaseUnknown = NewMediaCreatorError("MediaCreator:OsReleaseUnknown", "menu selection does not identify a known OS release")
	ErrBaseMediaMissing = NewMediaCreatorError("MediaCreator:BaseMediaMissing", "base media directory does not exist")
	ErrMediaSync        = NewMediaCreatorError("MediaCreator:MediaSync", "failed to copy files onto media")
	ErrSupportBundle    = NewMediaCreatorError("MediaCreator:SupportBundle", "failed to create support bundle")
	ErrUnattendMutate   = NewMediaCreatorError("MediaCreator:Unattend", "failed to prepare answer file")
)

// CreateMedia runs one full media-creation pass: acquire the deployment kit,
// resolve the operator's menu selections into downloaded assets, verify the
// base install image, write everything onto the target media, and rewrite the
// answer file.
func CreateMedia(ctx context.Context, options MediaCreatorOptions) (err error) {
	ctx, span := otel.GetTracerProvider().Tracer(OtelTracerName).Start(ctx, "create_media")
	span.SetAttributes(
		attribute.Bool("legacy_boot", options.LegacyBoot),
	)
	defer func() {
		if err != nil {
			errorNames := []string{"Unset"} // default
			if namedErrors := GetAllMediaCreatorErrors(err); len(namedErrors) > 0 {
				errorNames = make([]string, len(namedErrors))
				for i, namedError := range namedErrors {
					errorNames[i] = namedError.Name()
				}
			}
			span.SetAttributes(
				attribute.StringSlice("errors.name", errorNames),
			)
			span.SetStatus(codes.Error, errorNames[len(errorNames)-1])
		}
		span.End()
	}()

	err = options.IsValid()
	if err != nil {
		return err
	}

	settings, err := envfile.Load(options.SettingsFile)
	if err != nil {
		return err
	}
	applySettings(&options, settings)

	err = os.MkdirAll(options.BuildDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w (%s):\n%w", ErrCreateBuildDir, options.BuildDir, err)
	}

	baseMediaExists, err := file.DirExists(options.BaseMediaDir)
	if err != nil {
		return err
	}
	if !baseMediaExists {
		return fmt.Errorf("%w (%s)", ErrBaseMediaMissing, options.BaseMediaDir)
	}

	cacheDir := options.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(options.BuildDir, "cache")
	}

	fetcher, err := NewAssetFetcher(cacheDir, options.ProxyUrl, NewSignatureVerifier(options.SignatureTool))
	if err != nil {
		return err
	}

	kitDir, err := acquireKit(ctx, options, fetcher, cacheDir)
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrKitAcquire, err)
	}

	manifest := &mediacreatorapi.KitManifest{}
	err = mediacreatorapi.UnmarshalAndValidateYamlFile(filepath.Join(kitDir, kitManifestFileName), manifest)
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrKitManifest, err)
	}

	err = checkToolVersion(manifest.MinToolVersion)
	if err != nil {
		return err
	}

	vars := NewMenuVariables()
	interpreter := NewMenuInterpreter(manifest, &ConsolePrompter{In: os.Stdin, Out: os.Stdout},
		func(url string) (string, error) {
			return fetcher.Fetch(url, "")
		})
	interpreter.DisableDefaultSelection = options.DisableDefaultSelection

	menuAssets, err := interpreter.Resolve(manifest.RootMenu, vars)
	if err != nil {
		return err
	}

	release, err := selectedOsRelease(manifest, vars)
	if err != nil {
		return err
	}
	logger.Log.Infof("Building media for (%s)", release.Label)

	baseImageFile := options.BaseImageFile
	if baseImageFile == "" {
		baseImageFile = filepath.FromSlash(installImageRelPath)
	}
	baseImageFile = file.GetAbsPathWithBase(options.BaseMediaDir, baseImageFile)

	err = CheckBaseImageIdentity(baseImageFile, release.BaseImage)
	if err != nil {
		return err
	}

	requiredUpdates, err := fetcher.FetchRequiredUpdates(*release)
	if err != nil {
		return err
	}

	legacyBoot := options.LegacyBoot || vars.GetBool(VarLegacyBoot)
	label := fmt.Sprintf("%s-%s", mediaLabelPrefix, randomization.CreateVolumeSerial())

	if options.FormatDisk != nil {
		err = formatRemovableMedia(*options.FormatDisk, driveLetterOf(options.MediaRoot), label)
		if err != nil {
			return err
		}
	} else {
		err = setVolumeLabel(driveLetterOf(options.MediaRoot), label)
		if err != nil {
			return err
		}
	}

	err = writeMediaContent(options, kitDir, menuAssets, requiredUpdates)
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrMediaSync, err)
	}

	installImage := filepath.Join(options.MediaRoot, filepath.FromSlash(installImageRelPath))

	err = addUpdatesToImage(installImage, sortedValues(requiredUpdates), options.BuildDir)
	if err != nil {
		return err
	}

	err = splitInstallImageIfNeeded(installImage)
	if err != nil {
		return err
	}

	err = prepareAnswerFile(options, kitDir, legacyBoot)
	if err != nil {
		return fmt.Errorf("%w:\n%w", ErrUnattendMutate, err)
	}

	if options.SupportBundleFile != "" {
		err = tarutils.CreateTarGzArchive(options.BuildDir, options.SupportBundleFile)
		if err != nil {
			return fmt.Errorf("%w:\n%w", ErrSupportBundle, err)
		}
	}

	err = cleanupBuildDir(options.BuildDir)
	if err != nil {
		return err
	}

	logger.Log.Infof("Success!")

	return nil
}

// removeTree deletes a directory tree. Tests replace this to observe cleanup
// without the mirror tool present.
var removeTree = mirror.RemoveTree

// cleanupBuildDir drops the extracted kit tree once the media is written. The
// extracted tree can nest past the host's path-length limit, hence the mirror
// based delete. The download cache is kept for later runs.
func cleanupBuildDir(buildDir string) error {
	err := removeTree(filepath.Join(buildDir, extractedKitDirName))
	if err != nil {
		return fmt.Errorf("failed to clean up build directory (%s):\n%w", buildDir, err)
	}

	return nil
}

func applySettings(options *MediaCreatorOptions, settings *envfile.Settings) {
	if options.CacheDir == "" {
		options.CacheDir = settings.CacheDir
	}
	if options.ProxyUrl == "" {
		options.ProxyUrl = settings.ProxyUrl
	}
	if options.SignatureTool == "" {
		options.SignatureTool = settings.SignatureTool
	}
}

// acquireKit materializes the deployment kit as a local directory, whatever
// form the options specify it in.
func acquireKit(ctx context.Context, options MediaCreatorOptions, fetcher *AssetFetcher, cacheDir string,
) (string, error) {
	kitFilePath := ""

	switch {
	case options.KitPath != "":
		isDir, err := file.DirExists(options.KitPath)
		if err != nil {
			return "", err
		}
		if isDir {
			return options.KitPath, nil
		}
		kitFilePath = options.KitPath

	case options.KitSource.Url != "":
		localPath, err := fetcher.Fetch(options.KitSource.Url, "")
		if err != nil {
			return "", err
		}
		kitFilePath = localPath

	default:
		oci := options.KitSource.Oci

		signatureCheckOptions := (*ociSignatureCheckOptions)(nil)
		if oci.TrustCertificate != "" {
			signatureCheckOptions = newOciSignatureCheckOptions(oci.TrustCertificate)
		}

		localPath, err := downloadOciKit(ctx, *oci, options.BuildDir, cacheDir, signatureCheckOptions)
		if err != nil {
			return "", err
		}
		kitFilePath = localPath
	}

	kitDir := filepath.Join(options.BuildDir, extractedKitDirName)
	err := extractKit(kitFilePath, kitDir)
	if err != nil {
		return "", err
	}

	return kitDir, nil
}

func checkToolVersion(minToolVersion string) error {
	if minToolVersion == "" || ToolVersion == "" {
		// Development builds carry no version and accept any kit.
		return nil
	}

	minVersion, err := version.Parse(minToolVersion)
	if err != nil {
		return fmt.Errorf("%w: invalid minimum tool version (%s):\n%w", ErrKitManifest, minToolVersion, err)
	}

	toolVersion, err := version.Parse(ToolVersion)
	if err != nil {
		return fmt.Errorf("failed to parse tool version (%s):\n%w", ToolVersion, err)
	}

	if toolVersion.Lt(minVersion) {
		return fmt.Errorf("%w: kit requires version %s, this tool is version %s",
			ErrToolTooOld, minVersion, toolVersion)
	}

	return nil
}

// selectedOsRelease maps the menu run's os-release variable onto the
// manifest's release table.
func selectedOsRelease(manifest *mediacreatorapi.KitManifest, vars *MenuVariables) (*mediacreatorapi.OsRelease, error) {
	releaseId, set := vars.Get(VarOsRelease)
	if !set {
		return nil, fmt.Errorf("%w: menu did not set the '%s' variable (known releases: %s)",
			ErrOsReleaseUnknown, VarOsRelease, strings.Join(manifest.OsReleaseIds(), ", "))
	}

	release, defined := manifest.OsReleases[releaseId]
	if !defined {
		return nil, fmt.Errorf("%w (%s) (known releases: %s)",
			ErrOsReleaseUnknown, releaseId, strings.Join(manifest.OsReleaseIds(), ", "))
	}

	return &release, nil
}

// writeMediaContent lays the base installation tree, the kit payload, and the
// downloaded assets onto the target media.
func writeMediaContent(options MediaCreatorOptions, kitDir string, menuAssets []string,
	requiredUpdates map[string]string,
) error {
	// The base tree is mirrored: the media becomes an exact copy.
	err := mirror.Sync(options.BaseMediaDir, options.MediaRoot, mirror.AcceptDefault)
	if err != nil {
		return err
	}

	// Kit payload directories are copied additively on top. Loose kit files
	// (manifest, answer file) are handled individually and stay off the media
	// unless placed there on purpose.
	err = mirror.SyncAllSubdirectories(kitDir, options.MediaRoot, mirror.AcceptDefault)
	if err != nil {
		return err
	}

	updatesDir := filepath.Join(options.MediaRoot, updatesDirName)
	for _, assetPath := range menuAssets {
		err = copyToDir(assetPath, updatesDir)
		if err != nil {
			return err
		}
	}
	for _, updatePath := range sortedValues(requiredUpdates) {
		err = copyToDir(updatePath, updatesDir)
		if err != nil {
			return err
		}
	}

	return nil
}

// prepareAnswerFile stages the kit's answer file onto the media and applies
// the run's mutations to the staged copy.
func prepareAnswerFile(options MediaCreatorOptions, kitDir string, legacyBoot bool) error {
	kitUnattend := filepath.Join(kitDir, unattendFileName)
	mediaUnattend := filepath.Join(options.MediaRoot, unattendFileName)

	err := file.NewFileCopyBuilder(kitUnattend, mediaUnattend).Run()
	if err != nil {
		return err
	}

	unattend, err := LoadUnattend(mediaUnattend)
	if err != nil {
		return err
	}

	err = unattend.EnsureCompatible()
	if err != nil {
		return err
	}

	if options.ProductKey != "" {
		err = unattend.InjectProductKey(options.ProductKey)
		if err != nil {
			return err
		}
	}

	if legacyBoot {
		err = unattend.ConvertToLegacyBoot()
		if err != nil {
			return err
		}
	}

	err = unattend.SetPostInstallAction(!options.RebootAfterSetup)
	if err != nil {
		return err
	}

	return unattend.Save()
}

func copyToDir(srcPath string, destDir string) error {
	destPath := filepath.Join(destDir, filepath.Base(srcPath))
	return file.NewFileCopyBuilder(srcPath, destPath).Run()
}

func sortedValues(m map[string]string) []string {
	keys := sliceutils.MapToSlice(m)
	slices.Sort(keys)

	values := make([]string, 0, len(m))
	for _, key := range keys {
		values = append(values, m[key])
	}
	return values
}

func driveLetterOf(mediaRoot string) string {
	return strings.TrimRight(mediaRoot, "\\/")
}
