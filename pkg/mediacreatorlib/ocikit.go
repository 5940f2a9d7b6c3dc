// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/microsoft/roomsystems-media-tools/internal/file"
	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	ocifile "oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
)

const ociSupportedKitExtensionsStr = "*.msi, *.zip, *.cab, *.exe"

var OciSupportedKitExtensions = []string{".msi", ".zip", ".cab", ".exe"}

var (
	ErrOciKitMissingCacheDir = NewMediaCreatorError("Oci:MissingCacheDir", "download cache directory must be provided to pull kits from a registry")
	ErrOciKitCreateCacheDir  = NewMediaCreatorError("Oci:CreateCacheDir", "failed to create kit cache directory")
	ErrOciKitNotFound        = NewMediaCreatorError("Oci:KitNotFound", "OCI kit artifact not found")
	ErrOciKitSignatureCheck  = NewMediaCreatorError("Oci:SignatureCheckFailed", "OCI kit signature check failed")
	ErrOciKitOpenRepository  = NewMediaCreatorError("Oci:OpenRepository", "failed to open OCI repository")
)

// downloadOciKit pulls a deployment kit artifact from an OCI registry into the
// local cache directory and returns the path to the kit file inside it.
// buildDir must exist and be writable when signatureCheckOptions is provided.
func downloadOciKit(ctx context.Context, kitSource mediacreatorapi.OciKitSource, buildDir string,
	cacheDir string, signatureCheckOptions *ociSignatureCheckOptions,
) (string, error) {
	logger.Log.Debugf("Downloading OCI kit (%s)", kitSource.Uri)

	err := validateKitCacheDir(cacheDir)
	if err != nil {
		return "", err
	}

	remoteRepo, descriptor, err := openOciKit(ctx, kitSource, signatureCheckOptions, buildDir)
	if err != nil {
		return "", err
	}

	digestsDir := filepath.Join(cacheDir, "digests", string(descriptor.Digest.Algorithm()))

	err = os.MkdirAll(digestsDir, os.ModePerm)
	if err != nil {
		return "", fmt.Errorf("%w (%s):\n%w", ErrOciKitCreateCacheDir, digestsDir, err)
	}

	digestDir := filepath.Join(digestsDir, string(descriptor.Digest.Encoded()))

	// Check if the artifact has already been downloaded.
	digestDirExists, err := file.PathExists(digestDir)
	if err != nil {
		return "", fmt.Errorf("failed to check if digest cache directory exists (%s):\n%w", digestDir, err)
	}

	if digestDirExists {
		logger.Log.Debugf("Using cached OCI kit")
	} else {
		err = downloadOciToDirectory(ctx, remoteRepo, digestDir, descriptor)
		if err != nil {
			return "", err
		}
	}

	kitFilePath, err := findKitFileInDirectory(digestDir)
	if err != nil {
		return "", err
	}

	return kitFilePath, nil
}

func validateKitCacheDir(cacheDir string) error {
	if cacheDir == "" {
		return ErrOciKitMissingCacheDir
	}

	// Note: os.MkdirAll will error if the path is not a directory.
	err := os.MkdirAll(cacheDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w (%s):\n%w", ErrOciKitCreateCacheDir, cacheDir, err)
	}

	return nil
}

// openOciKit opens the remote OCI repository and resolves and optionally
// verifies the kit artifact.
func openOciKit(ctx context.Context, kitSource mediacreatorapi.OciKitSource,
	signatureCheckOptions *ociSignatureCheckOptions, buildDir string,
) (*remote.Repository, ociv1.Descriptor, error) {
	remoteRepo, err := remote.NewRepository(kitSource.Uri)
	if err != nil {
		return nil, ociv1.Descriptor{}, fmt.Errorf("%w (%s):\n%w", ErrOciKitOpenRepository, kitSource.Uri, err)
	}

	// remote.NewRepository() also parses the tag from the URL for us.
	tag := remoteRepo.Reference.Reference

	descriptor, err := oras.Resolve(ctx, remoteRepo, tag, oras.DefaultResolveOptions)
	if err != nil {
		return nil, ociv1.Descriptor{}, fmt.Errorf("%w:\n%w", ErrOciKitNotFound, err)
	}

	if signatureCheckOptions != nil {
		err = checkNotationSignature(ctx, buildDir, remoteRepo, descriptor, *signatureCheckOptions)
		if err != nil {
			return nil, ociv1.Descriptor{}, fmt.Errorf("%w:\n%w", ErrOciKitSignatureCheck, err)
		}
	}

	return remoteRepo, descriptor, nil
}

func downloadOciToDirectory(ctx context.Context, sourceRepo content.ReadOnlyStorage, destinationDir string,
	root ociv1.Descriptor,
) error {
	parentDir := filepath.Dir(destinationDir)
	dirName := filepath.Base(destinationDir)

	stagingDirPath, err := os.MkdirTemp(parentDir, dirName+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create OCI download staging directory (%s):\n%w", stagingDirPath, err)
	}
	defer os.RemoveAll(stagingDirPath)

	fs, err := ocifile.New(stagingDirPath)
	if err != nil {
		return fmt.Errorf("failed to initialize OCI download staging directory (%s):\n%w", stagingDirPath, err)
	}
	defer fs.Close()

	copyGraphOptions := oras.DefaultCopyGraphOptions
	copyGraphOptions.PreCopy = func(ctx context.Context, desc ociv1.Descriptor) error {
		title, hasTitle := desc.Annotations[ociv1.AnnotationTitle]
		if hasTitle {
			logger.Log.Debugf("Downloading OCI file (%s)", title)
		}

		return nil
	}

	err = oras.CopyGraph(ctx, sourceRepo, fs, root, copyGraphOptions)
	if err != nil {
		return fmt.Errorf("failed to stage OCI kit artifact:\n%w", err)
	}

	err = fs.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize OCI kit download:\n%w", err)
	}

	err = os.Rename(stagingDirPath, destinationDir)
	if err != nil {
		return fmt.Errorf("failed to rename download directory (old='%s', new='%s'):\n%w", stagingDirPath,
			destinationDir, err)
	}

	return nil
}

func findKitFileInDirectory(dirPath string) (string, error) {
	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		return "", fmt.Errorf("failed to read OCI download directory:\n%w", err)
	}

	kitFilePaths := []string(nil)
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}

		fileExt := filepath.Ext(dirEntry.Name())
		if slices.Contains(OciSupportedKitExtensions, fileExt) {
			kitFilePaths = append(kitFilePaths, filepath.Join(dirPath, dirEntry.Name()))
		}
	}

	if len(kitFilePaths) <= 0 {
		return "", fmt.Errorf("no kit files (%s) found in OCI artifact", ociSupportedKitExtensionsStr)
	}

	if len(kitFilePaths) > 1 {
		err = fmt.Errorf("too many kit files (%s) found in OCI artifact (count=%d)", ociSupportedKitExtensionsStr,
			len(kitFilePaths))
		return "", err
	}

	kitFilePath := kitFilePaths[0]
	return kitFilePath, nil
}
