// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/microsoft/roomsystems-media-tools/internal/randomization"
	"github.com/microsoft/roomsystems-media-tools/internal/shell"
)

const (
	diskpartTool = "diskpart"
	dismTool     = "dism"
	msiexecTool  = "msiexec"
	expandTool   = "expand"
	tarTool      = "tar"
	labelTool    = "label"

	// FAT32 cannot hold files at or above 4 GiB, so the install image is
	// split into spanned .swm files when it exceeds this.
	fat32MaxFileSize = 4*1024*1024*1024 - 1
)

var (
	ErrMediaFormat    = NewMediaCreatorError("Media:Format", "failed to format removable media")
	ErrMediaLabel     = NewMediaCreatorError("Media:Label", "failed to label removable media")
	ErrKitExtract     = NewMediaCreatorError("Media:KitExtract", "failed to extract deployment kit")
	ErrImageService   = NewMediaCreatorError("Media:ImageService", "failed to service install image")
	ErrImageSplit     = NewMediaCreatorError("Media:ImageSplit", "failed to split install image")
	ErrUnsupportedKit = NewMediaCreatorError("Media:UnsupportedKit", "unsupported deployment kit file type")
)

// formatRemovableMedia partitions and formats the target disk as a single
// FAT32 volume and assigns it the given drive letter. This wipes the disk.
func formatRemovableMedia(diskNumber int, driveLetter string, label string) error {
	script := strings.Join([]string{
		fmt.Sprintf("select disk %d", diskNumber),
		"clean",
		"create partition primary",
		"active",
		fmt.Sprintf("format fs=fat32 quick label=\"%s\"", label),
		fmt.Sprintf("assign letter=%s", strings.TrimSuffix(driveLetter, ":")),
		"exit",
	}, "\r\n")

	err := shell.NewExecBuilder(diskpartTool).
		Stdin(script).
		LogLevel(shell.LogDisabledLevel, shell.LogDisabledLevel).
		ErrorStderrLines(3).
		Execute()
	if err != nil {
		return fmt.Errorf("%w (disk=%d):\n%w", ErrMediaFormat, diskNumber, err)
	}

	return nil
}

// setVolumeLabel relabels an already-formatted volume.
func setVolumeLabel(driveLetter string, label string) error {
	err := shell.NewExecBuilder(labelTool, driveLetter, label).
		ErrorStderrLines(1).
		Execute()
	if err != nil {
		return fmt.Errorf("%w (%s):\n%w", ErrMediaLabel, driveLetter, err)
	}

	return nil
}

// extractKit unpacks a deployment kit file into destDir. The extraction tool
// is picked by file extension.
func extractKit(kitFilePath string, destDir string) error {
	logger.Log.Infof("Extracting deployment kit (%s)", filepath.Base(kitFilePath))

	err := os.MkdirAll(destDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w (%s):\n%w", ErrKitExtract, destDir, err)
	}

	switch strings.ToLower(filepath.Ext(kitFilePath)) {
	case ".msi":
		err = shell.NewExecBuilder(msiexecTool, "/a", kitFilePath, "/qn", "TARGETDIR="+destDir).
			ErrorStderrLines(3).
			Execute()

	case ".cab":
		err = shell.NewExecBuilder(expandTool, kitFilePath, "-F:*", destDir).
			ErrorStderrLines(3).
			Execute()

	case ".zip":
		err = shell.NewExecBuilder(tarTool, "-xf", kitFilePath, "-C", destDir).
			ErrorStderrLines(3).
			Execute()

	case ".exe":
		// Self-extracting kit executables take the destination as /T.
		err = shell.NewExecBuilder(kitFilePath, "/Q", "/T:"+destDir).
			ErrorStderrLines(3).
			Execute()

	default:
		return fmt.Errorf("%w (%s)", ErrUnsupportedKit, kitFilePath)
	}

	if err != nil {
		return fmt.Errorf("%w (%s):\n%w", ErrKitExtract, kitFilePath, err)
	}

	return nil
}

// addUpdatesToImage injects update packages into the install image by
// mounting it, applying each package, and committing the result.
func addUpdatesToImage(imageFilePath string, updatePaths []string, scratchDir string) (err error) {
	if len(updatePaths) == 0 {
		return nil
	}

	mountDir := filepath.Join(scratchDir, randomization.CreateScratchName("image-mount-"))
	err = os.MkdirAll(mountDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w: failed to create mount directory (%s):\n%w", ErrImageService, mountDir, err)
	}

	err = shell.NewExecBuilder(dismTool, "/Mount-Image", "/ImageFile:"+imageFilePath, "/Index:1",
		"/MountDir:"+mountDir).
		ErrorStderrLines(3).
		Execute()
	if err != nil {
		return fmt.Errorf("%w: failed to mount image (%s):\n%w", ErrImageService, imageFilePath, err)
	}
	defer func() {
		discardErr := shell.NewExecBuilder(dismTool, "/Unmount-Image", "/MountDir:"+mountDir, "/Discard").
			ErrorStderrLines(3).
			Execute()
		if discardErr != nil && err != nil {
			err = fmt.Errorf("%w:\nfailed to discard image mount:\n%w", err, discardErr)
		}
	}()

	for _, updatePath := range updatePaths {
		logger.Log.Infof("Applying update (%s)", filepath.Base(updatePath))

		err = shell.NewExecBuilder(dismTool, "/Image:"+mountDir, "/Add-Package", "/PackagePath:"+updatePath).
			ErrorStderrLines(3).
			Execute()
		if err != nil {
			return fmt.Errorf("%w: failed to apply update (%s):\n%w", ErrImageService, updatePath, err)
		}
	}

	err = shell.NewExecBuilder(dismTool, "/Unmount-Image", "/MountDir:"+mountDir, "/Commit").
		ErrorStderrLines(3).
		Execute()
	if err != nil {
		return fmt.Errorf("%w: failed to commit image (%s):\n%w", ErrImageService, imageFilePath, err)
	}

	// The deferred discard is only a safety net for the failure paths above.
	// After a successful commit there is nothing mounted, so neutralize it.
	err = os.RemoveAll(mountDir)
	if err != nil {
		return fmt.Errorf("%w: failed to remove mount directory (%s):\n%w", ErrImageService, mountDir, err)
	}

	return nil
}

// splitInstallImageIfNeeded splits the install image into spanned parts when
// it is too large for the media's FAT32 filesystem. The original image file
// is removed after a successful split.
func splitInstallImageIfNeeded(imageFilePath string) error {
	stat, err := os.Stat(imageFilePath)
	if err != nil {
		return fmt.Errorf("%w: failed to stat install image (%s):\n%w", ErrImageSplit, imageFilePath, err)
	}

	if stat.Size() <= fat32MaxFileSize {
		return nil
	}

	logger.Log.Infof("Install image exceeds FAT32 file size limit, splitting")

	splitFilePath := strings.TrimSuffix(imageFilePath, filepath.Ext(imageFilePath)) + ".swm"

	err = shell.NewExecBuilder(dismTool, "/Split-Image", "/ImageFile:"+imageFilePath,
		"/SWMFile:"+splitFilePath, "/FileSize:3800").
		ErrorStderrLines(3).
		Execute()
	if err != nil {
		return fmt.Errorf("%w (%s):\n%w", ErrImageSplit, imageFilePath, err)
	}

	err = os.Remove(imageFilePath)
	if err != nil {
		return fmt.Errorf("%w: failed to remove unsplit image (%s):\n%w", ErrImageSplit, imageFilePath, err)
	}

	return nil
}
