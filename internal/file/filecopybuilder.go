// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package file

import (
	"fmt"
	"io"
	"os"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
)

type FileCopyBuilder struct {
	Src            string
	Dst            string
	DirFileMode    os.FileMode
	ChangeFileMode bool
	FileMode       os.FileMode
}

func NewFileCopyBuilder(src string, dst string) FileCopyBuilder {
	return FileCopyBuilder{
		Src:         src,
		Dst:         dst,
		DirFileMode: os.ModePerm,
		FileMode:    os.ModePerm,
	}
}

func (b FileCopyBuilder) SetDirFileMode(dirFileMode os.FileMode) FileCopyBuilder {
	b.DirFileMode = dirFileMode
	return b
}

func (b FileCopyBuilder) SetFileMode(fileMode os.FileMode) FileCopyBuilder {
	b.ChangeFileMode = true
	b.FileMode = fileMode
	return b
}

func (b FileCopyBuilder) Run() (err error) {
	logger.Log.Debugf("Copying (%s) to (%s)", b.Src, b.Dst)

	srcFileInfo, err := os.Stat(b.Src)
	if err != nil {
		return fmt.Errorf("failed to read source file info:\n%w", err)
	}

	if srcFileInfo.IsDir() {
		return fmt.Errorf("source (%s) is not a file", b.Src)
	}

	srcFile, err := os.Open(b.Src)
	if err != nil {
		return fmt.Errorf("failed to open source file:\n%w", err)
	}
	defer func() {
		if srcFile != nil {
			srcFile.Close()
		}
	}()

	dstFileMode := b.FileMode
	if !b.ChangeFileMode {
		// Copy the source file's permissions.
		dstFileMode = srcFileInfo.Mode()
	}

	err = CreateDestinationDir(b.Dst, b.DirFileMode)
	if err != nil {
		return fmt.Errorf("failed to create destination directory (%s):\n%w", b.Dst, err)
	}

	dstFile, err := os.OpenFile(b.Dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, dstFileMode)
	if err != nil {
		return fmt.Errorf("failed to create destination file:\n%w", err)
	}
	defer func() {
		if dstFile != nil {
			dstFile.Close()
		}
	}()

	// The permissions given to OpenFile are subject to umask.
	err = dstFile.Chmod(dstFileMode)
	if err != nil {
		return fmt.Errorf("failed to set destination file permissions:\n%w", err)
	}

	_, err = io.Copy(dstFile, srcFile)
	if err != nil {
		return fmt.Errorf("failed to copy file:\n%w", err)
	}

	err = dstFile.Close()
	dstFile = nil
	if err != nil {
		return fmt.Errorf("failed to finalize destination file:\n%w", err)
	}

	err = srcFile.Close()
	srcFile = nil
	if err != nil {
		return fmt.Errorf("failed to finalize source file:\n%w", err)
	}

	return nil
}
