// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package file implements shared helpers for local filesystem operations.
package file

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write writes the string to the file, replacing any existing contents.
func Write(content string, filePath string) error {
	err := os.WriteFile(filePath, []byte(content), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write file (%s):\n%w", filePath, err)
	}

	return nil
}

// PathExists reports whether the path exists.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat path (%s):\n%w", path, err)
	}

	return true, nil
}

// DirExists reports whether the path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat path (%s):\n%w", path, err)
	}

	return info.IsDir(), nil
}

// RemoveFileIfExists deletes the file, succeeding if it is already absent.
func RemoveFileIfExists(filePath string) error {
	err := os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file (%s):\n%w", filePath, err)
	}

	return nil
}

// CreateDestinationDir ensures the parent directory of the given file path exists.
func CreateDestinationDir(filePath string, dirFileMode os.FileMode) error {
	dir := filepath.Dir(filePath)
	err := os.MkdirAll(dir, dirFileMode)
	if err != nil {
		return fmt.Errorf("failed to create directory (%s):\n%w", dir, err)
	}

	return nil
}

// GetAbsPathWithBase resolves path relative to basePath unless it is already absolute.
func GetAbsPathWithBase(basePath string, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(basePath, path)
}

// EnumerateSubdirectories returns the names of the immediate subdirectories of dirPath.
func EnumerateSubdirectories(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory (%s):\n%w", dirPath, err)
	}

	names := []string(nil)
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}
