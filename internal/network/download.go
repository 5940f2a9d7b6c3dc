// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package network

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/microsoft/roomsystems-media-tools/internal/file"
	"github.com/microsoft/roomsystems-media-tools/internal/logger"
)

// In-flight downloads live at a marker path next to the final name. A file
// only ever appears at its final name via rename, after the stream completed.
const downloadingSuffix = ".downloading"

// DownloadToDirectory resolves the URL's redirect chain and downloads the
// resource into destDir. When outputName is empty, the file name is derived
// from the resolved URL's path. If the target file already exists the
// download is skipped.
//
// The skip relies on file names being a faithful proxy for content: download
// URLs in this domain are version-pinned, so a given file name never changes
// contents.
func DownloadToDirectory(client *http.Client, rawUrl string, destDir string, outputName string) (string, error) {
	resolvedUrl, err := ResolveRedirects(client, rawUrl)
	if err != nil {
		return "", err
	}

	if outputName == "" {
		outputName, err = fileNameFromUrl(resolvedUrl)
		if err != nil {
			return "", err
		}
	}

	destPath := filepath.Join(destDir, outputName)

	exists, err := file.PathExists(destPath)
	if err != nil {
		return "", err
	}
	if exists {
		logger.Log.Debugf("Already downloaded (%s), skipping", outputName)
		return destPath, nil
	}

	err = DownloadFile(client, resolvedUrl, destPath)
	if err != nil {
		return "", err
	}

	return destPath, nil
}

// DownloadFile streams the resource at url to destPath. The transfer goes to
// a sibling marker file first and is renamed into place only once the stream
// has fully completed, so an interrupted run never leaves a partial file at
// destPath.
func DownloadFile(client *http.Client, url string, destPath string) (err error) {
	logger.Log.Infof("Downloading (%s)", url)

	err = file.CreateDestinationDir(destPath, os.ModePerm)
	if err != nil {
		return err
	}

	markerPath := destPath + downloadingSuffix

	// A leftover marker is a previous interrupted attempt.
	err = file.RemoveFileIfExists(markerPath)
	if err != nil {
		return err
	}

	response, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to request (%s):\n%w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("failed to download (%s): server returned status (%s)", url, response.Status)
	}

	markerFile, err := os.OpenFile(markerPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create download file (%s):\n%w", markerPath, err)
	}
	defer func() {
		if markerFile != nil {
			markerFile.Close()
			os.Remove(markerPath)
		}
	}()

	_, err = io.Copy(markerFile, response.Body)
	if err != nil {
		return fmt.Errorf("failed to download (%s):\n%w", url, err)
	}

	err = markerFile.Close()
	markerFile = nil
	if err != nil {
		return fmt.Errorf("failed to finalize download file (%s):\n%w", markerPath, err)
	}

	err = os.Rename(markerPath, destPath)
	if err != nil {
		return fmt.Errorf("failed to move download into place (%s):\n%w", destPath, err)
	}

	return nil
}

func fileNameFromUrl(rawUrl string) (string, error) {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL (%s):\n%w", rawUrl, err)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("cannot derive a file name from URL (%s)", rawUrl)
	}

	return name, nil
}
