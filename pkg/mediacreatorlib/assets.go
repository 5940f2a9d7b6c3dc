// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/microsoft/roomsystems-media-tools/internal/network"
	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
)

var (
	ErrAssetDownload  = NewMediaCreatorError("Asset:Download", "failed to download asset")
	ErrAssetSignature = NewMediaCreatorError("Asset:Signature", "asset failed signature verification")
	ErrAssetCacheDir  = NewMediaCreatorError("Asset:CacheDir", "failed to create asset cache directory")
)

// AssetFetcher downloads assets into the local cache and verifies their
// publisher signature. A file that exists at its final cache path is trusted
// to be complete: partial transfers only ever exist under a marker name.
type AssetFetcher struct {
	client    *http.Client
	cacheDir  string
	signature SignatureVerifier
}

func NewAssetFetcher(cacheDir string, proxyUrl string, signature SignatureVerifier) (*AssetFetcher, error) {
	err := os.MkdirAll(cacheDir, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("%w (%s):\n%w", ErrAssetCacheDir, cacheDir, err)
	}

	client := &http.Client{}
	if proxyUrl != "" {
		parsedProxy, err := url.Parse(proxyUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy URL (%s):\n%w", proxyUrl, err)
		}
		client.Transport = &http.Transport{
			Proxy: http.ProxyURL(parsedProxy),
		}
	}

	return &AssetFetcher{
		client:    client,
		cacheDir:  cacheDir,
		signature: signature,
	}, nil
}

// Fetch downloads the asset at rawUrl into the cache and verifies its
// signature. When outputName is empty the name is derived from the resolved
// URL. A cache hit skips the transfer but not the signature check.
func (f *AssetFetcher) Fetch(rawUrl string, outputName string) (string, error) {
	localPath, err := network.DownloadToDirectory(f.client, rawUrl, f.cacheDir, outputName)
	if err != nil {
		return "", fmt.Errorf("%w (%s):\n%w", ErrAssetDownload, rawUrl, err)
	}

	err = f.verifyAuthenticity(localPath)
	if err != nil {
		return "", err
	}

	return localPath, nil
}

// FetchRequiredUpdates downloads every required update of the OS release into
// the cache, keyed by the update's name in the manifest.
func (f *AssetFetcher) FetchRequiredUpdates(release mediacreatorapi.OsRelease) (map[string]string, error) {
	paths := map[string]string{}
	for name, updateUrl := range release.RequiredUpdates {
		localPath, err := f.Fetch(updateUrl, "")
		if err != nil {
			return nil, fmt.Errorf("failed to acquire required update (%s):\n%w", name, err)
		}
		paths[name] = localPath
	}

	return paths, nil
}

// verifyAuthenticity checks the publisher signature of a downloaded file.
// Untrusted content must not linger on disk, so a failed check deletes the
// file before reporting the failure.
func (f *AssetFetcher) verifyAuthenticity(localPath string) error {
	err := f.signature.VerifySignature(localPath)
	if err != nil {
		removeErr := os.Remove(localPath)
		if removeErr != nil {
			return fmt.Errorf("%w (%s):\n%w\nalso failed to delete the file:\n%w", ErrAssetSignature, localPath,
				err, removeErr)
		}
		return fmt.Errorf("%w (%s):\n%w", ErrAssetSignature, localPath, err)
	}

	return nil
}
