// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingVerifier accepts or rejects every signature and records the files
// it saw.
type recordingVerifier struct {
	rejectAll bool
	verified  []string
}

func (v *recordingVerifier) VerifySignature(filePath string) error {
	v.verified = append(v.verified, filePath)
	if v.rejectAll {
		return fmt.Errorf("signature not valid")
	}
	return nil
}

func newAssetTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/updates/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("update payload"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func TestFetchVerifiesSignature(t *testing.T) {
	server := newAssetTestServer(t)
	verifier := &recordingVerifier{}

	fetcher, err := NewAssetFetcher(t.TempDir(), "", verifier)
	require.NoError(t, err)

	localPath, err := fetcher.Fetch(server.URL+"/updates/kb500001.msu", "")
	require.NoError(t, err)

	assert.FileExists(t, localPath)
	assert.Equal(t, []string{localPath}, verifier.verified)
}

func TestFetchCacheHitStillVerifies(t *testing.T) {
	server := newAssetTestServer(t)
	verifier := &recordingVerifier{}

	fetcher, err := NewAssetFetcher(t.TempDir(), "", verifier)
	require.NoError(t, err)

	url := server.URL + "/updates/kb500001.msu"

	firstPath, err := fetcher.Fetch(url, "")
	require.NoError(t, err)

	secondPath, err := fetcher.Fetch(url, "")
	require.NoError(t, err)

	assert.Equal(t, firstPath, secondPath)
	assert.Len(t, verifier.verified, 2)
}

func TestFetchDeletesArtifactOnSignatureFailure(t *testing.T) {
	server := newAssetTestServer(t)
	verifier := &recordingVerifier{rejectAll: true}

	fetcher, err := NewAssetFetcher(t.TempDir(), "", verifier)
	require.NoError(t, err)

	_, err = fetcher.Fetch(server.URL+"/updates/kb500001.msu", "")
	require.ErrorIs(t, err, ErrAssetSignature)

	require.Len(t, verifier.verified, 1)
	_, statErr := os.Stat(verifier.verified[0])
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchRequiredUpdates(t *testing.T) {
	server := newAssetTestServer(t)
	verifier := &recordingVerifier{}

	fetcher, err := NewAssetFetcher(t.TempDir(), "", verifier)
	require.NoError(t, err)

	release := mediacreatorapi.OsRelease{
		Label: "Windows 10",
		RequiredUpdates: map[string]string{
			"servicing-stack": server.URL + "/updates/kb500001.msu",
			"cumulative":      server.URL + "/updates/kb500002.msu",
		},
	}

	paths, err := fetcher.FetchRequiredUpdates(release)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for name, localPath := range paths {
		assert.FileExists(t, localPath, "update %s", name)
	}
}

func TestNewAssetFetcherRejectsBadProxyUrl(t *testing.T) {
	_, err := NewAssetFetcher(t.TempDir(), "://not-a-url", nil)
	assert.Error(t, err)
}
