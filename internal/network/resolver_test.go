// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package network

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitStderrLog()
	os.Exit(m.Run())
}

// newRedirectChainServer serves /hop/0 .. /hop/(n-1), each redirecting to the
// next, with /final as the chain's end.
func newRedirectChainServer(t *testing.T, hops int) *httptest.Server {
	mux := http.NewServeMux()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	for i := 0; i < hops; i++ {
		next := fmt.Sprintf("/hop/%d", i+1)
		if i == hops-1 {
			next = "/final"
		}

		mux.HandleFunc(fmt.Sprintf("/hop/%d", i), func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, next, http.StatusFound)
		})
	}

	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return server
}

func TestResolveRedirectsFollowsChain(t *testing.T) {
	server := newRedirectChainServer(t, 3)

	resolvedUrl, err := ResolveRedirects(server.Client(), server.URL+"/hop/0")
	assert.NoError(t, err)
	assert.Equal(t, server.URL+"/final", resolvedUrl)
}

func TestResolveRedirectsNoRedirect(t *testing.T) {
	server := newRedirectChainServer(t, 1)

	resolvedUrl, err := ResolveRedirects(server.Client(), server.URL+"/final")
	assert.NoError(t, err)
	assert.Equal(t, server.URL+"/final", resolvedUrl)
}

func TestResolveRedirectsAtHopLimit(t *testing.T) {
	server := newRedirectChainServer(t, 10)

	resolvedUrl, err := ResolveRedirects(server.Client(), server.URL+"/hop/0")
	assert.NoError(t, err)
	assert.Equal(t, server.URL+"/final", resolvedUrl)
}

func TestResolveRedirectsTooManyHops(t *testing.T) {
	server := newRedirectChainServer(t, 15)

	originUrl := server.URL + "/hop/0"

	_, err := ResolveRedirects(server.Client(), originUrl)
	require.Error(t, err)
	assert.ErrorContains(t, err, "too many redirects")
	assert.ErrorContains(t, err, originUrl)
}

func TestResolveRedirectsTerminalFailureStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	_, err := ResolveRedirects(server.Client(), server.URL+"/missing")
	require.Error(t, err)
	assert.ErrorContains(t, err, "404")
}
