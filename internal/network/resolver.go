// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package network implements redirect resolution and cached file downloads.
package network

import (
	"fmt"
	"net/http"

	"github.com/microsoft/roomsystems-media-tools/internal/logger"
)

// Vanity download links redirect several times before landing on the real
// artifact. The bound exists only to catch redirect loops.
const maxRedirectHops = 10

// ResolveRedirects follows the redirect chain starting at url and returns the
// final concrete URL. Redirects are followed manually with HEAD requests so
// that the terminal status code can be inspected. The resolution is
// fail-fast: no retries are attempted on transient failures, since the tool
// is designed to be re-run.
func ResolveRedirects(client *http.Client, url string) (string, error) {
	currentUrl := url

	for hop := 0; hop <= maxRedirectHops; hop++ {
		response, err := headNoRedirect(client, currentUrl)
		if err != nil {
			return "", fmt.Errorf("failed to resolve URL (%s):\n%w", currentUrl, err)
		}
		response.Body.Close()

		if isRedirectStatus(response.StatusCode) {
			location, err := response.Location()
			if err != nil {
				return "", fmt.Errorf("redirect response for (%s) has no usable location:\n%w", currentUrl, err)
			}

			logger.Log.Debugf("Redirect (%s) -> (%s)", currentUrl, location.String())
			currentUrl = location.String()
			continue
		}

		if response.StatusCode < 200 || response.StatusCode >= 300 {
			return "", fmt.Errorf("failed to resolve URL (%s): server returned status (%s)", currentUrl,
				response.Status)
		}

		return currentUrl, nil
	}

	return "", fmt.Errorf("failed to resolve URL (%s): too many redirects (limit=%d)", url, maxRedirectHops)
}

func headNoRedirect(client *http.Client, url string) (*http.Response, error) {
	request, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}

	noRedirectClient := *client
	noRedirectClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return noRedirectClient.Do(request)
}

func isRedirectStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
