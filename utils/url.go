package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// EncodeURLWithSpaces properly encodes a URL that may contain unencoded spaces.
// Debrid CDNs name files after releases, so raw spaces are common and need to
// be %20 encoded before the redirect.
func EncodeURLWithSpaces(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	// Build URL with properly encoded path and query
	encoded := parsedURL.Scheme + "://" + parsedURL.Host + parsedURL.EscapedPath()
	if parsedURL.RawQuery != "" {
		// Encode spaces in query string as %20
		encodedQuery := strings.ReplaceAll(parsedURL.RawQuery, " ", "%20")
		encoded += "?" + encodedQuery
	}
	return encoded, nil
}

// ValidateMediaURL rejects anything that is not a plain http(s) URL with a
// host. The playback handler redirects players to provider-supplied links,
// so a hostile or corrupt link must never leave the process as a Location
// header.
func ValidateMediaURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media url: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported media url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("media url has no host")
	}
	return nil
}
