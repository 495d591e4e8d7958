// Utilities for parsing cURL commands.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CurlHeaders represents parsed headers and the request URL from a cURL
// command copied out of browser DevTools.
type CurlHeaders struct {
	URL     string
	Headers map[string]string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts the request URL
// and headers.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)

	headerRegex := regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	matches := headerRegex.FindAllStringSubmatch(curlCmd, -1)

	for _, match := range matches {
		var headerLine string
		if match[1] != "" {
			headerLine = match[1]
		} else {
			headerLine = match[2]
		}

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			headers[key] = value
		}
	}

	urlRegex := regexp.MustCompile(`'(https?://[^']+)'|"(https?://[^"]+)"|\s(https?://\S+)`)
	urlMatch := urlRegex.FindStringSubmatch(curlCmd)
	var reqURL string
	if urlMatch != nil {
		for _, group := range urlMatch[1:] {
			if group != "" {
				reqURL = group
				break
			}
		}
	}

	if len(headers) == 0 && reqURL == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlHeaders{
		URL:     reqURL,
		Headers: headers,
	}, nil
}

// mediaBrowserTokenRegex matches the Token field of a MediaBrowser
// Authorization header, e.g. `MediaBrowser Client="...", Token="abc"`.
var mediaBrowserTokenRegex = regexp.MustCompile(`Token="([^"]+)"`)

// JellyfinAuth extracts the server base URL and API token from a cURL command
// captured from the Jellyfin web client. The token is taken from the
// X-Emby-Token header, or from a MediaBrowser Authorization header.
func (c *CurlHeaders) JellyfinAuth() (serverURL, token string, err error) {
	for key, value := range c.Headers {
		switch strings.ToLower(key) {
		case "x-emby-token", "x-mediabrowser-token":
			token = value
		case "authorization", "x-emby-authorization":
			if m := mediaBrowserTokenRegex.FindStringSubmatch(value); m != nil {
				token = m[1]
			}
		}
	}

	if token == "" {
		return "", "", fmt.Errorf("no Jellyfin token found in curl command")
	}

	serverURL = c.URL
	// Strip the API path so only the server origin remains.
	for _, marker := range []string{"/Users", "/Items", "/Playlists", "/web", "/socket"} {
		if idx := strings.Index(serverURL, marker); idx > 0 {
			serverURL = serverURL[:idx]
			break
		}
	}
	serverURL = strings.TrimSuffix(serverURL, "/")

	if serverURL == "" {
		return "", "", fmt.Errorf("no server URL found in curl command")
	}

	return serverURL, token, nil
}
