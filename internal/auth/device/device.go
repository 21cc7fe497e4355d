// Package device derives a human-readable device label from a User-Agent
// header, used to annotate sessions.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders a "Browser on Platform" label. Unrecognizable or
// empty user agents collapse to a fixed placeholder rather than echoing raw
// header bytes back to the user.
func ParseUserAgent(rawUserAgent string) string {
	if strings.TrimSpace(rawUserAgent) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUserAgent)
	browser, _ := ua.Browser()

	platform := ua.OS()
	if platform == "" {
		platform = ua.Platform()
	}

	switch {
	case browser != "" && platform != "":
		return browser + " on " + platform
	case browser != "":
		return browser
	case platform != "":
		return platform
	default:
		return "Unknown Device"
	}
}
