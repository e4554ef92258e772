package audit

import (
	"net"
	"net/http"
	"strings"
)

// appVersionToken is the User-Agent product token embedded by the platform's
// mobile apps, e.g. "CareBridge/2.4.1".
const appVersionToken = "CareBridge/"

// ExtractContext derives client IP, user agent and a best-effort device
// descriptor from an inbound request. It never fails; fields it cannot
// determine stay empty.
func ExtractContext(req *http.Request) RequestContext {
	if req == nil {
		return RequestContext{}
	}
	ua := req.UserAgent()
	return RequestContext{
		IPAddress: clientIP(req),
		UserAgent: ua,
		Device:    ParseDeviceInfo(ua),
	}
}

// clientIP prefers the first hop of X-Forwarded-For (the platform runs behind
// a trusted reverse proxy) and falls back to the socket address.
func clientIP(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// ParseDeviceInfo pattern-matches a User-Agent string into OS, browser and
// platform families, plus the embedded app version when the platform's
// product token is present. Returns nil for an empty user agent.
func ParseDeviceInfo(ua string) *DeviceInfo {
	if ua == "" {
		return nil
	}
	info := &DeviceInfo{
		OS:         osFamily(ua),
		Browser:    browserFamily(ua),
		Platform:   platform(ua),
		AppVersion: appVersion(ua),
	}
	return info
}

func osFamily(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"), strings.Contains(ua, "iPod"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return ""
}

func browserFamily(ua string) string {
	// Order matters: Chrome UAs contain "Safari", Edge UAs contain "Chrome".
	switch {
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"):
		return "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Chrome/"):
		return "Chrome"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	}
	return ""
}

func platform(ua string) string {
	switch {
	case strings.Contains(ua, "iPad"),
		strings.Contains(ua, "Android") && !strings.Contains(ua, "Mobile"):
		return "tablet"
	case strings.Contains(ua, "Mobile"), strings.Contains(ua, "iPhone"), strings.Contains(ua, "Android"):
		return "mobile"
	}
	return "desktop"
}

func appVersion(ua string) string {
	for _, token := range strings.Fields(ua) {
		if version, ok := strings.CutPrefix(token, appVersionToken); ok {
			return version
		}
	}
	return ""
}
