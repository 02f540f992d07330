package api

import "strings"

// Device types recognized by targeting.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// DetectDevice classifies a User-Agent string into a coarse device type.
// Tablet tokens are checked before mobile because iPad/Android-tablet UAs
// frequently also contain "Mobile".
func DetectDevice(userAgent string) string {
	ua := userAgent
	if len(ua) > 256 {
		ua = ua[:256]
	}
	switch {
	case containsAny(ua, "iPad", "Tablet"):
		return DeviceTablet
	case containsAny(ua, "Mobile", "Android", "iPhone"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
