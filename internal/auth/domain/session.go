package domain

import (
	"strings"
	"time"
)

// DeviceClass is a coarse device classification derived from the user agent.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
)

// Session is one authenticated device session. Creating a new session for a
// user deactivates all previously active ones (single active session per
// user).
type Session struct {
	ID          string
	UserID      string
	SessionKey  string // opaque 256-bit key handed to the client
	IPAddress   string
	UserAgent   string
	DeviceClass DeviceClass
	IsActive    bool
	// ExpiresAt is set when the user opted into "remember me"; nil means the
	// session is ephemeral and ends with the client context.
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// DetectDeviceClass classifies a user agent with substring heuristics.
func DetectDeviceClass(userAgent string) DeviceClass {
	ua := strings.ToLower(userAgent)

	// Tablets first: most tablet UAs also say "mobile".
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return DeviceTablet
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") {
		return DeviceMobile
	}
	return DeviceDesktop
}
