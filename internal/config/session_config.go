package config

import (
	"strconv"
	"time"
)

type SessionConfig interface {
	GetEncryptionSecret() string
	GetSessionCookieName() string
	GetSessionMaxAge() time.Duration
	GetRefreshThreshold() time.Duration
	GetPermissionCookieName() string
	GetPermissionPollInterval() time.Duration
}

type SessionVars struct{}

var _ SessionConfig = SessionVars{}

// GetEncryptionSecret returns the secret the session cookie is sealed with.
// The server refuses to start without it outside of DEV.
func (SessionVars) GetEncryptionSecret() string {
	return GetEnv("ENCRYPTION_SECRET", "")
}

func (SessionVars) GetSessionCookieName() string {
	return "session"
}

func (SessionVars) GetSessionMaxAge() time.Duration {
	return 7 * 24 * time.Hour // 604800s, matches the cookie contract
}

// GetRefreshThreshold returns how long before access-token expiry the
// proactive refresh fires.
func (SessionVars) GetRefreshThreshold() time.Duration {
	return 30 * time.Second
}

func (SessionVars) GetPermissionCookieName() string {
	return "prm"
}

// GetPermissionPollInterval returns the optional permission-cache poll
// interval in seconds. Zero or unset disables polling.
func (SessionVars) GetPermissionPollInterval() time.Duration {
	raw := GetEnv("PERMISSION_POLL_INTERVAL", "0")
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
