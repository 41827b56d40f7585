package session

import "errors"

var (
	NoSessionErr      = errors.New("no stored session")
	NoRefreshTokenErr = errors.New("no refresh token in stored session")
	ProfileFetchErr   = errors.New("failed to fetch user profile")
	RefreshFailedErr  = errors.New("token refresh failed")
)
