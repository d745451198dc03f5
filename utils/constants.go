package utils

import (
	"time"
)

// Admin token constants
const (
	// AdminTokenTTL is the default time-to-live for admin bearer tokens (12 hours)
	AdminTokenTTL = 12 * time.Hour
)

// Messaging constants
const (
	// DefaultCountryPrefix is prepended to local numbers that lack it
	DefaultCountryPrefix = "34"

	// LocalPhoneDigits is the number of trailing digits kept before prepending the prefix
	LocalPhoneDigits = 9

	// OrderClaimTTL bounds how long an in-flight order claim blocks a concurrent delivery
	OrderClaimTTL = 2 * time.Minute

	// OrderClaimKeyPrefix namespaces in-flight order claims in redis
	OrderClaimKeyPrefix = "order_claim"
)

// History constants
const (
	DefaultHistoryPageSize = 50
	MaxHistoryPageSize     = 500
	PanelHistoryLimit      = 100
)
