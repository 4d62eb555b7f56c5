package config

import "time"

const (
	// Warnings
	MaxWarnings              = 3
	WarningSuspensionWindow  = 30 * 24 * time.Hour
	DirectSuspensionDuration = 7 * 24 * time.Hour

	// Text limits, counted in runes
	MaxMessageLength           = 5000
	MaxReportDescriptionLength = 1000
	MaxModeratorNoteLength     = 2000
)

// WarningSuspensionReason is recorded when the warning limit suspends a user.
const WarningSuspensionReason = "warning_limit_reached"
