package settings

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the public site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback site name used in outgoing mail.
	DefaultSiteName = "BuddhaAir HelpDesk"
	// ResetURLBaseKey is the DB config key for the password reset link base.
	ResetURLBaseKey = "RESET_URL_BASE"
	// DefaultResetURLBase is the fallback password reset link base.
	DefaultResetURLBase = "http://localhost:8318/reset"
	// RegistrationOpenKey toggles self-service registration.
	RegistrationOpenKey = "REGISTRATION_OPEN"
	// DefaultRegistrationOpen allows self-service registration by default.
	DefaultRegistrationOpen = true
)
