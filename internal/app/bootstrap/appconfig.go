// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig is everything specific to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for verifying session cookies (shared with the identity service)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Web Push / VAPID configuration
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string        // mailto: or https: contact sent to push services
	PushTTL         int           // seconds a push service may retain an undelivered message
	PushTimeout     time.Duration // per-endpoint send timeout
	PushMaxInFlight int           // concurrent sends per dispatch batch

	// Streak reminder worker
	StreakReminderInterval time.Duration // how often the worker sweeps
	StreakThreshold        time.Duration // inactivity age that triggers a reminder

	// External recommendation provider (empty base URL disables it)
	RecommendBaseURL      string
	RecommendTokenURL     string
	RecommendClientID     string
	RecommendClientSecret string
	RecommendTimeout      time.Duration

	// bcrypt hash of the internal service token; empty disables the
	// internal job routes
	ServiceTokenHash string
}
