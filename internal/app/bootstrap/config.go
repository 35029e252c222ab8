// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for decisionjar.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: DECISIONJAR_MONGO_URI, DECISIONJAR_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "decisionjar", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "", Desc: "Session cookie verification key (shared with the identity service; ephemeral key generated if empty)"},
	{Name: "session_name", Default: "decisionjar-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Web Push / VAPID
	{Name: "vapid_public_key", Default: "", Desc: "VAPID public key for Web Push (empty disables real delivery)"},
	{Name: "vapid_private_key", Default: "", Desc: "VAPID private key for Web Push"},
	{Name: "vapid_subscriber", Default: "mailto:ops@decisionjar.app", Desc: "VAPID subscriber contact sent to push services"},
	{Name: "push_ttl", Default: 3600, Desc: "Seconds a push service may retain an undelivered message"},
	{Name: "push_timeout", Default: "10s", Desc: "Per-endpoint push send timeout"},
	{Name: "push_max_in_flight", Default: 8, Desc: "Concurrent push sends per dispatch batch"},

	// Streak reminders
	{Name: "streak_reminder_interval", Default: "1h", Desc: "How often the streak reminder worker sweeps"},
	{Name: "streak_threshold", Default: "20h", Desc: "Inactivity age that triggers a streak reminder"},

	// Recommendation provider
	{Name: "recommend_base_url", Default: "", Desc: "Recommendation provider base URL (empty disables suggestions)"},
	{Name: "recommend_token_url", Default: "", Desc: "OAuth2 token endpoint for the recommendation provider"},
	{Name: "recommend_client_id", Default: "", Desc: "OAuth2 client id for the recommendation provider"},
	{Name: "recommend_client_secret", Default: "", Desc: "OAuth2 client secret for the recommendation provider"},
	{Name: "recommend_timeout", Default: "10s", Desc: "Recommendation provider request timeout"},

	// Internal job trigger routes
	{Name: "service_token_hash", Default: "", Desc: "bcrypt hash of the internal service token (empty disables internal routes)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, DECISIONJAR_* for app), and
// command-line flags, merged with precedence flags > env > files >
// defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DECISIONJAR", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		VAPIDPublicKey:  appValues.String("vapid_public_key"),
		VAPIDPrivateKey: appValues.String("vapid_private_key"),
		VAPIDSubscriber: appValues.String("vapid_subscriber"),
		PushTTL:         appValues.Int("push_ttl"),
		PushTimeout:     appValues.Duration("push_timeout", 10*time.Second),
		PushMaxInFlight: appValues.Int("push_max_in_flight"),

		StreakReminderInterval: appValues.Duration("streak_reminder_interval", time.Hour),
		StreakThreshold:        appValues.Duration("streak_threshold", 20*time.Hour),

		RecommendBaseURL:      appValues.String("recommend_base_url"),
		RecommendTokenURL:     appValues.String("recommend_token_url"),
		RecommendClientID:     appValues.String("recommend_client_id"),
		RecommendClientSecret: appValues.String("recommend_client_secret"),
		RecommendTimeout:      appValues.Duration("recommend_timeout", 10*time.Second),

		ServiceTokenHash: appValues.String("service_token_hash"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	// VAPID keys come in pairs; one without the other is a config error,
	// not a disabled feature.
	if (appCfg.VAPIDPublicKey == "") != (appCfg.VAPIDPrivateKey == "") {
		return fmt.Errorf("vapid_public_key and vapid_private_key must both be set or both be empty")
	}
	if appCfg.VAPIDPublicKey == "" {
		logger.Warn("VAPID keys not configured; push deliveries will be logged, not sent")
	}

	if appCfg.RecommendBaseURL != "" && appCfg.RecommendTokenURL == "" {
		return fmt.Errorf("recommend_base_url is set but recommend_token_url is empty")
	}

	if appCfg.StreakThreshold <= 0 {
		return fmt.Errorf("streak_threshold must be positive")
	}

	return nil
}
