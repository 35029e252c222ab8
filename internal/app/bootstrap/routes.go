// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	healthfeature "github.com/decisionjar/decisionjar/internal/app/features/health"
	ideasfeature "github.com/decisionjar/decisionjar/internal/app/features/ideas"
	internaljobsfeature "github.com/decisionjar/decisionjar/internal/app/features/internaljobs"
	jarsfeature "github.com/decisionjar/decisionjar/internal/app/features/jars"
	profilefeature "github.com/decisionjar/decisionjar/internal/app/features/profile"
	roundsfeature "github.com/decisionjar/decisionjar/internal/app/features/rounds"
	subscriptionsfeature "github.com/decisionjar/decisionjar/internal/app/features/subscriptions"
	suggestionsfeature "github.com/decisionjar/decisionjar/internal/app/features/suggestions"
	votesfeature "github.com/decisionjar/decisionjar/internal/app/features/votes"
	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	jarstore "github.com/decisionjar/decisionjar/internal/app/store/jars"
	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	substore "github.com/decisionjar/decisionjar/internal/app/store/subscriptions"
	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	sessionstore "github.com/decisionjar/decisionjar/internal/app/store/votesessions"
	votestore "github.com/decisionjar/decisionjar/internal/app/store/votes"
	"github.com/decisionjar/decisionjar/internal/app/system/announce"
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/decisionjar/decisionjar/internal/app/system/notify"
	"github.com/decisionjar/decisionjar/internal/app/system/recommend"
	"github.com/decisionjar/decisionjar/internal/app/system/selection"
	"github.com/decisionjar/decisionjar/internal/app/system/tasks"
	"github.com/decisionjar/decisionjar/internal/app/system/voteflow"
)

// buildDispatcher assembles the push fan-out pipeline. Without VAPID
// keys the pusher degrades to log-only delivery.
func buildDispatcher(deps DBDeps, appCfg AppConfig, logger *zap.Logger) *notify.Dispatcher {
	subs := substore.New(deps.MongoDatabase)
	users := userstore.New(deps.MongoDatabase)

	var pusher notify.Pusher
	if appCfg.VAPIDPublicKey != "" {
		pusher = notify.NewWebPusher(notify.VAPIDConfig{
			PublicKey:  appCfg.VAPIDPublicKey,
			PrivateKey: appCfg.VAPIDPrivateKey,
			Subscriber: appCfg.VAPIDSubscriber,
			TTL:        appCfg.PushTTL,
			Timeout:    appCfg.PushTimeout,
		})
	} else {
		pusher = &notify.LogPusher{Log: logger}
	}

	return notify.NewDispatcher(subs, users, pusher, logger, appCfg.PushMaxInFlight)
}

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app. WAFFLE calls this after configuration, DB connections,
// schema setup, and Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores.
	jars := jarstore.New(deps.MongoDatabase)
	ideas := ideastore.New(deps.MongoDatabase)
	members := memberstore.New(deps.MongoDatabase)
	users := userstore.New(deps.MongoDatabase)
	sessions := sessionstore.New(deps.MongoDatabase)
	votes := votestore.New(deps.MongoDatabase)
	subs := substore.New(deps.MongoDatabase)

	// Engine.
	dispatcher := buildDispatcher(deps, appCfg, logger)
	announcer := announce.New(members, dispatcher, logger, appCfg.PushTimeout)
	resolver := selection.NewResolver(jars, ideas, members, announcer, logger)
	flow := voteflow.New(jars, ideas, members, sessions, votes, announcer, logger)

	// Optional recommendation provider.
	var provider recommend.Provider
	if appCfg.RecommendBaseURL != "" {
		provider = recommend.NewHTTPProvider(recommend.Config{
			BaseURL:      appCfg.RecommendBaseURL,
			TokenURL:     appCfg.RecommendTokenURL,
			ClientID:     appCfg.RecommendClientID,
			ClientSecret: appCfg.RecommendClientSecret,
			Timeout:      appCfg.RecommendTimeout,
		})
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus metrics.
	r.Handle("/metrics", promhttp.Handler())

	// Current user.
	profileHandler := profilefeature.NewHandler(users, logger)
	r.Mount("/me", profilefeature.Routes(profileHandler, sessionMgr))

	// Jars: configuration, roster, rounds, jar-scoped ideas and sessions.
	jarsHandler := jarsfeature.NewHandler(jars, members, logger)
	roundsHandler := roundsfeature.NewHandler(resolver, users, logger)
	votesHandler := votesfeature.NewHandler(flow, sessions, users, logger)
	ideasHandler := ideasfeature.NewHandler(ideas, members, logger)

	jarRouter := jarsfeature.Routes(jarsHandler, sessionMgr)
	roundsfeature.Register(jarRouter, roundsHandler)
	votesfeature.RegisterJarRoutes(jarRouter, votesHandler)
	ideasfeature.RegisterJarRoutes(jarRouter, ideasHandler)
	r.Mount("/jars", jarRouter)

	// Session-scoped and idea-scoped endpoints.
	r.Mount("/vote-sessions", votesfeature.Routes(votesHandler, sessionMgr))
	r.Mount("/ideas", ideasfeature.Routes(ideasHandler, sessionMgr))

	// Push subscriptions and delivery preferences.
	subsHandler := subscriptionsfeature.NewHandler(subs, users, logger)
	r.Mount("/push-subscriptions", subscriptionsfeature.Routes(subsHandler, sessionMgr))

	// Idea suggestions proxy.
	suggestionsHandler := suggestionsfeature.NewHandler(provider, logger)
	r.Mount("/suggestions", suggestionsfeature.Routes(suggestionsHandler, sessionMgr))

	// Internal job triggers, guarded by the service token.
	jobsHandler := internaljobsfeature.NewHandler([]tasks.Job{
		tasks.StreakReminderJob(users, dispatcher, logger, appCfg.StreakThreshold),
	}, logger)
	r.Mount("/internal/jobs", internaljobsfeature.Routes(jobsHandler, appCfg.ServiceTokenHash, logger))

	return r, nil
}
