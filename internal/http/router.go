package http

import (
	"log/slog"

	"github.com/geocoder89/finledger/internal/http/handlers"
	"github.com/geocoder89/finledger/internal/http/middlewares"
	"github.com/geocoder89/finledger/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

// Deps is everything the router wires together. Prom, Gatherer and Limiter
// are optional.
type Deps struct {
	Log *slog.Logger
	Env string

	Users    handlers.UserService
	Auth     handlers.Authenticator
	Issuer   handlers.TokenIssuer
	Ledger   handlers.Ledger
	Balances handlers.BalanceReader
	Tokens   middlewares.TokenVerifier

	Checks map[string]handlers.Pinger

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Limiter  middlewares.Limiter

	CORSAllowedOrigins []string
	// TracingService enables otelgin spans under this service name.
	TracingService string
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" && d.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.TracingService != "" {
		r.Use(otelgin.Middleware(d.TracingService))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(d.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(d.CORSAllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	// health
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// a nil *Prom still satisfies these, its methods are nil-safe
	var events middlewares.AuthEvents = d.Prom
	var hits middlewares.RateLimitHits = d.Prom

	limit := func(keyFn func(*gin.Context) string) gin.HandlerFunc {
		if d.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middlewares.RateLimit(d.Limiter, keyFn, hits, log)
	}

	usersHandler := handlers.NewUsersHandler(d.Users, d.Issuer)
	authHandler := handlers.NewAuthHandler(d.Auth, events)
	txHandler := handlers.NewTransactionsHandler(d.Ledger)
	balanceHandler := handlers.NewBalanceHandler(d.Balances)
	authMw := middlewares.NewAuthMiddleware(d.Tokens, events)

	api := r.Group("/api")

	// public, limited per client IP
	public := api.Group("", limit(middlewares.KeyByIP))
	public.POST("/users", usersHandler.SignUp)
	public.POST("/auth/login", authHandler.Login)
	public.POST("/auth/refresh-token", authHandler.Refresh)

	// authenticated, limited per user
	private := api.Group("", authMw.RequireAuth(), limit(middlewares.KeyByUserOrIP))

	private.GET("/users/me", usersHandler.Me)
	private.PATCH("/users/me", usersHandler.UpdateMe)
	private.DELETE("/users/me", usersHandler.DeleteMe)
	private.GET("/users/me/balance", balanceHandler.Get)

	private.POST("/transactions", txHandler.Create)
	private.GET("/transactions", txHandler.List)
	private.PATCH("/transactions/:transactionId", txHandler.Update)
	private.DELETE("/transactions/:transactionId", txHandler.Delete)

	return r
}
