package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexfinity/hosting-gateway/internal/config"
	"github.com/nexfinity/hosting-gateway/internal/service"
)

// RateLimiter is a small in-memory sliding-window limiter.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether another request is permitted for key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// RateLimitMiddleware keys on the authenticated user, falling back to the
// client IP for anonymous calls.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("userID")
		if key == "" {
			key = c.ClientIP()
		}

		if !rl.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

type Server struct {
	router  *gin.Engine
	handler *Handler
	cfg     *config.Config
}

// Per-user limit for the general API.
var userRateLimiter = NewRateLimiter(30, time.Minute)

// Deployments are expensive upstream; 5 per hour covers retries.
var deployRateLimiter = NewRateLimiter(5, time.Hour)

// Scraped panel logins hit a fragile upstream and get their own budget.
var scrapeRateLimiter = NewRateLimiter(10, time.Hour)

func NewServer(
	cfg *config.Config,
	deployService *service.DeployService,
	domainService *service.DomainService,
	hostingService *service.HostingService,
	vistaService *service.VistaService,
	promotionService *service.PromotionService,
	catalogService *service.CatalogService,
) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	handler := NewHandler(deployService, domainService, hostingService, vistaService, promotionService, catalogService)

	s := &Server{
		router:  router,
		handler: handler,
		cfg:     cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "hosting-gateway",
		})
	})

	auth := AuthMiddleware(s.cfg.Auth.APIToken, s.cfg.Auth.JWTSecret)
	optionalAuth := OptionalAuthMiddleware(s.cfg.Auth.APIToken, s.cfg.Auth.JWTSecret)

	// Public API - catalog browsing and availability checks
	public := s.router.Group("/api/v1")
	public.Use(RateLimitMiddleware(userRateLimiter))
	{
		public.GET("/domains/check", s.handler.CheckDomain)
		public.GET("/bots/plans", optionalAuth, s.handler.ListPlans)
		public.GET("/bots/nodes", s.handler.ListNodes)
		public.GET("/promotions", optionalAuth, s.handler.ListPromotions)
		public.POST("/promotions/validate", s.handler.ValidatePromotion)
	}

	// Customer API - requires the gateway token or a JWT
	user := s.router.Group("/api/v1")
	user.Use(auth)
	user.Use(RateLimitMiddleware(userRateLimiter))
	{
		// Bot deployments use a stricter limit.
		user.POST("/bots/deploy", RateLimitMiddleware(deployRateLimiter), s.handler.Deploy)

		// Billing
		user.GET("/billing/invoices", s.handler.ListInvoices)
		user.GET("/billing/invoices/:id", s.handler.GetInvoice)
		user.GET("/billing/contracts", s.handler.ListContracts)
		user.GET("/billing/contracts/:id", s.handler.GetContract)
		user.POST("/billing/checkout", s.handler.Checkout)

		// Account overview
		user.GET("/account/profile", s.handler.AccountProfile)
		user.GET("/account/services", s.handler.AccountServices)

		// Web hosting accounts on the reseller
		user.GET("/web-hosting/full-account", s.handler.FullAccountInfo)
		user.POST("/web-hosting/accounts", s.handler.CreateHostingAccount)
		user.POST("/web-hosting/accounts/suspend", s.handler.SuspendHostingAccount)
		user.POST("/web-hosting/accounts/unsuspend", s.handler.UnsuspendHostingAccount)
		user.GET("/web-hosting/check-domain", s.handler.CheckHostingDomain)
		user.GET("/web-hosting/domains", s.handler.HostingUserDomains)

		// Legacy scraped panel
		user.POST("/vistapanel/info", RateLimitMiddleware(scrapeRateLimiter), s.handler.VistaPanelInfo)
	}
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Engine exposes the router for the main package's http.Server wiring.
func (s *Server) Engine() *gin.Engine {
	return s.router
}
