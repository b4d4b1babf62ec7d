package handlers

import (
	"net/http"

	"linkvault/internal/middleware"
	"linkvault/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	if h.cfg.OTelEndpoint != "" {
		r.Use(otelgin.Middleware(h.cfg.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.GinHandleMiddleware())
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(h.cfg.AllowedOrigins()))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))
	if rateLimiter != nil {
		r.Use(h.RateLimitMiddleware(rateLimiter))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	// Routes
	r.GET("/health", h.Health)
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	// Public, rate-limited by client IP and by submitted email
	sensitive := []gin.HandlerFunc{
		h.ipLimiter.Middleware(middleware.KeyByIP),
		h.emailLimiter.Middleware(middleware.KeyByBodyEmail),
	}
	r.POST("/login", append(sensitive, h.Login)...)
	r.POST("/forgot-password", append(sensitive, h.ForgotPassword)...)
	r.POST("/reset-password", h.ResetPassword)

	// Authenticated
	authorized := r.Group("/")
	authorized.Use(h.authn.RequireAuth())
	{
		authorized.POST("/urls", h.CreateURL)
		authorized.GET("/urls", h.ListURLs)
		authorized.GET("/urls/:id", h.GetURL)
		authorized.PUT("/urls/:id", h.UpdateURL)
		authorized.DELETE("/urls/:id", h.DeleteURL)
		authorized.GET("/urls/:id/qr", h.GetQRCode)
	}

	// Admin only
	admin := authorized.Group("/")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/users", h.CreateUser)
		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.GET("/audit-logs", h.ListAuditLogs)
	}

	// Catch-all Redirects
	r.GET("/:shortCode", h.RedirectToURL)

	return r
}
