package handlers

import (
	"log/slog"

	"linkvault/internal/config"
	"linkvault/internal/middleware"
	"linkvault/internal/observability"
	"linkvault/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from. Metrics, Gatherer
// and DB are optional.
type Deps struct {
	DB            *gorm.DB
	Authenticator *middleware.Authenticator
	Users         *services.UserService
	Shortener     *services.ShortenerService
	Resolver      *services.Resolver
	Audit         *services.AuditService
	QR            *services.QRService
	IPLimiter     *middleware.FixedWindowLimiter
	EmailLimiter  *middleware.FixedWindowLimiter
	Metrics       *observability.Prom
	Gatherer      prometheus.Gatherer
}

type Handler struct {
	cfg              config.Config
	logger           *slog.Logger
	db               *gorm.DB
	authn            *middleware.Authenticator
	userService      *services.UserService
	shortenerService *services.ShortenerService
	resolver         *services.Resolver
	auditService     *services.AuditService
	qrService        *services.QRService
	ipLimiter        *middleware.FixedWindowLimiter
	emailLimiter     *middleware.FixedWindowLimiter
	metrics          *observability.Prom
	gatherer         prometheus.Gatherer
}

func NewHandler(cfg config.Config, logger *slog.Logger, deps Deps) *Handler {
	return &Handler{
		cfg:              cfg,
		logger:           logger,
		db:               deps.DB,
		authn:            deps.Authenticator,
		userService:      deps.Users,
		shortenerService: deps.Shortener,
		resolver:         deps.Resolver,
		auditService:     deps.Audit,
		qrService:        deps.QR,
		ipLimiter:        deps.IPLimiter,
		emailLimiter:     deps.EmailLimiter,
		metrics:          deps.Metrics,
		gatherer:         deps.Gatherer,
	}
}
