package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/bloodbank-api/internal/middleware"
	"github.com/jwalitptl/bloodbank-api/pkg/metrics"
)

// Handler registers routes that need no caller identity.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// ProtectedHandler registers routes, wrapping the ones that need a caller
// with the auth middleware.
type ProtectedHandler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        middleware.RateLimiterConfig
	CORSConfig       middleware.CORSConfig
	RequestTimeout   time.Duration
	MaxBodySize      int64
}

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	public    []Handler
	protected []ProtectedHandler
}

func NewRouter(
	config RouterConfig,
	auth *middleware.AuthMiddleware,
	m *metrics.Metrics,
	public []Handler,
	protected []ProtectedHandler,
) *Router {
	engine := gin.New()

	if config.MaxBodySize <= 0 {
		config.MaxBodySize = middleware.DefaultMaxBodySize
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.MaxBodySize),
	)
	if config.RateLimitEnabled {
		engine.Use(middleware.NewRateLimiter(config.RateLimit).RateLimit())
	}
	engine.Use(middleware.Timeout(config.RequestTimeout))

	return &Router{
		engine:    engine,
		auth:      auth,
		public:    public,
		protected: protected,
	}
}

// Setup mounts every handler at the root.
func (r *Router) Setup() {
	root := r.engine.Group("")

	for _, h := range r.public {
		h.RegisterRoutes(root)
	}
	for _, h := range r.protected {
		h.RegisterRoutes(root, r.auth)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
