package sandbox

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alvishnu/school-desk/internal/sandbox/handler"
	"github.com/alvishnu/school-desk/internal/sandbox/middleware"
	"github.com/alvishnu/school-desk/pkg/config"
	"github.com/alvishnu/school-desk/pkg/logger"
	corsmiddleware "github.com/alvishnu/school-desk/pkg/middleware/cors"
	reqidmiddleware "github.com/alvishnu/school-desk/pkg/middleware/requestid"
)

// Deps bundles the wired handlers and optional infrastructure for the router.
type Deps struct {
	Students *handler.StudentHandler
	Fees     *handler.FeeHandler
	Auth     *handler.AuthHandler

	SessionVerifier interface{ Verify(token string) error }
	Redis           *redis.Client
	Logger          *zap.Logger
	Registry        *prometheus.Registry
}

// NewRouter assembles the sandbox gin engine: request ids, structured request
// logging, CORS with credentials, optional redis response cache and optional
// session enforcement, all under the configured API prefix.
func NewRouter(cfg config.SandboxConfig, deps Deps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)

	if deps.Auth != nil {
		api.POST("/auth/login", deps.Auth.Login)
		api.POST("/auth/logout", deps.Auth.Logout)
	}

	protected := api.Group("")
	if cfg.RequireAuth && deps.SessionVerifier != nil {
		protected.Use(middleware.RequireSession(deps.SessionVerifier))
	}
	if cfg.EnableCache && deps.Redis != nil {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		protected.Use(middleware.ResponseCache(deps.Redis, ttl, log))
	}

	protected.GET("/students", deps.Students.List)
	protected.GET("/students/:id", deps.Students.Get)
	protected.POST("/students", deps.Students.Create)
	protected.PUT("/students/:id", deps.Students.Update)
	protected.DELETE("/students/:id", deps.Students.Delete)

	protected.GET("/fee-types", deps.Fees.FeeTypes)
	protected.POST("/fee-types", deps.Fees.CreateFeeType)
	protected.GET("/students/:id/fees", deps.Fees.StudentFees)
	protected.POST("/students/:id/fees", deps.Fees.CreateFee)
	protected.POST("/fees/:id/payments", deps.Fees.RecordPayment)

	return r
}
