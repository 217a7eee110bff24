package webserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stake-plus/finapp-discord/src/router"
	"go.uber.org/zap"
)

// GatewayState reports the Discord connection state for health checks.
type GatewayState interface {
	State() string
	Ready() bool
}

// Options wires the admin server.
type Options struct {
	Dispatcher   *router.Dispatcher
	Gatherer     prometheus.Gatherer
	Gateway      GatewayState
	JWTSecret    []byte
	AllowOrigins []string
	Logger       *zap.Logger
}

// New builds the admin HTTP engine.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(opts.Logger.Named("http")))
	attachRoutes(r, opts)
	return r
}

func attachRoutes(r *gin.Engine, opts Options) {
	if len(opts.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	health := healthHandler{gateway: opts.Gateway}
	commands := commandsHandler{dispatcher: opts.Dispatcher}

	r.GET("/healthz", health.Get)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	{
		v1.GET("/commands", commands.List)

		secured := v1.Group("", JWTMiddleware(opts.JWTSecret))
		secured.POST("/commands/:command", commands.Invoke)
		secured.POST("/commands/:command/:operation", commands.Invoke)
	}
}

type healthHandler struct {
	gateway GatewayState
}

func (h healthHandler) Get(c *gin.Context) {
	if h.gateway == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateway": "disabled"})
		return
	}
	if !h.gateway.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "gateway": h.gateway.State()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "gateway": h.gateway.State()})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
