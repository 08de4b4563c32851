package handlers

import (
	"net/http"
	"slices"
	"time"

	"booksearch/internal/dispatch"
	"booksearch/internal/logger"
	"booksearch/internal/middleware"
	"booksearch/internal/service"
	"booksearch/internal/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options carry the transport-level settings the router needs.
type Options struct {
	BooksScope            string
	ListUsersRequiresAuth bool
	CORSOrigins           []string
	AuthLimiter           middleware.Counter
	AuthPerMinute         int
	FeedInterval          time.Duration
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	rpc      *dispatch.Dispatcher
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	validation.Init()
	if opts.BooksScope == "" {
		opts.BooksScope = dispatch.ScopeGlobal
	}
	if opts.FeedInterval <= 0 {
		opts.FeedInterval = defaultInterval
	}
	return &Handler{
		services: services,
		rpc: dispatch.New(services, dispatch.Options{
			BooksScope:            opts.BooksScope,
			ListUsersRequiresAuth: opts.ListUsersRequiresAuth,
		}),
		log:  log,
		opts: opts,
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), h.corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	// bearer tokens only, no credentialed requests
	if len(h.opts.CORSOrigins) == 0 || slices.Contains(h.opts.CORSOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.opts.CORSOrigins
	}
	return cors.New(cfg)
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	limit := middleware.RateLimit(h.opts.AuthLimiter, h.opts.AuthPerMinute, time.Minute, middleware.KeyByIPAndPath())
	auth := r.Group("/auth", limit)
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// the dispatcher applies per-operation auth itself
		api.POST("/rpc", h.rpcCall)
		api.GET("/search", h.searchCatalog)
		api.GET("/books", h.optionalAuth(h.opts.BooksScope == dispatch.ScopeUser), h.getBooks)
		api.GET("/users", h.optionalAuth(h.opts.ListUsersRequiresAuth), h.listUsers)
		api.GET("/ws/books", h.optionalAuth(h.opts.BooksScope == dispatch.ScopeUser), h.booksFeed)
	}

	protected := api.Group("", h.authMiddleware)
	{
		protected.GET("/users/me", h.me)
		protected.POST("/books", h.saveBook)
		protected.DELETE("/books/:bookId", h.deleteBook)
		protected.GET("/activity", h.getActivity)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
