package handlers

import (
	"time"

	"home_climate/internal/logger"
	"home_climate/internal/relay"
	"home_climate/internal/service"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const defaultSendBuffer = 32

// Options carries transport settings read from configuration.
type Options struct {
	// NodeKey authenticates the field node on /ws and marks device requests
	// on the REST API. Empty disables field node connections.
	NodeKey string
	// SendBuffer is the number of outbound relay messages queued per peer.
	SendBuffer int
}

// Handler wires HTTP layer to services, the relay and logging.
type Handler struct {
	services *service.Service
	hub      *relay.Hub
	relay    *relay.Relay
	opts     Options
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. hub and rel may
// be nil when the websocket route is not used.
func NewHandler(services *service.Service, hub *relay.Hub, rel *relay.Relay, opts Options, log *logger.Logger) *Handler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return &Handler{services: services, hub: hub, relay: rel, opts: opts, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	if h.log != nil {
		zl := h.log.Desugar()
		router.Use(ginzap.Ginzap(zl, time.RFC3339, true))
		router.Use(ginzap.RecoveryWithZap(zl, true))
	} else {
		router.Use(gin.Recovery())
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Event relay for app clients and the field node, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.authenticate, h.requireAdmin)
	{
		h.registerClimateRoutes(api)
		h.registerHomeRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerClimateRoutes(api *gin.RouterGroup) {
	climate := api.Group("/climate")
	{
		climate.GET("", h.getClimate)
		climate.GET("/programs", h.listPrograms)
		climate.GET("/programs/active-program", h.getActiveProgram)
		climate.GET("/programs/:id", h.getProgram)
		climate.GET("/history/:days", h.getHistory)
	}
}

func (h *Handler) registerHomeRoutes(api *gin.RouterGroup) {
	api.GET("/garagedoor", h.getGarageDoor)
	api.GET("/videos", h.listVideos)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
