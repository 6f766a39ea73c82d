package api

import (
	"github.com/certifica/certserver/internal/api/handlers"
	"github.com/certifica/certserver/internal/api/middleware"
	"github.com/certifica/certserver/internal/cert"
	"github.com/certifica/certserver/internal/config"
	"github.com/certifica/certserver/internal/db/repository"
	"github.com/certifica/certserver/internal/policy"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	service *cert.Service,
	certRepo *repository.CertRepository,
	auditRepo *repository.AuditRepository,
	validator *policy.Validator,
) *Server {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	// Cross-origin access for the configured development origins
	if len(cfg.Server.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token"},
			AllowCredentials: true,
		}))
	}

	// Create handlers
	certHandler := handlers.NewCertHandler(service, auditRepo, validator)
	adminHandler := handlers.NewAdminHandler(certRepo, auditRepo)

	// Public certificate endpoints; the paths are the compatibility
	// contract with existing clients
	router.POST("/gerar-certificado/:evento/:pessoa", certHandler.GerarCertificado)
	router.GET("/baixar-certificado/:certificado_id", certHandler.BaixarCertificado)
	router.GET("/validar-certificado/:certificado_id", certHandler.ValidarCertificado)

	// Admin endpoints (require admin token)
	admin := router.Group("/v1/admin")
	admin.Use(middleware.AdminAuth(cfg.Admin.Token))
	{
		admin.GET("/certificados", adminHandler.ListCertificados)
		admin.GET("/auditoria", adminHandler.ListAuditoria)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return &Server{
		router: router,
		config: cfg,
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	return s.router.Run(s.config.Server.ListenAddr)
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
