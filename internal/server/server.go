package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meridianlabs/accounthub/internal/account"
	"github.com/meridianlabs/accounthub/internal/admin"
	"github.com/meridianlabs/accounthub/internal/config"
	"github.com/meridianlabs/accounthub/internal/session"
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	AccountHandler *account.Handler
	AdminHandler   *admin.Handler
	Middleware     *session.Middleware
}

func NewServer(p Params) *Server {
	if os.Getenv("APP_ENV") == EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(p.Logger))

	api := router.Group("/api")
	p.AccountHandler.AddAuthRoutes(api)
	p.AccountHandler.AddUserRoutes(api, p.Middleware)
	p.AdminHandler.AddAdminRoutes(api, p.Middleware)

	addr := fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port)

	return &Server{
		config: p.Config,
		log:    p.Logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func (s *Server) Stop() {
	s.log.Info("shutting down HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("failed to shut down server cleanly", zap.Error(err))
	}
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("host", config.Server.Host)
		enc.AddString("port", config.Server.Port)
		enc.AddDuration("session_duration", config.Auth.SessionDuration)
		return nil
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
