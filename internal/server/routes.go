package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(ErrorHandlingMiddleware())

	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	authLimiter := newRateLimiter(1, 5)

	// Accounts
	s.echo.POST("/api/accounts/signup", s.handleSignUp, authLimiter)
	s.echo.GET("/api/accounts/verify/:token", s.handleVerifyEmail, authLimiter)
	s.echo.POST("/api/accounts/login", s.handleLogIn, authLimiter)
	s.echo.POST("/api/accounts/logout", s.handleLogOut, s.requireAuth)
	s.echo.GET("/api/accounts/me", s.handleCurrentUser, s.requireAuth)

	// Variants (reads are public, edits require a verified account)
	s.echo.GET("/api/variants", s.handleListVariants)
	s.echo.POST("/api/variants", s.handleCreateVariant, s.requireAuth)
	s.echo.GET("/api/variants/:selector", s.handleGetVariant)
	s.echo.PUT("/api/variants/:selector", s.handleUpdateVariant, s.requireAuth)
	s.echo.PATCH("/api/variants/:selector", s.handlePatchVariant, s.requireAuth)
	s.echo.GET("/api/variants/:selector/edits", s.handleVariantEdits)
	s.echo.GET("/api/variants/:selector/relations", s.handleVariantRelations)

	// Relations
	s.echo.GET("/api/relations", s.handleListRelations)
	s.echo.POST("/api/relations", s.handleCreateRelation, s.requireAuth)
	s.echo.GET("/api/relations/:id", s.handleGetRelation)
	s.echo.PUT("/api/relations/:id", s.handleUpdateRelation, s.requireAuth)
	s.echo.PATCH("/api/relations/:id", s.handlePatchRelation, s.requireAuth)
	s.echo.DELETE("/api/relations/:id", s.handleDeleteRelation, s.requireAuth)
	s.echo.GET("/api/relations/:id/edits", s.handleRelationEdits)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
