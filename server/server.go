// Package server assembles the HTTP server, the entry cache and the
// background refresher.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/guestbook/internal/profile"
	"github.com/hrygo/guestbook/server/cache"
	"github.com/hrygo/guestbook/server/router/frontend"
	"github.com/hrygo/guestbook/server/router/rss"
	"github.com/hrygo/guestbook/server/runner/poller"
	"github.com/hrygo/guestbook/server/service/guestbook"
	"github.com/hrygo/guestbook/store"
)

// maxRequestBody caps form submissions; nothing legitimate comes close.
const maxRequestBody = "8K"

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	cache      *cache.EntryCache
	poller     *poller.Runner
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            31536000,
		HSTSPreloadEnabled:    true,
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))
	e.Use(echomw.BodyLimit(maxRequestBody))
	e.Use(requestLogger())

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
		cache:      cache.New(),
	}

	if profile.UseCache {
		if err := s.cache.Load(ctx, store); err != nil {
			// Not fatal: the cache starts empty and the refresher backfills it.
			slog.Warn("failed to load initial cache", slog.String("error", err.Error()))
		}
	}

	service := guestbook.NewService(store, s.cache, profile.UseCache)
	if err := frontend.NewFrontendService(service).Register(e); err != nil {
		return nil, errors.Wrap(err, "failed to register frontend routes")
	}
	rss.NewRSSService(service).Register(e)

	if profile.UseCache && profile.EnablePoller {
		s.poller = poller.NewRunner(store, s.cache, time.Duration(profile.PollInterval)*time.Second)
	}

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	if s.poller != nil {
		s.poller.Start(ctx)
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started",
		slog.String("address", address),
		slog.String("version", s.Profile.Version),
		slog.Bool("useCache", s.Profile.UseCache),
		slog.Bool("enablePoller", s.Profile.EnablePoller))

	if s.Profile.TLSCert != "" && s.Profile.TLSKey != "" {
		return s.echoServer.StartTLS(address, s.Profile.TLSCert, s.Profile.TLSKey)
	}
	return s.echoServer.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Shutdown echo server
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	// Close database connection
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("server stopped")
}

// GetEcho exposes the router for tests.
func (s *Server) GetEcho() *echo.Echo {
	return s.echoServer
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := uuid.New().String()
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			slog.Info("request",
				slog.String("request_id", requestID),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", c.Response().Status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			return nil
		}
	}
}
