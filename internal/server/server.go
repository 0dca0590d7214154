// Package server hosts the HTTP surface: the webhook endpoints and the
// health check.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Handler registers a group of routes on the server.
type Handler interface {
	Register(e *echo.Echo)
}

// Server wraps echo with the bot's route set.
type Server struct {
	echo *echo.Echo
	addr string
	log  *slog.Logger
}

func New(addr string, log *slog.Logger, handlers ...Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	for _, h := range handlers {
		h.Register(e)
	}

	return &Server{
		echo: e,
		addr: addr,
		log:  log.With(slog.String("service", "server")),
	}
}

// Start blocks serving HTTP until Shutdown or failure.
func (s *Server) Start() error {
	s.log.Info("http server listening", slog.String("addr", s.addr))
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
