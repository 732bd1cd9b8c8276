package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"quizagent/internal/agent"
	"quizagent/internal/telemetry"
)

// AgentRunner is the surface the HTTP layer needs from the control loop.
type AgentRunner interface {
	Run(ctx context.Context, url string) (*agent.Conversation, error)
}

// Server exposes the agent over HTTP. A nil runner is a valid state: the
// process stays up and reports the construction error instead of refusing
// to start, so the health endpoints remain reachable.
type Server struct {
	echo      *echo.Echo
	runner    AgentRunner
	initErr   error
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

type solveRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Data   any    `json:"data,omitempty"`
}

func New(runner AgentRunner, initErr error, tel *telemetry.Telemetry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	s := &Server{
		echo:      echo.New(),
		runner:    runner,
		initErr:   initErr,
		telemetry: tel,
		logger:    logger,
	}
	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"detail": "request failed", "error": msg})
		}
	}

	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/debug", s.handleDebug)
	s.echo.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if tel != nil {
		s.echo.GET("/metrics", echo.WrapHandler(tel.Handler()))
	}
	s.echo.POST("/agent/solve", s.handleSolve)
	return s
}

// Handler returns the underlying http.Handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) Start(addr string) error {
	s.logger.Printf("listening on %s", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":           "ok",
		"message":          "quiz agent running",
		"agent_available":  s.runner != nil,
		"agent_init_error": errString(s.initErr),
	})
}

func (s *Server) handleDebug(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"agent_mounted":    s.runner != nil,
		"agent_init_error": errString(s.initErr),
	})
}

func (s *Server) handleSolve(c echo.Context) error {
	var req solveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	if s.runner == nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"detail": "agent init failed",
			"error":  errString(s.initErr),
		})
	}

	if s.telemetry != nil {
		s.telemetry.RecordRunStart()
	}
	start := time.Now()
	conv, runErr, stack := s.runSafely(c.Request().Context(), req.URL)
	if s.telemetry != nil {
		s.telemetry.RecordRunEnd(time.Since(start), runErr != nil)
	}

	if runErr != nil {
		s.logger.Printf("solve %s failed after %v: %v", req.URL, time.Since(start), runErr)
		body := map[string]any{"detail": "agent error", "error": runErr.Error()}
		if stack != "" {
			body["traceback"] = stack
		}
		return c.JSON(http.StatusInternalServerError, body)
	}

	s.logger.Printf("solve %s completed in %v with %d turns", req.URL, time.Since(start), conv.Len())
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"result": map[string]any{
			"final": finalText(conv),
			"turns": conv.Len(),
		},
	})
}

// runSafely converts a panicking run into an error carrying the stack, so
// one bad run cannot take the process down.
func (s *Server) runSafely(ctx context.Context, url string) (conv *agent.Conversation, err error, stack string) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panic: %v", r)
			stack = string(debug.Stack())
		}
	}()
	conv, err = s.runner.Run(ctx, url)
	return conv, err, ""
}

func finalText(conv *agent.Conversation) string {
	if conv == nil || conv.Len() == 0 {
		return ""
	}
	return conv.Last().Content.PrimaryText()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
