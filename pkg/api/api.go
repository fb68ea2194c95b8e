// Package api implements the REST API for tokenizing source, inspecting the
// operator dispatch table and running code in interpreter sessions.
package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	store *store.Store
}

// Config tunes the server.
type Config struct {
	// AccessLog enables the request logger middleware.
	AccessLog bool
	// MaxSourceBytes caps request bodies; zero uses fiber's default.
	MaxSourceBytes int
}

// New creates a new API server.
func New(s *store.Store, cfg Config) *Server {
	srv := &Server{store: s}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             cfg.MaxSourceBytes,
	})
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	app.Post("/v1/tokenize", srv.tokenize)
	app.Post("/v1/eval", srv.eval)

	// Sessions API
	app.Post("/v1/sessions", srv.createSession)
	app.Get("/v1/sessions", srv.listSessions)
	app.Get("/v1/sessions/:id", srv.getSession)
	app.Delete("/v1/sessions/:id", srv.deleteSession)
	app.Post("/v1/sessions/:id/exec", srv.execSession)

	// Operators API
	app.Get("/v1/operators", srv.listOperators)
	app.Get("/v1/operators/:op/grid", srv.operatorGrid)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func apiError(c *fiber.Ctx, code int, status, msg string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
			"status":  status,
		},
	})
}

func notFound(c *fiber.Ctx, err error) error {
	return apiError(c, 404, "NOT_FOUND", err.Error())
}

type sourceRequest struct {
	Source string `json:"source"`
}

func parseSource(c *fiber.Ctx) (string, error) {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fmt.Errorf("invalid request body: %v", err)
	}
	if req.Source == "" {
		return "", errors.New("source is required")
	}
	return req.Source, nil
}

// --- Tokenize / Eval ---

func (s *Server) tokenize(c *fiber.Ctx) error {
	src, err := parseSource(c)
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", err.Error())
	}
	stream := s.store.Tokenizer().Tokenize(src)
	return c.JSON(fiber.Map{
		"tokens": TokensJSON(stream),
	})
}

// eval runs source in a throwaway session.
func (s *Server) eval(c *fiber.Ctx) error {
	src, err := parseSource(c)
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", err.Error())
	}
	sess, err := s.store.Create()
	if err != nil {
		return createError(c, err)
	}
	defer s.store.Delete(sess.ID())

	results, execErr := sess.Exec(src)
	body := ExecJSON(results, execErr)
	body["variables"] = VariablesJSON(sess.Variables())
	return c.JSON(body)
}

// --- Session Handlers ---

func (s *Server) createSession(c *fiber.Ctx) error {
	sess, err := s.store.Create()
	if err != nil {
		return createError(c, err)
	}
	return c.Status(201).JSON(sess.Info())
}

func createError(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrLimit) {
		return apiError(c, 429, "RESOURCE_EXHAUSTED", err.Error())
	}
	return apiError(c, 500, "INTERNAL", err.Error())
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	sessions := s.store.List()
	items := make([]store.SessionInfo, len(sessions))
	for i, sess := range sessions {
		items[i] = sess.Info()
	}
	return c.JSON(fiber.Map{
		"sessions": items,
	})
}

func (s *Server) getSession(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return notFound(c, err)
	}
	return c.JSON(fiber.Map{
		"session":   sess.Info(),
		"variables": VariablesJSON(sess.Variables()),
	})
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.store.Delete(id); err != nil {
		return notFound(c, err)
	}
	return c.JSON(fiber.Map{
		"id":      id,
		"deleted": true,
	})
}

func (s *Server) execSession(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return notFound(c, err)
	}
	src, err := parseSource(c)
	if err != nil {
		return apiError(c, 400, "INVALID_ARGUMENT", err.Error())
	}

	// Statement errors are part of the result, not a failed request.
	results, execErr := sess.Exec(src)
	return c.JSON(ExecJSON(results, execErr))
}

// --- Operator Handlers ---

func (s *Server) listOperators(c *fiber.Ctx) error {
	t := s.store.Table()
	return c.JSON(fiber.Map{
		"operators": OperatorsJSON(t),
		"handlers":  t.Handlers(),
	})
}

func (s *Server) operatorGrid(c *fiber.Ctx) error {
	op, err := dispatch.ParseOp(c.Params("op"))
	if err != nil {
		return notFound(c, err)
	}
	return c.JSON(GridJSON(s.store.Table(), op))
}
