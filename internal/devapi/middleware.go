package devapi

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/labstack/echo/v4"
)

// requestLogger logs every request and its outcome
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)

		res := c.Response()
		s.log.Info("HTTP Response",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()))
		return err
	}
}

// recordRequests keeps a copy of each request for assertions
func (s *Server) recordRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{Method: req.Method, Path: req.URL.Path, Body: string(body)})
		s.mu.Unlock()
		return next(c)
	}
}

// injectFailures applies the first matching FailNext entry
func (s *Server) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		s.mu.Lock()
		var hit *failure
		for i, f := range s.failures {
			if f.method == req.Method && strings.HasPrefix(req.URL.Path, f.prefix) {
				hit = &f
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if hit == nil {
			return next(c)
		}
		if hit.status != 0 {
			return errorJSON(c, hit.status, "injected failure")
		}
		conn, _, err := c.Response().Hijack()
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// authMiddleware validates the bearer token
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return errorJSON(c, http.StatusUnauthorized, "authorization required")
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return errorJSON(c, http.StatusUnauthorized, "invalid authorization format")
		}

		userID, err := s.verifyToken(token)
		if err != nil {
			return errorJSON(c, http.StatusUnauthorized, "invalid token")
		}

		s.mu.Lock()
		_, ok := s.users[userID]
		s.mu.Unlock()
		if !ok {
			return errorJSON(c, http.StatusUnauthorized, "user not found")
		}

		c.Set("user_id", userID)
		return next(c)
	}
}

func currentUser(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

func paramID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
