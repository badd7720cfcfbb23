package devapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
}

// IssueToken signs a token for userID that expires after ttl
func (s *Server) IssueToken(userID int64, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Server) verifyToken(raw string) (int64, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}

// handleRegister handles user registration
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "username, email, and password required")
	}

	s.mu.Lock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) || u.Username == req.Username {
			s.mu.Unlock()
			return errorJSON(c, http.StatusConflict, "username or email already exists")
		}
	}
	s.mu.Unlock()

	if _, err := s.SeedUser(req.Username, req.Email, req.Password); err != nil {
		s.log.Error("bcrypt error", logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	s.log.Info("User registered", logger.F("username", req.Username))
	return c.JSON(http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// handleLogin handles user login
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	s.mu.Lock()
	var acct *account
	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(req.Email)) {
			acct = u
			break
		}
	}
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		return errorJSON(c, http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := s.IssueToken(acct.ID, s.ttl)
	if err != nil {
		s.log.Error("token error", logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	s.log.Info("User logged in", logger.F("username", acct.Username))
	user := acct.User
	user.Role = ""
	return c.JSON(http.StatusOK, loginResponse{Message: "Login successful", Token: token, User: user})
}

// handleMe returns the caller's profile
func (s *Server) handleMe(c echo.Context) error {
	s.mu.Lock()
	acct := s.users[currentUser(c)]
	s.mu.Unlock()
	return c.JSON(http.StatusOK, acct.User)
}

func (s *Server) handleNotifications(c echo.Context) error {
	uid := currentUser(c)
	s.mu.Lock()
	list := s.notifications[uid]
	out := make([]model.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleNotificationRead(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	uid := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications[uid] {
		if s.notifications[uid][i].ID == id {
			s.notifications[uid][i].IsRead = true
			return c.JSON(http.StatusOK, map[string]string{"message": "Notification marked as read"})
		}
	}
	return errorJSON(c, http.StatusNotFound, "Notification not found")
}

func (s *Server) handleDashboardStats(c echo.Context) error {
	uid := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats model.DashboardStats
	for _, roster := range s.members {
		if _, ok := roster[uid]; ok {
			stats.ProjectCount++
		}
	}
	for _, roster := range s.teamMembers {
		if roster[uid] {
			stats.TeamCount++
		}
	}
	for _, it := range s.items {
		if it.IsAssignee(uid) {
			stats.TaskCount++
		}
	}
	return c.JSON(http.StatusOK, stats)
}
