package fakeapi

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"cinema-booking-cli/model"
)

const userKey = "user"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid request body"})
	}

	s.mu.Lock()
	u, ok := s.byName[strings.ToLower(strings.TrimSpace(req.Username))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "No active account found with the given credentials"})
	}

	access, err := s.issueAccess(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not issue token"})
	}
	refresh := strings.ReplaceAll(uuid.NewString(), "-", "")

	s.mu.Lock()
	s.refresh[refresh] = u.id
	s.mu.Unlock()

	return c.JSON(http.StatusOK, model.TokenPair{Access: access, Refresh: refresh})
}

func (s *Server) refreshAccess(c echo.Context) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"refresh": []string{"This field is required."}})
	}

	s.mu.Lock()
	userID, ok := s.refresh[req.Refresh]
	u := s.users[userID]
	s.mu.Unlock()
	if !ok || u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Token is invalid or expired"})
	}

	access, err := s.issueAccess(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// RevokeRefresh drops every refresh token, forcing a new login.
func (s *Server) RevokeRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = map[string]model.ID{}
}

func (s *Server) me(c echo.Context) error {
	u := c.Get(userKey).(*user)
	userType := "user"
	if u.admin {
		userType = "admin"
	}
	return c.JSON(http.StatusOK, model.User{
		ID:       u.id,
		Username: u.username,
		Email:    u.email,
		UserType: userType,
		IsStaff:  u.admin,
	})
}

func (s *Server) issueAccess(u *user) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      u.id.String(),
		"username": u.username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// requireUser validates the bearer token and stores the user in the context.
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Authentication credentials were not provided."})
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil || !tok.Valid {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Given token not valid for any token type"})
		}
		sub, err := tok.Claims.GetSubject()
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "invalid claims"})
		}

		s.mu.Lock()
		u := s.users[model.ID(sub)]
		s.mu.Unlock()
		if u == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "User not found"})
		}
		c.Set(userKey, u)
		return next(c)
	}
}
