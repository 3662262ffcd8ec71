package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/padraicbc/luckydraw/db"
	mw "github.com/padraicbc/luckydraw/middleware"
	"github.com/padraicbc/luckydraw/models"
)

// tokenTTL is how long an admin token stays valid.
const tokenTTL = 30 * 24 * time.Hour

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

// HashPasswordForUser returns the bcrypt hash stored in admin_users.password.
func HashPasswordForUser(username, password string) (string, error) {
	switch {
	case strings.TrimSpace(username) == "":
		return "", errors.New("username is required")
	case strings.TrimSpace(password) == "":
		return "", errors.New("password is required")
	case len(password) > maxPasswordBytes:
		return "", fmt.Errorf("password is longer than %d bytes", maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password for %s: %w", strings.TrimSpace(username), err)
	}
	return string(hash), nil
}

// IssueToken signs an admin token for username.
func IssueToken(username string, key []byte, now time.Time) (string, error) {
	claims := &mw.Claims{
		Username: username,
		UserHash: mw.UserHashFromUsername(username, key),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// Signin validates admin credentials and returns a JWT token valid for 30 days.
func (h *Handler) Signin(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}
	if h.db == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database not configured")
	}

	user := &models.User{}
	err := h.db.NewSelect().Model(user).
		Where("username = ?", creds.Username).
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "incorrect username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !h.IsAdmin(creds.Username) {
		return echo.NewHTTPError(http.StatusForbidden, "admin access required")
	}

	token, err := IssueToken(creds.Username, h.JWTKey, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// PasswordHash returns a bcrypt hash for manual user registration.
// The route sits behind the JWT middleware; the caller must still be an admin.
func (h *Handler) PasswordHash(c echo.Context) error {
	requester, _ := c.Get("username").(string)
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if h.db != nil {
		// The token may outlive the account.
		err := h.db.NewSelect().Model((*models.User)(nil)).
			Column("id").
			Where("username = ?", requester).
			Limit(1).
			Scan(c.Request().Context(), new(int64))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		case db.IsUnavailable(err):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		case err != nil:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if !h.IsAdmin(requester) {
		return echo.NewHTTPError(http.StatusForbidden, "admin access required")
	}

	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hash, err := HashPasswordForUser(creds.Username, creds.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"username":      strings.TrimSpace(creds.Username),
		"password_hash": hash,
	})
}
