package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-secret")

func signed(t *testing.T, claims *Claims, key []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(username string) *Claims {
	return &Claims{
		Username: username,
		UserHash: UserHashFromUsername(username, testKey),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func runJWT(t *testing.T, header string) (*httptest.ResponseRecorder, string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/pool", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	err := JWT(testKey)(func(c echo.Context) error {
		seen, _ = c.Get("username").(string)
		return c.NoContent(http.StatusNoContent)
	})(c)
	return rec, seen, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestJWT(t *testing.T) {
	t.Run("bearer token", func(t *testing.T) {
		rec, user, err := runJWT(t, "Bearer "+signed(t, validClaims("admin"), testKey))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "admin", user)
	})

	t.Run("bare token", func(t *testing.T) {
		_, user, err := runJWT(t, signed(t, validClaims("ops"), testKey))
		require.NoError(t, err)
		assert.Equal(t, "ops", user)
	})

	t.Run("missing header", func(t *testing.T) {
		_, _, err := runJWT(t, "")
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("wrong key", func(t *testing.T) {
		_, _, err := runJWT(t, signed(t, validClaims("admin"), []byte("other")))
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("expired", func(t *testing.T) {
		claims := validClaims("admin")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, _, err := runJWT(t, signed(t, claims, testKey))
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("tampered user hash", func(t *testing.T) {
		claims := validClaims("admin")
		claims.UserHash = UserHashFromUsername("someone-else", testKey)
		_, _, err := runJWT(t, signed(t, claims, testKey))
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := runJWT(t, "not-a-token")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})
}

func TestUserHashFromUsername(t *testing.T) {
	assert.Equal(t, UserHashFromUsername("Admin ", testKey), UserHashFromUsername("admin", testKey))
	assert.NotEqual(t, UserHashFromUsername("admin", testKey), UserHashFromUsername("admin", []byte("x")))
}

func TestAllowOrigin(t *testing.T) {
	allow := AllowOrigin([]string{"https://draw.example.com"})

	tests := map[string]bool{
		"":                          true,
		"http://localhost:5173":     true,
		"http://127.0.0.1:3000":     true,
		"https://draw.example.com":  true,
		"https://evil.example.com":  false,
		"https://draw.example.com.": false,
	}
	for origin, want := range tests {
		got, err := allow(origin)
		require.NoError(t, err)
		assert.Equal(t, want, got, origin)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS(nil))
	e.POST("/draw", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/draw", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}
