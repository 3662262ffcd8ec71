package middleware

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// AllowOrigin accepts any localhost or 127.0.0.1 origin plus the exact
// origins listed in allowed.
func AllowOrigin(allowed []string) func(origin string) (bool, error) {
	return func(origin string) (bool, error) {
		if origin == "" {
			return true, nil
		}
		if u, err := url.Parse(origin); err == nil {
			switch u.Hostname() {
			case "localhost", "127.0.0.1":
				return true, nil
			}
		}
		return slices.Contains(allowed, origin), nil
	}
}

// CORS returns the credentialed CORS middleware used by the draw API.
func CORS(allowed []string) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOriginFunc:  AllowOrigin(allowed),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	})
}
