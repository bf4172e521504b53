package main

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// AuthTokenMiddleware accepts requests carrying the gateway's static bearer
// token. With no token configured every request is refused.
func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		authHeader := request.Header.Get("Authorization")
		if authHeader == "" {
			app.unauthorizedErrorResponse(writer, request, fmt.Errorf("missing auth header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			app.unauthorizedErrorResponse(writer, request, fmt.Errorf("invalid auth header"))
			return
		}

		expected := app.config.gatewayToken
		if expected == "" || subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
			app.unauthorizedErrorResponse(writer, request, fmt.Errorf("invalid token"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(clientAddr(request)); !allow {
				app.rateLimitExceededResponse(writer, request, fmt.Sprintf("%.0f", retryAfter.Seconds()))
				return
			}
		}
		next.ServeHTTP(writer, request)
	})
}

// clientAddr is the request's remote host without the port.
func clientAddr(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
