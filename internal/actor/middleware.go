// internal/actor/middleware.go
//
// HTTP middleware that attaches an Actor to each request.
//
/*
Context
--------
This handler sits high in the chain—immediately after logging / metrics
but before the listing routes.  For every request it:

  1. Extracts the left-most public client IP from X-Forwarded-For or
     X-Real-IP, falling back to `r.RemoteAddr`.
  2. Reads the authenticated user from the X-Waypost-User header that the
     auth proxy injects (authentication itself lives outside this repo).
  3. Classifies the device from the User-Agent header and looks up the
     country via GeoLite2 when configured.
  4. Stores the Actor in `request.Context` under an unexported key, where
     the audit logger picks it up.

Notes
-----
  • All look-ups are read-only and pool-based, so the middleware is safe
    under heavy concurrency.
  • Missing headers degrade to the console sentinels, never to empties.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package actor

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich wraps an http.Handler, attaches an Actor, and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		a := Actor{
			UserID:  Console,
			IP:      Console,
			Device:  deviceClass(r.UserAgent()),
			Country: countryFor(ip),
		}
		if user := r.Header.Get("X-Waypost-User"); user != "" {
			a.UserID = user
		}
		if ip != nil {
			a.IP = ip.String()
		}

		zap.S().Debugw("actor",
			"user", a.UserID,
			"ip", a.IP,
			"device", a.Device,
			"country", a.Country,
			"path", r.URL.Path,
		)

		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), a)))
	})
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most public address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
