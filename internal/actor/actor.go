// internal/actor/actor.go
//
// Acting-user metadata captured into audit records.
//
// Context
// -------
// Every audit snapshot records who performed the mutation and from where.
// Inside a request that is the authenticated user ID and the client
// address, enriched best-effort with a device class (uasurfer) and a
// country code (MaxMind).  Outside a request — cron sweeps, maintenance
// commands — both fields fall back to the "console" sentinel so the log
// never holds an empty origin.
//
// The struct is inert: no database handles, no large buffers, safe to log
// or JSON-encode.
//
// Dependencies
// • github.com/avct/uasurfer         (UA parsing)
// • github.com/oschwald/geoip2-golang (MaxMind lookup)

package actor

import (
	"context"
	"net"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// Console is the sentinel recorded for non-interactive mutations.
const Console = "console"

// Actor identifies who is performing a mutation and from where.
type Actor struct {
	UserID  string // authenticated user, or Console
	IP      string // client address, or Console
	Device  string // "Desktop", "Phone", "Tablet", "Bot", …; best-effort
	Country string // ISO country code from MaxMind; best-effort
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is a singleton MaxMind handle.  It is safe for concurrent
// reads, which is all we ever perform.  nil disables country enrichment.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2-City database at startup.  Call it from
// main() when a database path is configured; skipping it simply leaves
// Country empty.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoReader = r
	return nil
}

//
//  -----------------------------
//  Context plumbing
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// WithContext attaches an Actor for downstream audit logging.
func WithContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the Actor stored by the middleware, or the console
// sentinel when the mutation runs outside a request.
func FromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(ctxKey{}).(Actor); ok {
		return a
	}
	return Actor{UserID: Console, IP: Console}
}

//
//  -----------------------------
//  Enrichment helpers
//  -----------------------------
//

// deviceClass maps a raw User-Agent header to a coarse device label.
func deviceClass(uaHeader string) string {
	if uaHeader == "" {
		return ""
	}
	u := uasurfer.Parse(uaHeader)
	switch u.DeviceType {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	}
	if u.IsBot() {
		return "Bot"
	}
	return "Unknown"
}

// countryFor returns the best-effort ISO code for an address.
func countryFor(ip net.IP) string {
	if geoReader == nil || ip == nil {
		return ""
	}
	rec, err := geoReader.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}
