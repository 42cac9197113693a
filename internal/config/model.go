// internal/config/model.go
//
// Typed configuration model for Waypost.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `WAYPOST_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs—only plain strings.  Today that covers the database
// password and the geocoder API key.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host,
// port, or flags without touching Vault.  The *secret* portion
// (`Password`) is a `vault:` reference in YAML and injected at runtime,
// keeping credentials out of flat files and git history.  The DSN may
// contain one `%s` verb where the password is spliced in.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password"`
}

//
// Storage section
//

// Storage locates the media root that the disk blob store serves.
type Storage struct {
	Root string `koanf:"root" validate:"required"`
}

//
// Geocoder section
//

// Geocoder configures the upstream geocoding provider consumed by the
// listing lifecycle.  The API key is usually a `vault:` reference.
type Geocoder struct {
	Endpoint string `koanf:"endpoint"` // internal resolver URL; empty disables
	Source   string `koanf:"source"`   // provider tag saved into geocode_source
	APIKey   string `koanf:"api_key"`
}

//
// GeoIP section
//

// GeoIP points at the MaxMind database used to enrich audit actors with a
// best-effort country code.  Optional; empty disables the lookup.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Listings section
//

// Listings holds policy knobs for the provider-listing lifecycle.
type Listings struct {
	// RestrictedPreferredServices are preferred-service IDs only staff
	// may assign; saving one flags the listing for review.
	RestrictedPreferredServices []int64 `koanf:"restricted_preferred_services"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or WAYPOST_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // WAYPOST_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Storage  Storage  `koanf:"storage"`
	Geocoder Geocoder `koanf:"geocoder"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Listings Listings `koanf:"listings"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
