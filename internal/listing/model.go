// internal/listing/model.go
//
// Listing row model and derived helpers.
//
// Context
// -------
// `Listing` mirrors one row in the persistent **listing** table — the
// directory record for a single service provider.  A `CKey` of zero marks
// a record that has never been persisted; the store assigns the key on
// first save and it is immutable afterwards.
//
// The struct also carries a little transient state that never persists:
// audit comments attached to the *next* mutation only, and per-instance
// caches of association lookups that the save pipeline drops before
// persisting so they are recomputed from committed state.
//
// Schema reference (abridged)
//
//	CREATE TABLE listing (
//	    ckey          BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    fkcustomerid  BIGINT UNSIGNED NOT NULL,
//	    permalink     VARCHAR(350) NOT NULL DEFAULT '' UNIQUE,
//	    rank          DECIMAL(2,1) NOT NULL DEFAULT 0,
//	    expires       DATE NOT NULL,
//	    …profile, address, phone, geocode, and image columns…
//	);
//
// Notes
// -----
//   - Phone slots scan and persist through phone.Value, so a column may
//     hold a bare dial string or inline JSON for structured values.
//   - `*_normalized` columns are re-derived on every save and are never
//     independently settable.  Fax has no normalized form.
//   - Oxford commas, two spaces after periods.

package listing

import (
	"math"
	"strings"
	"time"

	"github.com/yanizio/waypost/internal/address"
	"github.com/yanizio/waypost/internal/phone"
)

// Ranks are the defined tier steps, highest first.  Zero is unranked/free.
var Ranks = []float64{3.5, 3, 2.5, 2, 1.5, 1, 0.5, 0}

// BrandPair is one (equipment brand, service) association, captured into
// audit snapshots as JSON because it is more than a flat ID list.
type BrandPair struct {
	BrandID   int64 `json:"idEB"`
	ServiceID int64 `json:"idSVC"`
}

// Listing mirrors one row in the `listing` table.
type Listing struct {
	CKey       int64 `db:"ckey"`
	CustomerID int64 `db:"fkcustomerid"`

	// Profile
	StoreName   string `db:"storename"`
	StoreNumber string `db:"storenumber"`
	AdTitle     string `db:"ad_title"`
	Description string `db:"description"`
	Email       string `db:"email"`
	Website     string `db:"website2"`
	Status      string `db:"status"`

	// Address
	Address     string `db:"address"`
	Address2    string `db:"address2"`
	City        string `db:"city"`
	County      string `db:"county"`
	StateProv   string `db:"stateprov"`
	Country     string `db:"country"`
	PostalCode  string `db:"postalcode"`
	Highway     string `db:"highway"`
	HighwayExit string `db:"highway_exit"`

	// Phone slots.  Fax never gets a normalized form.
	Phone               phone.Value `db:"phone"`
	PhoneNormalized     string      `db:"phone_normalized"`
	Tollfree            phone.Value `db:"tollfree"`
	TollfreeNormalized  string      `db:"tollfree_normalized"`
	Cellphone           phone.Value `db:"cellphone"`
	CellphoneNormalized string      `db:"cellphone_normalized"`
	Fax                 phone.Value `db:"fax"`
	FaxNormalized       string      `db:"fax_normalized"`

	// Placement
	Permalink string    `db:"permalink"`
	Rank      float64   `db:"rank"`
	Expires   time.Time `db:"expires"`

	// Geocode
	Latitude      float64 `db:"latitude"`
	Longitude     float64 `db:"longitude"`
	MapAccuracy   int     `db:"map_accuracy"`
	GeocodeSource string  `db:"geocode_source"`

	// Media
	Image1     string `db:"image1"`
	Image2     string `db:"image2"`
	Image3     string `db:"image3"`
	BannerFile string `db:"sbanner_file"`

	// Flags and misc
	Is24Hour              bool   `db:"is24hour"`
	HasShop               bool   `db:"has_shop"`
	ProvidesMobileService bool   `db:"provides_mobile_service"`
	PermitDuplicatePhone  bool   `db:"permit_duplicatephone"`
	ShowFreeInAllServices bool   `db:"show_free_in_all_services"`
	PreferredService      int64  `db:"preferred_service"`
	PaymentPolicy         string `db:"payment_policy"`
	SlinkFacebook         string `db:"slink_facebook"`
	SlinkTwitter          string `db:"slink_twitter"`
	SlinkInstagram        string `db:"slink_instagram"`

	// Transient state; never persisted.
	auditComments  []string
	cachedServices []int64
	cachedBrands   []BrandPair
}

// AddressParts bundles the geocodable columns.
func (l *Listing) AddressParts() address.Parts {
	return address.Parts{
		Line1:      l.Address,
		Line2:      l.Address2,
		City:       l.City,
		StateProv:  l.StateProv,
		PostalCode: l.PostalCode,
	}
}

// IsMobileOnly reports a provider with no shop that offers mobile service.
// Image naming uses it to pick content roots ("service-vehicle" instead of
// "storefront").
func (l *Listing) IsMobileOnly() bool {
	return !l.HasShop && l.ProvidesMobileService
}

// AddAuditComment attaches free text to the NEXT mutation's audit record.
// Comments are consumed when the snapshot is built and then cleared.
func (l *Listing) AddAuditComment(comment string) {
	if comment != "" {
		l.auditComments = append(l.auditComments, comment)
	}
}

// takeAuditComments joins and clears the pending comments.
func (l *Listing) takeAuditComments() string {
	joined := strings.Join(l.auditComments, " ")
	l.auditComments = nil
	return joined
}

// dropCaches clears the per-instance association caches so post-persist
// consumers recompute from committed state.
func (l *Listing) dropCaches() {
	l.cachedServices = nil
	l.cachedBrands = nil
}

// DistanceFrom returns the great-circle distance in miles from the stored
// coordinates to (lat, lon).
func (l *Listing) DistanceFrom(lat, lon float64) float64 {
	const earthRadiusMiles = 3963

	dLat := deg2rad(lat - l.Latitude)
	dLon := deg2rad(lon - l.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(l.Latitude))*math.Cos(deg2rad(lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMiles * 2 * math.Asin(math.Sqrt(a))
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

// IsInternallyManaged reports whether the listing is run by directory
// staff, recognized by the managed+<tag> contact address convention.
func (l *Listing) IsInternallyManaged() bool {
	local, domain, ok := strings.Cut(l.Email, "@")
	if !ok || domain != "waypost.com" {
		return false
	}
	tag, found := strings.CutPrefix(local, "managed+")
	return found && tag != ""
}
