// internal/listing/audit.go
//
// Append-only audit log of listing mutations.
//
// Context
// -------
// Every successful save or delete appends exactly one row to
// `listing_log`: a full copy of the raw columns plus denormalized
// relationship summaries captured at the moment of the action.  Rows are
// never updated or deleted by application flow — the log is the permanent
// record of what happened, and an append failure fails the whole
// mutation.
//
// Snapshot extras beyond the raw columns:
//
//   - comment            – free text attached by the caller, consumed here
//   - modifiedby/user_ip – from the actor context, "console" outside one
//   - services_offered   – comma-joined service IDs
//   - payment_types_accepted – comma-joined payment-method IDs
//   - brands_serviced    – JSON [(idEB, idSVC)] pairs
//   - listing_meta       – JSON copy of all key/value metadata
//
// Structured phone values flatten to their serialized column form before
// snapshotting.

package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/waypost/internal/actor"
)

// Audit actions.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Snapshot is one audit row, ready for insertion.
type Snapshot struct {
	CKey       int64     `db:"ckey"`
	Action     string    `db:"action"`
	Comment    string    `db:"comment"`
	ModifiedBy string    `db:"modifiedby"`
	UserIP     string    `db:"user_ip"`
	LoggedAt   time.Time `db:"logged_at"`

	// Raw column copies.
	CustomerID          int64   `db:"fkcustomerid"`
	StoreName           string  `db:"storename"`
	StoreNumber         string  `db:"storenumber"`
	AdTitle             string  `db:"ad_title"`
	Description         string  `db:"description"`
	Email               string  `db:"email"`
	Website             string  `db:"website2"`
	Status              string  `db:"status"`
	Address             string  `db:"address"`
	Address2            string  `db:"address2"`
	City                string  `db:"city"`
	County              string  `db:"county"`
	StateProv           string  `db:"stateprov"`
	Country             string  `db:"country"`
	PostalCode          string  `db:"postalcode"`
	Highway             string  `db:"highway"`
	HighwayExit         string  `db:"highway_exit"`
	Phone               string  `db:"phone"`
	PhoneNormalized     string  `db:"phone_normalized"`
	Tollfree            string  `db:"tollfree"`
	TollfreeNormalized  string  `db:"tollfree_normalized"`
	Cellphone           string  `db:"cellphone"`
	CellphoneNormalized string  `db:"cellphone_normalized"`
	Fax                 string  `db:"fax"`
	FaxNormalized       string  `db:"fax_normalized"`
	Permalink           string  `db:"permalink"`
	Rank                float64 `db:"rank"`
	Expires             string  `db:"expires"`
	Latitude            float64 `db:"latitude"`
	Longitude           float64 `db:"longitude"`
	MapAccuracy         int     `db:"map_accuracy"`
	GeocodeSource       string  `db:"geocode_source"`
	Image1              string  `db:"image1"`
	Image2              string  `db:"image2"`
	Image3              string  `db:"image3"`
	BannerFile          string  `db:"sbanner_file"`
	Is24Hour            bool    `db:"is24hour"`
	HasShop             bool    `db:"has_shop"`
	ProvidesMobile      bool    `db:"provides_mobile_service"`
	PermitDupPhone      bool    `db:"permit_duplicatephone"`
	ShowFreeInAll       bool    `db:"show_free_in_all_services"`
	PreferredService    int64   `db:"preferred_service"`
	PaymentPolicy       string  `db:"payment_policy"`
	SlinkFacebook       string  `db:"slink_facebook"`
	SlinkTwitter        string  `db:"slink_twitter"`
	SlinkInstagram      string  `db:"slink_instagram"`

	// Denormalized relationship summaries.
	ServicesOffered      string `db:"services_offered"`
	PaymentTypesAccepted string `db:"payment_types_accepted"`
	BrandsServiced       string `db:"brands_serviced"`
	ListingMeta          string `db:"listing_meta"`
}

// AuditStore persists snapshots.  Append must be atomic; the returned
// identifier is the new log row's key.
type AuditStore interface {
	Append(ctx context.Context, snap *Snapshot) (int64, error)
}

// buildSnapshot assembles the audit row for one action.  It consumes the
// listing's pending audit comments and reads associations and metadata
// from the committed state.
func (m *Manager) buildSnapshot(ctx context.Context, l *Listing, action string) (*Snapshot, error) {
	who := actor.FromContext(ctx)

	serviceIDs, err := m.store.ServiceIDs(ctx, l.CKey)
	if err != nil {
		return nil, fmt.Errorf("audit: service ids: %w", err)
	}
	methodIDs, err := m.store.PaymentMethodIDs(ctx, l.CKey)
	if err != nil {
		return nil, fmt.Errorf("audit: payment methods: %w", err)
	}
	pairs, err := m.store.BrandPairs(ctx, l.CKey)
	if err != nil {
		return nil, fmt.Errorf("audit: brand pairs: %w", err)
	}
	metaAll, err := m.meta.All(ctx, l.CKey)
	if err != nil {
		return nil, fmt.Errorf("audit: metadata: %w", err)
	}

	if pairs == nil {
		pairs = []BrandPair{}
	}
	brandsJSON, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("audit: encode brands: %w", err)
	}
	metaJSON, err := json.Marshal(metaAll)
	if err != nil {
		return nil, fmt.Errorf("audit: encode metadata: %w", err)
	}

	return &Snapshot{
		CKey:       l.CKey,
		Action:     action,
		Comment:    l.takeAuditComments(),
		ModifiedBy: who.UserID,
		UserIP:     who.IP,
		LoggedAt:   m.now(),

		CustomerID:          l.CustomerID,
		StoreName:           l.StoreName,
		StoreNumber:         l.StoreNumber,
		AdTitle:             l.AdTitle,
		Description:         l.Description,
		Email:               l.Email,
		Website:             l.Website,
		Status:              l.Status,
		Address:             l.Address,
		Address2:            l.Address2,
		City:                l.City,
		County:              l.County,
		StateProv:           l.StateProv,
		Country:             l.Country,
		PostalCode:          l.PostalCode,
		Highway:             l.Highway,
		HighwayExit:         l.HighwayExit,
		Phone:               l.Phone.Storable(),
		PhoneNormalized:     l.PhoneNormalized,
		Tollfree:            l.Tollfree.Storable(),
		TollfreeNormalized:  l.TollfreeNormalized,
		Cellphone:           l.Cellphone.Storable(),
		CellphoneNormalized: l.CellphoneNormalized,
		Fax:                 l.Fax.Storable(),
		FaxNormalized:       l.FaxNormalized,
		Permalink:           l.Permalink,
		Rank:                l.Rank,
		Expires:             l.Expires.Format("2006-01-02"),
		Latitude:            l.Latitude,
		Longitude:           l.Longitude,
		MapAccuracy:         l.MapAccuracy,
		GeocodeSource:       l.GeocodeSource,
		Image1:              l.Image1,
		Image2:              l.Image2,
		Image3:              l.Image3,
		BannerFile:          l.BannerFile,
		Is24Hour:            l.Is24Hour,
		HasShop:             l.HasShop,
		ProvidesMobile:      l.ProvidesMobileService,
		PermitDupPhone:      l.PermitDuplicatePhone,
		ShowFreeInAll:       l.ShowFreeInAllServices,
		PreferredService:    l.PreferredService,
		PaymentPolicy:       l.PaymentPolicy,
		SlinkFacebook:       l.SlinkFacebook,
		SlinkTwitter:        l.SlinkTwitter,
		SlinkInstagram:      l.SlinkInstagram,

		ServicesOffered:      joinIDs(serviceIDs),
		PaymentTypesAccepted: joinIDs(methodIDs),
		BrandsServiced:       string(brandsJSON),
		ListingMeta:          string(metaJSON),
	}, nil
}

// joinIDs renders IDs as "1,2,3".
func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

//
// SQL implementation
//

// SQLAuditStore appends snapshots to `listing_log`.
type SQLAuditStore struct {
	db *sqlx.DB
}

// NewSQLAuditStore wraps an open pool.
func NewSQLAuditStore(db *sqlx.DB) *SQLAuditStore { return &SQLAuditStore{db: db} }

const auditCols = `ckey, action, comment, modifiedby, user_ip, logged_at,
        fkcustomerid, storename, storenumber, ad_title, description,
        email, website2, status,
        address, address2, city, county, stateprov, country, postalcode,
        highway, highway_exit,
        phone, phone_normalized, tollfree, tollfree_normalized,
        cellphone, cellphone_normalized, fax, fax_normalized,
        permalink, ` + "`rank`" + `, expires,
        latitude, longitude, map_accuracy, geocode_source,
        image1, image2, image3, sbanner_file,
        is24hour, has_shop, provides_mobile_service, permit_duplicatephone,
        show_free_in_all_services, preferred_service, payment_policy,
        slink_facebook, slink_twitter, slink_instagram,
        services_offered, payment_types_accepted, brands_serviced, listing_meta`

// Append implements AuditStore.
func (s *SQLAuditStore) Append(ctx context.Context, snap *Snapshot) (int64, error) {
	q := `INSERT INTO listing_log (` + auditCols + `) VALUES (` + namedList(auditCols) + `)`
	res, err := s.db.NamedExecContext(ctx, q, snap)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
