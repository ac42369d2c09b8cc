package collection

// Output property keys. Every assembled feature carries exactly these.
const (
	PropParcelID = "parcel_id"
	PropCounty   = "county"
	PropAddress  = "address"
)

// ParcelIDKeys are the field names upstream producers have used for the
// parcel identifier, in lookup priority order.
var ParcelIDKeys = []string{
	"parcel_id", "PARCEL_ID",
	"parcelId", "ParcelID",
	"parcel_number", "PARCEL_NUMBER",
	"parcel", "PARCEL",
	"pin", "PIN",
	"apn", "APN",
	"folio", "FOLIO",
}

// AddressKeys are the field names upstream producers have used for the
// site address, in lookup priority order.
var AddressKeys = []string{
	"address", "ADDRESS",
	"site_address", "SITE_ADDRESS",
	"situs_address", "SITUS_ADDRESS",
	"property_address", "PROPERTY_ADDRESS",
	"situs", "SITUS",
}

// Geometry source keys, checked in order before falling back to a
// lon/lat point.
var (
	geometryKeys  = []string{"geometry", "geom"}
	longitudeKeys = []string{"lon", "longitude"}
	latitudeKeys  = []string{"lat", "latitude"}
)
