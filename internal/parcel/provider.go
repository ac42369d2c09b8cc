package parcel

import (
	"context"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

// Provider serves parcel features for one county.
type Provider interface {
	// County returns the county label features are produced for.
	County() string

	// Load prepares the provider. It is idempotent; failures are returned
	// as *ProviderError.
	Load(ctx context.Context) error

	// Query returns the features intersecting bbox. The slice is never nil.
	Query(ctx context.Context, bbox geometry.BBox) ([]Feature, error)

	// FetchByParcelID looks up one parcel. A nil feature with a nil error
	// means the parcel is absent.
	FetchByParcelID(ctx context.Context, parcelID, county string) (*Feature, error)
}

var (
	_ Provider = (*SyntheticProvider)(nil)
	_ Provider = (*RemoteProvider)(nil)
	_ Provider = (*ShapefileProvider)(nil)
	_ Provider = (*PostGISProvider)(nil)
)
