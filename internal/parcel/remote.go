package parcel

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/geometry"
	"github.com/sells-group/parcel-geo/pkg/arcgis"
)

// DefaultIDField is the parcel identifier attribute used when none is configured.
const DefaultIDField = "PARCEL_ID"

const remoteProviderName = "remote"

// Querier is the subset of the ArcGIS client a remote provider needs.
type Querier interface {
	LayerInfo(ctx context.Context, layerURL string) (*arcgis.LayerInfo, error)
	Query(ctx context.Context, layerURL string, q arcgis.QueryParams) (*arcgis.QueryResponse, error)
}

var _ Querier = (*arcgis.Client)(nil)

// RemoteProvider serves parcels from a county feature-service layer.
type RemoteProvider struct {
	county   string
	layerURL string
	idField  string
	client   Querier

	mu     sync.Mutex
	loaded bool
	info   *arcgis.LayerInfo
}

// NewRemoteProvider returns a provider for the layer at layerURL. An empty
// idField uses DefaultIDField.
func NewRemoteProvider(county, layerURL, idField string, client Querier) *RemoteProvider {
	if strings.TrimSpace(idField) == "" {
		idField = DefaultIDField
	}
	return &RemoteProvider{
		county:   county,
		layerURL: strings.TrimRight(layerURL, "/"),
		idField:  idField,
		client:   client,
	}
}

// County returns the county label.
func (p *RemoteProvider) County() string { return p.county }

// LayerName returns the layer name reported by the service, or "" before Load.
func (p *RemoteProvider) LayerName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.info == nil {
		return ""
	}
	return p.info.Name
}

// Load fetches the layer metadata once. A failed load is retried on the
// next call. Concurrent first loads may each fetch; the first success wins.
func (p *RemoteProvider) Load(ctx context.Context) error {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()
	if loaded {
		return nil
	}

	info, err := p.client.LayerInfo(ctx, p.layerURL)
	if err != nil {
		return newProviderError(remoteProviderName, p.county, "load", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return nil
	}
	p.info = info
	p.loaded = true
	zap.L().Debug("parcel: remote layer loaded",
		zap.String("county", p.county),
		zap.String("layer", info.Name),
		zap.String("geometry_type", info.GeometryType),
	)
	return nil
}

// Query returns the layer features intersecting bbox.
func (p *RemoteProvider) Query(ctx context.Context, bbox geometry.BBox) ([]Feature, error) {
	if err := bbox.Validate(); err != nil {
		return []Feature{}, newProviderError(remoteProviderName, p.county, "query", err)
	}
	resp, err := p.client.Query(ctx, p.layerURL, arcgis.QueryParams{
		Geometry:       bbox.String(),
		GeometryType:   arcgis.GeometryEnvelope,
		SpatialRel:     arcgis.SpatialRelIntersects,
		InSR:           arcgis.WGS84,
		OutSR:          arcgis.WGS84,
		ReturnGeometry: true,
	})
	if err != nil {
		return []Feature{}, newProviderError(remoteProviderName, p.county, "query", err)
	}
	if resp.ExceededTransferLimit {
		zap.L().Warn("parcel: remote query truncated by transfer limit",
			zap.String("county", p.county),
			zap.String("bbox", bbox.String()),
		)
	}
	return p.convert(resp.Features, p.county), nil
}

// FetchByParcelID looks up one parcel by its identifier attribute. An empty
// county uses the provider's own label.
func (p *RemoteProvider) FetchByParcelID(ctx context.Context, parcelID, county string) (*Feature, error) {
	parcelID = strings.TrimSpace(parcelID)
	if parcelID == "" {
		return nil, nil
	}
	if county == "" {
		county = p.county
	}
	where, err := arcgis.Equals(p.idField, parcelID)
	if err != nil {
		return nil, newProviderError(remoteProviderName, county, "fetch", err)
	}
	resp, err := p.client.Query(ctx, p.layerURL, arcgis.QueryParams{
		Where:             where,
		OutSR:             arcgis.WGS84,
		ReturnGeometry:    true,
		ResultRecordCount: 1,
	})
	if err != nil {
		return nil, newProviderError(remoteProviderName, county, "fetch", err)
	}
	features := p.convert(resp.Features, county)
	if len(features) == 0 {
		return nil, nil
	}
	return &features[0], nil
}

// convert maps service records to features, skipping records without an
// identifier or a usable geometry.
func (p *RemoteProvider) convert(records []arcgis.Feature, county string) []Feature {
	features := make([]Feature, 0, len(records))
	var skipped int
	for _, rec := range records {
		id, ok := arcgis.AttributeString(rec.Attributes, p.idField)
		if !ok {
			skipped++
			continue
		}
		g, ok := arcgis.ToGeometry(rec.Geometry)
		if !ok {
			skipped++
			continue
		}
		features = append(features, NewFeature(county, id, g))
	}
	if skipped > 0 {
		zap.L().Debug("parcel: skipped remote records",
			zap.String("county", county),
			zap.Int("skipped", skipped),
		)
	}
	return features
}
