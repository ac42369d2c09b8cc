package boundary

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/parcel-geo/internal/geometry"
	"github.com/sells-group/parcel-geo/pkg/arcgis"
)

// Defaults for batch resolution.
const (
	DefaultBatchSize   = 25
	DefaultConcurrency = 4
	DefaultMaxRecords  = 2000
	DefaultIDField     = "PARCEL_ID"
)

// Locator finds the polygon layer URL.
type Locator interface {
	PolygonLayerURL(ctx context.Context) (string, bool)
}

// LayerQuerier runs attribute queries against a layer.
type LayerQuerier interface {
	Query(ctx context.Context, layerURL string, q arcgis.QueryParams) (*arcgis.QueryResponse, error)
}

// Resolver resolves polygon geometry for batches of parcel identifiers.
type Resolver struct {
	locator     Locator
	client      LayerQuerier
	idField     string
	batchSize   int
	concurrency int
	maxRecords  int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIDField sets the identifier attribute queried and keyed on.
func WithIDField(field string) Option {
	return func(r *Resolver) {
		if f := strings.TrimSpace(field); f != "" {
			r.idField = f
		}
	}
}

// WithBatchSize sets the number of identifiers per query.
func WithBatchSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithConcurrency sets how many chunk queries run at once.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithMaxRecords sets resultRecordCount on each chunk query.
func WithMaxRecords(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxRecords = n
		}
	}
}

// NewResolver returns a Resolver querying the layer located by locator.
func NewResolver(locator Locator, client LayerQuerier, opts ...Option) *Resolver {
	r := &Resolver{
		locator:     locator,
		client:      client,
		idField:     DefaultIDField,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		maxRecords:  DefaultMaxRecords,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchParcelGeometries resolves geometry for ids. Blank ids are dropped.
// The result is keyed by the identifier attribute of each returned record;
// unresolved ids are absent. When no polygon layer is available the result
// is empty and the error nil. A failed chunk query fails the call.
func (r *Resolver) FetchParcelGeometries(ctx context.Context, ids []string) (map[string]geometry.Geometry, error) {
	out := make(map[string]geometry.Geometry)

	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return out, nil
	}

	layerURL, ok := r.locator.PolygonLayerURL(ctx)
	if !ok {
		return out, nil
	}

	if err := arcgis.ValidateField(r.idField); err != nil {
		return out, err
	}

	batchID := uuid.NewString()
	log := zap.L().With(
		zap.String("component", "boundary.resolve"),
		zap.String("batch_id", batchID),
	)
	chunks := Chunk(clean, r.batchSize)
	start := time.Now()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			found, err := r.fetchChunk(gctx, layerURL, chunk)
			if err != nil {
				return eris.Wrapf(err, "boundary: chunk %d of %d", i+1, len(chunks))
			}
			mu.Lock()
			for id, geom := range found {
				out[id] = geom
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("boundary: batch resolution failed", zap.Error(err))
		return nil, err
	}

	log.Info("boundary: batch resolved",
		zap.Int("requested", len(clean)),
		zap.Int("chunks", len(chunks)),
		zap.Int("resolved", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (r *Resolver) fetchChunk(ctx context.Context, layerURL string, chunk []string) (map[string]geometry.Geometry, error) {
	where, err := arcgis.EqualsAny(r.idField, chunk)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Query(ctx, layerURL, arcgis.QueryParams{
		Where:             where,
		OutFields:         []string{r.idField},
		ReturnGeometry:    true,
		OutSR:             arcgis.WGS84,
		ResultRecordCount: r.maxRecords,
	})
	if err != nil {
		return nil, err
	}

	found := make(map[string]geometry.Geometry, len(resp.Features))
	for _, f := range resp.Features {
		id, ok := arcgis.AttributeString(f.Attributes, r.idField)
		if !ok {
			continue
		}
		g, ok := arcgis.ToGeometry(f.Geometry)
		if !ok {
			zap.L().Debug("boundary: no usable geometry", zap.String("parcel_id", id))
			continue
		}
		found[id] = g
	}
	return found, nil
}

// Chunk splits ids into consecutive slices of at most size elements,
// preserving order. size <= 0 uses DefaultBatchSize.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
