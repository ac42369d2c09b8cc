// Package boundary resolves parcel polygon boundaries in bulk from a remote
// cadastral feature service: it discovers and validates the polygon layer
// once per process and then fans identifier chunks out as attribute queries.
package boundary

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/parcel-geo/pkg/arcgis"
)

const discoverKey = "polygon-layer"

// LayerFetcher reads layer metadata.
type LayerFetcher interface {
	LayerInfo(ctx context.Context, layerURL string) (*arcgis.LayerInfo, error)
}

// Discoverer finds the polygon layer URL. The first completed outcome,
// found or absent, is cached for the life of the Discoverer; concurrent
// first callers share one metadata request.
type Discoverer struct {
	client     LayerFetcher
	override   string
	defaultURL string
	timeout    time.Duration

	group singleflight.Group

	mu   sync.Mutex
	done bool
	url  string
	ok   bool
}

type discovery struct {
	url string
	ok  bool
}

// NewDiscoverer returns a Discoverer. A non-empty override is trusted and
// returned without a metadata check; otherwise defaultURL is validated.
// timeout bounds the metadata request (<= 0 uses arcgis.DefaultTimeout).
func NewDiscoverer(client LayerFetcher, override, defaultURL string, timeout time.Duration) *Discoverer {
	if timeout <= 0 {
		timeout = arcgis.DefaultTimeout
	}
	return &Discoverer{
		client:     client,
		override:   strings.TrimSpace(override),
		defaultURL: strings.TrimSpace(defaultURL),
		timeout:    timeout,
	}
}

// PolygonLayerURL returns the polygon layer URL, or false when no polygon
// source is available. A caller whose ctx ends while the shared request is
// in flight gets false; the cache is left for the request to settle.
func (d *Discoverer) PolygonLayerURL(ctx context.Context) (string, bool) {
	if d.override != "" {
		return d.override, true
	}

	if u, ok, done := d.cached(); done {
		return u, ok
	}

	// The request is detached from any one caller so a cancelled first
	// caller does not fail the others.
	ch := d.group.DoChan(discoverKey, func() (any, error) {
		if u, ok, done := d.cached(); done {
			return discovery{url: u, ok: ok}, nil
		}
		res := d.discover(context.WithoutCancel(ctx))
		d.mu.Lock()
		d.done, d.url, d.ok = true, res.url, res.ok
		d.mu.Unlock()
		return res, nil
	})

	select {
	case r := <-ch:
		res := r.Val.(discovery)
		return res.url, res.ok
	case <-ctx.Done():
		zap.L().Debug("boundary: discovery wait cancelled", zap.Error(ctx.Err()))
		return "", false
	}
}

func (d *Discoverer) cached() (string, bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, d.ok, d.done
}

func (d *Discoverer) discover(ctx context.Context) discovery {
	log := zap.L().With(zap.String("component", "boundary.discover"))
	if d.defaultURL == "" {
		log.Warn("boundary: no polygon layer configured")
		return discovery{}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	info, err := d.client.LayerInfo(ctx, d.defaultURL)
	if err != nil {
		log.Warn("boundary: polygon layer unavailable",
			zap.String("url", d.defaultURL),
			zap.Error(err),
		)
		return discovery{}
	}
	if !strings.Contains(strings.ToLower(info.GeometryType), "polygon") {
		log.Warn("boundary: layer is not a polygon layer",
			zap.String("url", d.defaultURL),
			zap.String("geometry_type", info.GeometryType),
		)
		return discovery{}
	}

	log.Info("boundary: polygon layer discovered",
		zap.String("url", d.defaultURL),
		zap.String("layer", info.Name),
	)
	return discovery{url: strings.TrimRight(d.defaultURL, "/"), ok: true}
}
