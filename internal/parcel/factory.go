package parcel

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-geo/internal/config"
	"github.com/sells-group/parcel-geo/internal/geometry"
)

// Deps carries the shared collaborators providers are built from.
type Deps struct {
	State     string
	GridSteps int
	Client    Querier
	Pool      Pool
	Matcher   *geometry.Matcher
}

// NewProvider builds the provider a county entry describes.
func NewProvider(cc config.CountyConfig, deps Deps) (Provider, error) {
	switch cc.Source {
	case config.SourceSynthetic, "":
		return NewSyntheticProvider(deps.State, cc.Name, deps.GridSteps), nil
	case config.SourceRemote:
		if deps.Client == nil {
			return nil, eris.Errorf("parcel: county %q: remote source needs a client", cc.Name)
		}
		return NewRemoteProvider(cc.Name, cc.URL, cc.IDField, deps.Client), nil
	case config.SourceShapefile:
		return NewShapefileProvider(cc.Name, cc.Path, cc.IDField, deps.Matcher), nil
	case config.SourcePostGIS:
		if deps.Pool == nil {
			return nil, eris.Errorf("parcel: county %q: postgis source needs a database pool", cc.Name)
		}
		return NewPostGISProvider(cc.Name, cc.Table, deps.Pool), nil
	default:
		return nil, eris.Errorf("parcel: county %q: unknown source %q", cc.Name, cc.Source)
	}
}

// BuildRegistry registers one provider per configured county, in order.
func BuildRegistry(counties []config.CountyConfig, deps Deps) (*Registry, error) {
	reg := NewRegistry()
	for _, cc := range counties {
		p, err := NewProvider(cc, deps)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
