// Package arcgis is a small client for ArcGIS REST feature-service layers:
// layer metadata, attribute/envelope queries, where-clause building, and
// conversion of Esri JSON geometry into parcel geometry values.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Spatial reference and query constants used on the wire.
const (
	WGS84                = 4326
	GeometryEnvelope     = "esriGeometryEnvelope"
	SpatialRelIntersects = "esriSpatialRelIntersects"
	DefaultTimeout       = 30 * time.Second
	defaultUserAgent     = "parcel-geo/1.0"
)

// ServiceError is the error object ArcGIS returns inside a 200 response.
type ServiceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("arcgis: service error %d: %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("arcgis: service error %d: %s", e.Code, e.Message)
}

// LayerInfo is the subset of layer metadata this client reads.
type LayerInfo struct {
	Name           string        `json:"name"`
	GeometryType   string        `json:"geometryType"`
	MaxRecordCount int           `json:"maxRecordCount"`
	Error          *ServiceError `json:"error,omitempty"`
}

// Feature is one record of a query response.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   map[string]any `json:"geometry"`
}

// QueryResponse is the JSON body of a layer query.
type QueryResponse struct {
	Features              []Feature     `json:"features"`
	ExceededTransferLimit bool          `json:"exceededTransferLimit,omitempty"`
	Error                 *ServiceError `json:"error,omitempty"`
}

// QueryParams describes a layer query. Zero values are omitted except Where,
// which defaults to "1=1".
type QueryParams struct {
	Where             string
	Geometry          string
	GeometryType      string
	SpatialRel        string
	InSR              int
	OutSR             int
	OutFields         []string
	ReturnGeometry    bool
	ResultRecordCount int
}

// Values encodes the params as a query string.
func (q QueryParams) Values() url.Values {
	v := url.Values{}
	v.Set("f", "json")

	where := q.Where
	if where == "" {
		where = "1=1"
	}
	v.Set("where", where)

	if q.Geometry != "" {
		v.Set("geometry", q.Geometry)
	}
	if q.GeometryType != "" {
		v.Set("geometryType", q.GeometryType)
	}
	if q.SpatialRel != "" {
		v.Set("spatialRel", q.SpatialRel)
	}
	if q.InSR != 0 {
		v.Set("inSR", strconv.Itoa(q.InSR))
	}
	if q.OutSR != 0 {
		v.Set("outSR", strconv.Itoa(q.OutSR))
	}
	outFields := "*"
	if len(q.OutFields) > 0 {
		outFields = strings.Join(q.OutFields, ",")
	}
	v.Set("outFields", outFields)
	v.Set("returnGeometry", strconv.FormatBool(q.ReturnGeometry))
	if q.ResultRecordCount > 0 {
		v.Set("resultRecordCount", strconv.Itoa(q.ResultRecordCount))
	}
	return v
}

// Client issues GET requests against feature-service layers. It does not
// retry; callers decide on retry policy.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps requests per second. Zero or negative disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a Client with a 30s timeout and no rate limit.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LayerInfo fetches the layer metadata document ({layerURL}?f=json).
func (c *Client) LayerInfo(ctx context.Context, layerURL string) (*LayerInfo, error) {
	var info LayerInfo
	if err := c.getJSON(ctx, strings.TrimRight(layerURL, "/"), url.Values{"f": {"json"}}, &info); err != nil {
		return nil, eris.Wrap(err, "arcgis: layer info")
	}
	if info.Error != nil {
		return nil, eris.Wrap(info.Error, "arcgis: layer info")
	}
	return &info, nil
}

// Query runs {layerURL}/query with the given params.
func (c *Client) Query(ctx context.Context, layerURL string, q QueryParams) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.getJSON(ctx, QueryURL(layerURL), q.Values(), &resp); err != nil {
		return nil, eris.Wrap(err, "arcgis: query")
	}
	if resp.Error != nil {
		return nil, eris.Wrap(resp.Error, "arcgis: query")
	}
	return &resp, nil
}

// QueryURL returns the query endpoint for a layer URL.
func QueryURL(layerURL string) string {
	base := strings.TrimRight(layerURL, "/")
	if strings.HasSuffix(base, "/query") {
		return base
	}
	return base + "/query"
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit")
	}

	reqURL := endpoint
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		reqURL = endpoint + sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return eris.Wrap(err, "parse response")
	}
	return nil
}
