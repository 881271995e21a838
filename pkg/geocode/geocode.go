package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/sirupsen/logrus"

	"HibiscusSOS/pkg/cache"
)

// AddressUnavailable is returned whenever reverse geocoding cannot
// produce a human-readable address. Callers display it as-is instead of
// blocking on the upstream.
const AddressUnavailable = "address unavailable"

// DefaultBaseURL points at the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Config configures the resolver.
type Config struct {
	// BaseURL of the Nominatim-compatible reverse geocoding service.
	BaseURL string

	// GeoIPDBPath is an optional path to a MaxMind GeoLite2-City database
	// used for coarse IP-based lookups. Empty disables IP lookups.
	GeoIPDBPath string

	// CacheTTL bounds how long resolved addresses are reused.
	CacheTTL time.Duration

	// Timeout per upstream request.
	Timeout time.Duration
}

// Resolver turns "lat,lng" coordinate strings into street addresses,
// with a cache in front of the upstream service.
type Resolver struct {
	httpClient *http.Client
	baseURL    string
	cache      cache.Cache
	cacheTTL   time.Duration
	geoip      *geoip2.Reader
	logger     *logrus.Logger
}

// NewResolver creates a resolver. A missing GeoIP database is logged and
// ignored, IP lookups just return empty strings in that case.
func NewResolver(cfg Config, c cache.Cache, logger *logrus.Logger) *Resolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := &Resolver{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cache:      c,
		cacheTTL:   cfg.CacheTTL,
		logger:     logger,
	}

	if cfg.GeoIPDBPath != "" {
		reader, err := geoip2.Open(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warnf("geoip database unavailable: %v", err)
		} else {
			r.geoip = reader
		}
	}
	return r
}

// nominatimResponse is the subset of the reverse geocoding payload we use.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
}

// Reverse resolves a "lat,lng" string to an address. Failures of any kind
// degrade to AddressUnavailable.
func (r *Resolver) Reverse(ctx context.Context, location string) string {
	lat, lng, err := ParseLocation(location)
	if err != nil {
		r.logger.Debugf("unparseable location %q: %v", location, err)
		return AddressUnavailable
	}

	key := fmt.Sprintf("geo:%.5f,%.5f", lat, lng)
	if r.cache != nil {
		if addr, ok := r.cache.Get(ctx, key); ok {
			return addr
		}
	}

	addr, err := r.lookup(ctx, lat, lng)
	if err != nil {
		r.logger.Warnf("reverse geocoding failed for %s: %v", location, err)
		return AddressUnavailable
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, addr, r.cacheTTL); err != nil {
			r.logger.Debugf("geocode cache write failed: %v", err)
		}
	}
	return addr
}

func (r *Resolver) lookup(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "jsonv2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "hibiscus-sos/1.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if body.DisplayName == "" {
		return "", fmt.Errorf("empty display_name")
	}
	return body.DisplayName, nil
}

// City returns the city name for an IP address, or "" when the GeoIP
// database is not loaded or the IP is unknown.
func (r *Resolver) City(ip string) string {
	if r.geoip == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := r.geoip.City(parsed)
	if err != nil {
		return ""
	}
	return record.City.Names["en"]
}

// Close releases the GeoIP reader if one was opened.
func (r *Resolver) Close() error {
	if r.geoip != nil {
		return r.geoip.Close()
	}
	return nil
}

// ParseLocation splits a "lat,lng" string into coordinates.
func ParseLocation(location string) (lat, lng float64, err error) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected lat,lng, got %q", location)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude: %w", err)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range: %f,%f", lat, lng)
	}
	return lat, lng, nil
}
