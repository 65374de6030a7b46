// Package lookup reaches the external IP information and DNS services.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pastemagic/pastemagic"
	jsoncodec "github.com/pastemagic/pastemagic/json"
)

// Cache lifetimes for IP lookups.
const (
	SuccessTTL = 5 * time.Minute
	FailureTTL = time.Minute
)

const maxBodySize = 1 << 20

// IPInfo is the geolocation record returned by the IP info service.
type IPInfo struct {
	IPVersion       int     `json:"ipVersion" yaml:"ipVersion" xml:"ipVersion"`
	IPAddress       string  `json:"ipAddress" yaml:"ipAddress" xml:"ipAddress" send.mask:"ip"`
	Latitude        float64 `json:"latitude" yaml:"latitude" xml:"latitude"`
	Longitude       float64 `json:"longitude" yaml:"longitude" xml:"longitude"`
	CountryName     string  `json:"countryName" yaml:"countryName" xml:"countryName"`
	CountryCode     string  `json:"countryCode" yaml:"countryCode" xml:"countryCode"`
	RegionName      string  `json:"regionName" yaml:"regionName" xml:"regionName"`
	CityName        string  `json:"cityName" yaml:"cityName" xml:"cityName"`
	ZipCode         string  `json:"zipCode" yaml:"zipCode" xml:"zipCode" send.redact:"*****"`
	Continent       string  `json:"continent" yaml:"continent" xml:"continent"`
	ContinentCode   string  `json:"continentCode" yaml:"continentCode" xml:"continentCode"`
	ASN             string  `json:"asn,omitempty" yaml:"asn,omitempty" xml:"asn,omitempty"`
	ASNOrganization string  `json:"asnOrganization,omitempty" yaml:"asnOrganization,omitempty" xml:"asnOrganization,omitempty"`
	ISP             string  `json:"isp,omitempty" yaml:"isp,omitempty" xml:"isp,omitempty"`
	Organization    string  `json:"organization,omitempty" yaml:"organization,omitempty" xml:"organization,omitempty"`
	IsProxy         bool    `json:"isProxy" yaml:"isProxy" xml:"isProxy"`
}

// Clone implements pastemagic.Cloner.
func (i IPInfo) Clone() IPInfo { return i }

var ipInfoProcessor = sync.OnceValues(func() (*pastemagic.Processor[IPInfo], error) {
	return pastemagic.NewProcessor[IPInfo](jsoncodec.New())
})

// Shareable returns a copy of info safe to paste elsewhere: the address
// keeps only its network part and the postal code is hidden.
func Shareable(info *IPInfo) (*IPInfo, error) {
	proc, err := ipInfoProcessor()
	if err != nil {
		return nil, err
	}
	return proc.Mask(info)
}

// IPClient queries the IP info service.
//
// Lookups of a given address are cached for SuccessTTL, failures for
// FailureTTL. The host's own address is always fetched fresh.
//
// Fields may be changed after NewIPClient but not concurrently with lookups.
type IPClient struct {
	// Endpoint is the service base URL. Addresses are appended as a path
	// segment; the bare endpoint answers for the caller's own address.
	Endpoint string

	// HTTPClient performs the requests.
	HTTPClient *http.Client

	// Logger receives debug traces.
	Logger *zap.Logger

	cache *Cache[*IPInfo]
}

// NewIPClient returns a client for endpoint with a fresh cache.
func NewIPClient(endpoint string, client *http.Client, logger *zap.Logger) *IPClient {
	return newIPClient(endpoint, client, logger, time.Now)
}

func newIPClient(endpoint string, client *http.Client, logger *zap.Logger, now func() time.Time) *IPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IPClient{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		HTTPClient: client,
		Logger:     logger,
		cache:      NewCache[*IPInfo](now),
	}
}

// Lookup returns information about ip, which must be an IPv4 or IPv6 address.
func (c *IPClient) Lookup(ctx context.Context, ip string) (*IPInfo, error) {
	ip = strings.TrimSpace(ip)
	if !pastemagic.IsValidIPv4(ip) && !pastemagic.IsValidIPv6(ip) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	if e, ok := c.cache.Get(ip); ok {
		c.Logger.Debug("ip info cache hit", zap.String("ip", ip), zap.Bool("failed", e.Err != nil))
		return e.Value, e.Err
	}

	info, err := c.fetch(ctx, c.Endpoint+"/"+url.PathEscape(ip))
	if err != nil {
		if ctx.Err() == nil {
			c.cache.Set(ip, nil, err, FailureTTL)
		}
		return nil, err
	}
	c.cache.Set(ip, info, nil, SuccessTTL)
	return info, nil
}

// MyIP returns information about the caller's own public address.
func (c *IPClient) MyIP(ctx context.Context) (*IPInfo, error) {
	return c.fetch(ctx, c.Endpoint)
}

func (c *IPClient) fetch(ctx context.Context, target string) (*IPInfo, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Debug("ip info request failed", zap.String("url", target), zap.Error(err))
		return nil, fmt.Errorf("ip info request: %w", err)
	}
	defer resp.Body.Close()

	c.Logger.Debug("ip info response",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	var info IPInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return &info, nil
}
