package lookup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
	"golang.org/x/sync/errgroup"

	"github.com/pastemagic/pastemagic"
)

const dnsMessageType = "application/dns-message"

// Record is one answer from a DNS lookup.
type Record struct {
	Name      string `json:"name" yaml:"name" xml:"name"`
	Type      uint16 `json:"type" yaml:"type" xml:"type"`
	TypeLabel string `json:"typeLabel" yaml:"typeLabel" xml:"typeLabel"`
	TTL       uint32 `json:"ttl" yaml:"ttl" xml:"ttl"`
	Data      string `json:"data" yaml:"data" xml:"data"`
}

// TypeLabel names a record type the way the DNS tool displays it.
func TypeLabel(t uint16) string {
	switch t {
	case dns.TypeA:
		return "IPv4"
	case dns.TypeAAAA:
		return "IPv6"
	case dns.TypeCNAME:
		return "CNAME"
	default:
		return fmt.Sprintf("TYPE-%d", t)
	}
}

func typePriority(t uint16) int {
	switch t {
	case dns.TypeCNAME:
		return 1
	case dns.TypeA:
		return 2
	case dns.TypeAAAA:
		return 3
	default:
		return 999
	}
}

// Exchanger sends one DNS query and returns the response.
type Exchanger interface {
	Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error)
}

// DoHExchanger performs DNS-over-HTTPS exchanges using the wire format.
type DoHExchanger struct {
	URL        string
	HTTPClient *http.Client
}

// Exchange posts the packed query and unpacks the response.
func (x *DoHExchanger) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	q := query.Copy()
	q.Id = 0

	raw, err := q.Pack()
	if err != nil {
		return nil, fmt.Errorf("pack query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.URL, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", dnsMessageType)
	req.Header.Set("Accept", dnsMessageType)

	client := x.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: x.URL, StatusCode: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, dnsMessageType) {
		return nil, fmt.Errorf("%w: content type %q", ErrUnexpectedResponse, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, dns.MaxMsgSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	answer := new(dns.Msg)
	if err := answer.Unpack(body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	answer.Id = query.Id
	return answer, nil
}

// UDPExchanger performs plain DNS exchanges with one server.
type UDPExchanger struct {
	Server string
	Client *dns.Client
}

// Exchange sends the query over UDP, retrying over TCP when truncated.
func (x *UDPExchanger) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	client := x.Client
	if client == nil {
		client = &dns.Client{Net: "udp"}
	}
	resp, _, err := client.ExchangeContext(ctx, query, x.Server)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: client.Timeout}
		resp, _, err = tcp.ExchangeContext(ctx, query, x.Server)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Resolver runs the DNS tool's A, AAAA and CNAME queries concurrently.
type Resolver struct {
	Exchanger Exchanger
	Logger    *zap.Logger

	// Timeout bounds each query. Zero leaves the caller's context alone.
	Timeout time.Duration
}

// NewDoHResolver resolves through a DNS-over-HTTPS endpoint.
func NewDoHResolver(endpoint string, client *http.Client, logger *zap.Logger) *Resolver {
	return NewResolver(&DoHExchanger{URL: endpoint, HTTPClient: client}, logger)
}

// NewUDPResolver resolves through a plain DNS server given as host:port.
func NewUDPResolver(server string, timeout time.Duration, logger *zap.Logger) *Resolver {
	r := NewResolver(&UDPExchanger{Server: server, Client: &dns.Client{Net: "udp", Timeout: timeout}}, logger)
	r.Timeout = timeout
	return r
}

// NewResolver wraps an Exchanger.
func NewResolver(x Exchanger, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{Exchanger: x, Logger: logger}
}

// QueryTypes are the record types asked for by Resolve.
var QueryTypes = []uint16{dns.TypeA, dns.TypeAAAA, dns.TypeCNAME}

// NormalizeDomain trims the input, converts internationalized names to
// punycode and validates the result.
func NormalizeDomain(domain string) (string, error) {
	name := strings.TrimSuffix(strings.TrimSpace(domain), ".")
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidDomain, domain, err)
	}
	if !pastemagic.IsValidDomain(ascii) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	return ascii, nil
}

// Resolve queries domain for A, AAAA and CNAME records in parallel and
// merges the answers, CNAME first, then IPv4, then IPv6, then anything else.
// Records repeated across queries are kept once.
//
// Any answer makes the lookup succeed. Without answers, ErrNoRecords is
// returned when every query succeeded, otherwise the query failures joined.
func (r *Resolver) Resolve(ctx context.Context, domain string) ([]Record, error) {
	name, err := NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	answers := make([][]Record, len(QueryTypes))
	failures := make([]error, len(QueryTypes))

	var g errgroup.Group
	for i, qt := range QueryTypes {
		g.Go(func() error {
			answers[i], failures[i] = r.query(ctx, name, qt)
			return nil
		})
	}
	_ = g.Wait()

	var records []Record
	seen := make(map[Record]bool)
	for _, batch := range answers {
		for _, rec := range batch {
			if seen[rec] {
				continue
			}
			seen[rec] = true
			records = append(records, rec)
		}
	}

	if len(records) > 0 {
		slices.SortStableFunc(records, func(a, b Record) int {
			return typePriority(a.Type) - typePriority(b.Type)
		})
		return records, nil
	}

	if err := errors.Join(failures...); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w for %s", ErrNoRecords, name)
}

func (r *Resolver) query(ctx context.Context, name string, qt uint16) ([]Record, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qt)
	msg.RecursionDesired = true

	start := time.Now()
	resp, err := r.Exchanger.Exchange(ctx, msg)
	typ := dns.TypeToString[qt]
	if err != nil {
		r.Logger.Debug("dns query failed", zap.String("name", name), zap.String("type", typ), zap.Error(err))
		return nil, &QueryError{Type: typ, Err: err}
	}
	r.Logger.Debug("dns query done",
		zap.String("name", name),
		zap.String("type", typ),
		zap.String("rcode", dns.RcodeToString[resp.Rcode]),
		zap.Int("answers", len(resp.Answer)),
		zap.Duration("elapsed", time.Since(start)))

	switch resp.Rcode {
	case dns.RcodeSuccess, dns.RcodeNameError:
	default:
		return nil, &QueryError{Type: typ, Err: fmt.Errorf("%w: rcode %s", ErrUnexpectedResponse, dns.RcodeToString[resp.Rcode])}
	}

	records := make([]Record, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		records = append(records, newRecord(rr))
	}
	return records, nil
}

func newRecord(rr dns.RR) Record {
	hdr := rr.Header()
	rec := Record{
		Name:      hdr.Name,
		Type:      hdr.Rrtype,
		TypeLabel: TypeLabel(hdr.Rrtype),
		TTL:       hdr.Ttl,
	}
	switch v := rr.(type) {
	case *dns.A:
		rec.Data = v.A.String()
	case *dns.AAAA:
		rec.Data = v.AAAA.String()
	case *dns.CNAME:
		rec.Data = v.Target
	default:
		rec.Data = strings.TrimSpace(strings.TrimPrefix(rr.String(), hdr.String()))
	}
	return rec
}
