package lookup

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

var zoneExampleCom = map[uint16][]string{
	dns.TypeA: {
		"www.example.com. 300 IN CNAME edge.example.net.",
		"edge.example.net. 60 IN A 93.184.216.34",
	},
	dns.TypeAAAA: {
		"edge.example.net. 60 IN AAAA 2606:2800:220:1:248:1893:25c8:1946",
	},
	dns.TypeCNAME: {
		"www.example.com. 300 IN CNAME edge.example.net.",
	},
}

func mustRR(t testing.TB, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	require.NoError(t, err)
	return rr
}

// answer builds the reply to q from zone.
func answer(t testing.TB, q *dns.Msg, zone map[uint16][]string) *dns.Msg {
	m := new(dns.Msg)
	m.SetReply(q)
	for _, s := range zone[q.Question[0].Qtype] {
		m.Answer = append(m.Answer, mustRR(t, s))
	}
	return m
}

type fakeExchanger struct {
	mu      sync.Mutex
	asked   []uint16
	respond func(q *dns.Msg) (*dns.Msg, error)
}

func (f *fakeExchanger) Exchange(_ context.Context, q *dns.Msg) (*dns.Msg, error) {
	f.mu.Lock()
	f.asked = append(f.asked, q.Question[0].Qtype)
	f.mu.Unlock()
	return f.respond(q)
}

func wantExampleRecords() []Record {
	return []Record{
		{Name: "www.example.com.", Type: dns.TypeCNAME, TypeLabel: "CNAME", TTL: 300, Data: "edge.example.net."},
		{Name: "edge.example.net.", Type: dns.TypeA, TypeLabel: "IPv4", TTL: 60, Data: "93.184.216.34"},
		{Name: "edge.example.net.", Type: dns.TypeAAAA, TypeLabel: "IPv6", TTL: 60, Data: "2606:2800:220:1:248:1893:25c8:1946"},
	}
}

func TestResolver_Resolve(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	x := &fakeExchanger{respond: func(q *dns.Msg) (*dns.Msg, error) {
		assert.Equal(t, "www.example.com.", q.Question[0].Name)
		assert.True(t, q.RecursionDesired)
		return answer(t, q, zoneExampleCom), nil
	}}
	r := NewResolver(x, zap.NewNop())

	got, err := r.Resolve(context.Background(), " www.example.com. ")
	require.NoError(t, err)
	if diff := cmp.Diff(wantExampleRecords(), got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
	assert.ElementsMatch(t, QueryTypes, x.asked)
}

func TestResolver_OtherTypesSortLast(t *testing.T) {
	zone := map[uint16][]string{
		dns.TypeA:    {"example.org. 60 IN TXT \"v=spf1 -all\"", "example.org. 60 IN A 192.0.2.1"},
		dns.TypeAAAA: {"example.org. 60 IN AAAA 2001:db8::1"},
	}
	r := NewResolver(&fakeExchanger{respond: func(q *dns.Msg) (*dns.Msg, error) {
		return answer(t, q, zone), nil
	}}, nil)

	got, err := r.Resolve(context.Background(), "example.org")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "IPv4", got[0].TypeLabel)
	assert.Equal(t, "IPv6", got[1].TypeLabel)
	assert.Equal(t, "TYPE-16", got[2].TypeLabel)
	assert.Equal(t, `"v=spf1 -all"`, got[2].Data)
}

func TestResolver_NoRecords(t *testing.T) {
	r := NewResolver(&fakeExchanger{respond: func(q *dns.Msg) (*dns.Msg, error) {
		m := answer(t, q, nil)
		m.Rcode = dns.RcodeNameError
		return m, nil
	}}, nil)

	_, err := r.Resolve(context.Background(), "nothing.example")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestResolver_PartialFailureStillSucceeds(t *testing.T) {
	r := NewResolver(&fakeExchanger{respond: func(q *dns.Msg) (*dns.Msg, error) {
		if q.Question[0].Qtype == dns.TypeAAAA {
			return nil, errors.New("network unreachable")
		}
		return answer(t, q, zoneExampleCom), nil
	}}, nil)

	got, err := r.Resolve(context.Background(), "www.example.com")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestResolver_AllFailuresJoined(t *testing.T) {
	r := NewResolver(&fakeExchanger{respond: func(q *dns.Msg) (*dns.Msg, error) {
		if q.Question[0].Qtype == dns.TypeCNAME {
			m := answer(t, q, nil)
			m.Rcode = dns.RcodeServerFailure
			return m, nil
		}
		return nil, io.ErrUnexpectedEOF
	}}, nil)

	_, err := r.Resolve(context.Background(), "www.example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.NotErrorIs(t, err, ErrNoRecords)

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Contains(t, err.Error(), "AAAA query failed")
	assert.Contains(t, err.Error(), "SERVFAIL")
}

func TestResolver_InvalidDomain(t *testing.T) {
	x := &fakeExchanger{respond: func(q *dns.Msg) (*dns.Msg, error) { return answer(t, q, nil), nil }}
	r := NewResolver(x, nil)

	for _, d := range []string{"", "localhost", "not a domain", "8.8.8.8"} {
		_, err := r.Resolve(context.Background(), d)
		assert.ErrorIs(t, err, ErrInvalidDomain, "Resolve(%q)", d)
	}
	assert.Empty(t, x.asked)
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"Example.COM.", "example.com"},
		{"münchen.de", "xn--mnchen-3ya.de"},
		{"bücher.example.org", "xn--bcher-kva.example.org"},
	}
	for _, tt := range tests {
		got, err := NormalizeDomain(tt.in)
		require.NoError(t, err, "NormalizeDomain(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "IPv4", TypeLabel(dns.TypeA))
	assert.Equal(t, "IPv6", TypeLabel(dns.TypeAAAA))
	assert.Equal(t, "CNAME", TypeLabel(dns.TypeCNAME))
	assert.Equal(t, "TYPE-15", TypeLabel(dns.TypeMX))
}

func newDoHServer(t *testing.T, zone map[uint16][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != dnsMessageType {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q := new(dns.Msg)
		if err := q.Unpack(body); err != nil || q.Id != 0 {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		raw, err := answer(t, q, zone).Pack()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", dnsMessageType)
		_, _ = w.Write(raw)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDoHResolver(t *testing.T) {
	srv := newDoHServer(t, zoneExampleCom)
	client := NewHTTPClient(5 * time.Second)
	t.Cleanup(client.CloseIdleConnections)

	r := NewDoHResolver(srv.URL+"/dns-query", client, zap.NewNop())
	got, err := r.Resolve(context.Background(), "www.example.com")
	require.NoError(t, err)
	if diff := cmp.Diff(wantExampleRecords(), got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestDoHExchanger_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		x := &DoHExchanger{URL: srv.URL, HTTPClient: srv.Client()}
		q := new(dns.Msg)
		q.SetQuestion("example.com.", dns.TypeA)
		_, err := x.Exchange(context.Background(), q)

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	})

	t.Run("content type", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Status":0}`))
		}))
		defer srv.Close()

		x := &DoHExchanger{URL: srv.URL, HTTPClient: srv.Client()}
		q := new(dns.Msg)
		q.SetQuestion("example.com.", dns.TypeA)
		_, err := x.Exchange(context.Background(), q)
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
	})

	t.Run("restores id", func(t *testing.T) {
		srv := newDoHServer(t, zoneExampleCom)
		x := &DoHExchanger{URL: srv.URL, HTTPClient: srv.Client()}
		q := new(dns.Msg)
		q.SetQuestion("www.example.com.", dns.TypeCNAME)
		q.Id = 4242

		resp, err := x.Exchange(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, uint16(4242), resp.Id)
		assert.Equal(t, uint16(4242), q.Id, "query must not be mutated")
		require.Len(t, resp.Answer, 1)
	})
}

func startUDPServer(t *testing.T, zone map[uint16][]string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, q *dns.Msg) {
			_ = w.WriteMsg(answer(t, q, zone))
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestUDPResolver(t *testing.T) {
	addr := startUDPServer(t, zoneExampleCom)

	r := NewUDPResolver(addr, 2*time.Second, zap.NewNop())
	got, err := r.Resolve(context.Background(), "www.example.com")
	require.NoError(t, err)
	if diff := cmp.Diff(wantExampleRecords(), got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestUDPResolver_Unreachable(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())

	r := NewUDPResolver(addr, 200*time.Millisecond, nil)
	_, err = r.Resolve(context.Background(), "www.example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRecords)
}
