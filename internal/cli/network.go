package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pastemagic/pastemagic"
	"github.com/pastemagic/pastemagic/internal/lookup"
)

func (a *app) ipClient() (*lookup.IPClient, error) {
	timeout, err := a.cfg.LookupTimeout()
	if err != nil {
		return nil, err
	}
	return lookup.NewIPClient(a.cfg.Lookup.IPEndpoint, lookup.NewHTTPClient(timeout), a.logger.Named("ipinfo")), nil
}

func (a *app) resolver() (*lookup.Resolver, error) {
	timeout, err := a.cfg.LookupTimeout()
	if err != nil {
		return nil, err
	}
	logger := a.logger.Named("dns")
	if a.cfg.Lookup.DNSProtocol == "udp" {
		return lookup.NewUDPResolver(a.cfg.Lookup.DNSServer, timeout, logger), nil
	}
	r := lookup.NewDoHResolver(a.cfg.Lookup.DoHURL, lookup.NewHTTPClient(timeout), logger)
	r.Timeout = timeout
	return r, nil
}

func (a *app) ipCmd() *cobra.Command {
	var mask bool

	c := &cobra.Command{
		Use:   "ip <address|cidr>",
		Short: "Describe an IP subnet or look up an IP address",
		Long: `Subnets in CIDR notation (IPv4 or IPv6) are described offline.
Plain addresses are looked up with the configured IP info service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireInput(cmd, args)
			if err != nil {
				return err
			}
			return a.runIP(cmd, s, mask)
		},
	}

	c.Flags().BoolVar(&mask, "mask", false, "mask the address and postal code of a lookup")
	return c
}

func (a *app) runIP(cmd *cobra.Command, s string, mask bool) error {
	s = strings.TrimSpace(s)
	res := &ipResult{Input: s, Kind: pastemagic.ClassifyIP(s)}

	var err error
	switch res.Kind {
	case pastemagic.IPKindCIDR:
		res.Subnet, err = pastemagic.ParseCIDR(s)
	case pastemagic.IPKindIPv6CIDR:
		res.Subnet6, err = pastemagic.ParseIPv6CIDR(s)
	case pastemagic.IPKindIPv4, pastemagic.IPKindIPv6:
		var client *lookup.IPClient
		if client, err = a.ipClient(); err == nil {
			res.Info, err = client.Lookup(cmd.Context(), s)
		}
	default:
		err = fmt.Errorf("%w: %q is not an IP address or subnet", pastemagic.ErrInvalidInput, s)
	}
	if err != nil {
		return err
	}
	if mask && res.Info != nil {
		if res.Info, err = lookup.Shareable(res.Info); err != nil {
			return err
		}
		res.Input = res.Info.IPAddress
	}
	return a.print(cmd, res)
}

func (a *app) myIPCmd() *cobra.Command {
	var mask bool

	c := &cobra.Command{
		Use:   "myip",
		Short: "Show the public IP address of this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMyIP(cmd, mask)
		},
	}

	c.Flags().BoolVar(&mask, "mask", false, "mask the address and postal code")
	return c
}

func (a *app) runMyIP(cmd *cobra.Command, mask bool) error {
	client, err := a.ipClient()
	if err != nil {
		return err
	}
	info, err := client.MyIP(cmd.Context())
	if err != nil {
		return err
	}
	if mask {
		if info, err = lookup.Shareable(info); err != nil {
			return err
		}
	}
	return a.print(cmd, &myIPResult{IPInfo: *info})
}

func (a *app) dnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dns <domain>",
		Short: "Resolve the A, AAAA and CNAME records of a domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireInput(cmd, args)
			if err != nil {
				return err
			}
			return a.runDNS(cmd, s)
		},
	}
}

func (a *app) runDNS(cmd *cobra.Command, domain string) error {
	domain = strings.TrimSpace(domain)
	query, err := lookup.NormalizeDomain(domain)
	if err != nil {
		return err
	}
	r, err := a.resolver()
	if err != nil {
		return err
	}
	a.logger.Debug("resolving", zap.String("domain", query), zap.String("protocol", a.cfg.Lookup.DNSProtocol))
	records, err := r.Resolve(cmd.Context(), query)
	if err != nil {
		return err
	}
	return a.print(cmd, &dnsResult{Domain: domain, Query: query, Records: records})
}
