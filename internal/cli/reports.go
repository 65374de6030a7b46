package cli

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/pastemagic/pastemagic"
	"github.com/pastemagic/pastemagic/internal/keystore"
	"github.com/pastemagic/pastemagic/internal/lookup"
	"github.com/pastemagic/pastemagic/internal/render"
)

type detectResult struct {
	XMLName xml.Name        `json:"-" yaml:"-" xml:"detect"`
	Kind    pastemagic.Kind `json:"kind" yaml:"kind" xml:"kind"`
	Label   string          `json:"label" yaml:"label" xml:"label"`
}

func (r *detectResult) Report() *render.Report {
	return &render.Report{Sections: []render.Section{{Fields: []render.Field{
		{Label: "Kind", Value: string(r.Kind)},
		{Label: "Tool", Value: r.Label},
	}}}}
}

type transcodeResult struct {
	XMLName                    xml.Name `json:"-" yaml:"-" xml:"transcode"`
	pastemagic.TranscodeReport `yaml:",inline"`
}

func (r *transcodeResult) Report() *render.Report {
	t := &render.Table{Headers: []string{"FORMAT", "OP", "OUTPUT"}}
	for _, res := range r.Results {
		out := res.Output
		if res.Error != "" {
			out = "error: " + res.Error
		}
		format := string(res.Format)
		if res.Format == r.Active {
			format += " *"
		}
		t.Rows = append(t.Rows, []string{format, string(res.Operation), singleLine(out)})
	}
	return &render.Report{
		Title: "Encoded text",
		Sections: []render.Section{
			{Fields: []render.Field{
				{Label: "Input", Value: r.Input},
				{Label: "Detected", Value: string(r.Detected)},
			}},
			{Table: t},
		},
	}
}

type codeResult struct {
	XMLName   xml.Name `json:"-" yaml:"-" xml:"code"`
	Operation string   `json:"operation" yaml:"operation" xml:"operation"`
	Format    string   `json:"format" yaml:"format" xml:"format"`
	Output    string   `json:"output" yaml:"output" xml:"output"`
}

func (r *codeResult) Report() *render.Report {
	return &render.Report{Sections: []render.Section{{Lines: []string{r.Output}}}}
}

type cipherResult struct {
	XMLName   xml.Name `json:"-" yaml:"-" xml:"cipher"`
	Operation string   `json:"operation" yaml:"operation" xml:"operation"`
	Algorithm string   `json:"algorithm" yaml:"algorithm" xml:"algorithm"`
	Config    string   `json:"config,omitempty" yaml:"config,omitempty" xml:"config,omitempty"`
	Output    string   `json:"output" yaml:"output" xml:"output"`
}

func (r *cipherResult) Report() *render.Report {
	return &render.Report{Sections: []render.Section{{Lines: []string{r.Output}}}}
}

type hashResult struct {
	XMLName xml.Name                `json:"-" yaml:"-" xml:"hash"`
	Input   string                  `json:"input" yaml:"input" xml:"input"`
	Sums    []pastemagic.HashResult `json:"sums" yaml:"sums" xml:"sums>sum"`
}

func (r *hashResult) Report() *render.Report {
	fields := make([]render.Field, 0, len(r.Sums))
	for _, s := range r.Sums {
		fields = append(fields, render.Field{Label: string(s.Algorithm), Value: s.Sum})
	}
	return &render.Report{Title: "Hashes", Sections: []render.Section{{Fields: fields}}}
}

type ipResult struct {
	XMLName xml.Name                 `json:"-" yaml:"-" xml:"ip"`
	Input   string                   `json:"input" yaml:"input" xml:"input"`
	Kind    pastemagic.IPKind        `json:"kind" yaml:"kind" xml:"kind"`
	Subnet  *pastemagic.CIDRInfo     `json:"subnet,omitempty" yaml:"subnet,omitempty" xml:"subnet,omitempty"`
	Subnet6 *pastemagic.IPv6CIDRInfo `json:"subnet6,omitempty" yaml:"subnet6,omitempty" xml:"subnet6,omitempty"`
	Info    *lookup.IPInfo           `json:"info,omitempty" yaml:"info,omitempty" xml:"info,omitempty"`
}

func (r *ipResult) Report() *render.Report {
	rep := &render.Report{}
	switch {
	case r.Subnet != nil:
		s := r.Subnet
		rep.Title = "IPv4 subnet " + r.Input
		rep.Sections = append(rep.Sections, render.Section{Fields: []render.Field{
			{Label: "Network", Value: s.NetworkAddress},
			{Label: "Netmask", Value: s.SubnetMask},
			{Label: "Prefix", Value: strconv.Itoa(s.PrefixLength)},
			{Label: "Addresses", Value: strconv.FormatUint(s.TotalIPCount, 10)},
			{Label: "Usable", Value: strconv.FormatUint(s.UsableIPCount, 10)},
			{Label: "First", Value: s.StartIP},
			{Label: "Last", Value: s.EndIP},
			{Label: "Broadcast", Value: s.BroadcastAddress},
		}})
	case r.Subnet6 != nil:
		s := r.Subnet6
		rep.Title = "IPv6 subnet " + r.Input
		rep.Sections = append(rep.Sections, render.Section{Fields: []render.Field{
			{Label: "Network", Value: s.NetworkAddress},
			{Label: "Last", Value: s.LastAddress},
			{Label: "Prefix", Value: strconv.Itoa(s.PrefixLength)},
			{Label: "Addresses", Value: s.TotalAddresses},
			{Label: "Usable", Value: s.UsableAddresses},
		}})
	case r.Info != nil:
		rep.Title = "IP " + r.Info.IPAddress
		rep.Sections = append(rep.Sections, ipInfoSection(r.Info))
	}
	return rep
}

func ipInfoSection(info *lookup.IPInfo) render.Section {
	proxy := "no"
	if info.IsProxy {
		proxy = "yes"
	}
	return render.Section{Fields: []render.Field{
		{Label: "Address", Value: info.IPAddress},
		{Label: "Version", Value: "IPv" + strconv.Itoa(info.IPVersion)},
		{Label: "Country", Value: joinNonEmpty(" ", info.CountryName, parens(info.CountryCode))},
		{Label: "Region", Value: info.RegionName},
		{Label: "City", Value: joinNonEmpty(" ", info.CityName, info.ZipCode)},
		{Label: "Continent", Value: joinNonEmpty(" ", info.Continent, parens(info.ContinentCode))},
		{Label: "Location", Value: fmt.Sprintf("%.4f, %.4f", info.Latitude, info.Longitude)},
		{Label: "ASN", Value: joinNonEmpty(" ", info.ASN, info.ASNOrganization)},
		{Label: "ISP", Value: info.ISP},
		{Label: "Organization", Value: info.Organization},
		{Label: "Proxy", Value: proxy},
	}}
}

type myIPResult struct {
	XMLName       xml.Name `json:"-" yaml:"-" xml:"myip"`
	lookup.IPInfo `yaml:",inline"`
}

func (r *myIPResult) Report() *render.Report {
	return &render.Report{Title: "My IP", Sections: []render.Section{ipInfoSection(&r.IPInfo)}}
}

type dnsResult struct {
	XMLName xml.Name        `json:"-" yaml:"-" xml:"dns"`
	Domain  string          `json:"domain" yaml:"domain" xml:"domain"`
	Query   string          `json:"query" yaml:"query" xml:"query"`
	Records []lookup.Record `json:"records" yaml:"records" xml:"records>record"`
}

func (r *dnsResult) Report() *render.Report {
	t := &render.Table{Headers: []string{"TYPE", "TTL", "DATA"}}
	for _, rec := range r.Records {
		t.Rows = append(t.Rows, []string{rec.TypeLabel, strconv.FormatUint(uint64(rec.TTL), 10), rec.Data})
	}
	fields := []render.Field{{Label: "Domain", Value: r.Domain}}
	if r.Query != r.Domain {
		fields = append(fields, render.Field{Label: "Query", Value: r.Query})
	}
	return &render.Report{
		Title:    "DNS",
		Sections: []render.Section{{Fields: fields}, {Title: "Records", Table: t}},
	}
}

type cronResult struct {
	XMLName                 xml.Name `json:"-" yaml:"-" xml:"cron"`
	pastemagic.CronSchedule `yaml:",inline"`
	Location                string `json:"location" yaml:"location" xml:"location"`
}

func (r *cronResult) Report() *render.Report {
	t := &render.Table{Headers: []string{"#", "RUN"}}
	for i, run := range r.Runs {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), run})
	}
	return &render.Report{
		Title: "Cron " + r.Expression,
		Sections: []render.Section{
			{Fields: []render.Field{{Label: "Zone", Value: r.Location}}},
			{Title: "Next runs", Table: t},
		},
	}
}

type timeResult struct {
	XMLName xml.Name             `json:"-" yaml:"-" xml:"time"`
	Parsed  *pastemagic.TimeInfo `json:"parsed,omitempty" yaml:"parsed,omitempty" xml:"parsed,omitempty"`
	Now     pastemagic.Clock     `json:"now" yaml:"now" xml:"now"`
}

func (r *timeResult) Report() *render.Report {
	rep := &render.Report{Title: "Time"}
	if p := r.Parsed; p != nil {
		rep.Sections = append(rep.Sections, render.Section{Title: "Input", Fields: []render.Field{
			{Label: "Read as", Value: string(p.Type)},
			{Label: "Date", Value: p.Formatted},
			{Label: "Seconds", Value: strconv.FormatInt(p.Seconds, 10)},
			{Label: "Milliseconds", Value: strconv.FormatInt(p.Milliseconds, 10)},
		}})
	}
	rep.Sections = append(rep.Sections, render.Section{Title: "Now", Fields: []render.Field{
		{Label: "Date", Value: r.Now.Formatted},
		{Label: "Seconds", Value: strconv.FormatInt(r.Now.Seconds, 10)},
		{Label: "Milliseconds", Value: strconv.FormatInt(r.Now.Milliseconds, 10)},
	}})
	return rep
}

type jsonResult struct {
	XMLName xml.Name              `json:"-" yaml:"-" xml:"json"`
	Mode    string                `json:"mode" yaml:"mode" xml:"mode"`
	Output  string                `json:"output,omitempty" yaml:"output,omitempty" xml:"output,omitempty"`
	Error   *pastemagic.JSONError `json:"error,omitempty" yaml:"error,omitempty" xml:"error,omitempty"`
}

func (r *jsonResult) Report() *render.Report {
	if e := r.Error; e != nil {
		return &render.Report{Title: "Invalid JSON", Sections: []render.Section{{Fields: []render.Field{
			{Label: "Line", Value: strconv.Itoa(e.Line)},
			{Label: "Column", Value: strconv.Itoa(e.Column)},
			{Label: "Position", Value: strconv.Itoa(e.Position)},
			{Label: "Near", Value: e.Context.Before + ">>" + e.Context.Char + "<<" + e.Context.After},
			{Label: "Message", Value: e.RawMessage},
		}}}}
	}
	return &render.Report{Sections: []render.Section{{Lines: []string{r.Output}}}}
}

type urlResult struct {
	XMLName                  xml.Name `json:"-" yaml:"-" xml:"url"`
	pastemagic.URLInspection `yaml:",inline"`
}

func (r *urlResult) Report() *render.Report {
	fields := []render.Field{
		{Label: "Type", Value: string(r.Type)},
		{Label: "Decoded", Value: r.Decoded},
		{Label: "Encoded", Value: r.Encoded},
		{Label: "QR text", Value: r.QRPayload},
	}
	if r.DecodeError != "" {
		fields = append(fields, render.Field{Label: "Error", Value: r.DecodeError})
	}
	return &render.Report{Title: "URL", Sections: []render.Section{{Fields: fields}}}
}

type keyConfigResult struct {
	XMLName            xml.Name `json:"-" yaml:"-" xml:"config"`
	keystore.KeyConfig `yaml:",inline"`
}

func (r *keyConfigResult) Report() *render.Report {
	return &render.Report{Title: r.Name, Sections: []render.Section{keyConfigSection(&r.KeyConfig)}}
}

func keyConfigSection(k *keystore.KeyConfig) render.Section {
	fields := []render.Field{
		{Label: "ID", Value: k.ID},
		{Label: "Algorithm", Value: k.Algorithm},
	}
	if k.IsRSA() {
		fields = append(fields,
			render.Field{Label: "Public key", Value: k.PublicKey},
			render.Field{Label: "Private key", Value: k.PrivateKey},
		)
	} else {
		fields = append(fields,
			render.Field{Label: "Key", Value: withChain(k.Key, k.KeyEncoding)},
			render.Field{Label: "IV", Value: withChain(k.IV, k.IVEncoding)},
		)
	}
	fields = append(fields,
		render.Field{Label: "Plaintext", Value: chainString(k.PlainEncoding)},
		render.Field{Label: "Ciphertext", Value: chainString(k.CipherEncoding)},
		render.Field{Label: "Created", Value: k.CreatedAt.Local().Format(pastemagic.DateTimeLayout)},
	)
	return render.Section{Fields: fields}
}

type keyPageResult struct {
	XMLName       xml.Name `json:"-" yaml:"-" xml:"configs"`
	keystore.Page `yaml:",inline"`
}

func (r *keyPageResult) Report() *render.Report {
	t := &render.Table{Headers: []string{"NAME", "ALGORITHM", "KEY", "CREATED"}}
	for _, k := range r.Items {
		key := k.Key
		if k.IsRSA() {
			key = "RSA key pair"
		}
		t.Rows = append(t.Rows, []string{k.Name, k.Algorithm, key, k.CreatedAt.Local().Format(pastemagic.DateTimeLayout)})
	}
	return &render.Report{
		Title:    fmt.Sprintf("Key configs (page %d/%d, %d total)", r.Page.Page, r.Pages, r.Total),
		Sections: []render.Section{{Table: t}},
	}
}

func withChain(value string, chain []pastemagic.Encoding) string {
	if value == "" {
		return ""
	}
	return value + " (" + chainString(chain) + ")"
}

func chainString(chain []pastemagic.Encoding) string {
	parts := make([]string, len(chain))
	for i, e := range chain {
		parts[i] = string(e)
	}
	return strings.Join(parts, ",")
}

func parens(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func singleLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", ""), "\n", `\n`)
}
