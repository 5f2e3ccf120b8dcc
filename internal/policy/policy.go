package policy

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Class labels why a mismatch might be tolerated outside CI.
type Class string

const (
	// ClassStrict mismatches fail everywhere (auth enforcement, schema shape).
	ClassStrict Class = "strict"
	// ClassTiming covers latency- and ordering-dependent expectations.
	ClassTiming Class = "timing"
	// ClassThirdParty covers behavior owned by an upstream vendor.
	ClassThirdParty Class = "third_party"
	// ClassRendering covers HTML/markup variance between deployments.
	ClassRendering Class = "rendering"
	// ClassHeader covers security/operational headers that differ per environment.
	ClassHeader Class = "header"
)

// Table is the explicit policy table the runner consults: which endpoints are
// optional per deployment, which mismatch classes degrade to warnings outside
// CI, and which headers are mandatory when running in CI.
type Table struct {
	OptionalEndpoints  []string `yaml:"optional_endpoints"`
	FlakyClasses       []Class  `yaml:"flaky_classes"`
	CIMandatoryHeaders []string `yaml:"ci_mandatory_headers"`

	flaky map[Class]bool
}

// Default returns the built-in table used when no policy file is configured.
func Default() *Table {
	t := &Table{
		OptionalEndpoints: []string{
			"/news",
			"/news/*",
			"/offices/*/hours",
			"/announcements",
		},
		FlakyClasses: []Class{ClassTiming, ClassThirdParty, ClassRendering, ClassHeader},
		CIMandatoryHeaders: []string{
			"x-request-id",
			"x-ratelimit-limit",
			"content-security-policy",
			"access-control-allow-origin",
		},
	}
	t.index()
	return t
}

// Load reads a YAML table from disk. Fields left empty in the file fall back
// to the built-in defaults.
func Load(file string) (*Table, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read policy file")
	}
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, errors.Wrap(err, "parse policy file")
	}
	def := Default()
	if len(t.OptionalEndpoints) == 0 {
		t.OptionalEndpoints = def.OptionalEndpoints
	}
	if len(t.FlakyClasses) == 0 {
		t.FlakyClasses = def.FlakyClasses
	}
	if len(t.CIMandatoryHeaders) == 0 {
		t.CIMandatoryHeaders = def.CIMandatoryHeaders
	}
	t.index()
	return &t, nil
}

func (t *Table) index() {
	t.flaky = make(map[Class]bool, len(t.FlakyClasses))
	for _, c := range t.FlakyClasses {
		t.flaky[c] = true
	}
}

// Optional reports whether the endpoint may be absent in some deployments.
// Patterns use path.Match syntax; entries without wildcards also match any
// sub-path (so "/news" covers "/news/2024-01").
func (t *Table) Optional(endpoint string) bool {
	endpoint = normalize(endpoint)
	for _, pat := range t.OptionalEndpoints {
		pat = normalize(pat)
		if ok, err := path.Match(pat, endpoint); err == nil && ok {
			return true
		}
		if !strings.ContainsAny(pat, "*?[") && strings.HasPrefix(endpoint, pat+"/") {
			return true
		}
	}
	return false
}

// Sensitive reports whether a mismatch of the given class may be downgraded
// to a warning outside CI. ClassStrict is never sensitive.
func (t *Table) Sensitive(c Class) bool {
	if c == ClassStrict || c == "" {
		return false
	}
	if t.flaky == nil {
		t.index()
	}
	return t.flaky[c]
}

// MandatoryHeader reports whether the header must be present when running in CI.
func (t *Table) MandatoryHeader(name string) bool {
	for _, h := range t.CIMandatoryHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
