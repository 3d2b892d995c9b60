package commodity

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed namespaces.yaml
var namespacesYAML []byte

// Namespace is one entry of the exchange or MIC enumeration.
type Namespace struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type registryFile struct {
	Exchanges []Namespace `yaml:"exchanges"`
	MICs      []Namespace `yaml:"mics"`
}

// Registry is the closed set of security namespaces that Exchange and MIC ids are
// validated against. Namespaces outside the registry are General.
type Registry struct {
	exchanges map[string]Namespace
	mics      map[string]Namespace
}

// NewRegistry reads a registry definition in the format of the embedded
// namespaces.yaml file.
func NewRegistry(r io.Reader) (*Registry, error) {
	var file registryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode namespace registry: %w", err)
	}

	reg := &Registry{
		exchanges: make(map[string]Namespace, len(file.Exchanges)),
		mics:      make(map[string]Namespace, len(file.MICs)),
	}
	if err := reg.add(reg.exchanges, file.Exchanges); err != nil {
		return nil, err
	}
	if err := reg.add(reg.mics, file.MICs); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) add(dst map[string]Namespace, entries []Namespace) error {
	for _, ns := range entries {
		code := strings.TrimSpace(ns.Code)
		switch {
		case code == "":
			return fmt.Errorf("namespace registry: empty code for %q", ns.Name)
		case strings.ContainsRune(code, ':'):
			return fmt.Errorf("namespace registry: code %q contains ':'", code)
		case isCurrencyNamespace(code):
			return fmt.Errorf("namespace registry: %q is reserved for currencies", code)
		}
		if _, ok := r.exchanges[code]; ok {
			return fmt.Errorf("namespace registry: duplicate code %q", code)
		}
		if _, ok := r.mics[code]; ok {
			return fmt.Errorf("namespace registry: duplicate code %q", code)
		}
		ns.Code = code
		dst[code] = ns
	}
	return nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	reg, err := NewRegistry(bytes.NewReader(namespacesYAML))
	if err != nil {
		panic(err)
	}
	return reg
})

// DefaultRegistry returns the registry built from the embedded namespaces.yaml.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Classify reports which kind of security namespace ns is.
func (r *Registry) Classify(ns string) Type {
	switch {
	case isCurrencyNamespace(ns):
		return Currency
	case r.IsExchange(ns):
		return Exchange
	case r.IsMIC(ns):
		return MIC
	default:
		return General
	}
}

// IsExchange reports whether ns is a registered exchange abbreviation.
func (r *Registry) IsExchange(ns string) bool {
	_, ok := r.exchanges[ns]
	return ok
}

// IsMIC reports whether ns is a registered market identifier code.
func (r *Registry) IsMIC(ns string) bool {
	_, ok := r.mics[ns]
	return ok
}

// Lookup returns the registry entry for ns.
func (r *Registry) Lookup(ns string) (Namespace, bool) {
	if n, ok := r.exchanges[ns]; ok {
		return n, true
	}
	n, ok := r.mics[ns]
	return n, ok
}

// Exchanges returns the registered exchange codes in sorted order.
func (r *Registry) Exchanges() []string {
	codes := maps.Keys(r.exchanges)
	slices.Sort(codes)
	return codes
}

// MICs returns the registered market identifier codes in sorted order.
func (r *Registry) MICs() []string {
	codes := maps.Keys(r.mics)
	slices.Sort(codes)
	return codes
}
