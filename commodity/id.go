// Package commodity identifies currencies and securities and converts amounts between
// them through per-namespace factor tables.
//
// An ID is written on disk as NAMESPACE:CODE. The CURRENCY namespace (and its older
// alias ISO4217) holds ISO-4217 currencies; every other namespace holds securities.
// Security namespaces are classified against a Registry of exchange abbreviations and
// market identifier codes; anything not registered is a General namespace.
package commodity

import (
	"strings"

	"golang.org/x/text/currency"
)

// Type is the kind of commodity an ID names.
type Type int

const (
	Invalid Type = iota
	Currency
	Exchange
	MIC
	General
)

func (t Type) String() string {
	switch t {
	case Currency:
		return "currency"
	case Exchange:
		return "exchange"
	case MIC:
		return "MIC"
	case General:
		return "general"
	default:
		return "invalid"
	}
}

const (
	// CurrencyNamespace is the wire namespace of every currency.
	CurrencyNamespace = "CURRENCY"

	legacyCurrencyNamespace = "ISO4217"
)

// ID identifies a currency or a security. IDs are comparable and can be used as map
// keys. The zero ID identifies nothing.
type ID struct {
	typ  Type
	ns   string
	code string
}

// Parse reads a NAMESPACE:CODE identifier, classifying the namespace against the
// default registry.
func Parse(text string) (ID, error) {
	return DefaultRegistry().Parse(text)
}

// MustParse is like Parse but panics on error.
func MustParse(text string) ID {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

// Parse reads a NAMESPACE:CODE identifier. The first ':' must be neither within the
// first three characters nor within two characters of the end.
func (r *Registry) Parse(text string) (ID, error) {
	idx := strings.IndexByte(text, ':')
	switch {
	case idx < 0:
		return ID{}, NewParseError(text, "missing ':' separator")
	case idx < 3:
		return ID{}, NewParseError(text, "namespace too short")
	case idx >= len(text)-2:
		return ID{}, NewParseError(text, "code too short")
	}

	ns, code := text[:idx], text[idx+1:]
	switch r.Classify(ns) {
	case Currency:
		return NewCurrency(code)
	case Exchange:
		return r.NewExchangeSecurity(ns, code)
	case MIC:
		return r.NewMICSecurity(ns, code)
	default:
		return r.NewGeneralSecurity(ns, code)
	}
}

// NewCurrency returns the currency with the given ISO-4217 code.
func NewCurrency(code string) (ID, error) {
	if len(code) != 3 || strings.ToUpper(code) != code {
		return ID{}, NewParseError(code, "currency code must be three upper-case letters")
	}
	if _, err := currency.ParseISO(code); err != nil {
		return ID{}, NewParseError(code, "unknown ISO-4217 currency")
	}
	return ID{typ: Currency, ns: CurrencyNamespace, code: code}, nil
}

// MustCurrency is like NewCurrency but panics on error.
func MustCurrency(code string) ID {
	id, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return id
}

// NewExchangeSecurity returns a security on a registered exchange of the default registry.
func NewExchangeSecurity(ns, code string) (ID, error) {
	return DefaultRegistry().NewExchangeSecurity(ns, code)
}

// NewMICSecurity returns a security on a registered market of the default registry.
func NewMICSecurity(ns, code string) (ID, error) {
	return DefaultRegistry().NewMICSecurity(ns, code)
}

// NewGeneralSecurity returns a security in an unregistered namespace of the default registry.
func NewGeneralSecurity(ns, code string) (ID, error) {
	return DefaultRegistry().NewGeneralSecurity(ns, code)
}

// NewExchangeSecurity returns a security whose namespace must be a registered exchange.
func (r *Registry) NewExchangeSecurity(ns, code string) (ID, error) {
	if !r.IsExchange(ns) {
		return ID{}, NewInvalidNamespaceError(ns, Exchange)
	}
	return newSecurity(Exchange, ns, code)
}

// NewMICSecurity returns a security whose namespace must be a registered MIC.
func (r *Registry) NewMICSecurity(ns, code string) (ID, error) {
	if !r.IsMIC(ns) {
		return ID{}, NewInvalidNamespaceError(ns, MIC)
	}
	return newSecurity(MIC, ns, code)
}

// NewGeneralSecurity returns a security in a free-form namespace. Registered and
// currency namespaces are rejected so that the id reads back as the same kind.
func (r *Registry) NewGeneralSecurity(ns, code string) (ID, error) {
	if kind := r.Classify(ns); kind != General {
		return ID{}, NewInvalidNamespaceError(ns, General)
	}
	return newSecurity(General, ns, code)
}

func newSecurity(typ Type, ns, code string) (ID, error) {
	wire := ns + ":" + code
	switch {
	case ns == "":
		return ID{}, NewParseError(wire, "empty namespace")
	case code == "":
		return ID{}, NewParseError(wire, "empty code")
	case strings.ContainsRune(ns, ':'), strings.ContainsRune(code, ':'):
		return ID{}, NewParseError(wire, "':' inside namespace or code")
	}
	return ID{typ: typ, ns: ns, code: code}, nil
}

func isCurrencyNamespace(ns string) bool {
	return ns == CurrencyNamespace || ns == legacyCurrencyNamespace
}

// Type returns the kind of commodity.
func (id ID) Type() Type { return id.typ }

// Namespace returns the namespace part. Currencies report CURRENCY.
func (id ID) Namespace() string { return id.ns }

// Code returns the code part, the ISO-4217 code for currencies.
func (id ID) Code() string { return id.code }

// IsCurrency reports whether id names a currency.
func (id ID) IsCurrency() bool { return id.typ == Currency }

// IsZero reports whether id is the zero ID.
func (id ID) IsZero() bool { return id.typ == Invalid }

// WireString returns the NAMESPACE:CODE form. The zero ID renders as "".
func (id ID) WireString() string {
	if id.IsZero() {
		return ""
	}
	return id.ns + ":" + id.code
}

// String returns the code for currencies and the wire form for securities.
func (id ID) String() string {
	if id.IsCurrency() {
		return id.code
	}
	return id.WireString()
}

// RequireCurrency returns an InvalidCommodityTypeError unless id is a currency.
func RequireCurrency(id ID) error {
	if !id.IsCurrency() {
		return NewInvalidCommodityTypeError(id, Currency)
	}
	return nil
}

// CurrencyScale returns the standard number of decimals of an ISO-4217 currency
// (2 for EUR, 0 for JPY). Unknown codes report 2.
func CurrencyScale(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}
