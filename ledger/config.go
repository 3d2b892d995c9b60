package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/numeric"
)

// Book option keys read by Load.
const (
	OptionTolerance     = "tolerance_default"
	OptionDivisionScale = "division_scale"
	OptionBaseCurrency  = "base_currency"
	OptionPaymentAction = "payment_action"
	OptionCounterFormat = "counter_format"
)

// Config holds the settings that influence reconciliation and writing.
type Config struct {
	Tolerance *ToleranceConfig
	// DivisionScale is the number of digits kept by divisions that have no natural
	// scale, such as inverse price conversions.
	DivisionScale int32
	// BaseCurrency is the currency conversions are routed through when two
	// commodities are not quoted against each other. Zero disables routing.
	BaseCurrency commodity.ID
	// PaymentAction is the split action that marks a payment. Matching is
	// case-insensitive.
	PaymentAction string
	// CounterFormat renders sequence numbers; CounterFormats overrides it per counter.
	CounterFormat  string
	CounterFormats map[string]string
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Tolerance:      NewToleranceConfig(),
		DivisionScale:  numeric.FractionScale,
		PaymentAction:  "Payment",
		CounterFormat:  "%06d",
		CounterFormats: make(map[string]string),
	}
}

// FormatCounter renders the n-th sequence number of a counter.
func (c *Config) FormatCounter(counter string, n int64) string {
	if format, ok := c.CounterFormats[counter]; ok {
		return fmt.Sprintf(format, n)
	}
	return fmt.Sprintf(c.CounterFormat, n)
}

// configFromOptions parses book options into a Config.
// Supports:
//   - "tolerance_default" "*:0.005,USD:0.01"
//   - "division_scale" "12"
//   - "base_currency" "EUR" or "CURRENCY:EUR"
//   - "payment_action" "Payment"
//   - "counter_format" "%06d", and "counter_format.gncInvoice" "INV-%04d" per counter
func configFromOptions(options map[string]string) (*Config, error) {
	cfg := NewConfig()

	if val, ok := options[OptionTolerance]; ok {
		for _, part := range strings.Split(val, ",") {
			code, tolStr, found := strings.Cut(part, ":")
			if !found {
				return nil, fmt.Errorf("invalid %s %q, expected CURRENCY:TOLERANCE", OptionTolerance, part)
			}
			tolerance, err := numeric.Parse(strings.TrimSpace(tolStr))
			if err != nil {
				return nil, fmt.Errorf("invalid tolerance value in %q: %w", part, err)
			}
			cfg.Tolerance.Set(strings.TrimSpace(code), tolerance)
		}
	}

	if val, ok := options[OptionDivisionScale]; ok {
		scale, err := strconv.ParseInt(strings.TrimSpace(val), 10, 32)
		if err != nil || scale < 0 {
			return nil, fmt.Errorf("invalid %s %q, expected a non-negative integer", OptionDivisionScale, val)
		}
		cfg.DivisionScale = int32(scale)
	}

	if val, ok := options[OptionBaseCurrency]; ok && val != "" {
		base, err := parseCurrency(val)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", OptionBaseCurrency, err)
		}
		cfg.BaseCurrency = base
	}

	if val, ok := options[OptionPaymentAction]; ok && val != "" {
		cfg.PaymentAction = val
	}

	for key, val := range options {
		switch {
		case key == OptionCounterFormat:
			if err := checkCounterFormat(val); err != nil {
				return nil, err
			}
			cfg.CounterFormat = val
		case strings.HasPrefix(key, OptionCounterFormat+"."):
			if err := checkCounterFormat(val); err != nil {
				return nil, err
			}
			cfg.CounterFormats[strings.TrimPrefix(key, OptionCounterFormat+".")] = val
		}
	}

	return cfg, nil
}

func checkCounterFormat(format string) error {
	if strings.Count(format, "%") != 1 || !strings.Contains(format, "d") {
		return fmt.Errorf("invalid %s %q, expected a single integer verb", OptionCounterFormat, format)
	}
	return nil
}

// parseCurrency accepts a bare ISO-4217 code or a CURRENCY:CODE id.
func parseCurrency(text string) (commodity.ID, error) {
	if strings.ContainsRune(text, ':') {
		id, err := commodity.Parse(text)
		if err != nil {
			return commodity.ID{}, err
		}
		if err := commodity.RequireCurrency(id); err != nil {
			return commodity.ID{}, err
		}
		return id, nil
	}
	return commodity.NewCurrency(strings.TrimSpace(text))
}

type contextKey struct{}

// WithContext returns a new context with the Config attached.
func (c *Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ConfigFromContext retrieves the Config from context.
// Returns nil if none is attached.
func ConfigFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok {
		return cfg
	}
	return nil
}
