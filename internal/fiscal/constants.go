package fiscal

import (
	"fmt"

	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/angelmondragon/fiscal-ledger/pkg/money"
	"github.com/shopspring/decimal"
)

// Constants are the process-wide fiscal parameters. They are built once at
// startup and shared read-only.
type Constants struct {
	VATRate            decimal.Decimal
	WithholdingRate    decimal.Decimal
	DefaultPaymentDays int
	MonetaryDecimals   int32
}

// DefaultConstants are the Chilean values in force for 2025.
func DefaultConstants() Constants {
	return Constants{
		VATRate:            decimal.RequireFromString("0.19"),
		WithholdingRate:    decimal.RequireFromString("0.1075"),
		DefaultPaymentDays: 30,
		MonetaryDecimals:   0,
	}
}

func ConstantsFromConfig(cfg config.FiscalConfig) (Constants, error) {
	if err := cfg.Validate(); err != nil {
		return Constants{}, err
	}
	vat, err := cfg.VAT()
	if err != nil {
		return Constants{}, err
	}
	withholding, err := cfg.Withholding()
	if err != nil {
		return Constants{}, err
	}
	if _, err := money.NewRounder(cfg.MonetaryDecimals); err != nil {
		return Constants{}, fmt.Errorf("fiscal constants: %w", err)
	}
	return Constants{
		VATRate:            vat,
		WithholdingRate:    withholding,
		DefaultPaymentDays: cfg.DefaultPaymentDays,
		MonetaryDecimals:   cfg.MonetaryDecimals,
	}, nil
}
