package enums

import (
	"fmt"
	"strings"
)

// DocType classifies a commercial document and drives its tax treatment.
type DocType string

const (
	DocTypeInvoice       DocType = "FACTURA"
	DocTypeExemptInvoice DocType = "FACTURA_EXENTA"
	DocTypeReceipt       DocType = "BOLETA"
	DocTypeExemptReceipt DocType = "BOLETA_EXENTA"
	DocTypeFeeReceipt    DocType = "BOLETA_HONORARIOS"
)

var validDocTypes = []DocType{
	DocTypeInvoice,
	DocTypeExemptInvoice,
	DocTypeReceipt,
	DocTypeExemptReceipt,
	DocTypeFeeReceipt,
}

// SII document codes. The fee receipt code follows the local convention.
var siiCodes = map[DocType]int{
	DocTypeInvoice:       33,
	DocTypeExemptInvoice: 34,
	DocTypeReceipt:       39,
	DocTypeExemptReceipt: 41,
	DocTypeFeeReceipt:    48,
}

// DocTypes returns every supported document type in display order.
func DocTypes() []DocType {
	out := make([]DocType, len(validDocTypes))
	copy(out, validDocTypes)
	return out
}

// String implements fmt.Stringer.
func (d DocType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocType.
func (d DocType) IsValid() bool {
	for _, candidate := range validDocTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTaxExempt reports whether documents of this type carry no VAT. Fee
// receipts are VAT-free as well.
func (d DocType) IsTaxExempt() bool {
	switch d {
	case DocTypeExemptInvoice, DocTypeExemptReceipt, DocTypeFeeReceipt:
		return true
	}
	return false
}

// CarriesWithholding reports whether the payer withholds part of the net.
func (d DocType) CarriesWithholding() bool {
	return d == DocTypeFeeReceipt
}

// SIICode returns the tax authority document code, or 0 when unknown.
func (d DocType) SIICode() int {
	return siiCodes[d]
}

// ParseDocType converts raw input into a DocType. Matching is case-insensitive.
func ParseDocType(value string) (DocType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validDocTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}

// ParseOptionalDocType returns nil for empty input.
func ParseOptionalDocType(value string) (*DocType, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := ParseDocType(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
