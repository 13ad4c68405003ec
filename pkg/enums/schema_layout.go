package enums

// SchemaLayout names the physical column set found on a table.
type SchemaLayout string

const (
	SchemaLayoutLegacy   SchemaLayout = "legacy"
	SchemaLayoutExtended SchemaLayout = "extended"
)

// String implements fmt.Stringer.
func (l SchemaLayout) String() string {
	return string(l)
}
