package types

// Default flat tariff.
const (
	DefaultImportDollarsPerKWH = 0.15
	DefaultExportDollarsPerKWH = 0.08
)

// Tariff is a flat import/export price pair.
type Tariff struct {
	ImportDollarsPerKWH float64 `json:"importDollarsPerKWH" yaml:"import_dollars_per_kwh"`
	ExportDollarsPerKWH float64 `json:"exportDollarsPerKWH" yaml:"export_dollars_per_kwh"`
}

// DefaultTariff returns the default flat tariff.
func DefaultTariff() Tariff {
	return Tariff{
		ImportDollarsPerKWH: DefaultImportDollarsPerKWH,
		ExportDollarsPerKWH: DefaultExportDollarsPerKWH,
	}
}

// Validate ensures both prices are finite and non-negative.
func (t Tariff) Validate() error {
	if err := CheckNonNegative("import price", t.ImportDollarsPerKWH); err != nil {
		return err
	}
	return CheckNonNegative("export price", t.ExportDollarsPerKWH)
}
