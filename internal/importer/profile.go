package importer

// Profile describes the column layout of a client list export.
// Adding a new source format is just adding a Profile to the profiles
// slice.
type Profile struct {
	Name     string
	NameCol  string
	EmailCol string // optional, may be absent from the file
	NIFCol   string // optional, may be absent from the file
}

// requiredCols returns the columns that must be present for this
// profile to match. Email and NIF are nice-to-have.
func (p Profile) requiredCols() []string {
	return []string{p.NameCol}
}

// profiles is the ordered list of layouts tried during
// auto-detection. More specific ones come first.
var profiles = []Profile{
	{
		Name:     "faturacao",
		NameCol:  "Nome",
		EmailCol: "Email",
		NIFCol:   "NIF",
	},
	{
		Name:     "contabilidade",
		NameCol:  "Cliente",
		EmailCol: "E-mail",
		NIFCol:   "Contribuinte",
	},
	{
		Name:     "generic",
		NameCol:  "Name",
		EmailCol: "Email",
		NIFCol:   "VAT",
	},
}
