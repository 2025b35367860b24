package types

// boroughCodes maps borough names to the single-letter codes used in ARREST_BORO.
var boroughCodes = map[string]string{
	"MANHATTAN":     "M",
	"BRONX":         "B",
	"BROOKLYN":      "K",
	"STATEN ISLAND": "S",
	"QUEENS":        "Q",
}

// BoroughCode returns the code for a borough name. Names that are not known
// borough names, including codes themselves, are returned unchanged.
func BoroughCode(name string) string {
	if code, ok := boroughCodes[name]; ok {
		return code
	}
	return name
}

// BoroughCodes maps every name through BoroughCode, preserving order.
func BoroughCodes(names []string) []string {
	if names == nil {
		return nil
	}
	codes := make([]string, len(names))
	for i, n := range names {
		codes[i] = BoroughCode(n)
	}
	return codes
}
