// Package types provides the public value types exchanged between the
// arrestview query core and its callers.
package types

// Record is a single arrest projected to the result column set.
type Record struct {
	// ArrestDate is the arrest timestamp as stored in the partition
	ArrestDate string `json:"ARREST_DATE"`

	// ArrestBoro is the single-letter borough code
	ArrestBoro string `json:"ARREST_BORO"`

	// Offense is the offense category description
	Offense string `json:"OFNS_DESC"`

	// Race is the perpetrator race
	Race string `json:"PERP_RACE"`

	// Sex is the perpetrator sex
	Sex string `json:"PERP_SEX"`

	// AgeGroup is the perpetrator age bracket (e.g. "25-44")
	AgeGroup string `json:"AGE_GROUP"`

	// Latitude is nil when the partition has no coordinate for the arrest
	Latitude *float64 `json:"Latitude"`

	// Longitude is nil when the partition has no coordinate for the arrest
	Longitude *float64 `json:"Longitude"`
}

// Summary holds per-year aggregate statistics used to populate filter choices.
type Summary struct {
	TotalRecords  int      `json:"total_records"`
	Boroughs      []string `json:"boroughs"`
	Offenses      []string `json:"offenses"`
	Ethnicities   []string `json:"ethnicities"`
	Genders       []string `json:"genders"`
	AgeCategories []string `json:"age_categories"`
}

// EmptySummary returns a summary with a zero count and empty, non-nil value lists.
func EmptySummary() Summary {
	return Summary{
		Boroughs:      []string{},
		Offenses:      []string{},
		Ethnicities:   []string{},
		Genders:       []string{},
		AgeCategories: []string{},
	}
}

// SetDistinct stores the distinct values for the dimension backed by column.
// Unknown columns are ignored.
func (s *Summary) SetDistinct(column string, values []string) {
	if values == nil {
		values = []string{}
	}
	switch column {
	case ColumnArrestBoro:
		s.Boroughs = values
	case ColumnOffense:
		s.Offenses = values
	case ColumnRace:
		s.Ethnicities = values
	case ColumnSex:
		s.Genders = values
	case ColumnAgeGroup:
		s.AgeCategories = values
	}
}
