package types

// Column names of a yearly arrest partition. The physical parquet files use
// these names verbatim, so they are part of the storage contract.
const (
	ColumnArrestDate = "ARREST_DATE"
	ColumnArrestBoro = "ARREST_BORO"
	ColumnOffense    = "OFNS_DESC"
	ColumnRace       = "PERP_RACE"
	ColumnSex        = "PERP_SEX"
	ColumnAgeGroup   = "AGE_GROUP"
	ColumnLatitude   = "Latitude"
	ColumnLongitude  = "Longitude"
)

// Dimension identifies one of the categorical columns that can be filtered on.
type Dimension struct {
	// Column is the partition column holding the dimension's values
	Column string

	// Key is the name used for the dimension in requests and summaries
	Key string
}

// Dimensions lists the five filterable categorical dimensions in a fixed order.
var Dimensions = []Dimension{
	{Column: ColumnArrestBoro, Key: "boroughs"},
	{Column: ColumnOffense, Key: "offenses"},
	{Column: ColumnRace, Key: "ethnicities"},
	{Column: ColumnSex, Key: "genders"},
	{Column: ColumnAgeGroup, Key: "age_categories"},
}

// CategoricalColumns returns the column names of all filterable dimensions.
func CategoricalColumns() []string {
	cols := make([]string, len(Dimensions))
	for i, d := range Dimensions {
		cols[i] = d.Column
	}
	return cols
}

// ResultColumns is the fixed projection returned for every filtered row.
var ResultColumns = []string{
	ColumnArrestDate,
	ColumnArrestBoro,
	ColumnOffense,
	ColumnRace,
	ColumnSex,
	ColumnAgeGroup,
	ColumnLatitude,
	ColumnLongitude,
}
