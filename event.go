package gtd

import (
	"encoding/json"
	"strconv"
)

// Frame names. These are the GTD column names the parser reads and the
// names of the bitmap frames a Table keeps for each categorical column.
const (
	FieldYear          = "iyear"
	FieldRegion        = "region_txt"
	FieldCountry       = "country_txt"
	FieldCity          = "city"
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
	FieldAttackType    = "attacktype1_txt"
	FieldGroup         = "gname"
	FieldTargetType    = "targtype1_txt"
	FieldWeaponSubtype = "weapsubtype1_txt"
	FieldNKill         = "nkill"
	FieldNKillUS       = "nkillus"
)

// Fields lists every column an Event is built from.
var Fields = []string{
	FieldYear, FieldRegion, FieldCountry, FieldCity, FieldLatitude,
	FieldLongitude, FieldAttackType, FieldGroup, FieldTargetType,
	FieldWeaponSubtype, FieldNKill, FieldNKillUS,
}

// CategoricalFields are the columns indexed with one bitmap per distinct
// value.
var CategoricalFields = []string{
	FieldRegion, FieldCountry, FieldCity, FieldAttackType, FieldGroup,
	FieldTargetType, FieldWeaponSubtype,
}

// UnknownGroup is the actor group name GTD uses when no perpetrator is
// attributed.
const UnknownGroup = "Unknown"

// NullFloat is a float64 which may be missing.
type NullFloat struct {
	Value float64
	Valid bool
}

// F returns a valid NullFloat holding v.
func F(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

// OrZero returns the value, or 0 if it is missing.
func (n NullFloat) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// String returns "" for a missing value.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// MarshalJSON encodes a missing value as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON decodes null as a missing value.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	n.Valid = true
	return json.Unmarshal(data, &n.Value)
}

// Event is a single incident of the base table. String fields that may be
// null in the source (City, WeaponSubtype) are empty when missing.
type Event struct {
	Year          int          `json:"iyear"`
	Region        Region       `json:"region_txt"`
	Country       string       `json:"country_txt"`
	City          string       `json:"city,omitempty"`
	Latitude      NullFloat    `json:"latitude"`
	Longitude     NullFloat    `json:"longitude"`
	AttackType    string       `json:"attacktype1_txt"`
	Group         string       `json:"gname"`
	TargetType    string       `json:"targtype1_txt"`
	WeaponSubtype string       `json:"weapsubtype1_txt,omitempty"`
	NKill         NullFloat    `json:"nkill"`
	NKillUS       NullFloat    `json:"nkillus"`
	Continents    ContinentSet `json:"continent"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (e *Event) HasCoordinates() bool {
	return e.Latitude.Valid && e.Longitude.Valid
}

// Value returns the event's value for a categorical frame, and "" for
// unknown frames or missing values.
func (e *Event) Value(frame string) string {
	switch frame {
	case FieldRegion:
		return string(e.Region)
	case FieldCountry:
		return e.Country
	case FieldCity:
		return e.City
	case FieldAttackType:
		return e.AttackType
	case FieldGroup:
		return e.Group
	case FieldTargetType:
		return e.TargetType
	case FieldWeaponSubtype:
		return e.WeaponSubtype
	}
	return ""
}
