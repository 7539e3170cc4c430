package models

const (
	ServiceCity     = "Cainta"
	ServiceProvince = "Rizal"
)

// Barangays is the fixed list of serviceable sub-districts.
var Barangays = []string{
	"San Andres",
	"San Isidro",
	"San Juan",
	"San Roque",
	"Santa Rosa",
	"Santo Domingo",
	"Santo Niño",
	"Dela Paz",
}

func IsServiceableBarangay(name string) bool {
	for _, b := range Barangays {
		if b == name {
			return true
		}
	}
	return false
}
