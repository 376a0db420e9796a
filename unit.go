package sapnhap

// Level is the administrative level of a unit.
type Level string

// Administrative levels.
const (
	LevelProvince Level = "province"
	LevelCommune  Level = "commune"
)

// Label returns the Vietnamese display label used in reports.
func (l Level) Label() string {
	switch l {
	case LevelProvince:
		return "Tỉnh/Thành phố"
	case LevelCommune:
		return "Xã/Phường"
	default:
		return string(l)
	}
}

// ParseLevel maps a stored level or its display label back to a Level.
// Unknown values are returned unchanged.
func ParseLevel(s string) Level {
	switch s {
	case string(LevelProvince), LevelProvince.Label():
		return LevelProvince
	case string(LevelCommune), LevelCommune.Label():
		return LevelCommune
	default:
		return Level(s)
	}
}

// AdministrativeUnit identifies a province or a commune belonging to a province.
type AdministrativeUnit struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Level      Level  `json:"level"`
	ParentCode string `json:"parentCode,omitempty"`
}

// Validate returns an error if the unit contains invalid fields.
func (u *AdministrativeUnit) Validate() error {
	if u.Code == "" {
		return Errorf(EINVALID, "unit code required")
	}
	if u.Level == LevelCommune && u.ParentCode == "" {
		return Errorf(EINVALID, "commune %q requires a parent province code", u.Code)
	}
	return nil
}

// Discoverer extracts administrative units from fetched page content.
//
// Both methods return an empty slice, not an error, when no units can be
// discovered: callers skip such pages rather than failing the crawl.
type Discoverer interface {
	// DiscoverProvinces returns the provinces listed on a page
	// in document order, deduplicated by code.
	DiscoverProvinces(html string) ([]AdministrativeUnit, error)

	// DiscoverCommunes returns the communes of the given province listed
	// on a page in document order, deduplicated by code.
	DiscoverCommunes(html string, provinceCode string) ([]AdministrativeUnit, error)
}

// KnownProvince is a province from a fixed list, optionally with a fixed
// list of its communes. When Communes is empty they are discovered live.
type KnownProvince struct {
	AdministrativeUnit
	Communes []AdministrativeUnit
}
