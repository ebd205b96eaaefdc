package geo

// Bounds is a rectangular validity region in degrees.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Validator checks coordinates against a configured region. It has no side
// effects and fails closed: anything missing or out of range is invalid.
// The dispatch core treats an invalid location as "unverified", never as a
// reason to refuse an alert.
type Validator struct {
	bounds Bounds
}

func NewValidator(b Bounds) *Validator {
	return &Validator{bounds: b}
}

// Validate reports whether both coordinates are present and inside the
// region. nil pointers fail closed.
func (v *Validator) Validate(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	b := v.bounds
	return *lat >= b.MinLat && *lat <= b.MaxLat && *lon >= b.MinLon && *lon <= b.MaxLon
}
