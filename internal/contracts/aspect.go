package contracts

import "fmt"

// AspectType enumerates the angular relationships the detector knows.
type AspectType int

const (
	Conjunction AspectType = iota
	Sextile
	Square
	Trine
	Opposition
	SemiSextile
	SemiSquare
	Quintile
	Sesquiquadrate
	Quincunx
)

var aspectNames = [...]string{
	"conjunction", "sextile", "square", "trine", "opposition",
	"semi-sextile", "semi-square", "quintile", "sesquiquadrate", "quincunx",
}

func (t AspectType) String() string {
	if t < 0 || int(t) >= len(aspectNames) {
		return fmt.Sprintf("AspectType(%d)", int(t))
	}
	return aspectNames[t]
}

// IsMajor reports whether the type is one of the five Ptolemaic aspects.
func (t AspectType) IsMajor() bool {
	return t <= Opposition
}

// MarshalText encodes the type by name.
func (t AspectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Aspect is one angular relationship between two bodies.
// BodyA always precedes BodyB in canonical order.
type Aspect struct {
	BodyA    Body       `json:"bodyA"`
	BodyB    Body       `json:"bodyB"`
	Type     AspectType `json:"type"`
	OrbDelta float64    `json:"orbDelta"` // separation minus exact angle
	Applying bool       `json:"applying"`
}
