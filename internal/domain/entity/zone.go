package entity

// Zone zona tarifaria A–E.
type Zone string

const (
	ZoneA Zone = "A" // misma ciudad / distrito de clasificación
	ZoneB Zone = "B" // mismo estado / círculo postal
	ZoneC Zone = "C" // metro a metro
	ZoneD Zone = "D" // resto del país
	ZoneE Zone = "E" // zonas especiales (J&K, noreste, islas)
)

// Valid indica si es una zona conocida.
func (z Zone) Valid() bool {
	switch z {
	case ZoneA, ZoneB, ZoneC, ZoneD, ZoneE:
		return true
	}
	return false
}
