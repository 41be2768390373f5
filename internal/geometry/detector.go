package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/vk/bremsim/internal/units"
)

// Volume names. The hit recorder filters on DetectorName.
const (
	WorldName    = "World"
	TargetName   = "Target"
	DetectorName = "Detector"
)

// DetectorID is the copy number of the one instrumented detector placement.
const DetectorID = 1

// Fixed dimensions of the setup.
const (
	WorldSize         = 1.0 * units.Metre
	TargetSizeXY      = 1.0 * units.Centimetre
	DetectorHalfXY    = 2.0 * units.Centimetre
	DetectorThickness = 3.0 * units.Millimetre
	DetectorGap       = 0.1 * units.Millimetre
)

var (
	// ErrUnknownMaterial is returned together with a usable detector when the
	// configured foil material is not in the material table.
	ErrUnknownMaterial = errors.New("geometry: unknown material")
	// ErrInvalidThickness rejects a non-positive or non-finite foil thickness.
	ErrInvalidThickness = errors.New("geometry: invalid thickness")
)

// Volume is an axis-aligned box placed in the world.
type Volume struct {
	name      string
	Material  Material
	Center    Vec3
	Half      Vec3
	CopyNo    int
	Sensitive bool
}

// Name returns the placement name.
func (v *Volume) Name() string {
	if v == nil {
		return ""
	}
	return v.name
}

// Contains reports whether p lies inside the box, boundaries included.
func (v *Volume) Contains(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(p[i]-v.Center[i]) > v.Half[i] {
			return false
		}
	}
	return true
}

// Intersect returns the parametric distances at which the ray origin+t*dir
// enters and leaves the box. ok is false when the ray misses it or the box is
// entirely behind the origin.
func (v *Volume) Intersect(origin, dir Vec3) (tIn, tOut float64, ok bool) {
	tIn, tOut = math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		lo := v.Center[i] - v.Half[i]
		hi := v.Center[i] + v.Half[i]
		if dir[i] == 0 {
			if origin[i] < lo || origin[i] > hi {
				return 0, 0, false
			}
			continue
		}
		t1 := (lo - origin[i]) / dir[i]
		t2 := (hi - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tIn = math.Max(tIn, t1)
		tOut = math.Min(tOut, t2)
	}
	if tOut < tIn || tOut < 0 {
		return 0, 0, false
	}
	return tIn, tOut, true
}

// Detector is the constructed setup: a vacuum world holding the foil and,
// just behind it, the detector slab.
type Detector struct {
	Config   Config
	World    *Volume
	Target   *Volume
	Detector *Volume

	daughters []*Volume
}

// Build constructs the geometry for cfg. An unknown material is replaced by
// DefaultMaterial and reported through ErrUnknownMaterial alongside the
// usable detector.
func Build(cfg Config) (*Detector, error) {
	if !(cfg.Thickness > 0) || math.IsInf(cfg.Thickness, 0) {
		return nil, fmt.Errorf("%w: %v mm", ErrInvalidThickness, cfg.Thickness)
	}

	var warn error
	foil, ok := FindMaterial(cfg.Material)
	if !ok {
		warn = fmt.Errorf("%w: %q, using %s", ErrUnknownMaterial, cfg.Material, DefaultMaterial)
		foil, _ = FindMaterial(DefaultMaterial)
		cfg.Material = DefaultMaterial
	}

	world := &Volume{
		name:     WorldName,
		Material: Vacuum,
		Half:     Vec3{WorldSize / 2, WorldSize / 2, WorldSize / 2},
	}
	target := &Volume{
		name:      TargetName,
		Material:  foil,
		Half:      Vec3{TargetSizeXY / 2, TargetSizeXY / 2, cfg.Thickness / 2},
		Sensitive: true,
	}
	backZ := cfg.Thickness / 2
	detector := &Volume{
		name:      DetectorName,
		Material:  Vacuum,
		Center:    Vec3{0, 0, backZ + DetectorThickness/2 + DetectorGap},
		Half:      Vec3{DetectorHalfXY, DetectorHalfXY, DetectorThickness / 2},
		CopyNo:    DetectorID,
		Sensitive: true,
	}

	return &Detector{
		Config:    cfg,
		World:     world,
		Target:    target,
		Detector:  detector,
		daughters: []*Volume{target, detector},
	}, warn
}

// Volumes lists every placement, world first.
func (d *Detector) Volumes() []*Volume {
	return append([]*Volume{d.World}, d.daughters...)
}

// Locate returns the innermost volume containing p, or nil when p is outside
// the world.
func (d *Detector) Locate(p Vec3) *Volume {
	if !d.World.Contains(p) {
		return nil
	}
	for _, v := range d.daughters {
		if v.Contains(p) {
			return v
		}
	}
	return d.World
}

// DistanceToBoundary is the path length from p along dir until the particle
// leaves current or, when current is the world, enters a daughter.
func (d *Detector) DistanceToBoundary(p, dir Vec3, current *Volume) float64 {
	if current != d.World {
		_, tOut, ok := current.Intersect(p, dir)
		if !ok {
			return 0
		}
		return math.Max(tOut, 0)
	}

	_, next, ok := d.World.Intersect(p, dir)
	if !ok {
		return 0
	}
	for _, v := range d.daughters {
		tIn, _, hit := v.Intersect(p, dir)
		if hit && tIn > 0 && tIn < next {
			next = tIn
		}
	}
	return next
}
