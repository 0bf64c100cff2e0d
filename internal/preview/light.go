package preview

import (
	"github.com/Faultbox/meshport/pkg/math"
	"github.com/chewxy/math32"
)

// light is a fixed key + rim + ambient rig in view space.
type light struct {
	key     math.Vec3
	rim     math.Vec3
	base    [3]float32 // linear albedo
	ambient float32
	keyInt  float32
	rimInt  float32
}

func defaultLight() light {
	return light{
		key:     math.Vec3{X: 0.45, Y: 0.65, Z: 0.6}.Normalize(),
		rim:     math.Vec3{X: -0.6, Y: 0.3, Z: -0.75}.Normalize(),
		base:    [3]float32{0.62, 0.64, 0.70},
		ambient: 0.25,
		keyInt:  0.85,
		rimInt:  0.35,
	}
}

// shade lights a unit normal. Both sides of a face are lit.
func (l *light) shade(n math.Vec3) (r, g, b uint8) {
	s := l.ambient +
		math32.Abs(n.Dot(l.key))*l.keyInt +
		math32.Abs(n.Dot(l.rim))*l.rimInt
	return toSRGB(l.base[0] * s), toSRGB(l.base[1] * s), toSRGB(l.base[2] * s)
}

func toSRGB(linear float32) uint8 {
	if linear <= 0 {
		return 0
	}
	v := math32.Pow(linear, 1/2.2) * 255
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
