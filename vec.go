package raytrace

import "math"

// normalizeEpsilon is the squared length below which Normalize yields the
// zero vector instead of dividing by a vanishing magnitude.
const normalizeEpsilon = 1e-8

// Vec3 represents a 3D vector used for positions, directions and velocities.
// Vec3 is an immutable value type: every operation returns a new vector.
type Vec3 struct {
	X, Y, Z float64
}

// V3 is a convenience function to create a Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Mul returns the vector scaled by a scalar.
func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Div returns the vector divided by a scalar.
func (v Vec3) Div(s float64) Vec3 {
	return Vec3{X: v.X / s, Y: v.Y / s, Z: v.Z / s}
}

// Neg returns the negation of the vector.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the right-handed cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the Euclidean length of the vector.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// LengthSq returns the squared length of the vector.
func (v Vec3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalize returns a unit vector in the same direction.
// Returns the zero vector when the squared length is at most 1e-8.
func (v Vec3) Normalize() Vec3 {
	return Normalize(v)
}

// Normalize returns v/|v|, or the zero vector when |v|² ≤ 1e-8.
func Normalize(v Vec3) Vec3 {
	lsq := v.LengthSq()
	if lsq <= normalizeEpsilon {
		return Vec3{}
	}
	return v.Div(math.Sqrt(lsq))
}

// Lerp performs linear interpolation between two vectors.
func (v Vec3) Lerp(w Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + (w.X-v.X)*t,
		Y: v.Y + (w.Y-v.Y)*t,
		Z: v.Z + (w.Z-v.Z)*t,
	}
}

// IsZero returns true if the vector is the zero vector.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Approx returns true if two vectors are approximately equal within epsilon.
func (v Vec3) Approx(w Vec3, epsilon float64) bool {
	return math.Abs(v.X-w.X) < epsilon &&
		math.Abs(v.Y-w.Y) < epsilon &&
		math.Abs(v.Z-w.Z) < epsilon
}

// Vec4 extends a Vec3 with a W component.
// Points carry W=1 and directions W=0 when multiplied by a Mat4.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 is a convenience function to create a Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Point returns v as a homogeneous point (W=1).
func (v Vec3) Point() Vec4 {
	return Vec4{X: v.X, Y: v.Y, Z: v.Z, W: 1}
}

// XYZ drops the W component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Dot returns the 4-component dot product.
func (v Vec4) Dot(w Vec4) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z + v.W*w.W
}

// Approx returns true if two vectors are approximately equal within epsilon.
func (v Vec4) Approx(w Vec4, epsilon float64) bool {
	return v.XYZ().Approx(w.XYZ(), epsilon) && math.Abs(v.W-w.W) < epsilon
}
