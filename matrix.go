package raytrace

import "math"

// Mat3 is a 3x3 matrix in row-major order, indexed m[row][col].
// Vectors are treated as columns: m.MulVec(v) computes m·v.
type Mat3 [3][3]float64

// Mat4 is a 4x4 matrix in row-major order, indexed m[row][col].
//
// An affine Mat4 looks like:
//
//	| r00 r01 r02 tx |
//	| r10 r11 r12 ty |
//	| r20 r21 r22 tz |
//	|  0   0   0   1 |
type Mat4 [4][4]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mat3FromColumns builds a matrix whose columns are a, b and c.
func Mat3FromColumns(a, b, c Vec3) Mat3 {
	return Mat3{
		{a.X, b.X, c.X},
		{a.Y, b.Y, c.Y},
		{a.Z, b.Z, c.Z},
	}
}

// Col returns column i.
func (m Mat3) Col(i int) Vec3 {
	return Vec3{X: m[0][i], Y: m[1][i], Z: m[2][i]}
}

// Row returns row i.
func (m Mat3) Row(i int) Vec3 {
	return Vec3{X: m[i][0], Y: m[i][1], Z: m[i][2]}
}

// Mul returns the matrix product m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return r
}

// MulVec returns m·v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns the transposed matrix.
func (m Mat3) Transpose() Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Approx returns true if every element differs by less than epsilon.
func (m Mat3) Approx(n Mat3, epsilon float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(m[i][j]-n[i][j]) >= epsilon {
				return false
			}
		}
	}
	return true
}

// Mul returns the matrix product m·n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j] + m[i][3]*n[3][j]
		}
	}
	return r
}

// MulVec returns m·v.
func (m Mat4) MulVec(v Vec4) Vec4 {
	return Vec4{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z + m[0][3]*v.W,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z + m[1][3]*v.W,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z + m[2][3]*v.W,
		W: m[3][0]*v.X + m[3][1]*v.Y + m[3][2]*v.Z + m[3][3]*v.W,
	}
}

// MulPoint transforms p as a point (W=1), ignoring the resulting W.
func (m Mat4) MulPoint(p Vec3) Vec3 {
	return m.MulVec(p.Point()).XYZ()
}

// MulDir transforms d as a direction (W=0); translation has no effect.
func (m Mat4) MulDir(d Vec3) Vec3 {
	return m.MulVec(Vec4{X: d.X, Y: d.Y, Z: d.Z}).XYZ()
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Rotation returns the upper-left 3x3 block.
func (m Mat4) Rotation() Mat3 {
	return Mat3{
		{m[0][0], m[0][1], m[0][2]},
		{m[1][0], m[1][1], m[1][2]},
		{m[2][0], m[2][1], m[2][2]},
	}
}

// lookAtAxes returns the left, up and forward axes of a view from eye
// toward center. L is zero when up is parallel to the view direction.
func lookAtAxes(eye, center, up Vec3) (l, u, f Vec3) {
	f = Normalize(center.Sub(eye))
	l = Normalize(up.Cross(f))
	u = f.Cross(l)
	return l, u, f
}

// LookAt returns the view transform from world space into the camera frame
// spanned by L (left), U (up) and F (forward):
//
//	F = normalize(center - eye)
//	L = normalize(cross(up, F))
//	U = cross(F, L)
//
// Rows 0..2 hold L, U and F with a translation column that maps eye to the
// origin, so a point in front of the camera has a positive z.
//
// The matrix is degenerate when up is parallel to F.
func LookAt(eye, center, up Vec3) Mat4 {
	l, u, f := lookAtAxes(eye, center, up)
	return Mat4{
		{l.X, l.Y, l.Z, -l.Dot(eye)},
		{u.X, u.Y, u.Z, -u.Dot(eye)},
		{f.X, f.Y, f.Z, -f.Dot(eye)},
		{0, 0, 0, 1},
	}
}

// LookAt3 returns the orientation-only look-at basis with L, U and F as
// columns: row i is (L_i, U_i, F_i). It maps camera-local directions to world
// directions and is the layout the ray tracing kernel consumes.
func LookAt3(eye, center, up Vec3) Mat3 {
	l, u, f := lookAtAxes(eye, center, up)
	return Mat3FromColumns(l, u, f)
}

// Perspective maps a camera-space point to normalized device coordinates:
//
//	x' = (f/aspect)·x/z
//	y' = f·y/z
//	z' = ((zFar+zNear)/(zNear-zFar)·z + 2·zFar·zNear/(zNear-zFar)) / z
//
// f is the focal scale 1/tan(fov/2). The caller must ensure z is not near zero.
func Perspective(f, aspect, zNear, zFar float64, p Vec3) Vec3 {
	a := (zFar + zNear) / (zNear - zFar)
	b := 2 * zFar * zNear / (zNear - zFar)
	return Vec3{
		X: (f / aspect) * p.X / p.Z,
		Y: f * p.Y / p.Z,
		Z: (a*p.Z + b) / p.Z,
	}
}

// RotationMatrix builds an incremental orientation change from yaw and pitch
// deltas in radians: a yaw about the Y axis composed with a pitch about the
// local X axis, R = Ry(-yawDelta)·Rx(pitchDelta).
//
// Yaw is negated so that a positive delta turns the -Z forward axis toward +X,
// the same sense as increasing the yaw angle of an Euler camera.
func RotationMatrix(yawDelta, pitchDelta float64) Mat3 {
	sy, cy := math.Sincos(-yawDelta)
	sp, cp := math.Sincos(pitchDelta)
	ry := Mat3{
		{cy, 0, sy},
		{0, 1, 0},
		{-sy, 0, cy},
	}
	rx := Mat3{
		{1, 0, 0},
		{0, cp, -sp},
		{0, sp, cp},
	}
	return ry.Mul(rx)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
