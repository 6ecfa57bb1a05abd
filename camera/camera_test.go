package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/raytrace"
)

const tol = 1e-5

func assertOrthonormal(t *testing.T, c *Camera) {
	t.Helper()
	f, r, u := c.Front(), c.Right(), c.Up()
	assert.InDelta(t, 1, f.Length(), tol, "front length")
	assert.InDelta(t, 1, r.Length(), tol, "right length")
	assert.InDelta(t, 1, u.Length(), tol, "up length")
	assert.InDelta(t, 0, f.Dot(r), tol, "front·right")
	assert.InDelta(t, 0, f.Dot(u), tol, "front·up")
	assert.InDelta(t, 0, r.Dot(u), tol, "right·up")
}

func TestNew_DerivesAngles(t *testing.T) {
	tests := []struct {
		name      string
		eye       raytrace.Vec3
		center    raytrace.Vec3
		wantYaw   float64
		wantPitch float64
		wantFront raytrace.Vec3
	}{
		{"down -z", raytrace.V3(0, 0, 20), raytrace.Vec3{}, -90, 0, raytrace.V3(0, 0, -1)},
		{"down +x", raytrace.V3(-5, 0, 0), raytrace.Vec3{}, 0, 0, raytrace.V3(1, 0, 0)},
		{"down +z", raytrace.V3(0, 0, -20), raytrace.Vec3{}, 90, 0, raytrace.V3(0, 0, 1)},
		{"looking up 45", raytrace.V3(0, 0, 0), raytrace.V3(1, 1, 0), 0, 45, raytrace.Normalize(raytrace.V3(1, 1, 0))},
		{"straight up clamps", raytrace.V3(0, 0, 0), raytrace.V3(0, 10, 0), 0, MaxPitch, raytrace.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.eye, tt.center, raytrace.V3(0, 1, 0), 45)
			assert.InDelta(t, tt.wantPitch, c.Pitch(), 1e-9)
			if !tt.wantFront.IsZero() {
				assert.InDelta(t, tt.wantYaw, c.Yaw(), 1e-9)
				assert.True(t, c.Front().Approx(tt.wantFront, 1e-9), "front %v", c.Front())
			}
			assertOrthonormal(t, c)
		})
	}
}

func TestDeriveViewBasis_Scenario(t *testing.T) {
	c := New(raytrace.V3(0, 0, 20), raytrace.Vec3{}, raytrace.V3(0.2, 1, 0), 45)
	b := c.DeriveViewBasis()

	assert.InDelta(t, 0, b.W.X, tol)
	assert.InDelta(t, 0, b.W.Y, tol)
	assert.InDelta(t, 1, b.W.Z, tol)
	assert.InDelta(t, 0.4142, b.HalfHeight, 1e-4)
	assert.InDelta(t, math.Tan(raytrace.Radians(22.5)), b.HalfHeight, 1e-12)
	assert.InDelta(t, b.HalfHeight*c.Aspect, b.HalfWidth, 1e-12)
	assert.Equal(t, c.Position, b.Eye)

	// Orthonormal screen basis.
	assert.InDelta(t, 0, b.U.Dot(b.V), tol)
	assert.InDelta(t, 0, b.U.Dot(b.W), tol)
	assert.InDelta(t, 0, b.V.Dot(b.W), tol)

	// The center ray points at the target.
	assert.True(t, b.RayDirection(0, 0).Approx(c.Front(), 1e-12))
}

func TestPitchClamp(t *testing.T) {
	for _, policy := range []Policy{PolicyEuler, PolicyIncremental} {
		t.Run(policy.String(), func(t *testing.T) {
			c := New(raytrace.V3(0, 0, 20), raytrace.Vec3{}, raytrace.V3(0, 1, 0), 45, WithPolicy(policy))
			deltas := []float64{30, 45, 60, 10, -200, -5, 179, -89, 500, -1000}
			for _, d := range deltas {
				c.Rotate(3, d)
				require.GreaterOrEqual(t, c.Pitch(), MinPitch)
				require.LessOrEqual(t, c.Pitch(), MaxPitch)
			}
		})
	}
}

func TestSetOrientation_Clamps(t *testing.T) {
	c := New(raytrace.V3(0, 0, 20), raytrace.Vec3{}, raytrace.V3(0, 1, 0), 45)
	c.SetOrientation(10, 120)
	assert.Equal(t, MaxPitch, c.Pitch())
	c.SetOrientation(10, -120)
	assert.Equal(t, MinPitch, c.Pitch())
	assertOrthonormal(t, c)
}

func TestPolicies_Agree(t *testing.T) {
	// Pure yaw followed by pure pitch from a level start gives the same
	// front vector under both policies.
	eye, center, up := raytrace.V3(0, 0, 20), raytrace.Vec3{}, raytrace.V3(0, 1, 0)
	a := New(eye, center, up, 45)
	b := New(eye, center, up, 45, WithPolicy(PolicyIncremental))

	a.Rotate(30, 0)
	b.Rotate(30, 0)
	assert.True(t, a.Front().Approx(b.Front(), 1e-9), "after yaw: %v vs %v", a.Front(), b.Front())

	a.Rotate(0, 20)
	b.Rotate(0, 20)
	assert.True(t, a.Front().Approx(b.Front(), 1e-9), "after pitch: %v vs %v", a.Front(), b.Front())
	assert.True(t, a.Right().Approx(b.Right(), 1e-9))
	assert.True(t, a.Up().Approx(b.Up(), 1e-9))
	assert.InDelta(t, a.Yaw(), b.Yaw(), 1e-12)
	assert.InDelta(t, a.Pitch(), b.Pitch(), 1e-12)
}

func TestIncremental_YawWhilePitched(t *testing.T) {
	c := New(raytrace.V3(0, 0, 20), raytrace.Vec3{}, raytrace.V3(0, 1, 0), 45, WithPolicy(PolicyIncremental))
	elevation := func() float64 { return raytrace.Degrees(math.Asin(c.Front().Y)) }

	c.Rotate(0, 80)
	c.Rotate(180, 0)
	assert.InDelta(t, 80, elevation(), 1e-9, "yaw must not change elevation")
	for i := 0; i < 20; i++ {
		c.Rotate(0, -5)
		require.InDelta(t, elevation(), c.Pitch(), 1e-9, "step %d", i)
		require.Greater(t, c.Up().Y, 0.0, "camera flipped over the pole at step %d", i)
	}
	assert.InDelta(t, -20, c.Pitch(), 1e-9)

	// Yaw and pitch interleaved near the pole never pass it.
	for i := 0; i < 200; i++ {
		c.Rotate(7, 3)
		require.InDelta(t, elevation(), c.Pitch(), 1e-9)
		require.LessOrEqual(t, c.Pitch(), MaxPitch)
		require.Greater(t, c.Up().Y, 0.0)
	}
	assertOrthonormal(t, c)
}

func TestIncremental_StaysOrthonormal(t *testing.T) {
	c := New(raytrace.V3(1, 2, 3), raytrace.Vec3{}, raytrace.V3(0, 1, 0), 60, WithPolicy(PolicyIncremental))
	for i := 0; i < 1000; i++ {
		c.Rotate(0.7, math.Sin(float64(i)*0.1)*0.5)
	}
	assertOrthonormal(t, c)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyEuler, false},
		{"euler", PolicyEuler, false},
		{" Incremental ", PolicyIncremental, false},
		{"quaternion", PolicyEuler, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "Policy(7)", Policy(7).String())
}

func TestOptions(t *testing.T) {
	c := New(raytrace.V3(0, 0, 5), raytrace.Vec3{}, raytrace.V3(0, 1, 0), 45,
		WithAspect(2), WithClip(0.5, 50), WithAspect(-1))
	assert.Equal(t, 2.0, c.Aspect)
	assert.Equal(t, 0.5, c.Near)
	assert.Equal(t, 50.0, c.Far)
	assert.Equal(t, PolicyEuler, c.Policy())
}
