// Package raytrace provides the vector and matrix kernel shared by the
// camera, trajectory and GPU host packages of a compute-shader ray tracer.
//
// # Overview
//
// The ray tracer renders a scene around a central mass by dispatching a WGSL
// compute kernel through gogpu/wgpu. The CPU side owns a first-person fly
// camera, a light-ray trajectory integrator whose path is drawn as an overlay,
// and a fixed-layout parameter block uploaded to the kernel every frame.
//
// # Packages
//
//   - raytrace: Vec3, Vec4, Mat3, Mat4, LookAt, Perspective, RotationMatrix
//   - camera: camera state, orientation policies, input controller, projection
//   - trajectory: integration of a ray bent by a central mass
//   - shaderdata: the 96-byte block shared with the kernel
//   - session: per-frame orchestration of the pieces above
//   - skymap, tonemap, overlay, input, config: host-side plumbing
//
// The programs cmd/rtrender (single image to PNG) and cmd/rtview (live window)
// drive the WGSL kernel in internal/kernel, or its CPU reference with -cpu.
//
// # Quick Start
//
//	cam := camera.New(raytrace.V3(0, 0, 20), raytrace.Vec3{}, raytrace.V3(0.2, 1, 0), 45)
//	basis := cam.DeriveViewBasis()
//	fmt.Println(basis.W, basis.HalfHeight) // ≈(0,0,1) 0.4142
//
// # Conventions
//
// Angles in camera state are degrees; the matrix helpers take radians.
// Matrices are row-major and multiply column vectors. The look-at frame is
// left/up/forward, so camera-space points in front of the eye have z > 0.
//
// # Logging
//
// Logging goes through log/slog and is silent by default. See [SetLogger].
package raytrace
