package kernel

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/raytrace/shaderdata"
	"github.com/gogpu/raytrace/skymap"
)

// ErrNoGPU is returned when no usable adapter or device is available.
var ErrNoGPU = errors.New("kernel: no GPU available")

// ErrNotReady is returned by operations that need Init or SetDeviceProvider
// first.
var ErrNotReady = errors.New("kernel: tracer not initialized")

// Tracer runs the ray tracing kernel on the GPU and reads the image back.
// It is safe for concurrent use; dispatches are serialized.
type Tracer struct {
	mu sync.Mutex

	opts options

	instance *wgpu.Instance
	device   *wgpu.Device
	queue    *wgpu.Queue
	external bool
	limits   Limits

	module         *wgpu.ShaderModule
	bgLayout       *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pipeline       *wgpu.ComputePipeline

	params    *wgpu.Buffer
	sky       *wgpu.Buffer
	output    *wgpu.Buffer
	staging   *wgpu.Buffer
	bindGroup *wgpu.BindGroup

	width, height int
	skyW, skyH    int
}

// New creates a Tracer. No GPU resources are created until Init or
// SetDeviceProvider.
func New(opts ...Option) *Tracer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Tracer{opts: o}
}

// Init creates a standalone device for headless rendering.
func (t *Tracer) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.device != nil {
		return nil
	}

	instance, err := wgpu.CreateInstance(&wgpu.InstanceDescriptor{
		Backends: wgpu.BackendsVulkan,
	})
	if err != nil {
		return fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		instance.Release()
		return fmt.Errorf("%w: request adapter: %w", ErrNoGPU, err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "raytrace"})
	if err != nil {
		instance.Release()
		return fmt.Errorf("%w: request device: %w", ErrNoGPU, err)
	}

	t.instance = instance
	t.device = device
	t.queue = device.Queue()
	t.external = false
	t.limits = limitsFrom(adapter.Info().Name, false, device.Limits())

	if err := t.createPipeline(); err != nil {
		t.releaseLocked()
		return err
	}
	slogger().Info("kernel: GPU initialized (standalone)",
		"adapter", t.limits.Adapter,
		"max_workgroups", t.limits.Workgroups[0],
		"max_storage_binding", t.limits.MaxStorageBinding)
	return nil
}

// SetDeviceProvider switches the tracer to the device owned by a window
// host. The tracer never releases a shared device.
func (t *Tracer) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	dev := provider.Device()
	if dev == nil {
		return fmt.Errorf("%w: provider device is nil", ErrNoGPU)
	}
	wdev, ok := dev.(*wgpu.Device)
	if !ok {
		return fmt.Errorf("kernel: provider device is not *wgpu.Device (got %T)", dev)
	}
	queue := wdev.Queue()
	if queue == nil {
		return fmt.Errorf("%w: provider queue is nil", ErrNoGPU)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLocked()

	t.device = wdev
	t.queue = queue
	t.external = true
	t.limits = limitsFrom(provider.AdapterInfo().Name, true, wdev.Limits())

	if err := t.createPipeline(); err != nil {
		t.releaseLocked()
		return err
	}
	slogger().Info("kernel: using shared GPU device", "adapter", t.limits.Adapter)
	return nil
}

// Limits returns the adapter limits. It is zero before Init.
func (t *Tracer) Limits() Limits {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limits
}

func (t *Tracer) createPipeline() error {
	spirv, err := Compile(t.opts.source)
	if err != nil {
		return err
	}

	module, err := t.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "raytrace",
		SPIRV: spirv,
	})
	if err != nil {
		return fmt.Errorf("kernel: create shader module: %w", err)
	}
	t.module = module

	bgl, err := t.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "raytrace_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("kernel: create bind group layout: %w", err)
	}
	t.bgLayout = bgl

	pl, err := t.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "raytrace_pl",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return fmt.Errorf("kernel: create pipeline layout: %w", err)
	}
	t.pipelineLayout = pl

	pipeline, err := t.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      "raytrace",
		Layout:     pl,
		Module:     module,
		EntryPoint: EntryPoint,
	})
	if err != nil {
		return fmt.Errorf("kernel: create compute pipeline: %w", err)
	}
	t.pipeline = pipeline

	params, err := t.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "raytrace_params",
		Size:  shaderdata.Size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("kernel: create params buffer: %w", err)
	}
	t.params = params

	slogger().Debug("kernel: pipeline created", "spirv_words", len(spirv))
	return nil
}

// UploadSky copies the sky map to the GPU. It replaces any earlier map.
func (t *Tracer) UploadSky(img *skymap.Image) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.device == nil {
		return ErrNotReady
	}

	size := uint64(len(img.Pix))
	if lim := t.limits.MaxStorageBinding; lim != 0 && size > lim {
		return fmt.Errorf("kernel: sky map %dx%d is %d bytes, storage binding limit is %d",
			img.Width, img.Height, size, lim)
	}
	if size == 0 {
		return skymap.ErrEmpty
	}

	if t.sky != nil && t.sky.Size() != size {
		t.releaseSky()
	}
	if t.sky == nil {
		buf, err := t.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "raytrace_sky",
			Size:  size,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("kernel: create sky buffer: %w", err)
		}
		t.sky = buf
		t.releaseBindGroup()
	}
	if err := t.queue.WriteBuffer(t.sky, 0, img.Pix); err != nil {
		return fmt.Errorf("kernel: upload sky: %w", err)
	}
	t.skyW, t.skyH = img.Width, img.Height
	slogger().Info("kernel: sky map uploaded", "width", img.Width, "height", img.Height, "bytes", size)
	return nil
}

// SkySize returns the dimensions of the uploaded sky map.
func (t *Tracer) SkySize() (width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skyW, t.skyH
}

// Dispatch runs the kernel for b and returns the linear RGBA output,
// four floats per pixel, top row first. It blocks until the GPU finishes.
func (t *Tracer) Dispatch(b *shaderdata.Block) ([]float32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.device == nil || t.pipeline == nil {
		return nil, ErrNotReady
	}
	if t.sky == nil {
		return nil, fmt.Errorf("kernel: no sky map uploaded")
	}

	w, h := int(b.Width), int(b.Height)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("kernel: invalid image size %dx%d", w, h)
	}
	if err := t.limits.Fits(w, h); err != nil {
		return nil, err
	}
	if err := t.ensureOutput(w, h); err != nil {
		return nil, err
	}

	var raw [shaderdata.Size]byte
	if err := b.Put(raw[:]); err != nil {
		return nil, err
	}
	if err := t.queue.WriteBuffer(t.params, 0, raw[:]); err != nil {
		return nil, fmt.Errorf("kernel: write params: %w", err)
	}

	if t.bindGroup == nil {
		bg, err := t.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "raytrace_bg",
			Layout: t.bgLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: t.output},
				{Binding: 1, Buffer: t.sky},
				{Binding: 2, Buffer: t.params},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("kernel: create bind group: %w", err)
		}
		t.bindGroup = bg
	}

	encoder, err := t.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "raytrace"})
	if err != nil {
		return nil, fmt.Errorf("kernel: create command encoder: %w", err)
	}
	pass, err := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "raytrace"})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("kernel: begin compute pass: %w", err)
	}
	wx, wy := Workgroups(w, h)
	pass.SetPipeline(t.pipeline)
	pass.SetBindGroup(0, t.bindGroup, nil)
	pass.Dispatch(wx, wy, 1)
	if err := pass.End(); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("kernel: end compute pass: %w", err)
	}

	size := t.output.Size()
	encoder.CopyBufferToBuffer(t.output, 0, t.staging, 0, size)
	cmdBuf, err := encoder.Finish()
	if err != nil {
		return nil, fmt.Errorf("kernel: end encoding: %w", err)
	}
	if _, err := t.queue.Submit(cmdBuf); err != nil {
		return nil, fmt.Errorf("kernel: submit: %w", err)
	}
	slogger().Debug("kernel: dispatched", "width", w, "height", h, "workgroups_x", wx, "workgroups_y", wy)

	data, err := t.readback(size)
	if err != nil {
		return nil, err
	}
	return bytesToFloats(data), nil
}

// readback maps the staging buffer, which blocks until the submitted work
// completes, and copies its contents out.
func (t *Tracer) readback(size uint64) ([]byte, error) {
	if err := t.staging.Map(context.Background(), wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("kernel: map staging: %w", err)
	}
	rng, err := t.staging.MappedRange(0, size)
	if err != nil {
		if err := t.staging.Unmap(); err != nil {
			slogger().Warn("unmap failed", "err", err)
		}
		return nil, fmt.Errorf("kernel: mapped range: %w", err)
	}
	out := make([]byte, size)
	copy(out, rng.Bytes())
	if err := t.staging.Unmap(); err != nil {
		slogger().Warn("unmap failed", "err", err)
	}
	return out, nil
}

func (t *Tracer) ensureOutput(w, h int) error {
	if t.output != nil && t.width == w && t.height == h {
		return nil
	}
	t.releaseOutput()

	size := uint64(w) * uint64(h) * 16
	out, err := t.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "raytrace_output",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("kernel: create output buffer: %w", err)
	}
	staging, err := t.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "raytrace_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		out.Release()
		return fmt.Errorf("kernel: create staging buffer: %w", err)
	}
	t.output, t.staging = out, staging
	t.width, t.height = w, h
	slogger().Debug("kernel: output resized", "width", w, "height", h, "bytes", size)
	return nil
}

func bytesToFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func (t *Tracer) releaseBindGroup() {
	if t.bindGroup != nil {
		t.bindGroup.Release()
		t.bindGroup = nil
	}
}

func (t *Tracer) releaseOutput() {
	t.releaseBindGroup()
	if t.output != nil {
		t.output.Release()
		t.output = nil
	}
	if t.staging != nil {
		t.staging.Release()
		t.staging = nil
	}
	t.width, t.height = 0, 0
}

func (t *Tracer) releaseSky() {
	t.releaseBindGroup()
	if t.sky != nil {
		t.sky.Release()
		t.sky = nil
	}
	t.skyW, t.skyH = 0, 0
}

func (t *Tracer) releaseLocked() {
	t.releaseOutput()
	t.releaseSky()
	if t.params != nil {
		t.params.Release()
		t.params = nil
	}
	if t.pipeline != nil {
		t.pipeline.Release()
		t.pipeline = nil
	}
	if t.pipelineLayout != nil {
		t.pipelineLayout.Release()
		t.pipelineLayout = nil
	}
	if t.bgLayout != nil {
		t.bgLayout.Release()
		t.bgLayout = nil
	}
	if t.module != nil {
		t.module.Release()
		t.module = nil
	}

	if !t.external {
		if t.device != nil {
			t.device.Release()
		}
		if t.instance != nil {
			t.instance.Release()
		}
	}
	t.device = nil
	t.instance = nil
	t.queue = nil
	t.external = false
}

// Close releases all GPU resources. A shared device is left to its owner.
func (t *Tracer) Close() {
	t.mu.Lock()
	t.releaseLocked()
	t.limits = Limits{}
	t.mu.Unlock()
}
