package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// DeviceError marks capture-device failures (device unavailable,
// refused to open, or lost mid-recording).
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string { return "audio device: " + e.Err.Error() }

func (e *DeviceError) Unwrap() error { return e.Err }

// Capture records mono audio from the default input device into a
// SampleBuffer at TargetRate. The device is opened at 16 kHz when the
// backend allows it; otherwise it is reopened at fallbackRate and every
// delivered frame is decimated down to 16 kHz before it is appended.
//
// The malgo data callback does nothing but byte conversion, decimation
// and a short mutex-guarded append, so the device's delivery context is
// never blocked on allocation-heavy work.
type Capture struct {
	ctx          *malgo.AllocatedContext
	channels     uint32
	fallbackRate uint32

	mu         sync.Mutex
	device     *malgo.Device
	deviceRate uint32
	factor     int
	pending    []float32
	buf        *SampleBuffer
	recording  bool
}

// NewCapture initializes the audio backend. Call Close when done.
// fallbackRate is the rate to reopen the device at when 16 kHz is
// rejected (typically the hardware's native 48 kHz).
func NewCapture(channels, fallbackRate uint32) (*Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}
	return &Capture{
		ctx:          ctx,
		channels:     channels,
		fallbackRate: fallbackRate,
	}, nil
}

// Start opens the default input device and begins appending samples to
// a fresh SampleBuffer. A *DeviceError is returned when no device can
// be opened; the capture stays idle in that case.
func (c *Capture) Start() error {
	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		return fmt.Errorf("already recording")
	}
	c.buf = NewSampleBuffer(TargetRate)
	c.pending = c.pending[:0]
	c.recording = true
	c.mu.Unlock()

	device, err := c.openDevice()
	if err != nil {
		c.mu.Lock()
		c.recording = false
		c.buf = nil
		c.mu.Unlock()
		return &DeviceError{Err: err}
	}

	c.mu.Lock()
	c.device = device
	c.mu.Unlock()

	return nil
}

// openDevice tries the target rate first, then the fallback rate.
func (c *Capture) openDevice() (*malgo.Device, error) {
	device, err := c.initDevice(TargetRate)
	if err == nil {
		return device, nil
	}
	device, ferr := c.initDevice(c.fallbackRate)
	if ferr != nil {
		return nil, fmt.Errorf("opening capture device at %d Hz (%v) and %d Hz: %w",
			TargetRate, err, c.fallbackRate, ferr)
	}
	return device, nil
}

func (c *Capture) initDevice(rate uint32) (*malgo.Device, error) {
	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = c.channels
	deviceCfg.SampleRate = rate

	callbacks := malgo.DeviceCallbacks{
		Data: c.onData,
		Stop: c.onDeviceStop,
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		return nil, err
	}

	// Delivery can begin as soon as the device starts, so the
	// decimation factor for this rate must already be in place.
	c.setDeviceRate(rate)

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, err
	}
	return device, nil
}

// setDeviceRate records the rate the device was opened at and the
// matching decimation stride. Must run before any frame is delivered.
func (c *Capture) setDeviceRate(rate uint32) {
	c.mu.Lock()
	c.deviceRate = rate
	c.factor = DecimationFactor(rate, TargetRate)
	c.mu.Unlock()
}

// Stop ends the capture and transfers ownership of the buffer to the
// caller. Returns nil if no recording was active.
func (c *Capture) Stop() *SampleBuffer {
	c.mu.Lock()
	device := c.device
	c.device = nil
	c.mu.Unlock()

	// Uninit outside the lock: malgo joins the data callback, which
	// needs the mutex for its final appends.
	if device != nil {
		device.Uninit()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recording {
		return nil
	}
	c.recording = false

	// Flush any samples still waiting for a full decimation stride.
	if len(c.pending) > 0 && c.buf != nil {
		c.buf.Append(Decimate(c.pending, c.factor))
		c.pending = c.pending[:0]
	}

	buf := c.buf
	c.buf = nil
	return buf
}

// Abort ends the capture and discards everything recorded so far.
func (c *Capture) Abort() {
	c.Stop()
}

// IsRecording reports whether a capture is in progress.
func (c *Capture) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// DeviceRate returns the rate the device was opened at for the current
// or most recent capture.
func (c *Capture) DeviceRate() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceRate
}

// Close releases the device and the audio backend.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.device != nil {
		device := c.device
		c.device = nil
		c.mu.Unlock()
		device.Uninit()
		c.mu.Lock()
	}
	c.recording = false
	c.buf = nil
	c.mu.Unlock()

	if c.ctx != nil {
		if err := c.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninitializing audio context: %w", err)
		}
		c.ctx.Free()
	}
	return nil
}

// onData is the malgo callback invoked on the device's delivery
// context. Frames arriving at the fallback rate are decimated in whole
// strides; the remainder carries over so the stride phase stays exact
// across callback boundaries.
func (c *Capture) onData(_, pSample []byte, frameCount uint32) {
	samples := bytesToFloat32(pSample, frameCount*c.channels)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recording || c.buf == nil {
		return
	}
	if c.factor <= 1 {
		c.buf.Append(samples)
		return
	}
	c.pending = append(c.pending, samples...)
	whole := len(c.pending) - len(c.pending)%c.factor
	if whole > 0 {
		c.buf.Append(Decimate(c.pending[:whole], c.factor))
		c.pending = append(c.pending[:0], c.pending[whole:]...)
	}
}

// onDeviceStop fires when the backend stops the device without us
// asking (e.g. the microphone was unplugged). The partial buffer is
// discarded; the orchestrator sees the loss when it calls Stop.
func (c *Capture) onDeviceStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return // regular Stop/Close path
	}
	c.recording = false
	c.buf = nil
	c.pending = c.pending[:0]
}

// bytesToFloat32 converts raw little-endian float32 bytes to samples.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
