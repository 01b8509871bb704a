package anytalk

import (
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// capturer is the Audio Capture contract (spec §4.5): Start is idempotent
// and spawns a background capture thread that pushes fixed-size chunks
// into target until Stop is called; Stop is idempotent. Abstracted as an
// interface so tests can substitute a synthetic source instead of opening
// a real microphone.
type capturer interface {
	Start(target *audioTarget) error
	Stop()
}

var (
	paInitOnce sync.Once
	paInitErr  error
)

func ensurePortAudioInitialized() error {
	paInitOnce.Do(func() {
		paInitErr = portaudio.Initialize()
	})
	return paInitErr
}

// portaudioCapture opens a blocking PCM capture source at 16kHz mono S16LE
// via PortAudio's default input device, requesting a fragment size equal
// to one chunk's sample count to minimize latency (spec §4.5).
type portaudioCapture struct {
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	stream  *portaudio.Stream
	buf     []int16
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func newPortAudioCapture(logger *slog.Logger) *portaudioCapture {
	return &portaudioCapture{logger: logger}
}

// Start opens the default input device and begins capturing. If the
// device is unavailable, it returns a *DeviceUnavailableError and the rest
// of the system continues uninterrupted (spec §7) — a later Start may
// succeed once the device appears.
func (c *portaudioCapture) Start(target *audioTarget) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	if err := ensurePortAudioInitialized(); err != nil {
		return &DeviceUnavailableError{Err: err}
	}

	buf := make([]int16, samplesPerChunk)
	stream, err := portaudio.OpenDefaultStream(Channels, 0, float64(SampleRateHz), samplesPerChunk, buf)
	if err != nil {
		return &DeviceUnavailableError{Err: err}
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return &DeviceUnavailableError{Err: err}
	}

	c.stream = stream
	c.buf = buf
	c.running = true
	c.stopCh = make(chan struct{})

	c.wg.Add(1)
	go c.loop(target, stream, buf, c.stopCh)

	c.logger.Info("capture: started")
	return nil
}

func (c *portaudioCapture) loop(target *audioTarget, stream *portaudio.Stream, buf []int16, stop <-chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			c.logger.Warn("capture: read failed, stopping", slog.String("error", err.Error()))
			return
		}

		var chunk AudioChunk
		for i, sample := range buf {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}
		target.Send(chunk)
	}
}

// Stop closes the capture device and joins the capture goroutine. Safe to
// call even if Start never succeeded.
func (c *portaudioCapture) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	stream := c.stream
	c.mu.Unlock()

	c.wg.Wait()
	if stream != nil {
		_ = stream.Stop()
		_ = stream.Close()
	}
	c.logger.Info("capture: stopped")
}
