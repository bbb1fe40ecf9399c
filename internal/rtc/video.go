package rtc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
)

// VideoFile streams a pre-encoded IVF file as the car's camera feed, looping
// when it reaches the end. It replaces a real capture pipeline on the
// simulator.
type VideoFile struct {
	path  string
	track *webrtc.TrackLocalStaticSample
	stop  chan struct{}
	log   *slog.Logger

	mu      sync.Mutex
	running bool
	stopped bool
}

// NewVideoFile opens an IVF file and prepares a sample track for it.
func NewVideoFile(path string) (*VideoFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	_, header, err := ivfreader.NewWith(file)
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("read ivf header: %w", err)
	}

	var mimeType string
	switch header.FourCC {
	case "VP80":
		mimeType = webrtc.MimeTypeVP8
	case "VP90":
		mimeType = webrtc.MimeTypeVP9
	default:
		return nil, fmt.Errorf("unsupported ivf codec %q", header.FourCC)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: mimeType}, "video", "rc-car",
	)
	if err != nil {
		return nil, fmt.Errorf("create video track: %w", err)
	}

	return &VideoFile{
		path:  path,
		track: track,
		stop:  make(chan struct{}),
		log:   slog.Default(),
	}, nil
}

// Track returns the local track to attach to the peer.
func (v *VideoFile) Track() webrtc.TrackLocal {
	return v.track
}

// Start begins pacing frames onto the track from its own goroutine. Calling
// Start on a video that is already playing is a no-op: a reconnecting session
// keeps the existing loop instead of stacking a second writer on the track.
func (v *VideoFile) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.running || v.stopped {
		return
	}
	v.running = true
	go v.run()
}

// Stop ends the frame loop. Safe to call more than once; a stopped video does
// not restart.
func (v *VideoFile) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopped {
		return
	}
	v.stopped = true
	close(v.stop)
}

func (v *VideoFile) run() {
	defer func() {
		v.mu.Lock()
		v.running = false
		v.mu.Unlock()
	}()

	for {
		if err := v.playOnce(); err != nil {
			v.log.Error("video playback", "err", err)
			return
		}
		select {
		case <-v.stop:
			return
		default:
		}
	}
}

func (v *VideoFile) playOnce() error {
	file, err := os.Open(v.path)
	if err != nil {
		return err
	}
	defer file.Close()

	ivf, header, err := ivfreader.NewWith(file)
	if err != nil {
		return err
	}

	// The IVF timebase gives the per-frame pacing interval.
	interval := time.Duration(float64(header.TimebaseNumerator) /
		float64(header.TimebaseDenominator) * float64(time.Second))
	if interval <= 0 {
		interval = time.Second / 30
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		frame, _, err := ivf.ParseNextFrame()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := v.track.WriteSample(media.Sample{Data: frame, Duration: interval}); err != nil {
			return err
		}

		select {
		case <-v.stop:
			return nil
		case <-ticker.C:
		}
	}
}
