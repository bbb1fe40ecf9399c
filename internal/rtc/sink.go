package rtc

import (
	"errors"
	"io"
	"log/slog"

	"github.com/pion/webrtc/v4"
)

// TrackSink consumes inbound media tracks once the transport is established.
// Rendering is outside this program; the sink only has to keep the track
// drained so the car's congestion control keeps sending.
type TrackSink interface {
	HandleTrack(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
}

// DiscardSink reads and drops every packet on each track it is handed.
type DiscardSink struct {
	log *slog.Logger
}

// NewDiscardSink creates a sink that drains tracks without rendering.
func NewDiscardSink(log *slog.Logger) *DiscardSink {
	if log == nil {
		log = slog.Default()
	}
	return &DiscardSink{log: log}
}

func (s *DiscardSink) HandleTrack(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
	s.log.Info("receiving track", "kind", track.Kind().String(), "codec", track.Codec().MimeType)

	go func() {
		for {
			if _, _, err := track.ReadRTP(); err != nil {
				if !errors.Is(err, io.EOF) {
					s.log.Debug("track read ended", "err", err)
				}
				return
			}
		}
	}()
}
