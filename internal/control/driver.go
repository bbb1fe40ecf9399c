package control

import "log/slog"

// Channel is the send side of the negotiated data transport.
type Channel interface {
	// Open reports whether the channel is ready to carry messages.
	Open() bool

	Send(data []byte) error
}

// Driver pushes the latest control sample over the data channel, one send per
// tick. There is no acknowledgment, no retry and no queue: each tick's value
// supersedes the previous one at the receiver, and a tick that finds the
// channel closed is simply skipped.
type Driver struct {
	sampler Sampler
	ch      Channel
	log     *slog.Logger
}

// NewDriver creates a driver for the given sampler and channel.
func NewDriver(sampler Sampler, ch Channel) *Driver {
	return &Driver{sampler: sampler, ch: ch, log: slog.Default()}
}

// Tick samples the current control value and sends it if the channel is open.
// Returns the sample that was sent, or ok=false if the tick was skipped.
func (d *Driver) Tick() (Sample, bool) {
	if !d.ch.Open() {
		return Sample{}, false
	}

	sample := d.sampler.Sample()
	data, err := sample.Encode()
	if err != nil {
		d.log.Error("encode control sample", "err", err)
		return Sample{}, false
	}
	if err := d.ch.Send(data); err != nil {
		d.log.Debug("control send skipped", "err", err)
		return Sample{}, false
	}
	return sample, true
}
