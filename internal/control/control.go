// Package control carries the two-axis driving commands over the negotiated
// data channel: the controller samples and sends, the car decodes and applies.
package control

import (
	"encoding/json"
	"fmt"
)

// Sample is one two-axis control reading. It is the exact JSON shape sent
// over the data channel.
type Sample struct {
	Throttle float64 `json:"throttle"`
	Steering float64 `json:"steering"`
}

// Encode serializes a sample for the data channel.
func (s Sample) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSample parses a control message received on the data channel.
func DecodeSample(data []byte) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(data, &s); err != nil {
		return Sample{}, fmt.Errorf("decode control sample: %w", err)
	}
	return s, nil
}

// Sampler provides the current control reading. Implementations are polled at
// the external tick rate; the driver never caches between ticks.
type Sampler interface {
	Sample() Sample
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func() Sample

func (f SamplerFunc) Sample() Sample { return f() }
