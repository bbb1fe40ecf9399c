package control

import (
	"encoding/json"
	"errors"
	"testing"
)

type fakeChannel struct {
	open    bool
	sendErr error
	sent    [][]byte
}

func (c *fakeChannel) Open() bool { return c.open }

func (c *fakeChannel) Send(data []byte) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, data)
	return nil
}

func TestTickSkipsClosedChannel(t *testing.T) {
	sampled := 0
	ch := &fakeChannel{open: false}
	d := NewDriver(SamplerFunc(func() Sample {
		sampled++
		return Sample{Throttle: 1}
	}), ch)

	if _, ok := d.Tick(); ok {
		t.Fatalf("tick sent on a closed channel")
	}
	if sampled != 0 {
		t.Fatalf("sampler polled %d times on a closed channel", sampled)
	}
	if len(ch.sent) != 0 {
		t.Fatalf("sent %d messages", len(ch.sent))
	}
}

func TestTickSendsLatestSample(t *testing.T) {
	values := []Sample{
		{Throttle: 0.5, Steering: -0.25},
		{Throttle: -1, Steering: 1},
	}
	i := 0
	ch := &fakeChannel{open: true}
	d := NewDriver(SamplerFunc(func() Sample {
		s := values[i]
		i++
		return s
	}), ch)

	for _, want := range values {
		got, ok := d.Tick()
		if !ok {
			t.Fatalf("tick skipped on open channel")
		}
		if got != want {
			t.Fatalf("sent %+v, want %+v", got, want)
		}
	}

	if len(ch.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(ch.sent))
	}
	var last Sample
	if err := json.Unmarshal(ch.sent[1], &last); err != nil {
		t.Fatalf("decode sent sample: %v", err)
	}
	if last != values[1] {
		t.Fatalf("wire sample = %+v, want %+v", last, values[1])
	}
}

func TestTickSwallowsSendError(t *testing.T) {
	ch := &fakeChannel{open: true, sendErr: errors.New("channel closing")}
	d := NewDriver(SamplerFunc(func() Sample { return Sample{} }), ch)

	if _, ok := d.Tick(); ok {
		t.Fatalf("tick reported success on send error")
	}

	// The next tick proceeds as if nothing happened.
	ch.sendErr = nil
	if _, ok := d.Tick(); !ok {
		t.Fatalf("driver stuck after a send error")
	}
}

func TestSampleWireFormat(t *testing.T) {
	data, err := Sample{Throttle: 0.75, Steering: -0.5}.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(data) != `{"throttle":0.75,"steering":-0.5}` {
		t.Fatalf("wire form = %s", data)
	}

	got, err := DecodeSample(data)
	if err != nil {
		t.Fatalf("DecodeSample: %v", err)
	}
	if got.Throttle != 0.75 || got.Steering != -0.5 {
		t.Fatalf("decoded %+v", got)
	}

	if _, err := DecodeSample([]byte(`throttle=1`)); err == nil {
		t.Fatalf("malformed sample accepted")
	}
}
