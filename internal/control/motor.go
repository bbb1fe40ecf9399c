package control

import (
	"log/slog"
	"math"
)

// Motor is the car-side sink for control samples.
type Motor interface {
	Apply(Sample)
}

// LogMotor prints the commands it receives. It stands in for real motor
// hardware on the simulator.
type LogMotor struct {
	log *slog.Logger
}

// NewLogMotor creates a motor that logs every command.
func NewLogMotor(log *slog.Logger) *LogMotor {
	if log == nil {
		log = slog.Default()
	}
	return &LogMotor{log: log}
}

func (m *LogMotor) Apply(s Sample) {
	m.log.Info("motor", "throttle", s.Throttle, "steering", s.Steering)
}

// SweepSampler is a demo control source that sweeps both axes smoothly, used
// when no physical input device is wired up.
type SweepSampler struct {
	t float64
}

func (s *SweepSampler) Sample() Sample {
	s.t += 0.05
	return Sample{
		Throttle: math.Sin(s.t),
		Steering: math.Sin(s.t / 2),
	}
}
