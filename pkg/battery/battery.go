// Package battery samples the supply voltage and converts it to a charge
// percentage for the advertised battery level.
package battery

import (
	"context"
	"errors"
	"fmt"
)

// ErrConversion indicates the ADC could not produce a millivolt reading.
var ErrConversion = errors.New("adc conversion failed")

// Input selects the analog input of a channel.
type Input uint8

// Analog inputs.
const (
	InputVDD Input = iota + 1
	InputAIN0
	InputAIN1
)

func (i Input) String() string {
	switch i {
	case InputVDD:
		return "VDD"
	case InputAIN0:
		return "AIN0"
	case InputAIN1:
		return "AIN1"
	default:
		return fmt.Sprintf("INPUT_%d", uint8(i))
	}
}

// Channel describes one single-ended ADC channel.
type Channel struct {
	ID    uint8
	Input Input
	Gain  Gain

	// Bits is the conversion resolution.
	Bits uint8

	// Oversample is log2 of the number of averaged samples.
	Oversample uint8
}

// Gain is the input attenuation as a fraction.
type Gain struct {
	Num, Den int32
}

// VDD measures the supply rail: gain 1/6 against the 0.6 V internal
// reference, 14-bit resolution with 16x oversampling.
var VDD = Channel{
	ID:         0,
	Input:      InputVDD,
	Gain:       Gain{Num: 1, Den: 6},
	Bits:       14,
	Oversample: 4,
}

// ReferenceMillivolts is the internal ADC reference.
const ReferenceMillivolts = 600

// RawToMillivolts converts a raw sample on ch to millivolts.
func RawToMillivolts(ch Channel, raw int32) (int32, error) {
	if ch.Gain.Num <= 0 || ch.Gain.Den <= 0 || ch.Bits == 0 || ch.Bits > 24 {
		return 0, fmt.Errorf("%w: channel %d: bad gain or resolution", ErrConversion, ch.ID)
	}
	full := int64(1) << ch.Bits
	mv := int64(raw) * ReferenceMillivolts * int64(ch.Gain.Den) / (int64(ch.Gain.Num) * full)
	return int32(mv), nil
}

// Sampler takes calibrated single-shot measurements.
type Sampler interface {
	// SampleCalibrated calibrates the converter, samples ch once and
	// returns the reading in millivolts. Failures wrap ErrConversion.
	SampleCalibrated(ctx context.Context, ch Channel) (int32, error)
}
