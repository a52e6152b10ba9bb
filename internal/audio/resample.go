package audio

import "math"

// DecimationFactor returns the sample-keep stride for converting from
// sourceRate down to targetRate: round(source/target). A factor of 1
// means no conversion is needed.
func DecimationFactor(sourceRate, targetRate uint32) int {
	if sourceRate <= targetRate || targetRate == 0 {
		return 1
	}
	return int(math.Round(float64(sourceRate) / float64(targetRate)))
}

// Decimate downsamples by keeping every factor-th sample, starting with
// the first. No filtering or averaging is applied; for 48 kHz -> 16 kHz
// this keeps every 3rd sample. The output length is
// ceil(len(samples)/factor).
func Decimate(samples []float32, factor int) []float32 {
	if factor <= 1 {
		return samples
	}
	out := make([]float32, 0, (len(samples)+factor-1)/factor)
	for i := 0; i < len(samples); i += factor {
		out = append(out, samples[i])
	}
	return out
}
