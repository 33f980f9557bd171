package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum computes the one-sided magnitude spectrum of a series.
// The mean is removed first so the DC bin does not swamp oscillations,
// and the series is zero-padded to the next power of two.
func PowerSpectrum(series []float64) []float64 {
	if len(series) == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	padded := make([]float64, nextPowerOfTwo(len(series)))
	for i, v := range series {
		padded[i] = v - mean
	}

	spectrum := fft.FFTReal(padded)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the index of the strongest non-DC bin of the
// power spectrum, as a fraction of the sampling rate (cycles per timestep).
func DominantFrequency(series []float64) float64 {
	ps := PowerSpectrum(series)
	if len(ps) < 2 {
		return 0
	}

	peak := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[peak] {
			peak = i
		}
	}
	// Bin i of an N-point FFT corresponds to i/N cycles per sample.
	return float64(peak) / float64(2*len(ps))
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
