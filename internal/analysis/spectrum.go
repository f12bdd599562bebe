package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// quiet is the amplitude below which a trace is treated as flat.
const quiet = 1e-12

type Bin struct {
	Frequency float64
	Amplitude float64
}

// Spectrum returns the one-sided amplitude spectrum of data sampled every
// interval seconds. The mean is removed first so the zero bin reflects only
// numerical residue.
func Spectrum(data []float64, interval float64) []Bin {
	n := len(data)
	if n < 2 || !(interval > 0) {
		return nil
	}

	mean := stat.Mean(data, nil)
	centred := make([]float64, n)
	for i, v := range data {
		centred[i] = v - mean
	}

	coeffs := fft.FFTReal(centred)
	bins := make([]Bin, n/2+1)
	for k := range bins {
		amp := cmplx.Abs(coeffs[k]) / float64(n)
		if k != 0 && 2*k != n {
			amp *= 2
		}
		bins[k] = Bin{
			Frequency: float64(k) / (float64(n) * interval),
			Amplitude: amp,
		}
	}
	return bins
}

// Dominant returns the strongest non-zero frequency, or zeros when the
// trace carries no oscillation.
func Dominant(bins []Bin) (float64, float64) {
	best := Bin{}
	for _, b := range bins[min(1, len(bins)):] {
		if b.Amplitude > best.Amplitude {
			best = b
		}
	}
	if best.Amplitude < quiet {
		return 0, 0
	}
	return best.Frequency, best.Amplitude
}

// Amplitudes extracts the amplitude column, for plotting.
func Amplitudes(bins []Bin) []float64 {
	out := make([]float64, len(bins))
	for i, b := range bins {
		out[i] = b.Amplitude
	}
	return out
}
