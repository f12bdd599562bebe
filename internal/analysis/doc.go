// Package analysis provides frequency analysis of sampled run traces.
//
// A chain swinging under gravity or a pile settling onto the boundary shows
// up as a periodic component in the kinetic energy trace:
//
//	bins := analysis.Spectrum(trace, interval)
//	f, amp := analysis.Dominant(bins)
//	if f > 0 {
//	    // period is 1/f seconds
//	}
package analysis
