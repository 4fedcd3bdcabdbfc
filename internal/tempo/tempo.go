// Package tempo converts between the two transport units the source DSL
// accepts: beats per minute (`tempo:`) and cycles per second (`cps:`).
// One cycle is one 4/4 bar, so cps = bpm/60/4.
package tempo

// CpsFromBPM converts beats per minute to cycles per second.
func CpsFromBPM(bpm float64) float64 { return bpm / 60 / 4 }

// BPMFromCps converts cycles per second back to beats per minute.
func BPMFromCps(cps float64) float64 { return cps * 60 * 4 }

// SamplesPerCycle returns how many audio samples one cycle spans at the
// given sample rate and transport rate.
func SamplesPerCycle(sampleRate, cps float64) float64 {
	if cps <= 0 {
		return 0
	}
	return sampleRate / cps
}
