// Package audio implements the feature extractor: it samples an audio source once per
// animation frame, reduces the spectral and time-domain buffers to band energies, volume
// and a beat flag, and hands the resulting FeatureFrame to a registered sink.
//
// The extractor is cooperative and single-threaded with respect to itself. Every tick is
// a bounded computation over fixed-size buffers, and the next tick is only requested from
// the Scheduler once the current one has finished.
package audio
