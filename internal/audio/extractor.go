package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

// FrameSink receives one FeatureFrame per successful tick.
type FrameSink func(models.FeatureFrame)

// ErrorSink receives source and tick failures. It may be called from a goroutine
// other than the one delivering frames.
type ErrorSink func(error)

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the time source used for timestamps and beat spacing.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func WithBeatConfig(cfg BeatConfig) Option {
	return func(e *Extractor) { e.beat = NewBeatDetector(cfg) }
}

// WithGains overrides the band and volume gain factors.
func WithGains(band, volume float64) Option {
	return func(e *Extractor) {
		e.bandGain = band
		e.volumeGain = volume
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Extractor) { e.log = l }
}

// Extractor turns a Source into a stream of FeatureFrames.
type Extractor struct {
	source    Source
	scheduler Scheduler
	now       func() time.Time
	log       logrus.FieldLogger

	bandGain   float64
	volumeGain float64

	mu      sync.Mutex
	running bool
	gen     uint64
	cancel  CancelFunc
	stopCh  chan struct{}
	origin  time.Time
	beat    *BeatDetector
	freq    []byte
	samples []byte

	onFrame FrameSink
	onError ErrorSink
}

func NewExtractor(source Source, scheduler Scheduler, opts ...Option) *Extractor {
	e := &Extractor{
		source:     source,
		scheduler:  scheduler,
		now:        time.Now,
		log:        logrus.StandardLogger(),
		bandGain:   DefaultBandGain,
		volumeGain: DefaultVolumeGain,
		beat:       NewBeatDetector(DefaultBeatConfig()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnFrame registers the frame sink. A later registration replaces the earlier one.
func (e *Extractor) OnFrame(fn FrameSink) {
	e.mu.Lock()
	e.onFrame = fn
	e.mu.Unlock()
}

// OnError registers the error sink. A later registration replaces the earlier one.
func (e *Extractor) OnError(fn ErrorSink) {
	e.mu.Lock()
	e.onError = fn
	e.mu.Unlock()
}

// Running reports whether the extractor has an acquired source and a tick loop.
func (e *Extractor) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Start acquires the source and schedules the first tick. Calling Start on a
// running extractor is a no-op.
func (e *Extractor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	if e.source == nil {
		return ErrSourceUnavailable
	}
	if e.scheduler == nil {
		return ErrUnsupportedPlatform
	}

	if err := e.source.Acquire(ctx); err != nil {
		if errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrUnsupportedPlatform) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	bins := e.source.BinCount()
	if bins <= 0 || e.source.SampleRate() <= 0 {
		_ = e.source.Release()
		return ErrUnsupportedPlatform
	}

	e.freq = make([]byte, bins)
	e.samples = make([]byte, bins)
	e.beat.Reset()
	e.origin = e.now()
	e.running = true
	e.gen++
	e.stopCh = make(chan struct{})

	if r, ok := e.source.(ErrorReporter); ok {
		go e.watchErrors(r.Errors(), e.stopCh)
	}

	e.scheduleLocked(e.gen)

	e.log.WithFields(logrus.Fields{
		"function":    "Start",
		"bins":        bins,
		"sample_rate": e.source.SampleRate(),
	}).Debug("Feature extractor started")
	return nil
}

// Stop cancels the pending tick and releases the source. Stopping an extractor
// that is not running is a no-op.
func (e *Extractor) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	close(e.stopCh)
	src := e.source
	e.mu.Unlock()

	if err := src.Release(); err != nil {
		e.log.WithFields(logrus.Fields{
			"function": "Stop",
			"error":    err.Error(),
		}).Warn("Failed to release audio source")
	}
}

// Tick performs one extraction outside of the scheduler and delivers the frame to
// the sink. It returns false when the extractor is not running or the tick failed.
func (e *Extractor) Tick() (models.FeatureFrame, bool) {
	e.mu.Lock()
	gen := e.gen
	e.mu.Unlock()
	return e.runTick(gen)
}

func (e *Extractor) scheduleLocked(gen uint64) {
	e.cancel = e.scheduler.Schedule(func() { e.scheduled(gen) })
}

func (e *Extractor) scheduled(gen uint64) {
	e.runTick(gen)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && e.gen == gen {
		e.scheduleLocked(gen)
	}
}

func (e *Extractor) runTick(gen uint64) (models.FeatureFrame, bool) {
	frame, ok := e.extract(gen)
	if !ok {
		return models.FeatureFrame{}, false
	}
	return frame, e.publish(gen, frame)
}

func (e *Extractor) extract(gen uint64) (models.FeatureFrame, bool) {
	e.mu.Lock()
	if !e.running || e.gen != gen {
		e.mu.Unlock()
		return models.FeatureFrame{}, false
	}
	frame, err := e.extractLocked()
	errSink := e.onError
	e.mu.Unlock()

	if err != nil {
		e.report(errSink, err)
		return models.FeatureFrame{}, false
	}
	return frame, true
}

// publish hands frame to the sink unless the extractor was stopped or restarted
// since the frame was extracted.
func (e *Extractor) publish(gen uint64, frame models.FeatureFrame) bool {
	e.mu.Lock()
	if !e.running || e.gen != gen {
		e.mu.Unlock()
		return false
	}
	frameSink, errSink := e.onFrame, e.onError
	e.mu.Unlock()

	if frameSink != nil {
		if err := deliver(frameSink, frame); err != nil {
			e.report(errSink, err)
		}
	}
	return true
}

func (e *Extractor) extractLocked() (frame models.FeatureFrame, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("feature tick failed: %v", r)
		}
	}()

	e.source.FrequencyData(e.freq)
	e.source.TimeDomainData(e.samples)

	nyquist := e.source.SampleRate() / 2
	bass := BandEnergy(e.freq, BassBand, nyquist, e.bandGain)
	mid := BandEnergy(e.freq, MidBand, nyquist, e.bandGain)
	treble := BandEnergy(e.freq, TrebleBand, nyquist, e.bandGain)
	volume := Volume(e.samples, e.volumeGain)

	now := e.now()
	ts := now.Sub(e.origin).Milliseconds()
	if ts < 0 {
		ts = 0
	}

	return models.FeatureFrame{
		Timestamp:         ts,
		Bass:              bass,
		Mid:               mid,
		Treble:            treble,
		Volume:            volume,
		Beat:              e.beat.Detect(bass, volume, now),
		FrequencyBins:     toFloats(e.freq),
		TimeDomainSamples: toFloats(e.samples),
	}, nil
}

func (e *Extractor) watchErrors(errs <-chan error, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			e.mu.Lock()
			sink := e.onError
			e.mu.Unlock()
			e.report(sink, err)
		}
	}
}

func (e *Extractor) report(sink ErrorSink, err error) {
	if sink == nil {
		e.log.WithFields(logrus.Fields{
			"function": "report",
			"error":    err.Error(),
		}).Warn("Feature extractor error without sink")
		return
	}
	sink(err)
}

func deliver(sink FrameSink, frame models.FeatureFrame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame sink panicked: %v", r)
		}
	}()
	sink(frame)
	return nil
}

func toFloats(buf []byte) []float64 {
	out := make([]float64, len(buf))
	for i, b := range buf {
		out[i] = float64(b)
	}
	return out
}
