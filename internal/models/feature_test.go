package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFrame() FeatureFrame {
	return FeatureFrame{
		Timestamp:         10,
		Bass:              0.9,
		Mid:               0.3,
		Treble:            0.1,
		Volume:            0.9,
		FrequencyBins:     []float64{0, 128, 255},
		TimeDomainSamples: []float64{128, 130, 126},
	}
}

func TestFeatureFrame_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(f *FeatureFrame)
		wantErr bool
	}{
		{name: "valid", mutate: func(f *FeatureFrame) {}},
		{name: "empty bins", mutate: func(f *FeatureFrame) { f.FrequencyBins = nil }, wantErr: true},
		{name: "bass above one", mutate: func(f *FeatureFrame) { f.Bass = 1.5 }, wantErr: true},
		{name: "volume NaN", mutate: func(f *FeatureFrame) { f.Volume = math.NaN() }, wantErr: true},
		{name: "negative timestamp", mutate: func(f *FeatureFrame) { f.Timestamp = -1 }, wantErr: true},
		{name: "bin above max", mutate: func(f *FeatureFrame) { f.FrequencyBins[1] = 300 }, wantErr: true},
		{name: "sample infinite", mutate: func(f *FeatureFrame) { f.TimeDomainSamples[0] = math.Inf(1) }, wantErr: true},
		{name: "too many bins", mutate: func(f *FeatureFrame) { f.FrequencyBins = make([]float64, 9) }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := validFrame()
			tc.mutate(&f)
			err := f.Validate(8)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFeatureFrame_Energy(t *testing.T) {
	f := FeatureFrame{Bass: 0.9, Mid: 0.6, Treble: 0.3}
	assert.InDelta(t, 0.6, f.Energy(), 1e-9)
}

func TestEncodeEvent(t *testing.T) {
	data, err := EncodeEvent(EventError, ErrorPayload{Code: CodeBadRequest, Message: "nope"})
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, EventError, ev.Type)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, CodeBadRequest, payload.Code)
}

func TestFeatureFrame_WrongBinType(t *testing.T) {
	var f FeatureFrame
	err := json.Unmarshal([]byte(`{"bass":0.1,"frequencyBins":"loud"}`), &f)
	assert.Error(t, err)
}
