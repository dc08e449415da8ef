package speech

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/algorithms/pitch"
)

func constantPeriods(n int) []pitch.Period {
	periods := make([]pitch.Period, n)
	for i := range periods {
		periods[i] = pitch.Period{Instant: float64(i) * 0.005, Duration: 0.005, Amplitude: 0.5}
	}
	return periods
}

func periodsOf(durations ...float64) []pitch.Period {
	periods := make([]pitch.Period, len(durations))
	t := 0.0
	for i, d := range durations {
		periods[i] = pitch.Period{Instant: t, Duration: d, Amplitude: 0.5}
		t += d
	}
	return periods
}

func TestPerturbationMinimumCounts(t *testing.T) {
	analyzer := NewPerturbation(DefaultPerturbationConfig())

	tests := []struct {
		n       int
		defined map[string]bool
	}{
		{1, map[string]bool{}},
		{2, map[string]bool{"jitter_local": true, "shimmer_local": true}},
		{3, map[string]bool{"jitter_local": true, "jitter_rap": true, "jitter_ddp": true, "shimmer_local": true, "shimmer_apq3": true, "shimmer_dda": true}},
		{5, map[string]bool{"jitter_local": true, "jitter_rap": true, "jitter_ppq5": true, "jitter_ddp": true, "shimmer_local": true, "shimmer_apq3": true, "shimmer_apq5": true, "shimmer_dda": true}},
		{11, map[string]bool{"jitter_local": true, "jitter_rap": true, "jitter_ppq5": true, "jitter_ddp": true, "shimmer_local": true, "shimmer_apq3": true, "shimmer_apq5": true, "shimmer_apq11": true, "shimmer_dda": true}},
	}

	for _, tt := range tests {
		periods := constantPeriods(tt.n)
		j := analyzer.Jitter(periods)
		s := analyzer.Shimmer(periods)

		values := map[string]float64{
			"jitter_local":  j.Local,
			"jitter_rap":    j.RAP,
			"jitter_ppq5":   j.PPQ5,
			"jitter_ddp":    j.DDP,
			"shimmer_local": s.Local,
			"shimmer_apq3":  s.APQ3,
			"shimmer_apq5":  s.APQ5,
			"shimmer_apq11": s.APQ11,
			"shimmer_dda":   s.DDA,
		}

		for name, v := range values {
			if tt.defined[name] {
				assert.Equal(t, 0.0, v, "%s with %d periods", name, tt.n)
			} else {
				assert.True(t, math.IsNaN(v), "%s with %d periods should be NaN", name, tt.n)
			}
		}
	}
}

func TestJitterValues(t *testing.T) {
	j := NewPerturbation(DefaultPerturbationConfig()).Jitter(periodsOf(0.004, 0.005, 0.004))

	meanT := 0.013 / 3
	assert.InDelta(t, 0.001/meanT, j.Local, 1e-9)
	assert.InDelta(t, (0.005-meanT)/meanT, j.RAP, 1e-9)
	assert.InDelta(t, 2*j.RAP, j.DDP, 1e-12)
	assert.True(t, math.IsNaN(j.PPQ5))
}

func TestShimmerValues(t *testing.T) {
	periods := constantPeriods(4)
	amps := []float64{0.5, 0.6, 0.5, 0.6}
	for i := range periods {
		periods[i].Amplitude = amps[i]
	}

	s := NewPerturbation(DefaultPerturbationConfig()).Shimmer(periods)

	assert.InDelta(t, 0.1/0.55, s.Local, 1e-9)
	// Centred 3-point averages are 1.6/3 and 1.7/3
	apq3 := (math.Abs(0.6-1.6/3) + math.Abs(0.5-1.7/3)) / 2 / 0.55
	assert.InDelta(t, apq3, s.APQ3, 1e-9)
	assert.InDelta(t, 2*apq3, s.DDA, 1e-9)
}

func TestPerturbationTermsStayWithinRuns(t *testing.T) {
	periods := periodsOf(0.004, 0.004, 0.005, 0.005)
	periods[2].Run = 1
	periods[3].Run = 1

	j := NewPerturbation(DefaultPerturbationConfig()).Jitter(periods)
	assert.Equal(t, 0.0, j.Local)
}

func TestPerturbationDiscardsOutOfRangePeriods(t *testing.T) {
	analyzer := NewPerturbation(DefaultPerturbationConfig())

	// The 30 ms period is dropped and splits the rest into single cycles
	j := analyzer.Jitter(periodsOf(0.005, 0.03, 0.005))
	assert.True(t, math.IsNaN(j.Local))

	// A factor-of-two jump breaks the sequence the same way
	j = analyzer.Jitter(periodsOf(0.004, 0.008))
	assert.True(t, math.IsNaN(j.Local))
}

func TestPerturbationIsNonNegative(t *testing.T) {
	durations := make([]float64, 40)
	for i := range durations {
		durations[i] = 0.005 + 0.0003*math.Sin(float64(i)*1.7)
	}
	periods := periodsOf(durations...)
	for i := range periods {
		periods[i].Amplitude = 0.5 + 0.05*math.Cos(float64(i)*0.9)
	}

	analyzer := NewPerturbation(DefaultPerturbationConfig())
	j := analyzer.Jitter(periods)
	s := analyzer.Shimmer(periods)

	for _, v := range []float64{j.Local, j.RAP, j.PPQ5, j.DDP, s.Local, s.APQ3, s.APQ5, s.APQ11, s.DDA} {
		require.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestHarmonicity(t *testing.T) {
	assert.InDelta(t, 0.0, FrameHNR(0.5), 1e-12)
	assert.InDelta(t, 10*math.Log10(9), FrameHNR(0.9), 1e-12)
	assert.False(t, math.IsInf(FrameHNR(1), 0))
	assert.False(t, math.IsInf(FrameHNR(0), 0))

	contour := []pitch.Frame{
		{Time: 0.01, F0: 200, Strength: 0.5},
		{Time: 0.02, F0: 0, Strength: 0.99},
		{Time: 0.03, F0: 200, Strength: 0.5},
	}
	result := NewHarmonicity().Analyze(contour)
	assert.Len(t, result.Series, 2)
	assert.InDelta(t, 0.0, result.HNR, 1e-12)
	assert.InDelta(t, 1.0, result.NHR, 1e-12)
}

func TestHarmonicityNegativeHNRLeavesNHRUnclamped(t *testing.T) {
	result := NewHarmonicity().Analyze([]pitch.Frame{{Time: 0.01, F0: 120, Strength: 0.2}})

	assert.Less(t, result.HNR, 0.0)
	assert.Greater(t, result.NHR, 1.0)
}

func TestHarmonicityWithoutVoicing(t *testing.T) {
	result := NewHarmonicity().Analyze([]pitch.Frame{{Time: 0.01}})

	assert.True(t, math.IsNaN(result.HNR))
	assert.True(t, math.IsNaN(result.NHR))
	assert.Empty(t, result.Series)
}

func TestCSID(t *testing.T) {
	assert.InDelta(t, 50.69, CSID(10.0, []float64{0.0}), 1e-9)
	assert.True(t, math.IsNaN(CSID(math.NaN(), []float64{1, 2, 3})))
	assert.True(t, math.IsNaN(CSID(10.0, nil)))

	// Mean 2, sample SD 1
	want := 154.59 - 10.39*5 - 1.08*2 - 3.71*1
	assert.InDelta(t, want, CSID(5, []float64{1, 2, 3}), 1e-9)

	// non-finite frames are left out of the L/H summary
	assert.InDelta(t, want, CSID(5, []float64{1, math.NaN(), 2, math.Inf(-1), 3}), 1e-9)
	assert.True(t, math.IsNaN(CSID(5, []float64{math.NaN()})))
}

func sineBuffer(t *testing.T, freq, amplitude float64, sampleRate int, seconds float64) *common.SampleBuffer {
	t.Helper()

	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}

	buf, err := common.NewSampleBuffer(samples, sampleRate)
	require.NoError(t, err)
	return buf
}

func TestIntensityOfSine(t *testing.T) {
	buf := sineBuffer(t, 200, 0.5, 16000, 1.0)

	points, err := NewIntensity(DefaultIntensityConfig()).Analyze(buf)
	require.NoError(t, err)

	// 512-sample windows every 400 samples
	require.Len(t, points, 39)
	want := 10 * math.Log10(0.125/(referencePressure*referencePressure))
	for _, p := range points {
		assert.InDelta(t, want, p.DB, 0.5)
	}
	assert.InDelta(t, 0.025, points[1].Time-points[0].Time, 1e-9)
}

func TestIntensityOfSilenceIsZero(t *testing.T) {
	buf, err := common.NewSampleBuffer(make([]float64, 8000), 16000)
	require.NoError(t, err)

	points, err := NewIntensity(DefaultIntensityConfig()).Analyze(buf)
	require.NoError(t, err)

	require.NotEmpty(t, points)
	for _, p := range points {
		assert.Equal(t, 0.0, p.DB)
	}
}

func TestVoiceQualityOfSteadyTone(t *testing.T) {
	buf := sineBuffer(t, 200, 0.5, 16000, 1.0)

	result := NewVoiceQualityAnalyzer(DefaultVoiceQualityConfig()).AnalyzeVoiceQuality(buf)

	assert.True(t, result.Voiced)
	assert.Greater(t, result.NumPeriods, 150)
	assert.Less(t, result.Jitter.Local, 0.01)
	assert.Less(t, result.Shimmer.Local, 0.01)
	assert.Greater(t, result.Harmonicity.HNR, 20.0)
	assert.InDelta(t, 200, result.F0.Mean, 2)
	assert.InDelta(t, 0, result.F0.RangeSemitones, 0.2)
}

func TestVoiceQualityOfJitteredPulses(t *testing.T) {
	const rate = 16000
	rng := rand.New(rand.NewPCG(11, 12))

	// Gaussian pulses every 98 to 102 samples, about 160 Hz
	samples := make([]float64, rate)
	var instants []int
	for c := 50; c < len(samples)-50; c += 98 + rng.IntN(5) {
		instants = append(instants, c)
		for i := max(0, c-12); i <= min(len(samples)-1, c+12); i++ {
			d := float64(i-c) / 2
			samples[i] += math.Exp(-0.5 * d * d)
		}
	}
	buf, err := common.NewSampleBuffer(samples, rate)
	require.NoError(t, err)

	var diff, total float64
	for i := 1; i+1 < len(instants); i++ {
		prev := float64(instants[i] - instants[i-1])
		cur := float64(instants[i+1] - instants[i])
		diff += math.Abs(cur - prev)
	}
	for i := 1; i < len(instants); i++ {
		total += float64(instants[i] - instants[i-1])
	}
	wantJitter := (diff / float64(len(instants)-2)) / (total / float64(len(instants)-1))

	result := NewVoiceQualityAnalyzer(DefaultVoiceQualityConfig()).AnalyzeVoiceQuality(buf)

	assert.True(t, result.Voiced)
	assert.InDelta(t, 160, result.F0.Mean, 3)
	assert.Less(t, result.F0.RangeSemitones, 2.0)
	assert.GreaterOrEqual(t, result.NumPeriods, len(instants)-1-8)
	assert.InEpsilon(t, wantJitter, result.Jitter.Local, 0.2)
}

func TestVoiceQualityOfSilence(t *testing.T) {
	buf, err := common.NewSampleBuffer(make([]float64, 16000), 16000)
	require.NoError(t, err)

	result := NewVoiceQualityAnalyzer(DefaultVoiceQualityConfig()).AnalyzeVoiceQuality(buf)

	assert.False(t, result.Voiced)
	assert.True(t, math.IsNaN(result.Jitter.Local))
	assert.True(t, math.IsNaN(result.Shimmer.APQ11))
	assert.True(t, math.IsNaN(result.Harmonicity.HNR))
	assert.True(t, math.IsNaN(result.F0.Mean))
	assert.Equal(t, 0.0, result.F0.RangeSemitones)
}
