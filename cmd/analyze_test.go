package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/configs"
	"github.com/RyanBlaney/sonido-voice/features"
	"github.com/RyanBlaney/sonido-voice/transcode"
)

func writeTone(t *testing.T, dir string, freq float64) string {
	t.Helper()
	const rate = 16000
	samples := make([]float64, rate)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	buf, err := common.NewSampleBuffer(samples, rate)
	require.NoError(t, err)

	path := filepath.Join(dir, "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, transcode.EncodeWAV(f, buf, 16))
	require.NoError(t, f.Close())
	return path
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	tone := writeTone(t, dir, 200)
	missing := filepath.Join(dir, "missing.wav")

	// default log level: info lines must land on stderr, not in the document
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"analyze", "--per-file", tone, missing})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	require.NoError(t, rootCmd.Execute())
	require.True(t, bytes.HasPrefix(out.Bytes(), []byte("{")), "stdout: %q", out.String())
	assert.Contains(t, errOut.String(), "[INFO] Analysis complete")
	assert.Contains(t, errOut.String(), "[WARN] file excluded from averages")

	var doc struct {
		Features map[string]any `json:"features"`
		Files    int            `json:"files"`
		Usable   int            `json:"usable"`
		PerFile  []struct {
			Name     string          `json:"name"`
			Error    string          `json:"error"`
			Sampling json.RawMessage `json:"sampling"`
		} `json:"per_file"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))

	assert.Equal(t, 2, doc.Files)
	assert.Equal(t, 1, doc.Usable)
	assert.InDelta(t, 200, doc.Features["f0"], 2)
	assert.Contains(t, doc.Features, "jitter")
	require.Len(t, doc.PerFile, 2)
	assert.Empty(t, doc.PerFile[0].Error)
	assert.NotEmpty(t, doc.PerFile[1].Error)

	// the vowel profile is the default and reports no sampling series
	assert.Equal(t, configs.ProfileVowel, viper.GetString("analysis.profile"))
	assert.Empty(t, doc.PerFile[0].Sampling)
}

func TestAnalyzeSpeechProfile(t *testing.T) {
	tone := writeTone(t, t.TempDir(), 180)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"analyze", "--profile", "speech", "--per-file", tone})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		_ = analyzeCmd.Flags().Set("profile", configs.ProfileVowel)
	})

	require.NoError(t, rootCmd.Execute())

	var doc struct {
		PerFile []struct {
			Sampling json.RawMessage `json:"sampling"`
		} `json:"per_file"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Len(t, doc.PerFile, 1)
	assert.NotEmpty(t, doc.PerFile[0].Sampling)
}

func TestBuildAnalyzeOutputShapes(t *testing.T) {
	fs := features.NewFeatureSet()
	fs.HNR = 21.5

	report := &features.MultiReport{
		Mean:   fs,
		Counts: map[string]int{"hnr": 1},
		Files: []features.FileResult{
			{Name: "a.wav", Err: errors.New("decode failed")},
		},
	}

	flat := buildAnalyzeOutput(report, "flat", true)
	rec, ok := flat.Features.(features.FlatRecord)
	require.True(t, ok)
	require.NotNil(t, rec.HNR)
	assert.Equal(t, 21.5, *rec.HNR)
	require.Len(t, flat.PerFile, 1)
	assert.Equal(t, "decode failed", flat.PerFile[0].Error)

	nested := buildAnalyzeOutput(report, "nested", false)
	_, ok = nested.Features.(features.NestedRecord)
	assert.True(t, ok)
	assert.Nil(t, nested.PerFile)
}

func TestWriteDocumentYAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeDocument(&out, struct {
		AIScore int `json:"ai_score" yaml:"ai_score"`
	}{87}, "yaml"))

	var got map[string]int
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 87, got["ai_score"])
}
