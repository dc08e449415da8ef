package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/configs"
	"github.com/RyanBlaney/sonido-voice/features"
	"github.com/RyanBlaney/sonido-voice/logging"
	"github.com/RyanBlaney/sonido-voice/transcode"
)

var (
	analyzePerFile bool
	analyzeOutFile string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] FILE...",
	Short: "Extract voice quality features from one or more recordings",
	Long: `Analyze every recording independently and print the per-metric mean
over the usable files. A file is unusable when it cannot be decoded, fails
analysis, or contains no voiced speech; a metric that is undefined for a file
is left out of that metric's mean only.

The default vowel profile is meant for sustained "ah" recordings: CPPS is
taken over 75-500 Hz and no sampling series is reported. The speech profile
is meant for read sentences: CPPS uses 60-330 Hz and each file reports its
energy and frequency series.

Examples:
  # Average three sustained vowels
  sonido-voice analyze ah1.wav ah2.wav ah3.wav

  # Read sentence with flat keys as YAML
  sonido-voice analyze --profile speech --shape flat --output yaml take1.wav

  # Include every file's own features and time series
  sonido-voice analyze --per-file *.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("profile", configs.ProfileVowel, "analysis profile (vowel, speech)")
	analyzeCmd.Flags().String("shape", "nested", "record shape (nested, flat)")
	analyzeCmd.Flags().StringP("output", "o", "json", "output format (json, yaml)")
	analyzeCmd.Flags().Int("file-workers", 4, "files analyzed concurrently")
	analyzeCmd.Flags().Int("frame-workers", 0, "frame workers per stage, 0 = auto")
	analyzeCmd.Flags().Duration("file-timeout", 0, "per-file time budget, 0 = none")
	analyzeCmd.Flags().Float64("min-duration", 0, "zero-pad shorter recordings to this many seconds")
	analyzeCmd.Flags().BoolVar(&analyzePerFile, "per-file", false, "include per-file results")
	analyzeCmd.Flags().StringVar(&analyzeOutFile, "out", "", "write the result to a file instead of stdout")
}

// fileOutput is one entry of the per-file section
type fileOutput struct {
	Name     string                 `json:"name" yaml:"name"`
	Error    string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Features any                    `json:"features,omitempty" yaml:"features,omitempty"`
	Sampling *features.SamplingData `json:"sampling,omitempty" yaml:"sampling,omitempty"`
	Voiced   bool                   `json:"voiced" yaml:"voiced"`
}

// analyzeOutput is the document printed by the analyze command
type analyzeOutput struct {
	Features any            `json:"features" yaml:"features"`
	Files    int            `json:"files" yaml:"files"`
	Usable   int            `json:"usable" yaml:"usable"`
	Counts   map[string]int `json:"counts" yaml:"counts"`
	PerFile  []fileOutput   `json:"per_file,omitempty" yaml:"per_file,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"command":   "analyze",
	})

	decoder := transcode.NewDecoder(appConfig.ToDecoder())
	analyzer := features.NewAnalyzer(appConfig.ToFeatures(), features.WithLogger(logger))

	sources := make([]features.Source, len(args))
	for i, path := range args {
		sources[i] = features.Source{
			Name: filepath.Base(path),
			Load: func(ctx context.Context) (*common.SampleBuffer, error) {
				return decoder.DecodeFile(ctx, path)
			},
		}
	}

	start := time.Now()
	report, err := analyzer.AnalyzeMany(ctx, sources)
	if report == nil {
		return err
	}
	if err != nil {
		logger.Warn("No usable recordings", logging.Fields{"error": err.Error()})
	}

	logger.Info("Analysis complete", logging.Fields{
		"files":      len(report.Files),
		"usable":     report.Usable,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	out := buildAnalyzeOutput(report, appConfig.Output.Shape, analyzePerFile)

	var w io.Writer = cmd.OutOrStdout()
	if analyzeOutFile != "" {
		f, ferr := os.Create(analyzeOutFile)
		if ferr != nil {
			return fmt.Errorf("failed to create %s: %w", analyzeOutFile, ferr)
		}
		defer f.Close()
		w = f
	}

	if werr := writeDocument(w, out, appConfig.Output.Format); werr != nil {
		return werr
	}

	return err
}

func buildAnalyzeOutput(report *features.MultiReport, shape string, perFile bool) analyzeOutput {
	out := analyzeOutput{
		Features: shapeRecord(report.Mean, shape),
		Files:    len(report.Files),
		Usable:   report.Usable,
		Counts:   report.Counts,
	}

	if !perFile {
		return out
	}

	for _, res := range report.Files {
		entry := fileOutput{Name: res.Name}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		if res.Report != nil {
			entry.Features = shapeRecord(res.Report.Features, shape)
			entry.Sampling = res.Report.Sampling
			entry.Voiced = res.Report.Diagnostics.Voiced
		}
		out.PerFile = append(out.PerFile, entry)
	}

	return out
}

func shapeRecord(fs features.FeatureSet, shape string) any {
	if shape == "flat" {
		return features.ToFlat(fs)
	}
	return features.ToNested(fs)
}

func writeDocument(w io.Writer, doc any, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}
