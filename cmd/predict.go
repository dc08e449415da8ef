package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-voice/configs"
	"github.com/RyanBlaney/sonido-voice/logging"
	"github.com/RyanBlaney/sonido-voice/predict"
	"github.com/RyanBlaney/sonido-voice/transcode"
)

var predictWarmUp bool

var predictCmd = &cobra.Command{
	Use:   "predict [flags] FILE",
	Short: "Score a recording with the remote voice classifier",
	Long: `Decode a recording, cut the classifier segment out of it and submit it
to the prediction endpoint. Prints {"ai_score": N}.`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().String("endpoint", "http://localhost:8001", "classifier base URL")
	predictCmd.Flags().StringP("output", "o", "json", "output format (json, yaml)")
	predictCmd.Flags().BoolVar(&predictWarmUp, "warm-up", false, "send a silent segment before the real one")
}

func runPredict(cmd *cobra.Command, args []string) error {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"command":   "predict",
		"file":      args[0],
	})

	buf, err := transcode.NewDecoder(appConfig.ToDecoder()).DecodeFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}

	svc, err := predict.NewHTTPService(appConfig.Predict, predict.WithLogger(logger))
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Load(ctx); err != nil {
		return err
	}

	if predictWarmUp {
		if err := svc.WarmUp(ctx); err != nil {
			return err
		}
	}

	score, err := svc.Predict(ctx, buf)
	if err != nil {
		return err
	}

	logger.Debug("Prediction received", logging.Fields{"ai_score": score})

	return writeDocument(cmd.OutOrStdout(), struct {
		AIScore int `json:"ai_score" yaml:"ai_score"`
	}{score}, appConfig.Output.Format)
}
