// Package predict talks to an external voice classifier. The service handle
// is owned by the caller: it is loaded once, optionally warmed up, and then
// used for any number of predictions until closed.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
	"github.com/RyanBlaney/sonido-voice/logging"
	"github.com/RyanBlaney/sonido-voice/transcode"
)

// ErrNotLoaded is returned when a prediction is requested before Load
var ErrNotLoaded = errors.New("predictor is not loaded")

// Service is a classifier that scores a voice recording
type Service interface {
	Load(ctx context.Context) error
	WarmUp(ctx context.Context) error
	Predict(ctx context.Context, buf *common.SampleBuffer) (int, error)
	Close() error
}

// Config describes the remote classifier and the segment it expects
type Config struct {
	Endpoint     string        `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	PredictPath  string        `json:"predict_path" yaml:"predict_path" mapstructure:"predict_path"`
	HealthPath   string        `json:"health_path" yaml:"health_path" mapstructure:"health_path"` // empty skips the check
	SampleRate   int           `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`
	PadSeconds   float64       `json:"pad_seconds" yaml:"pad_seconds" mapstructure:"pad_seconds"`
	SegmentStart float64       `json:"segment_start" yaml:"segment_start" mapstructure:"segment_start"`
	SegmentEnd   float64       `json:"segment_end" yaml:"segment_end" mapstructure:"segment_end"`
	BitDepth     int           `json:"bit_depth" yaml:"bit_depth" mapstructure:"bit_depth"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns the segment layout the classifier was trained on:
// 48 kHz audio padded to 1.5 s, of which [1 s, 2 s) is submitted.
func DefaultConfig() Config {
	return Config{
		Endpoint:     "http://localhost:8001",
		PredictPath:  "/parkinson-prediction",
		HealthPath:   "",
		SampleRate:   48000,
		PadSeconds:   1.5,
		SegmentStart: 1.0,
		SegmentEnd:   2.0,
		BitDepth:     16,
		Timeout:      30 * time.Second,
	}
}

// Option configures an HTTPService
type Option func(*HTTPService)

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPService) {
		s.client = client
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger logging.Logger) Option {
	return func(s *HTTPService) {
		s.logger = logger
	}
}

// HTTPService submits segments as a multipart `voice_file` upload and reads
// back `{"ai_score": int}`. It is safe for concurrent use after Load.
type HTTPService struct {
	config Config
	client *http.Client
	logger logging.Logger

	mu     sync.RWMutex
	loaded bool
}

var _ Service = (*HTTPService)(nil)

// NewHTTPService creates an unloaded service
func NewHTTPService(cfg Config, opts ...Option) (*HTTPService, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("predict: endpoint must not be empty")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("predict: %w: %d", common.ErrInvalidSampleRate, cfg.SampleRate)
	}
	if cfg.SegmentEnd <= cfg.SegmentStart {
		return nil, fmt.Errorf("predict: empty segment [%.2f, %.2f)", cfg.SegmentStart, cfg.SegmentEnd)
	}

	s := &HTTPService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logging.WithFields(logging.Fields{
			"component": "predictor",
			"endpoint":  cfg.Endpoint,
		}),
	}
	for _, o := range opts {
		o(s)
	}

	return s, nil
}

// Load verifies the classifier is reachable and marks the service ready
func (s *HTTPService) Load(ctx context.Context) error {
	if s.config.HealthPath != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(s.config.HealthPath), nil)
		if err != nil {
			return fmt.Errorf("predict: create health request: %w", err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("predict: health check: %w", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			return fmt.Errorf("predict: health check returned HTTP %d", resp.StatusCode)
		}
	}

	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("Predictor loaded")
	return nil
}

// WarmUp sends one silent segment so the first real request does not pay
// the classifier's start-up cost
func (s *HTTPService) WarmUp(ctx context.Context) error {
	silence, err := common.NewSampleBuffer(make([]float64, common.SecondsToSamples(s.config.SegmentEnd, s.config.SampleRate)), s.config.SampleRate)
	if err != nil {
		return err
	}

	start := time.Now()
	if _, err := s.Predict(ctx, silence); err != nil {
		return fmt.Errorf("predict: warm-up: %w", err)
	}

	s.logger.Debug("Predictor warmed up", logging.Fields{
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// Predict scores buf. The buffer is resampled and cut to the configured
// segment before upload.
func (s *HTTPService) Predict(ctx context.Context, buf *common.SampleBuffer) (int, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		return 0, ErrNotLoaded
	}

	segment, err := Segment(buf, s.config)
	if err != nil {
		return 0, err
	}

	wav, err := encodeSegment(segment, s.config.BitDepth)
	if err != nil {
		return 0, err
	}

	return s.submit(ctx, wav)
}

// Close releases idle connections and returns the service to the unloaded state
func (s *HTTPService) Close() error {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()

	s.client.CloseIdleConnections()
	return nil
}

func (s *HTTPService) submit(ctx context.Context, wav []byte) (int, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("voice_file", "segment.wav")
	if err != nil {
		return 0, fmt.Errorf("predict: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return 0, fmt.Errorf("predict: write wav data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("predict: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url(s.config.PredictPath), &body)
	if err != nil {
		return 0, fmt.Errorf("predict: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("predict: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("Classifier rejected segment", logging.Fields{
			"status": resp.StatusCode,
			"body":   string(data),
		})
		return 0, fmt.Errorf("predict: server returned HTTP %d", resp.StatusCode)
	}

	var result struct {
		AIScore *int `json:"ai_score"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, fmt.Errorf("predict: parse JSON response: %w", err)
	}
	if result.AIScore == nil {
		return 0, errors.New("predict: response has no ai_score")
	}

	return *result.AIScore, nil
}

func (s *HTTPService) url(path string) string {
	return strings.TrimRight(s.config.Endpoint, "/") + "/" + strings.TrimLeft(path, "/")
}

// Segment resamples buf to the classifier rate, zero-pads it to PadSeconds
// and returns [SegmentStart, SegmentEnd). Short recordings yield a shorter
// segment, never an error.
func Segment(buf *common.SampleBuffer, cfg Config) (*common.SampleBuffer, error) {
	if buf == nil {
		return nil, errors.New("predict: nil buffer")
	}

	resampled, err := buf.Resample(cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	return resampled.PadTo(cfg.PadSeconds).Trim(cfg.SegmentStart, cfg.SegmentEnd), nil
}

// encodeSegment renders segment as a WAV file. The encoder needs to seek
// back and patch the header, so it goes through a temporary file.
func encodeSegment(segment *common.SampleBuffer, bitDepth int) ([]byte, error) {
	f, err := os.CreateTemp("", "sonido-voice-*.wav")
	if err != nil {
		return nil, fmt.Errorf("predict: create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := transcode.EncodeWAV(f, segment, bitDepth); err != nil {
		return nil, fmt.Errorf("predict: encode segment: %w", err)
	}

	return os.ReadFile(f.Name())
}
