package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/storychop/storychop/internal/shared"
)

// WhisperRecognizer shells out to a whisper-style CLI that writes a JSON
// result file next to its input.
type WhisperRecognizer struct {
	command  string
	model    string
	language string
	logger   *log.Logger
}

var _ Recognizer = (*WhisperRecognizer)(nil)

// NewWhisperRecognizer creates a recognizer backed by the given CLI command.
func NewWhisperRecognizer(cfg shared.SpeechConfig, logger *log.Logger) *WhisperRecognizer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &WhisperRecognizer{
		command:  cfg.Command,
		model:    cfg.Model,
		language: cfg.Language,
		logger:   logger,
	}
}

// Available reports whether the transcription binary is on PATH.
func (w *WhisperRecognizer) Available() bool {
	if w.command == "" {
		return false
	}
	_, err := exec.LookPath(w.command)
	return err == nil
}

// Authorization reports authorized when the binary is present. A local CLI
// engine has no user-consent dialog, so denied/restricted never occur here;
// the states exist for engines that do have one.
func (w *WhisperRecognizer) Authorization() AuthStatus {
	if w.command == "" {
		return AuthUndetermined
	}
	if !w.Available() {
		return AuthRestricted
	}
	return AuthAuthorized
}

// whisperResult is the JSON document the CLI writes next to its input.
type whisperResult struct {
	Text     string `json:"text"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

// Recognize runs the transcription subprocess and reads back its JSON result.
func (w *WhisperRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	args := []string{path, "--output_format", "json", "--output_dir", filepath.Dir(path)}
	if w.model != "" {
		args = append(args, "--model", w.model)
	}
	if w.language != "" {
		args = append(args, "--language", w.language)
	}

	cmd := exec.CommandContext(ctx, w.command, args...)

	stderr, _ := cmd.StderrPipe()
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: failed to start %s: %v", shared.ErrCapabilityUnavailable, w.command, err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			w.logger.Debug(scanner.Text(), "engine", w.command)
		}
	}()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("transcription subprocess failed: %w", err)
	}

	resultPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	f, err := os.Open(resultPath)
	if err != nil {
		return "", fmt.Errorf("failed to open transcription result: %w", err)
	}
	defer f.Close()
	defer os.Remove(resultPath)

	var result whisperResult
	if err := json.NewDecoder(f).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode transcription result: %w", err)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		var parts []string
		for _, seg := range result.Segments {
			if s := strings.TrimSpace(seg.Text); s != "" {
				parts = append(parts, s)
			}
		}
		text = strings.Join(parts, " ")
	}

	if text == "" {
		return "", shared.ErrNoResult
	}
	return text, nil
}
