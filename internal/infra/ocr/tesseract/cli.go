package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/bryanwahyu/spamshot/internal/domain/ocr"
)

// Runner executes a command with stdin and returns its stdout. It exists so
// tests can stub the tesseract binary.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("%s exited with %d: %s", name, ee.ExitCode(), bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, err
	}
	return out, nil
}

// CLI recognizes text by piping the image through the tesseract binary.
type CLI struct {
	Binary      string
	Language    string
	TessdataDir string
	runner      Runner
}

func NewCLI(binary, language, tessdataDir string) *CLI {
	return NewCLIWithRunner(binary, language, tessdataDir, execRunner{})
}

func NewCLIWithRunner(binary, language, tessdataDir string, r Runner) *CLI {
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &CLI{Binary: binary, Language: language, TessdataDir: tessdataDir, runner: r}
}

// Available reports whether the binary is on PATH.
func (c *CLI) Available() error {
	if _, err := exec.LookPath(c.Binary); err != nil {
		return fmt.Errorf("%w: %v", ocr.ErrEngineUnavailable, err)
	}
	return nil
}

func (c *CLI) Args(mode ocr.Mode) []string {
	args := []string{"stdin", "stdout", "-l", c.Language, "--psm", strconv.Itoa(int(mode))}
	if c.TessdataDir != "" {
		args = append(args, "--tessdata-dir", c.TessdataDir)
	}
	return append(args, "-c", "preserve_interword_spaces=1")
}

func (c *CLI) Recognize(ctx context.Context, image []byte, mode ocr.Mode) (string, error) {
	out, err := c.runner.Run(ctx, image, c.Binary, c.Args(mode)...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", ocr.ErrEngineUnavailable, err)
		}
		return "", fmt.Errorf("tesseract psm=%d: %w", int(mode), err)
	}
	return string(out), nil
}
