package tesseract

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/spamshot/internal/domain/ocr"
)

type fakeRunner struct {
	stdin []byte
	name  string
	args  []string
	out   string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	f.stdin, f.name, f.args = stdin, name, args
	return []byte(f.out), f.err
}

func TestCLIRecognize(t *testing.T) {
	r := &fakeRunner{out: "Call 987-654-3210\n"}
	c := NewCLIWithRunner("", "", "/opt/tessdata", r)

	text, err := c.Recognize(context.Background(), []byte("png"), ocr.ModeSingleLine)
	require.NoError(t, err)
	assert.Equal(t, "Call 987-654-3210\n", text)
	assert.Equal(t, "tesseract", r.name)
	assert.Equal(t, []byte("png"), r.stdin)
	assert.Equal(t, []string{
		"stdin", "stdout", "-l", "eng", "--psm", "7",
		"--tessdata-dir", "/opt/tessdata",
		"-c", "preserve_interword_spaces=1",
	}, r.args)
}

func TestCLIMissingBinary(t *testing.T) {
	c := NewCLIWithRunner("tess", "ind", "", &fakeRunner{err: &exec.Error{Name: "tess", Err: exec.ErrNotFound}})
	_, err := c.Recognize(context.Background(), nil, ocr.ModeBlock)
	assert.ErrorIs(t, err, ocr.ErrEngineUnavailable)
}

func TestCLIFailure(t *testing.T) {
	c := NewCLIWithRunner("", "", "", &fakeRunner{err: errors.New("boom")})
	_, err := c.Recognize(context.Background(), nil, ocr.ModeAuto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "psm=3")
	assert.NotErrorIs(t, err, ocr.ErrEngineUnavailable)
}
