package attachments

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	wavHeader = []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00")
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestValidateEmptyPath(t *testing.T) {
	assert.NoError(t, Validate(Image, ""))
	assert.NoError(t, Validate(Audio, "  "))
}

func TestValidateImage(t *testing.T) {
	png := writeFile(t, "photo.png", pngHeader)

	assert.NoError(t, Validate(Image, png))

	err := Validate(Audio, png)
	assert.True(t, stderrors.Is(err, ErrAttachmentType))
}

func TestValidateAudio(t *testing.T) {
	wav := writeFile(t, "memo.wav", wavHeader)

	assert.NoError(t, Validate(Audio, wav))
	assert.True(t, stderrors.Is(Validate(Video, wav), ErrAttachmentType))
}

func TestValidateRejectsText(t *testing.T) {
	txt := writeFile(t, "fake.png", []byte("just some text pretending to be an image"))
	assert.True(t, stderrors.Is(Validate(Image, txt), ErrAttachmentType))
}

func TestValidateMissingFile(t *testing.T) {
	err := Validate(Image, filepath.Join(t.TempDir(), "nope.png"))
	assert.True(t, stderrors.Is(err, ErrAttachmentMissing))

	err = Validate(Video, t.TempDir())
	assert.True(t, stderrors.Is(err, ErrAttachmentMissing))
}

func TestDetect(t *testing.T) {
	mt, err := Detect(writeFile(t, "a.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
}
