package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, New("").path)
	assert.Equal(t, "/opt/bin/tesseract", New("/opt/bin/tesseract").path)
}

func TestExtractText_MissingBinary(t *testing.T) {
	tess := New("/nonexistent/tesseract-binary")
	assert.False(t, tess.Available())

	_, err := tess.ExtractText(context.Background(), []byte{0x89, 'P', 'N', 'G'})
	assert.ErrorIs(t, err, ErrNotInstalled)
}
