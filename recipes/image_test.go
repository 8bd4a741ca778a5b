package recipes

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/mealvault-go/apperror"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func TestSniffImagePNG(t *testing.T) {
	format, err := sniffImage(encodePNG(t))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestSniffImageRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		{},
		[]byte("not an image at all"),
		{0x89, 0x50, 0x4e}, // truncated png signature
	} {
		format, err := sniffImage(data)
		require.Error(t, err)
		assert.Empty(t, format)
		assert.True(t, apperror.IsValidationError(err))

		appErr, ok := apperror.FromError(err)
		require.True(t, ok)
		assert.Contains(t, appErr.Fields, "image")
	}
}
