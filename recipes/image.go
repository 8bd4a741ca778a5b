package recipes

import (
	"bytes"
	"image"
	_ "image/gif"  // register gif decoding
	_ "image/jpeg" // register jpeg decoding
	_ "image/png"  // register png decoding

	"github.com/user/mealvault-go/apperror"
)

// sniffImage verifies that data decodes as a supported image and returns the
// detected format ("jpeg", "png", "gif"). DecodeConfig reads only the
// header, so oversized but well-formed images are not fully decoded here.
func sniffImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", apperror.NewFieldValidationError("invalid input",
			map[string]string{"image": "upload a valid image, the file is not a recognized image format"})
	}
	return format, nil
}
