package classifier

import (
	"image"
	"image/color"
	"io"

	// Register the decoders the upload surface accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"ai-derm-assistant/internal/core/faults"

	"github.com/nfnt/resize"
)

// prepareTensorData decodes the image, converts it losslessly to RGB,
// resizes it to size x size and normalizes each channel with mean 0.5 and
// std 0.5, producing NCHW float32 data for a batch of one.
func prepareTensorData(r io.Reader, size int) ([]float32, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, faults.Inference("classifier", err)
	}
	scaled := resize.Resize(uint(size), uint(size), img, resize.Bilinear)

	data := make([]float32, 3*size*size)
	plane := size * size
	bounds := scaled.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px := color.NRGBAModel.Convert(scaled.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := y*size + x
			data[i] = normalize(px.R)
			data[plane+i] = normalize(px.G)
			data[2*plane+i] = normalize(px.B)
		}
	}
	return data, nil
}

// normalize maps a byte channel to (v/255 - 0.5) / 0.5, i.e. [-1, 1].
func normalize(v uint8) float32 {
	return (float32(v)/255 - 0.5) / 0.5
}
