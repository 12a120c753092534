// Package preprocess - Image to network-input tensor conversion.
package preprocess

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/framewatch-ai/go-detect/images"
	"github.com/framewatch-ai/go-detect/models/model"
)

// ChannelOrder defines the ordering of image channels in the input tensor.
type ChannelOrder int

const (
	// ChannelOrderCHW is Channel-Height-Width ordering, [1, 3, S, S].
	// Used by TinyYOLOv3-style exports.
	ChannelOrderCHW ChannelOrder = iota
	// ChannelOrderHWC is Height-Width-Channel ordering, [1, S, S, 3].
	// Used by YOLOv4-style exports.
	ChannelOrderHWC
)

// Result contains the network input tensors and the metadata needed to map
// detections back into original-image coordinates.
type Result struct {
	// Input is the normalized image tensor.
	Input model.Tensor
	// Shape is the [1,2] (originalHeight, originalWidth) tensor. Always
	// produced to keep the inference call contract uniform; models that do
	// not declare a shape input simply never receive it.
	Shape model.Tensor
	// Letterbox holds the resize/pad parameters applied to the image.
	Letterbox images.Letterbox
	// OriginalWidth is the image width before preprocessing.
	OriginalWidth int
	// OriginalHeight is the image height before preprocessing.
	OriginalHeight int
}

// Preprocessor converts decoded images into fixed-size network input
// tensors. It holds only static configuration and is safe for concurrent
// use; every call allocates its own tensors.
type Preprocessor struct {
	size      int
	order     ChannelOrder
	imageName string
	shapeName string
}

// NewPreprocessor creates a preprocessor for the given model configuration.
// The channel order follows the architecture's export convention: CHW for
// the direct-regression variant, HWC for the grid variant.
//
// Arguments:
//   - cfg: The validated model configuration.
//
// Returns:
//   - *Preprocessor: A configured preprocessor.
func NewPreprocessor(cfg *model.Config) *Preprocessor {
	order := ChannelOrderCHW
	if cfg.Name == model.ModelNameYOLOv4 {
		order = ChannelOrderHWC
	}
	return &Preprocessor{
		size:      cfg.ImageSize,
		order:     order,
		imageName: cfg.Inputs.Image,
		shapeName: cfg.Inputs.Shape,
	}
}

// Preprocess performs the letterbox resize and tensor conversion.
//
// The image is scaled by min(target/width, target/height) so neither
// dimension overflows the square input, centered on a black canvas, and
// written into a float32 tensor with every channel normalized to [0,1] by
// dividing by 255. Deterministic given identical input pixels.
//
// Arguments:
//   - img: A decoded image; both dimensions must be positive.
//
// Returns:
//   - *Result: Input and shape tensors plus the letterbox metadata.
//   - error: ErrInvalidImage-wrapped for nil or zero-dimension input.
func (p *Preprocessor) Preprocess(img image.Image) (*Result, error) {
	if img == nil {
		return nil, errors.Wrap(model.ErrInvalidImage, "image is nil")
	}
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if srcWidth <= 0 || srcHeight <= 0 {
		return nil, errors.Wrapf(model.ErrInvalidImage,
			"image dimensions must be positive, got %dx%d", srcWidth, srcHeight)
	}

	lb := images.ComputeLetterbox(srcWidth, srcHeight, p.size)

	resized := resize.Resize(uint(lb.NewWidth), uint(lb.NewHeight), img, resize.Lanczos3)

	// Paint the scaled image onto a black square canvas, centered.
	canvas := image.NewRGBA(image.Rect(0, 0, p.size, p.size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)
	padX := int(lb.PadX)
	padY := int(lb.PadY)
	draw.Draw(canvas, image.Rect(padX, padY, padX+lb.NewWidth, padY+lb.NewHeight),
		resized, image.Point{}, draw.Over)

	input := p.imageToTensor(canvas)

	shape := model.Tensor{
		Name:  p.shapeName,
		Shape: []int64{1, 2},
		Data:  []float32{float32(srcHeight), float32(srcWidth)},
	}

	return &Result{
		Input:          input,
		Shape:          shape,
		Letterbox:      lb,
		OriginalWidth:  srcWidth,
		OriginalHeight: srcHeight,
	}, nil
}

// imageToTensor flattens the padded canvas into a normalized float32 tensor
// in the configured channel order.
func (p *Preprocessor) imageToTensor(canvas *image.RGBA) model.Tensor {
	size := p.size
	data := make([]float32, 3*size*size)

	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			// RGBA() returns 16-bit channels; shift down to 8-bit before
			// normalizing so values land exactly in [0,1].
			r, g, b, _ := canvas.At(x, y).RGBA()
			rf := float32(r>>8) / 255.0
			gf := float32(g>>8) / 255.0
			bf := float32(b>>8) / 255.0

			if p.order == ChannelOrderCHW {
				data[0*plane+y*size+x] = rf
				data[1*plane+y*size+x] = gf
				data[2*plane+y*size+x] = bf
			} else {
				idx := (y*size + x) * 3
				data[idx] = rf
				data[idx+1] = gf
				data[idx+2] = bf
			}
		}
	}

	shape := []int64{1, 3, int64(size), int64(size)}
	if p.order == ChannelOrderHWC {
		shape = []int64{1, int64(size), int64(size), 3}
	}

	return model.Tensor{Name: p.imageName, Shape: shape, Data: data}
}
