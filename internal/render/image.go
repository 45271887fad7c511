package render

import (
	"fmt"
	"image"
	"image/color"
)

// ChannelOrder is the byte order of the color components of one pixel.
type ChannelOrder int

const (
	BGR ChannelOrder = iota
	RGB
)

func (o ChannelOrder) String() string {
	if o == RGB {
		return "RGB"
	}
	return "BGR"
}

func (o ChannelOrder) reversed() ChannelOrder {
	if o == RGB {
		return BGR
	}
	return RGB
}

// Image is a tightly packed 8-bit, 3-channel pixel buffer.
type Image struct {
	Width  int
	Height int
	Order  ChannelOrder
	Pix    []byte
}

const channels = 3

func NewImage(width, height int, order ChannelOrder, pix []byte) (Image, error) {
	if width <= 0 || height <= 0 {
		return Image{}, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if len(pix) != width*height*channels {
		return Image{}, fmt.Errorf("pixel buffer is %d bytes, want %d for %dx%d", len(pix), width*height*channels, width, height)
	}
	return Image{Width: width, Height: height, Order: order, Pix: pix}, nil
}

// FromImage packs any image.Image into a buffer with the requested order.
func FromImage(src image.Image, order ChannelOrder) Image {
	b := src.Bounds()
	img := Image{Width: b.Dx(), Height: b.Dy(), Order: order, Pix: make([]byte, b.Dx()*b.Dy()*channels)}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			if order == RGB {
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c.R, c.G, c.B
			} else {
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c.B, c.G, c.R
			}
			i += channels
		}
	}
	return img
}

// Bounds is the pixel rectangle of the buffer.
func (img Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// ToDisplayColor reverses the channel order of every pixel. Nothing else
// about the pixels changes, so applying it twice gives back the input.
func ToDisplayColor(img Image) Image {
	out := Image{Width: img.Width, Height: img.Height, Order: img.Order.reversed(), Pix: make([]byte, len(img.Pix))}
	for i := 0; i+channels <= len(img.Pix); i += channels {
		for c := 0; c < channels; c++ {
			out.Pix[i+c] = img.Pix[i+channels-1-c]
		}
	}
	return out
}

// ToNRGBA wraps an RGB buffer as an image.Image for encoding.
func (img Image) ToNRGBA() (*image.NRGBA, error) {
	if img.Order != RGB {
		return nil, fmt.Errorf("image is %s, convert with ToDisplayColor first", img.Order)
	}
	out := image.NewNRGBA(img.Bounds())
	for p, i := 0, 0; i < len(img.Pix); p, i = p+4, i+channels {
		out.Pix[p] = img.Pix[i]
		out.Pix[p+1] = img.Pix[i+1]
		out.Pix[p+2] = img.Pix[i+2]
		out.Pix[p+3] = 0xff
	}
	return out, nil
}
