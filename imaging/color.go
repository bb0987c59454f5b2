package imaging

// ColorModel is the closed set of color spaces the raw decode path
// understands. Anything outside it routes to Unsupported and the image is
// left untouched.
type ColorModel int

const (
	ColorUnsupported ColorModel = iota
	ColorGray
	ColorRGB
	ColorCMYK
)

// ColorModelFromName maps a PDF color space name onto the closed set.
func ColorModelFromName(name string) ColorModel {
	switch name {
	case "DeviceGray", "CalGray":
		return ColorGray
	case "DeviceRGB", "CalRGB":
		return ColorRGB
	case "DeviceCMYK":
		return ColorCMYK
	default:
		return ColorUnsupported
	}
}

// Components returns the number of bytes per pixel at 8 bits per
// component, or 0 for Unsupported.
func (m ColorModel) Components() int {
	switch m {
	case ColorGray:
		return 1
	case ColorRGB:
		return 3
	case ColorCMYK:
		return 4
	default:
		return 0
	}
}

func (m ColorModel) String() string {
	switch m {
	case ColorGray:
		return "Gray"
	case ColorRGB:
		return "RGB"
	case ColorCMYK:
		return "CMYK"
	default:
		return "Unsupported"
	}
}
