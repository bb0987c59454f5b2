package filters

import (
	"errors"

	"pdfsqueeze/object"
)

// applyPredictor reverses the predictor declared in DecodeParms. Cross-
// reference streams routinely use the PNG Up predictor, so this runs after
// every flate decode.
func applyPredictor(data []byte, params *object.Dict) ([]byte, error) {
	if params == nil {
		return data, nil
	}
	predictor, _ := params.Int("Predictor")
	if predictor <= 1 {
		return data, nil
	}
	colors := int64(1)
	if v, ok := params.Int("Colors"); ok {
		colors = v
	}
	bpc := int64(8)
	if v, ok := params.Int("BitsPerComponent"); ok {
		bpc = v
	}
	columns := int64(1)
	if v, ok := params.Int("Columns"); ok {
		columns = v
	}
	bpp := int(colors*bpc+7) / 8
	rowLen := int(colors*bpc*columns+7) / 8
	if bpp <= 0 || rowLen <= 0 {
		return nil, errors.New("filters: invalid predictor parameters")
	}

	if predictor == 2 {
		return applyTIFFPredictor(data, bpp, rowLen)
	}
	return applyPNGPredictor(data, bpp, rowLen)
}

func applyTIFFPredictor(data []byte, bpp, rowLen int) ([]byte, error) {
	if len(data)%rowLen != 0 {
		return nil, errors.New("filters: predictor row size mismatch")
	}
	out := append([]byte(nil), data...)
	for row := 0; row < len(out); row += rowLen {
		for i := bpp; i < rowLen; i++ {
			out[row+i] += out[row+i-bpp]
		}
	}
	return out, nil
}

func applyPNGPredictor(data []byte, bpp, rowLen int) ([]byte, error) {
	// Each encoded row is prefixed with a per-row filter type byte.
	stride := rowLen + 1
	if len(data)%stride != 0 {
		return nil, errors.New("filters: predictor row size mismatch")
	}
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		ft := data[r*stride]
		copy(cur, data[r*stride+1:(r+1)*stride])
		switch ft {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				cur[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				left := 0
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, errors.New("filters: unknown PNG predictor row filter")
		}
		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
