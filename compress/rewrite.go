package compress

import "pdfsqueeze/object"

// rewrite commits a successful re-encode into the image stream: payload,
// filter tag and dimensions, plus the color space on the raw-sample path
// where the pixel data was rebuilt as RGB. Callers only invoke it after
// the full decode/resize/encode chain succeeded.
func rewrite(st *object.Stream, jpegData []byte, width, height int, setRGB bool) {
	st.SetData(jpegData)
	st.Dict.Set("Filter", object.Name("DCTDecode"))
	st.Dict.Delete("DecodeParms")
	st.Dict.Set("Width", object.Integer(width))
	st.Dict.Set("Height", object.Integer(height))
	if setRGB {
		st.Dict.Set("ColorSpace", object.Name("DeviceRGB"))
	}
}
