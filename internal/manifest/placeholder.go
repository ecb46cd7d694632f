package manifest

import (
	"bytes"
	"encoding/base64"
	"image/png"

	"github.com/galdor/go-thumbhash"
)

// decodePlaceholder turns a base64 thumbhash into a small PNG data
// URL the surface can show inline while the full cover loads.
func decodePlaceholder(hash string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		// Some producers strip the padding.
		raw, err = base64.RawStdEncoding.DecodeString(hash)
		if err != nil {
			return "", err
		}
	}

	img, err := thumbhash.DecodeImage(raw)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
