package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeImage decodes any supported upload. HEIC/HEIF is sniffed from the
// ftyp box as well as trusted from the extension.
func decodeImage(data []byte, heicHint bool) (image.Image, error) {
	if heicHint || isHEIC(data) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// prepare returns PNG bytes for the OCR engine. Any failure falls back to
// the original bytes with a warning.
func (e *Extractor) prepare(data []byte, heicHint bool) ([]byte, []string) {
	img, err := decodeImage(data, heicHint)
	if err != nil {
		e.logger.Warn("ocr.preprocess.decode_failed", "err", err)
		return data, []string{"image decode failed, using original bytes: " + err.Error()}
	}

	var out image.Image = img
	if e.cfg.Preprocess.Enabled {
		out = e.cfg.Preprocess.Apply(img)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		e.logger.Warn("ocr.preprocess.encode_failed", "err", err)
		return data, []string{"png encode failed, using original bytes: " + err.Error()}
	}
	return buf.Bytes(), nil
}
