package zip

import (
	"archive/zip"
	"bytes"
	"strings"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}

// Filename appends a file extension derived from the MIME type. Unknown
// types keep the bare base name.
func Filename(base, mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return base + ".jpg"
	case "image/png":
		return base + ".png"
	case "image/webp":
		return base + ".webp"
	case "video/mp4":
		return base + ".mp4"
	case "video/webm":
		return base + ".webm"
	case "audio/mpeg":
		return base + ".mp3"
	case "audio/wav", "audio/x-wav":
		return base + ".wav"
	default:
		return base
	}
}
