package common

import (
	"path/filepath"
	"strings"
)

// ImageExt is an allowed chat image file extension, lower-case and without the dot.
type ImageExt string

const (
	ImageExtPNG  ImageExt = "png"
	ImageExtJPG  ImageExt = "jpg"
	ImageExtJPEG ImageExt = "jpeg"
	ImageExtGIF  ImageExt = "gif"
	ImageExtWEBP ImageExt = "webp"
)

var imageContentTypes = map[ImageExt]string{
	ImageExtPNG:  "image/png",
	ImageExtJPG:  "image/jpeg",
	ImageExtJPEG: "image/jpeg",
	ImageExtGIF:  "image/gif",
	ImageExtWEBP: "image/webp",
}

func (e ImageExt) String() string {
	return string(e)
}

// IsValid checks the extension against the upload allow-list.
func (e ImageExt) IsValid() bool {
	_, ok := imageContentTypes[e]
	return ok
}

// ContentType returns the MIME type served for the extension.
func (e ImageExt) ContentType() string {
	if ct, ok := imageContentTypes[e]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ImageExtOf extracts the extension of filename. The result may be invalid.
func ImageExtOf(filename string) ImageExt {
	return ImageExt(strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")))
}
