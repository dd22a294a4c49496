package upload

import (
	"io"
	"slices"
	"strings"

	"github.com/h2non/filetype"

	"github.com/aretw0/easel/pkg/ports"
)

// DefaultAcceptedTypes are the image subtypes accepted when none are configured.
var DefaultAcceptedTypes = []string{"jpeg", "png", "gif", "bmp", "webp", "tiff"}

// sniffLen is the header size filetype needs to match every supported format.
const sniffLen = 261

// DetectType returns the MIME type of f: the declared one when present,
// otherwise the type sniffed from its content. It returns "" when unknown.
func DetectType(f ports.File) string {
	if t := f.Type(); t != "" {
		return t
	}
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return ""
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// IsAccepted reports whether mime is an image type whose subtype is in types.
func IsAccepted(mime string, types []string) bool {
	if len(types) == 0 {
		types = DefaultAcceptedTypes
	}
	major, sub, ok := strings.Cut(strings.ToLower(mime), "/")
	if !ok || major != "image" {
		return false
	}
	return slices.Contains(types, sub)
}

// FilterFiles keeps the files whose type is accepted, in order.
func FilterFiles(files []ports.File, types []string) []ports.File {
	out := make([]ports.File, 0, len(files))
	for _, f := range files {
		if IsAccepted(DetectType(f), types) {
			out = append(out, f)
		}
	}
	return out
}
