package storage

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the broad category of a file.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindOther    Kind = "other"
)

// KindOf classifies a MIME type.
func KindOf(mime string) Kind {
	t := strings.ToLower(mime)
	switch {
	case strings.HasPrefix(t, "image/"):
		return KindImage
	case strings.HasPrefix(t, "video/"):
		return KindVideo
	case strings.HasPrefix(t, "audio/"):
		return KindAudio
	case strings.Contains(t, "document"), strings.Contains(t, "pdf"),
		strings.Contains(t, "text"), strings.Contains(t, "application/"):
		return KindDocument
	default:
		return KindOther
	}
}

func IsImage(mime string) bool    { return KindOf(mime) == KindImage }
func IsVideo(mime string) bool    { return KindOf(mime) == KindVideo }
func IsAudio(mime string) bool    { return KindOf(mime) == KindAudio }
func IsDocument(mime string) bool { return KindOf(mime) == KindDocument }

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with 1024-based units and at most two
// decimals, e.g. "1.5 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// Extension returns the text after the last dot of name, without the dot.
// Names without a dot, or whose only dot leads, have no extension.
func Extension(name string) string {
	base := path.Base(name)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return ""
	}
	return base[idx+1:]
}

// UniqueFilename returns prefix + name_<unix-ms>_<random>.ext.
func UniqueFilename(original, prefix string) string {
	return uniqueFilename(original, prefix, time.Now())
}

func uniqueFilename(original, prefix string, now time.Time) string {
	ext := Extension(original)
	name := path.Base(original)
	if ext != "" {
		name = strings.TrimSuffix(name, "."+ext)
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	out := fmt.Sprintf("%s%s_%d_%s", prefix, name, now.UnixMilli(), random)
	if ext != "" {
		out += "." + ext
	}
	return out
}
