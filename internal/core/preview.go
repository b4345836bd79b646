package core

import "strings"

type RenderMode int

const (
	RenderNone RenderMode = iota
	RenderImage
	RenderPDF
	RenderVideo
	RenderAudio
)

func (m RenderMode) String() string {
	switch m {
	case RenderImage:
		return "image"
	case RenderPDF:
		return "pdf"
	case RenderVideo:
		return "video"
	case RenderAudio:
		return "audio"
	default:
		return "none"
	}
}

// RenderModeFor picks how the viewer shows a file of the given MIME type.
// Anything unrecognized is download only.
func RenderModeFor(mimeType string) RenderMode {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return RenderImage
	case mimeType == "application/pdf":
		return RenderPDF
	case strings.HasPrefix(mimeType, "video/"):
		return RenderVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return RenderAudio
	default:
		return RenderNone
	}
}
