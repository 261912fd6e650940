package timeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CameraTokenPrefix marks generated camera identities, used when a clip
// carries no usable resolution metadata.
const CameraTokenPrefix = "camera-"

// TokenSource produces unique tokens for clips without resolution data.
// Any collision-free generator satisfies the contract; tests inject a
// deterministic one.
type TokenSource interface {
	NewToken() string
}

// UUIDTokenSource is the production token source.
type UUIDTokenSource struct{}

func (UUIDTokenSource) NewToken() string {
	return uuid.NewString()
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) NewToken() string { return f() }

// CameraIdentity derives the camera identity for a clip: the resolution
// signature "<width>x<height>" when the probe data contains a video
// stream with known dimensions, otherwise a fresh generated token. Two
// clips lacking resolution data never share an identity; each call
// produces a new token, so each such clip ends up on its own track.
func CameraIdentity(clip *Clip, tokens TokenSource) string {
	if clip.Probe != nil {
		for _, s := range clip.Probe.Streams {
			if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
				return fmt.Sprintf("%dx%d", s.Width, s.Height)
			}
		}
	}
	return CameraTokenPrefix + tokens.NewToken()
}

// IsCameraToken reports whether the identity was generated rather than
// derived from resolution metadata.
func IsCameraToken(id string) bool {
	return strings.HasPrefix(id, CameraTokenPrefix)
}
