// Package canvas rasterizes pages and paints annotation overlays on top.
//
// Frames are committed to a Surface. Each render begins by taking a token from
// the surface; a render whose token has been superseded by a newer Begin is
// dropped instead of committed, so the surface always shows the most recently
// requested page.
package canvas

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/digitorus/pdfannot/coords"
	"github.com/digitorus/pdfannot/raster"
)

// ErrSuperseded is returned when a newer render started on the same surface
// before this one could be committed.
var ErrSuperseded = errors.New("render superseded")

// Frame is a committed bitmap.
type Frame struct {
	Image    image.Image
	Viewport raster.Viewport
	Page     int
	Zoom     float64
}

// Extent returns the frame geometry for coordinate mapping. A zero display
// size means the bitmap is shown unscaled.
func (f Frame) Extent(displayWidth, displayHeight float64) coords.Extent {
	b := f.Image.Bounds()
	return coords.Extent{
		BitmapWidth:   float64(b.Dx()),
		BitmapHeight:  float64(b.Dy()),
		DisplayWidth:  displayWidth,
		DisplayHeight: displayHeight,
	}
}

// Surface is a named drawing target holding at most one frame.
type Surface struct {
	name  string
	token atomic.Uint64

	mu    sync.Mutex
	frame *Frame
}

// NewSurface returns an empty surface.
func NewSurface(name string) *Surface {
	return &Surface{name: name}
}

func (s *Surface) Name() string { return s.name }

// Begin starts a render and returns its token. Every earlier token stops
// being current.
func (s *Surface) Begin() uint64 {
	return s.token.Add(1)
}

// Current reports whether token belongs to the latest render.
func (s *Surface) Current(token uint64) bool {
	return s.token.Load() == token
}

// Commit stores f if token is still current and reports whether it did.
func (s *Surface) Commit(token uint64, f Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Current(token) {
		return false
	}
	s.frame = &f
	return true
}

// Frame returns the last committed frame.
func (s *Surface) Frame() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return Frame{}, false
	}
	return *s.frame, true
}

// Reset drops the committed frame and invalidates renders in flight.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token.Add(1)
	s.frame = nil
}
