// Package depict turns SMILES into 2D structure images for chart tooltips
// and result tables.
package depict

import (
	"encoding/base64"
	"html/template"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/ClusterMST/internal/domain/molecule"
)

// Defaults for a Renderer.
const (
	DefaultSize      = 250
	DefaultCacheSize = 4096
	PlaceholderText  = "no structure"
)

// Recorder receives one observation per image request.
type Recorder interface {
	ObserveDepiction(cached bool, elapsed time.Duration)
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithSize sets the image edge length in pixels.
func WithSize(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithCacheSize bounds the number of cached images. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(r *Renderer) {
		if n >= 0 {
			r.maxEntries = n
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Renderer) { r.recorder = rec }
}

// Renderer draws and caches structure images. It is safe for concurrent use;
// concurrent requests for the same structure are rendered once.
type Renderer struct {
	size       int
	maxEntries int
	recorder   Recorder

	mu    sync.Mutex
	cache map[uint64][]byte
	order []uint64 // insertion order for eviction

	group singleflight.Group
}

// NewRenderer returns a Renderer with DefaultSize and DefaultCacheSize unless
// overridden.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		size:       DefaultSize,
		maxEntries: DefaultCacheSize,
		cache:      make(map[uint64][]byte),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the image edge length in pixels.
func (r *Renderer) Size() int { return r.size }

// Len returns the number of cached images.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// PNG returns the depiction of smiles. Parse failures are returned as
// errors; use ImageTag for the placeholder fallback.
func (r *Renderer) PNG(smiles string) ([]byte, error) {
	start := time.Now()
	key := xxhash.Sum64String(smiles)
	if img, ok := r.lookup(key); ok {
		r.observe(true, start)
		return img, nil
	}

	v, err, _ := r.group.Do(smiles, func() (interface{}, error) {
		m, err := molecule.ParseSMILES(smiles)
		if err != nil {
			return nil, err
		}
		img, err := DrawPNG(m, r.size)
		if err != nil {
			return nil, err
		}
		r.store(key, img)
		return img, nil
	})
	r.observe(false, start)
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Placeholder returns the "no structure" image.
func (r *Renderer) Placeholder() []byte {
	const key = "\x00placeholder"
	hash := xxhash.Sum64String(key)
	if img, ok := r.lookup(hash); ok {
		return img
	}
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		img, err := DrawPlaceholder(r.size, PlaceholderText)
		if err != nil {
			return nil, err
		}
		r.store(hash, img)
		return img, nil
	})
	if err != nil {
		return nil
	}
	return v.([]byte)
}

// DataURI returns smiles' depiction as a data URI, falling back to the
// placeholder image.
func (r *Renderer) DataURI(smiles string) string {
	img, err := r.PNG(smiles)
	if err != nil {
		img = r.Placeholder()
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
}

// ImageTag returns an <img> element showing smiles. Unparseable structures
// get the placeholder image with alt text "no structure".
func (r *Renderer) ImageTag(smiles string) template.HTML {
	alt := "Mol"
	img, err := r.PNG(smiles)
	if err != nil {
		img = r.Placeholder()
		alt = PlaceholderText
	}
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
	return template.HTML(`<img src="` + src + `" alt="` + alt + `" width="` + strconv.Itoa(r.size) +
		`" height="` + strconv.Itoa(r.size) + `">`)
}

func (r *Renderer) lookup(key uint64) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.cache[key]
	return img, ok
}

func (r *Renderer) store(key uint64, img []byte) {
	if r.maxEntries == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cache[key]; ok {
		return
	}
	for len(r.cache) >= r.maxEntries && len(r.order) > 0 {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.cache, oldest)
	}
	r.cache[key] = img
	r.order = append(r.order, key)
}

func (r *Renderer) observe(cached bool, start time.Time) {
	if r.recorder != nil {
		r.recorder.ObserveDepiction(cached, time.Since(start))
	}
}
