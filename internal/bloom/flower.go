// Package bloom turns a spoken phrase into a flower description.
package bloom

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Renderable ranges. Sizes are in screen pixels, spin in radians per second.
const (
	MinPetals = 3
	MaxPetals = 24

	MinSize = 20.0
	MaxSize = 200.0

	MaxSpin = 2.0

	maxNameLen    = 40
	maxMessageLen = 140
)

// Flower sources.
const (
	SourceModel  = "model"
	SourceSeeded = "seeded"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Flower is the procedural description a renderer draws.
type Flower struct {
	Name        string  `json:"name"`
	Petals      int     `json:"petals"`
	PetalColor  string  `json:"petal_color"`
	CenterColor string  `json:"center_color"`
	StemHeight  float64 `json:"stem_height"`
	Size        float64 `json:"size"`
	Spin        float64 `json:"spin"`
	Glow        float64 `json:"glow"`
	Message     string  `json:"message"`
	Source      string  `json:"source,omitempty"`
}

// Normalize clamps every field into its renderable range and fills blanks.
func (f *Flower) Normalize() {
	f.Name = truncate(strings.TrimSpace(f.Name), maxNameLen)
	if f.Name == "" {
		f.Name = "Nameless bloom"
	}
	f.Message = truncate(strings.TrimSpace(f.Message), maxMessageLen)

	if f.Petals < MinPetals {
		f.Petals = MinPetals
	}
	if f.Petals > MaxPetals {
		f.Petals = MaxPetals
	}

	if !hexColor.MatchString(f.PetalColor) {
		f.PetalColor = "#ff7eb6"
	}
	if !hexColor.MatchString(f.CenterColor) {
		f.CenterColor = "#ffd166"
	}
	f.PetalColor = strings.ToLower(f.PetalColor)
	f.CenterColor = strings.ToLower(f.CenterColor)

	f.StemHeight = clamp(f.StemHeight, 0, 1, 0.5)
	f.Size = clamp(f.Size, MinSize, MaxSize, 80)
	f.Spin = clamp(f.Spin, -MaxSpin, MaxSpin, 0)
	f.Glow = clamp(f.Glow, 0, 1, 0.5)
}

// ParseFlower extracts a flower from model output. Code fences and prose
// around the JSON object are ignored.
func ParseFlower(text string) (*Flower, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrInvalidFlower)
	}

	var f Flower
	if err := json.Unmarshal([]byte(text[start:end+1]), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlower, err)
	}
	f.Normalize()
	return &f, nil
}

var seedPalette = []string{
	"#ff7eb6", "#ff6b6b", "#ffa94d", "#ffd43b", "#69db7c",
	"#4dabf7", "#9775fa", "#f783ac", "#e599f7", "#63e6be",
}

// Seeded derives a flower deterministically from phrase. It is used when
// the model is unavailable so every capture still grows something.
func Seeded(phrase string) *Flower {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(phrase))))
	sum := h.Sum64()

	next := func(n uint64) uint64 {
		v := sum % n
		sum /= n
		return v
	}

	f := &Flower{
		Name:        phrase,
		Petals:      MinPetals + int(next(uint64(MaxPetals-MinPetals+1))),
		PetalColor:  seedPalette[next(uint64(len(seedPalette)))],
		CenterColor: seedPalette[next(uint64(len(seedPalette)))],
		StemHeight:  0.3 + float64(next(60))/100,
		Size:        MinSize + 40 + float64(next(100)),
		Spin:        float64(int(next(41))-20) / 20,
		Glow:        float64(next(100)) / 100,
		Message:     phrase,
		Source:      SourceSeeded,
	}
	f.Normalize()
	return f
}

func clamp(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	if v == 0 && lo > 0 {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
