// Package preset holds the named aspect presets offered to users and the
// parsing of custom presets from configuration.
package preset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/menta2k/instacrop/pkg/cropper"
)

// Preset is a named target aspect ratio with an optional fixed output size
type Preset struct {
	Name   string               `json:"name"`
	Aspect cropper.AspectPreset `json:"aspect"`
}

// Built-in Instagram presets
var (
	Feed = Preset{
		Name:   "Feed (4:5)",
		Aspect: cropper.AspectPreset{RatioW: 4, RatioH: 5, FixedSize: &cropper.Dimensions{Width: 1080, Height: 1350}},
	}
	GridFeed = Preset{
		Name:   "Grid Feed (3:4)",
		Aspect: cropper.AspectPreset{RatioW: 3, RatioH: 4, FixedSize: &cropper.Dimensions{Width: 354, Height: 472}},
	}
	Reels = Preset{
		Name:   "Reels (9:16)",
		Aspect: cropper.AspectPreset{RatioW: 9, RatioH: 16},
	}
)

// Default is the preset selected when none is given
var Default = Feed

// Builtin returns the built-in catalog in display order
func Builtin() []Preset {
	return []Preset{Feed, GridFeed, Reels}
}

// FormatName returns the filename-safe form of the preset name,
// e.g. "Feed (4:5)" becomes "Feed4-5".
func (p Preset) FormatName() string {
	r := strings.NewReplacer(" ", "", "(", "", ")", "", ":", "-")
	return r.Replace(p.Name)
}

// Describe returns a one-line summary of the preset for display
func (p Preset) Describe() string {
	if p.Aspect.HasFixedSize() {
		return fmt.Sprintf("%s: ratio %d:%d, output %v",
			p.Name, p.Aspect.RatioW, p.Aspect.RatioH, *p.Aspect.FixedSize)
	}
	return fmt.Sprintf("%s: ratio %d:%d, native resolution", p.Name, p.Aspect.RatioW, p.Aspect.RatioH)
}

// Catalog is an ordered set of presets addressable by name
type Catalog struct {
	presets []Preset
}

// NewCatalog builds a catalog, rejecting invalid or duplicate entries
func NewCatalog(presets ...Preset) (*Catalog, error) {
	c := &Catalog{}
	for _, p := range presets {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BuiltinCatalog returns a catalog holding the built-in presets
func BuiltinCatalog() *Catalog {
	return &Catalog{presets: Builtin()}
}

// Add appends a preset to the catalog
func (c *Catalog) Add(p Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	if err := p.Aspect.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	if _, ok := c.Lookup(p.Name); ok {
		return fmt.Errorf("duplicate preset %q", p.Name)
	}
	c.presets = append(c.presets, p)
	return nil
}

// Presets returns the catalog contents in order
func (c *Catalog) Presets() []Preset {
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// Lookup finds a preset by display name or format name, case-insensitively
func (c *Catalog) Lookup(name string) (Preset, bool) {
	key := normalize(name)
	for _, p := range c.presets {
		if normalize(p.Name) == key || normalize(p.FormatName()) == key {
			return p, true
		}
		// allow the bare label, e.g. "feed" or "grid-feed"
		label := strings.TrimSpace(strings.SplitN(p.Name, "(", 2)[0])
		if normalize(label) == key {
			return p, true
		}
	}
	return Preset{}, false
}

// Names returns the display names in order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.presets))
	for _, p := range c.presets {
		names = append(names, p.Name)
	}
	return names
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

var defPattern = regexp.MustCompile(`^\s*(\d+)\s*:\s*(\d+)\s*(?:@\s*(\d+)\s*[xX]\s*(\d+))?\s*$`)

// Parse reads a preset definition of the form "Name=4:5@1080x1350".
// The "@WxH" fixed size is optional.
func Parse(def string) (Preset, error) {
	name, body, ok := strings.Cut(def, "=")
	if !ok {
		return Preset{}, fmt.Errorf("preset %q: expected Name=W:H[@WxH]", def)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, fmt.Errorf("preset %q: missing name", def)
	}

	m := defPattern.FindStringSubmatch(body)
	if m == nil {
		return Preset{}, fmt.Errorf("preset %q: invalid ratio %q", name, body)
	}

	nums := make([]int, 0, 4)
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			return Preset{}, fmt.Errorf("preset %q: %w", name, err)
		}
		nums = append(nums, n)
	}

	p := Preset{
		Name:   name,
		Aspect: cropper.AspectPreset{RatioW: nums[0], RatioH: nums[1]},
	}
	if len(nums) == 4 {
		p.Aspect.FixedSize = &cropper.Dimensions{Width: nums[2], Height: nums[3]}
	}
	if err := p.Aspect.Validate(); err != nil {
		return Preset{}, fmt.Errorf("preset %q: %w", name, err)
	}
	return p, nil
}
