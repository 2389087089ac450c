package cropper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxPanels(t *testing.T) {
	tests := []struct {
		name   string
		dims   Dimensions
		preset AspectPreset
		want   int
	}{
		{"feed two panels", Dimensions{3000, 1350}, feed, 2},
		{"feed exactly two widths", Dimensions{2160, 1350}, feed, 2},
		{"feed just short of two", Dimensions{2159, 1350}, feed, 1},
		{"feed narrow", Dimensions{500, 1350}, feed, 1},
		{"grid feed capped at five", Dimensions{5000, 472}, gridFeed, 5},
		{"grid feed four", Dimensions{1416, 472}, gridFeed, 4},
		{"no fixed size", Dimensions{10000, 1000}, reels, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxPanels(tt.dims, tt.preset))
			assert.Equal(t, tt.want >= 2, IsSplitEligible(tt.dims, tt.preset))
		})
	}
}

func TestMaxPanelsMonotonicInWidth(t *testing.T) {
	for _, p := range []AspectPreset{feed, gridFeed, reels} {
		prev := 0
		for w := 1; w <= 8000; w += 13 {
			got := MaxPanels(Dimensions{w, 1000}, p)
			assert.GreaterOrEqual(t, got, prev, "width %d", w)
			assert.GreaterOrEqual(t, got, 1)
			assert.LessOrEqual(t, got, MaxPanelLimit)
			prev = got
		}
	}
}

func TestClampPanels(t *testing.T) {
	dims := Dimensions{2500, 1350}
	assert.Equal(t, 2, ClampPanels(3, dims, feed))
	assert.Equal(t, 2, ClampPanels(1, dims, feed))
	assert.Equal(t, 2, ClampPanels(2, dims, feed))
	assert.Equal(t, 4, ClampPanels(4, Dimensions{5000, 1350}, feed))
	assert.Equal(t, 1, ClampPanels(3, Dimensions{1000, 1350}, feed))
}

func TestComputePanelsEvenSplit(t *testing.T) {
	plan, err := ComputePanels(Dimensions{3000, 1350}, feed, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, plan.PanelCount)
	assert.Equal(t, 0, plan.OverlapPixels)
	assert.Equal(t, 0, plan.Spacing)
	assert.Equal(t, []Rect{
		{Left: 0, Top: 0, Right: 1500, Bottom: 1350},
		{Left: 1500, Top: 0, Right: 3000, Bottom: 1350},
	}, plan.Panels)
}

func TestComputePanelsClampsRequest(t *testing.T) {
	plan, err := ComputePanels(Dimensions{2500, 1350}, feed, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, plan.PanelCount)
	assert.Equal(t, []Rect{
		{Left: 0, Top: 0, Right: 1250, Bottom: 1350},
		{Left: 1250, Top: 0, Right: 2500, Bottom: 1350},
	}, plan.Panels)
}

func TestComputePanelsOverlap(t *testing.T) {
	// 1100px slices are too narrow for 4:5 at 2000px, so panels widen to 1600
	plan, err := ComputePanels(Dimensions{3300, 2000}, feed, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, plan.PanelCount)
	assert.Equal(t, 1600, plan.PanelWidth)
	assert.Equal(t, 750, plan.OverlapPixels)
	assert.Equal(t, []Rect{
		{Left: 0, Top: 0, Right: 1600, Bottom: 2000},
		{Left: 850, Top: 0, Right: 2450, Bottom: 2000},
		{Left: 1700, Top: 0, Right: 3300, Bottom: 2000},
	}, plan.Panels)
}

func TestComputePanelsOverlapShiftsLastPanel(t *testing.T) {
	plan, err := ComputePanels(Dimensions{3301, 2000}, feed, 3)
	require.NoError(t, err)

	assert.Equal(t, 749, plan.OverlapPixels)
	require.Len(t, plan.Panels, 3)
	last := plan.Panels[2]
	assert.Equal(t, 3301, last.Right)
	assert.Equal(t, 1701, last.Left)
	assert.Equal(t, 1600, last.Width())
}

func TestComputePanelsWiderThanSource(t *testing.T) {
	// ratio width at full height exceeds the source; every panel is the same full-width box
	plan, err := ComputePanels(Dimensions{2200, 3000}, feed, 2)
	require.NoError(t, err)

	assert.Equal(t, 2400, plan.PanelWidth)
	require.Len(t, plan.Panels, 2)
	for _, p := range plan.Panels {
		assert.Equal(t, Rect{0, 0, 2200, 3000}, p)
	}
	assert.Equal(t, plan.Panels[0], plan.Panels[1], "collapsed panels are duplicates")
}

func TestComputePanelsNotSplittable(t *testing.T) {
	_, err := ComputePanels(Dimensions{5000, 1000}, reels, 2)
	assert.ErrorIs(t, err, ErrNotSplittable)

	_, err = ComputePanels(Dimensions{1500, 1350}, feed, 2)
	assert.ErrorIs(t, err, ErrNotSplittable)
}

func TestComputePanelsInvalidGeometry(t *testing.T) {
	_, err := ComputePanels(Dimensions{0, 1350}, feed, 2)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	bad := AspectPreset{RatioW: 0, RatioH: 5, FixedSize: &Dimensions{1080, 1350}}
	_, err = ComputePanels(Dimensions{3000, 1350}, bad, 2)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestComputePanelsStrict(t *testing.T) {
	_, err := ComputePanelsStrict(Dimensions{2500, 1350}, feed, 3)
	assert.ErrorIs(t, err, ErrTooManyPanels)

	plan, err := ComputePanelsStrict(Dimensions{2500, 1350}, feed, 2)
	require.NoError(t, err)
	assert.Len(t, plan.Panels, 2)

	_, err = ComputePanelsStrict(Dimensions{1000, 1350}, feed, 3)
	assert.ErrorIs(t, err, ErrNotSplittable)
}

func TestComputePanelsProperties(t *testing.T) {
	for _, p := range []AspectPreset{feed, gridFeed} {
		for w := p.FixedSize.Width * 2; w <= 6000; w += 211 {
			for h := 200; h <= 3000; h += 317 {
				dims := Dimensions{w, h}
				for requested := MinSplitPanels; requested <= MaxPanelLimit+1; requested++ {
					plan, err := ComputePanels(dims, p, requested)
					require.NoError(t, err, "dims %v requested %d", dims, requested)

					limit := min(requested, MaxPanels(dims, p))
					assert.LessOrEqual(t, len(plan.Panels), limit)
					assert.Equal(t, limit, plan.PanelCount)

					for i, r := range plan.Panels {
						assert.True(t, r.Within(dims), "panel %v outside %v", r, dims)
						assert.False(t, r.Empty())
						assert.Equal(t, 0, r.Top)
						assert.Equal(t, h, r.Bottom)
						if i == 0 {
							continue
						}
						prev := plan.Panels[i-1]
						// not strictly greater: panels wider than the source all collapse to [0,w]
						assert.GreaterOrEqual(t, r.Left, prev.Left,
							"panels out of order (equal Left is the collapsed duplicate case) dims %v plan %+v", dims, plan)

						// the last panel may be pulled back by a rounding pixel per step
						if plan.OverlapPixels > 0 && plan.PanelWidth <= w {
							shared := prev.Right - r.Left
							assert.InDelta(t, plan.OverlapPixels, shared, float64(plan.PanelCount),
								"dims %v plan %+v", dims, plan)
						}
					}
				}
			}
		}
	}
}

func BenchmarkComputePanels(b *testing.B) {
	dims := Dimensions{6000, 1350}
	for i := 0; i < b.N; i++ {
		_, _ = ComputePanels(dims, feed, 5)
	}
}
