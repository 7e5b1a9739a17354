package elevation

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const ErrTypeMalformedElevation = "malformed_content"

// Regular grid of heights in meters covering a whole tile. Row 0 is the south edge.
type Chunk struct {
	Width  int
	Height int
	Data   []float32
	NoData float32
}

func NewChunk(width, height int, data []float32) (*Chunk, error) {
	c := &Chunk{Width: width, Height: height, Data: data, NoData: float32(math.NaN())}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Checks that the grid has at least 2x2 samples and as many heights as samples
func (c *Chunk) Validate() error {
	if c.Width < 2 || c.Height < 2 || len(c.Data) != c.Width*c.Height {
		return errors.New("invalid elevation grid").
			WithType(ErrTypeMalformedElevation).
			WithTag("width", c.Width).
			WithTag("height", c.Height).
			WithTag("samples", len(c.Data))
	}
	return nil
}

func (c *Chunk) At(x, y int) float32 {
	v := c.Data[y*c.Width+x]
	if isNoData(v, c.NoData) {
		return 0
	}
	return v
}

// Bilinear sample at tile local coordinates, u eastward and v northward, both in [0,1]
func (c *Chunk) Sample(u, v float64) float64 {
	u = clamp01(u) * float64(c.Width-1)
	v = clamp01(v) * float64(c.Height-1)

	x0, y0 := int(math.Floor(u)), int(math.Floor(v))
	x1, y1 := minInt(x0+1, c.Width-1), minInt(y0+1, c.Height-1)
	fx, fy := u-float64(x0), v-float64(y0)

	h00 := float64(c.At(x0, y0))
	h10 := float64(c.At(x1, y0))
	h01 := float64(c.At(x0, y1))
	h11 := float64(c.At(x1, y1))

	return (h00*(1-fx)+h10*fx)*(1-fy) + (h01*(1-fx)+h11*fx)*fy
}

func (c *Chunk) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range c.Data {
		if isNoData(v, c.NoData) {
			continue
		}
		lo = math.Min(lo, float64(v))
		hi = math.Max(hi, float64(v))
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func isNoData(v, noData float32) bool {
	if math.IsNaN(float64(v)) {
		return true
	}
	return !math.IsNaN(float64(noData)) && v == noData
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
