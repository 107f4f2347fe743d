// Package prospect connects the optimizer to the prospecting game: a square
// plot with a hidden integer value surface that may only be probed a
// limited number of times per episode.
package prospect

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	// DefaultMapSize is the side length of a game plot.
	DefaultMapSize = 512
	// DefaultQueryBudget is the number of queries allowed per plot.
	DefaultQueryBudget = 100
)

// Coord is an integer cell on the plot.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("[%d,%d]", c.X, c.Y)
}

// Probe is the game's query interface.
type Probe interface {
	// Query returns the value at c and spends one query. Once the budget
	// is spent every query returns 0.
	Query(c Coord) int
	// QueriesRemaining returns how many queries are left.
	QueriesRemaining() int
	// History returns every coordinate queried so far with its value.
	History() map[Coord]int
}

// Field is a hidden value surface.
type Field struct {
	size   int
	values []int
}

// Hill is one Gaussian bump of a generated field.
type Hill struct {
	CX, CY float64
	Height float64
	Width  float64
}

// NewField evaluates hills on a size x size grid.
func NewField(size int, hills []Hill) *Field {
	f := &Field{size: size, values: make([]int, size*size)}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := 0.0
			for _, h := range hills {
				dx, dy := float64(x)-h.CX, float64(y)-h.CY
				v += h.Height * math.Exp(-(dx*dx+dy*dy)/(2*h.Width*h.Width))
			}
			f.values[y*size+x] = int(math.Round(v))
		}
	}
	return f
}

// GenerateField builds a field of the given size from peaks random hills.
func GenerateField(rng *rand.Rand, size, peaks int) *Field {
	hills := make([]Hill, peaks)
	for i := range hills {
		hills[i] = Hill{
			CX:     rng.Float64() * float64(size),
			CY:     rng.Float64() * float64(size),
			Height: 200 + 800*rng.Float64(),
			Width:  float64(size) * (0.02 + 0.1*rng.Float64()),
		}
	}
	return NewField(size, hills)
}

// Size returns the side length of the field.
func (f *Field) Size() int {
	return f.size
}

// Contains reports whether c lies on the field.
func (f *Field) Contains(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < f.size && c.Y < f.size
}

// Value returns the value at c, or 0 off the field.
func (f *Field) Value(c Coord) int {
	if !f.Contains(c) {
		return 0
	}
	return f.values[c.Y*f.size+c.X]
}

// Max returns the highest value on the field and where it is.
func (f *Field) Max() (Coord, int) {
	best, bestIdx := math.MinInt, 0
	for i, v := range f.values {
		if v > best {
			best, bestIdx = v, i
		}
	}
	return Coord{X: bestIdx % f.size, Y: bestIdx / f.size}, best
}

// Plot is an in-memory Probe over a Field.
type Plot struct {
	field     *Field
	remaining int
	history   map[Coord]int
}

var _ Probe = (*Plot)(nil)

// NewPlot starts an episode on field with budget queries.
func NewPlot(field *Field, budget int) *Plot {
	return &Plot{
		field:     field,
		remaining: budget,
		history:   make(map[Coord]int),
	}
}

// Query implements Probe. Coordinates off the field return 0 without
// spending a query.
func (p *Plot) Query(c Coord) int {
	if !p.field.Contains(c) || p.remaining <= 0 {
		return 0
	}
	p.remaining--
	v := p.field.Value(c)
	p.history[c] = v
	return v
}

// QueriesRemaining implements Probe.
func (p *Plot) QueriesRemaining() int {
	return p.remaining
}

// History implements Probe.
func (p *Plot) History() map[Coord]int {
	return p.history
}

// Score is the best value queried so far.
func (p *Plot) Score() int {
	_, v, _ := BestQueried(p)
	return v
}

// BestQueried returns the highest-valued coordinate in the probe history.
// Ties go to the smallest coordinate so the answer is stable.
func BestQueried(probe Probe) (Coord, int, bool) {
	var (
		best  Coord
		value int
		found bool
	)
	for c, v := range probe.History() {
		if !found || v > value || (v == value && less(c, best)) {
			best, value, found = c, v, true
		}
	}
	return best, value, found
}

func less(a, b Coord) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
