// Package track creates closed loop tracks on a square grid.
package track

import (
	"math/rand/v2"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
)

const (
	MinGridSize = 4
	MinSteps    = 24 // lower bound for the loop length, scaled up by grid size
	MaxRetries  = 10
)

type (
	Option func(*config)
	config struct {
		rng *rand.Rand
	}
)

var neighbours = []model.Pos{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// WithSeed makes the generated track reproducible
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.rng = utils.NewRandFromSeed(seed)
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(c *config) {
		c.rng = rng
	}
}

// MinLength returns the minimum loop length for an n x n grid
func MinLength(n int) int {
	return max(MinSteps, 2*n)
}

// Generate creates a closed loop on an n x n grid via self-avoiding random walk.
// If no walk succeeds within MaxRetries attempts the oval fallback is returned.
// Grid sizes below MinGridSize are raised to MinGridSize.
func Generate(n int, opts ...Option) *model.Track {
	n = max(n, MinGridSize)
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	for range MaxRetries {
		if path := tryWalk(n, cfg.rng); path != nil {
			return build(path, n)
		}
	}
	return Oval(n)
}

// tryWalk returns the visited cells in order or nil if the walk got stuck.
// The returned path does not repeat the origin at its end.
func tryWalk(n int, rng *rand.Rand) []model.Pos {
	minLen := MinLength(n)
	start := model.Pos{0, 0}
	visited := map[model.Pos]bool{start: true}
	path := []model.Pos{start}
	current := start

	for range n * n {
		if len(path) >= minLen {
			for _, d := range neighbours {
				if (model.Pos{current[0] + d[0], current[1] + d[1]}) == start {
					return path
				}
			}
		}
		candidates := make([]model.Pos, 0, len(neighbours))
		for _, d := range neighbours {
			next := model.Pos{current[0] + d[0], current[1] + d[1]}
			if inGrid(next, n) && !visited[next] {
				candidates = append(candidates, next)
			}
		}
		if len(candidates) == 0 {
			return nil
		}
		current = candidates[rng.IntN(len(candidates))]
		visited[current] = true
		path = append(path, current)
	}
	return nil
}

func inGrid(p model.Pos, n int) bool {
	return p[0] >= 0 && p[0] < n && p[1] >= 0 && p[1] < n
}

// Oval returns a rectangular loop inset by one cell. Always valid for n >= MinGridSize.
func Oval(n int) *model.Track {
	n = max(n, MinGridSize)
	lo, hi := 1, n-2
	path := make([]model.Pos, 0, 4*(hi-lo))
	for x := lo; x <= hi; x++ {
		path = append(path, model.Pos{x, lo})
	}
	for y := lo + 1; y <= hi; y++ {
		path = append(path, model.Pos{hi, y})
	}
	for x := hi - 1; x >= lo; x-- {
		path = append(path, model.Pos{x, hi})
	}
	for y := hi - 1; y > lo; y-- {
		path = append(path, model.Pos{lo, y})
	}
	return build(path, n)
}

func build(path []model.Pos, n int) *model.Track {
	m := len(path)
	tiles := make([]model.Tile, m)
	for i, p := range path {
		prev := path[(i-1+m)%m]
		next := path[(i+1)%m]
		cameFrom := model.Pos{p[0] - prev[0], p[1] - prev[1]}
		goingTo := model.Pos{next[0] - p[0], next[1] - p[1]}
		tt, o := Classify(cameFrom, goingTo)
		tiles[i] = model.Tile{X: p[0], Y: p[1], Type: tt, Orientation: o}
	}
	return &model.Track{
		GridWidth:  n,
		GridHeight: n,
		Tiles:      tiles,
		PathOrder:  path,
	}
}
