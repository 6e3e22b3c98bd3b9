package dither

// Offset is one tap of a diffusion kernel: the residual share
// Weight/Divisor lands on the pixel at (x+DX, y+DY).
type Offset struct {
	DX, DY int
	Weight int
}

// Kernel describes how the quantization residual of a pixel spreads to
// neighbors that have not been scanned yet. Every tap satisfies DY >= 0,
// and DX > 0 when DY == 0, so only "future" pixels in row-major order
// receive error. The weight sum never exceeds Divisor, so diffusion never
// amplifies the residual.
type Kernel struct {
	Name    string
	Taps    []Offset
	Divisor int
}

// The standard diffusion kernels.
var (
	FloydSteinberg = Kernel{
		Name:    "floyd-steinberg",
		Divisor: 16,
		Taps: []Offset{
			{1, 0, 7},
			{-1, 1, 3}, {0, 1, 5}, {1, 1, 1},
		},
	}

	FalseFloydSteinberg = Kernel{
		Name:    "false-floyd-steinberg",
		Divisor: 8,
		Taps: []Offset{
			{1, 0, 3},
			{0, 1, 3}, {1, 1, 2},
		},
	}

	JarvisJudiceNinke = Kernel{
		Name:    "jarvis-judice-ninke",
		Divisor: 48,
		Taps: []Offset{
			{1, 0, 7}, {2, 0, 5},
			{-2, 1, 3}, {-1, 1, 5}, {0, 1, 7}, {1, 1, 5}, {2, 1, 3},
			{-2, 2, 1}, {-1, 2, 3}, {0, 2, 5}, {1, 2, 3}, {2, 2, 1},
		},
	}

	Stucki = Kernel{
		Name:    "stucki",
		Divisor: 42,
		Taps: []Offset{
			{1, 0, 8}, {2, 0, 4},
			{-2, 1, 2}, {-1, 1, 4}, {0, 1, 8}, {1, 1, 4}, {2, 1, 2},
			{-2, 2, 1}, {-1, 2, 2}, {0, 2, 4}, {1, 2, 2}, {2, 2, 1},
		},
	}

	// Atkinson deliberately diffuses only 6/8 of the residual, trading
	// accuracy in dark and light regions for higher local contrast.
	Atkinson = Kernel{
		Name:    "atkinson",
		Divisor: 8,
		Taps: []Offset{
			{1, 0, 1}, {2, 0, 1},
			{-1, 1, 1}, {0, 1, 1}, {1, 1, 1},
			{0, 2, 1},
		},
	}

	Burkes = Kernel{
		Name:    "burkes",
		Divisor: 32,
		Taps: []Offset{
			{1, 0, 8}, {2, 0, 4},
			{-2, 1, 2}, {-1, 1, 4}, {0, 1, 8}, {1, 1, 4}, {2, 1, 2},
		},
	}

	Sierra3 = Kernel{
		Name:    "sierra3",
		Divisor: 32,
		Taps: []Offset{
			{1, 0, 5}, {2, 0, 3},
			{-2, 1, 2}, {-1, 1, 4}, {0, 1, 5}, {1, 1, 4}, {2, 1, 2},
			{-1, 2, 2}, {0, 2, 3}, {1, 2, 2},
		},
	}

	Sierra2 = Kernel{
		Name:    "sierra2",
		Divisor: 16,
		Taps: []Offset{
			{1, 0, 4}, {2, 0, 3},
			{-2, 1, 1}, {-1, 1, 2}, {0, 1, 3}, {1, 1, 2}, {2, 1, 1},
		},
	}

	SierraLite = Kernel{
		Name:    "sierra-lite",
		Divisor: 4,
		Taps: []Offset{
			{1, 0, 2},
			{-1, 1, 1}, {0, 1, 1},
		},
	}
)

// Kernels lists every predefined kernel, keyed by Name.
var Kernels = map[string]Kernel{
	FloydSteinberg.Name:      FloydSteinberg,
	FalseFloydSteinberg.Name: FalseFloydSteinberg,
	JarvisJudiceNinke.Name:   JarvisJudiceNinke,
	Stucki.Name:              Stucki,
	Atkinson.Name:            Atkinson,
	Burkes.Name:              Burkes,
	Sierra3.Name:             Sierra3,
	Sierra2.Name:             Sierra2,
	SierraLite.Name:          SierraLite,
}

// valid reports whether k can drive a diffusion pass.
func (k Kernel) valid() bool {
	if k.Divisor <= 0 || len(k.Taps) == 0 {
		return false
	}
	sum := 0
	for _, t := range k.Taps {
		if t.DY < 0 || (t.DY == 0 && t.DX <= 0) || t.Weight <= 0 {
			return false
		}
		sum += t.Weight
	}
	return sum <= k.Divisor
}
