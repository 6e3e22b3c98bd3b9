package quantize

import (
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/ironsheep/image-quant/palette"
)

// rowState is the private scratch of one index-assignment worker: reusable
// row buffers, a per-worker palette matcher (matchers cache their previous
// query and are not concurrency-safe), and a one-entry memo for runs of
// identical pixels.
type rowState struct {
	src     []color.NRGBA
	work    []color.NRGBA
	matcher *palette.Matcher

	memoColor color.NRGBA
	memoIndex uint8
	memoOK    bool
}

// forEachRow runs fn over every row of bounds. Workers pull rows from a
// shared channel; each worker owns one rowState, so fn needs no locking as
// long as it only writes the row it was given. With workers <= 1 the rows
// run in order on the calling goroutine.
func forEachRow(bounds image.Rectangle, workers, width int, pal palette.Palette, fn func(st *rowState, y int)) {
	n := bounds.Dy()
	if n == 0 || width == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	newState := func() *rowState {
		return &rowState{
			src:     make([]color.NRGBA, width),
			work:    make([]color.NRGBA, width),
			matcher: palette.NewMatcher(pal),
		}
	}

	if workers <= 1 {
		st := newState()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			fn(st, y)
		}
		return
	}

	rows := make(chan int, n)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		rows <- y
	}
	close(rows)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := newState()
			for y := range rows {
				fn(st, y)
			}
		}()
	}
	wg.Wait()
}
