// Command image-quant reduces an image to an indexed-color palette and
// writes it as GIF, indexed PNG or BMP.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-quant/dither"
	"github.com/ironsheep/image-quant/internal/imgio"
	"github.com/ironsheep/image-quant/quantize"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-quant %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	var (
		in          = flag.String("in", "", "input image (png, jpeg, gif, bmp, tiff)")
		out         = flag.String("out", "", "output image (.gif, .png or .bmp)")
		colors      = flag.Int("colors", 256, "maximum palette size, 1-256")
		algorithm   = flag.String("algorithm", "octree", "palette builder: octree or wu")
		ditherName  = flag.String("dither", "", "dither method: a diffusion kernel name (floyd-steinberg, stucki, atkinson, ...) or an ordered matrix (bayer2, bayer4, bayer8, bayer16, ordered3)")
		strength    = flag.Float64("strength", 1.0, "error-diffusion strength, 0-1")
		transparent = flag.Bool("transparent", false, "reserve a palette slot for fully transparent pixels")
		background  = flag.String("background", "", "flatten transparency onto this color first, e.g. #ffffff")
		smooth      = flag.Float64("smooth", 0, "gaussian blur radius applied before quantizing")
		width       = flag.Int("width", 0, "resize to this width before quantizing (0 keeps size)")
		workers     = flag.Int("workers", 0, "row workers for index assignment (0 = all CPUs)")
		swatches    = flag.Bool("swatches", false, "print the resulting palette as hex values")
	)
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*in, *out, options{
		colors:      *colors,
		algorithm:   *algorithm,
		dither:      *ditherName,
		strength:    *strength,
		transparent: *transparent,
		background:  *background,
		smooth:      *smooth,
		width:       *width,
		workers:     *workers,
		swatches:    *swatches,
	}); err != nil {
		log.Fatalf("image-quant: %v", err)
	}
}

type options struct {
	colors      int
	algorithm   string
	dither      string
	strength    float64
	transparent bool
	background  string
	smooth      float64
	width       int
	workers     int
	swatches    bool
}

func run(in, out string, opts options) error {
	img, err := imgio.Load(in)
	if err != nil {
		return err
	}

	if opts.background != "" {
		img, err = flatten(img, opts.background)
		if err != nil {
			return err
		}
	}
	if opts.width > 0 {
		img = imaging.Resize(img, opts.width, 0, imaging.Lanczos)
	}
	if opts.smooth > 0 {
		img = blur.Gaussian(img, opts.smooth)
	}

	cfg := quantize.Config{
		MaxColors:        opts.colors,
		Algorithm:        quantize.Algorithm(opts.algorithm),
		TransparentColor: opts.transparent,
		Workers:          opts.workers,
	}
	if opts.dither != "" {
		ordered, diffuser, err := ditherer(opts.dither, opts.strength)
		if err != nil {
			return err
		}
		cfg.Dither = true
		cfg.Ordered = ordered
		cfg.Diffusion = diffuser
	}

	res, err := quantize.Image(img, cfg)
	if err != nil {
		return err
	}
	log.Printf("%s: %dx%d reduced to %d colors", in, res.Rect.Dx(), res.Rect.Dy(), len(res.Palette))

	if opts.swatches {
		for i, c := range res.Palette {
			hex := colorful.Color{
				R: float64(c.R) / 255,
				G: float64(c.G) / 255,
				B: float64(c.B) / 255,
			}.Hex()
			if i == res.TransparentIndex {
				fmt.Printf("%3d %s (transparent)\n", i, hex)
			} else {
				fmt.Printf("%3d %s\n", i, hex)
			}
		}
	}

	return imgio.Save(out, res.Paletted())
}

// ditherer resolves a method name to exactly one of the two dithering
// strategies.
func ditherer(name string, strength float64) (*dither.Ordered, *dither.Diffuser, error) {
	switch strings.ToLower(name) {
	case "bayer2":
		o := dither.NewOrdered(dither.Bayer2x2)
		return &o, nil, nil
	case "bayer4":
		o := dither.NewOrdered(dither.Bayer4x4)
		return &o, nil, nil
	case "bayer8":
		o := dither.NewOrdered(dither.Bayer8x8)
		return &o, nil, nil
	case "bayer16":
		o := dither.NewOrdered(dither.Bayer16x16)
		return &o, nil, nil
	case "ordered3":
		o := dither.NewOrdered(dither.Ordered3x3)
		return &o, nil, nil
	}
	if k, ok := dither.Kernels[strings.ToLower(name)]; ok {
		d := dither.NewDiffuser(k)
		d.Strength = float32(strength)
		return nil, &d, nil
	}
	return nil, nil, fmt.Errorf("unknown dither method %q", name)
}

// flatten composites img over an opaque background color given in hex
// notation, removing all transparency before quantization.
func flatten(img image.Image, hex string) (image.Image, error) {
	bg, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid background color %q: %w", hex, err)
	}
	r, g, b := bg.RGB255()
	dst := image.NewNRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.NRGBA{R: r, G: g, B: b, A: 255}), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	return dst, nil
}
