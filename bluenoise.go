// Package bluenoise turns a blue-noise texture into C source that embeds the
// red and green channel of every pixel as a compile-time sampling table.
package bluenoise

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/exp/slog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	_ "github.com/dolanor/bluenoise/internal/qoi"
)

const (
	// InputPath is the texture the generator reads, relative to the working
	// directory.
	InputPath = "128_128_LDR_RG01_0.png"

	HeaderPath = "blue_noise.h"
	SourcePath = "blue_noise.c"
)

// Mode selects the shape of the generated files.
type Mode int

const (
	// Combined writes a single header that defines the table.
	Combined Mode = iota
	// Split writes a header of extern declarations and a C file with the
	// definitions.
	Split
)

func (m Mode) String() string {
	switch m {
	case Combined:
		return "combined"
	case Split:
		return "split"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

var (
	// ErrDecode reports an input that is missing, unreadable or not a
	// decodable image.
	ErrDecode = errors.New("decode error")
	// ErrIO reports an output file that could not be created, written or
	// closed.
	ErrIO = errors.New("io error")
)

// Config describes one run of the generator.
type Config struct {
	InputPath string
	Mode      Mode

	// HeaderPath and SourcePath default to blue_noise.h and blue_noise.c.
	// SourcePath is only used in Split mode.
	HeaderPath string
	SourcePath string

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig is the configuration the command runs with.
func DefaultConfig() Config {
	return Config{
		InputPath:  InputPath,
		Mode:       DefaultMode,
		HeaderPath: HeaderPath,
		SourcePath: SourcePath,
	}
}

func (c Config) withDefaults() Config {
	if c.InputPath == "" {
		c.InputPath = InputPath
	}
	if c.HeaderPath == "" {
		c.HeaderPath = HeaderPath
	}
	if c.SourcePath == "" {
		c.SourcePath = SourcePath
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Table holds the channel bytes of a decoded texture.
// Values[2*(y*Width+x)] is the red and Values[2*(y*Width+x)+1] the green
// value of the pixel at column x, row y, counted from the top-left.
type Table struct {
	Width  int
	Height int
	Values []byte
}

// Len is the number of values in the table, 2*Width*Height.
func (t *Table) Len() int {
	return 2 * t.Width * t.Height
}

// At returns the red and green value of the pixel at column x, row y.
func (t *Table) At(x, y int) (r, g byte) {
	i := 2 * (y*t.Width + x)
	return t.Values[i], t.Values[i+1]
}

// FromImage reads the red and green channel of every pixel of img, row by
// row starting at the top-left corner of its bounds.
func FromImage(img image.Image) *Table {
	b := img.Bounds()
	t := &Table{
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	t.Values = make([]byte, 0, t.Len())

	switch m := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				t.Values = append(t.Values, row[i], row[i+1])
			}
		}
		return t
	case *image.RGBA:
		// only opaque images come back as RGBA from the png decoder, so the
		// stored bytes are the unpremultiplied values
		if m.Opaque() {
			for y := b.Min.Y; y < b.Max.Y; y++ {
				row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
				for i := 0; i < len(row); i += 4 {
					t.Values = append(t.Values, row[i], row[i+1])
				}
			}
			return t
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			t.Values = append(t.Values, c.R, c.G)
		}
	}
	return t
}

// Decode reads an image in any registered format from r.
func Decode(r io.Reader) (*Table, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return FromImage(img), nil
}

// Load opens and decodes the image at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrDecode, path, err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
