package qoi_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dolanor/bluenoise/internal/qoi"
)

func TestConst(t *testing.T) {
	exp := []byte{
		0x00,
		0x40,
		0x80,
		0xc0,
		0xfe,
		0xff,
	}
	for i, v := range []byte{
		byte(qoi.Index),
		byte(qoi.Diff),
		byte(qoi.Luma),
		byte(qoi.Run),
		byte(qoi.RGB),
		byte(qoi.RGBA),
	} {
		if v != exp[i] {
			t.Errorf("\ngot: %x\nexp: %x", v, exp[i])
		}
	}
}

// stripes builds the three-band image the codec has always been tested with,
// plus a gradient and some translucent pixels so every chunk type shows up.
func stripes(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var c color.NRGBA
			switch band := x / 10; {
			case band%3 == 0:
				c = color.NRGBA{B: 255, A: 255}
			case band%3 == 1:
				c = color.NRGBA{G: 255, A: 255}
			default:
				c = color.NRGBA{R: 255, A: 255}
			}
			if y%3 == 1 {
				// small steps for Diff, larger for Luma
				c = color.NRGBA{R: uint8(x), G: uint8(x*9 + y), B: uint8(x * 5), A: 255}
			}
			if y%5 == 4 {
				c.A = uint8(x * 7)
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func roundTrip(t *testing.T, img image.Image, o *qoi.Options) *image.NRGBA {
	t.Helper()

	var buf bytes.Buffer
	err := qoi.Encode(&buf, img, o)
	if err != nil {
		t.Fatal(err)
	}

	out, format, err := image.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if format != "qoi" {
		t.Fatalf("format = %q, want qoi", format)
	}
	return out.(*image.NRGBA)
}

func TestRoundTrip(t *testing.T) {
	for _, size := range []image.Point{
		{1, 1},
		{29, 2},
		{30, 10},
		{100, 3},
	} {
		img := stripes(size.X, size.Y)
		got := roundTrip(t, img, nil)
		if diff := cmp.Diff(img.Pix, got.Pix); diff != "" {
			t.Errorf("%v: pixels differ (-want +got):\n%s", size, diff)
		}
	}
}

func TestLongRun(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 300, 1))
	for x := 0; x < 300; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{R: 3, G: 3, B: 3, A: 255})
	}
	got := roundTrip(t, img, nil)
	if diff := cmp.Diff(img.Pix, got.Pix); diff != "" {
		t.Errorf("pixels differ (-want +got):\n%s", diff)
	}
}

func TestThreeChannels(t *testing.T) {
	img := stripes(20, 6)
	got := roundTrip(t, img, &qoi.Options{Channels: 3, ColorSpace: qoi.ColorSpaceLinear})

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			want := img.NRGBAAt(x, y)
			want.A = 255
			if c := got.NRGBAAt(x, y); c != want {
				t.Fatalf("%d,%d: got %v, want %v", x, y, c, want)
			}
		}
	}
}

func TestDecodeConfig(t *testing.T) {
	var buf bytes.Buffer
	err := qoi.Encode(&buf, stripes(13, 7), nil)
	if err != nil {
		t.Fatal(err)
	}

	cfg, format, err := image.DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if format != "qoi" {
		t.Errorf("format = %q, want qoi", format)
	}
	if cfg.Width != 13 || cfg.Height != 7 {
		t.Errorf("got %dx%d, want 13x7", cfg.Width, cfg.Height)
	}
	if cfg.ColorModel != color.NRGBAModel {
		t.Errorf("unexpected color model %v", cfg.ColorModel)
	}
}

func header(w, h uint32, channels, cs uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString(qoi.Magic)
	binary.Write(&buf, binary.BigEndian, w)
	binary.Write(&buf, binary.BigEndian, h)
	buf.WriteByte(channels)
	buf.WriteByte(cs)
	return buf.Bytes()
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte("qoif\x00\x00")},
		{"magic", append([]byte("qoix"), header(1, 1, 4, 0)[4:]...)},
		{"zero width", header(0, 1, 4, 0)},
		{"zero height", header(1, 0, 4, 0)},
		{"channels", header(1, 1, 5, 0)},
		{"colorspace", header(1, 1, 4, 2)},
		{"too large", header(1<<20, 1<<20, 4, 0)},
		{"no pixels", header(2, 2, 4, 0)},
		{"truncated rgba", append(header(1, 1, 4, 0), byte(qoi.RGBA), 1, 2)},
		{"truncated luma", append(header(1, 1, 4, 0), byte(qoi.Luma))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := qoi.Decode(bytes.NewReader(tc.data))
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestDecodeTruncatedIsUnexpectedEOF(t *testing.T) {
	_, err := qoi.Decode(bytes.NewReader(header(4, 4, 4, 0)))
	if err == nil || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecodeKnownStream(t *testing.T) {
	// 4x1: RGB(10,20,30), run of 2, Diff(+1,-1,0)
	data := header(4, 1, 4, 0)
	data = append(data,
		byte(qoi.RGB), 10, 20, 30,
		byte(qoi.Run)|1,
		byte(qoi.Diff)|3<<4|1<<2|2,
	)
	data = append(data, 0, 0, 0, 0, 0, 0, 0, 1)

	img, err := qoi.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	exp := []uint8{
		10, 20, 30, 255,
		10, 20, 30, 255,
		10, 20, 30, 255,
		11, 19, 30, 255,
	}
	if diff := cmp.Diff(exp, img.(*image.NRGBA).Pix); diff != "" {
		t.Errorf("pixels differ (-want +got):\n%s", diff)
	}
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := qoi.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil)
	if err == nil {
		t.Fatal("expected an error for an empty image")
	}
}
