// Package qoi implements a decoder and encoder for the "Quite OK Image"
// format and registers it with package image.
package qoi

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

const Magic = "qoif"

type ChunkType byte

const (
	Index ChunkType = 0x00
	Diff  ChunkType = 0x40
	Luma  ChunkType = 0x80
	Run   ChunkType = 0xc0
	RGB   ChunkType = 0xfe
	RGBA  ChunkType = 0xff
)

const Mask2 byte = 0xc0

type ColorSpace byte

const (
	ColorSpaceSRGB   ColorSpace = 0x00
	ColorSpaceLinear ColorSpace = 0x01
)

const HeaderSize = 14

// maxPixels bounds the allocation a header can ask for.
const maxPixels = 400_000_000

// maxRun is the longest run a single Run chunk can carry. 63 and 64 would
// collide with the RGB and RGBA tags.
const maxRun = 62

var endMarker = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

var (
	ErrMagic  = errors.New("qoi: bad header magic value")
	ErrHeader = errors.New("qoi: bad header")
)

type header struct {
	Magic      [4]byte
	Width      uint32
	Height     uint32
	Channels   uint8
	ColorSpace uint8
}

func readHeader(r io.Reader) (header, error) {
	h := header{}
	err := binary.Read(r, binary.BigEndian, &h)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return h, fmt.Errorf("qoi: reading header: %w", err)
	}

	if string(h.Magic[:]) != Magic {
		return h, ErrMagic
	}
	if h.Height == 0 || h.Width == 0 {
		return h, fmt.Errorf("%w: zero width or height", ErrHeader)
	}
	if uint64(h.Width)*uint64(h.Height) > maxPixels {
		return h, fmt.Errorf("%w: %dx%d is too large", ErrHeader, h.Width, h.Height)
	}
	if h.Channels < 3 || h.Channels > 4 {
		return h, fmt.Errorf("%w: %d channels", ErrHeader, h.Channels)
	}
	if h.ColorSpace > byte(ColorSpaceLinear) {
		return h, fmt.Errorf("%w: colorspace %d", ErrHeader, h.ColorSpace)
	}
	return h, nil
}

// Decode reads a QOI image from r. The result is always an *image.NRGBA;
// three-channel images decode with an opaque alpha.
func Decode(r io.Reader) (image.Image, error) {
	buf := bufio.NewReader(r)

	h, err := readHeader(buf)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, int(h.Width), int(h.Height)))
	pixels := img.Pix

	pix := color.NRGBA{A: 255}
	seen := [64]color.NRGBA{}
	run := 0

	readByte := func() (byte, error) {
		b, err := buf.ReadByte()
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return b, err
	}

	for len(pixels) > 0 {
		if run > 0 {
			run--
		} else {
			b, err := readByte()
			if err != nil {
				return nil, fmt.Errorf("qoi: decode: %w", err)
			}

			switch {
			case b == byte(RGB):
				var c [3]byte
				if _, err := io.ReadFull(buf, c[:]); err != nil {
					return nil, fmt.Errorf("qoi: decode rgb: %w", err)
				}
				pix.R, pix.G, pix.B = c[0], c[1], c[2]
			case b == byte(RGBA):
				var c [4]byte
				if _, err := io.ReadFull(buf, c[:]); err != nil {
					return nil, fmt.Errorf("qoi: decode rgba: %w", err)
				}
				pix = color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
			case b&Mask2 == byte(Index):
				pix = seen[b&0x3f]
			case b&Mask2 == byte(Diff):
				pix.R += ((b >> 4) & 0x03) - 2
				pix.G += ((b >> 2) & 0x03) - 2
				pix.B += (b & 0x03) - 2
			case b&Mask2 == byte(Luma):
				b2, err := readByte()
				if err != nil {
					return nil, fmt.Errorf("qoi: decode luma: %w", err)
				}
				Δg := (b & 0x3f) - 32
				pix.R += Δg - 8 + (b2 >> 4)
				pix.G += Δg
				pix.B += Δg - 8 + (b2 & 0x0f)
			case b&Mask2 == byte(Run):
				run = int(b & 0x3f)
			}
			seen[colorHash(pix)%64] = pix
		}

		pixels[0], pixels[1], pixels[2], pixels[3] = pix.R, pix.G, pix.B, pix.A
		pixels = pixels[4:]
	}

	return img, nil
}

// DecodeConfig returns the dimensions stored in the QOI header.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(h.Width),
		Height:     int(h.Height),
	}, nil
}

type Options struct {
	Channels   uint8
	ColorSpace ColorSpace
}

// Encode writes img to w. A nil o encodes four sRGB channels.
func Encode(w io.Writer, img image.Image, o *Options) error {
	minX := img.Bounds().Min.X
	maxX := img.Bounds().Max.X
	minY := img.Bounds().Min.Y
	maxY := img.Bounds().Max.Y

	if o == nil {
		o = &Options{
			Channels:   4,
			ColorSpace: ColorSpaceSRGB,
		}
	}
	if o.Channels < 3 || o.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrHeader, o.Channels)
	}
	if maxX <= minX || maxY <= minY {
		return fmt.Errorf("%w: empty image", ErrHeader)
	}

	buf := bufio.NewWriter(w)

	// convert to static array
	m := (*[4]byte)([]byte(Magic))
	h := header{
		Magic:      *m,
		Width:      uint32(maxX - minX),
		Height:     uint32(maxY - minY),
		Channels:   o.Channels,
		ColorSpace: uint8(o.ColorSpace),
	}

	err := binary.Write(buf, binary.BigEndian, h)
	if err != nil {
		return fmt.Errorf("qoi: encode header: %w", err)
	}

	run := 0
	prev := color.NRGBA{A: 255}
	seen := [64]color.NRGBA{}

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			pix := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if o.Channels == 3 {
				pix.A = 255
			}

			lastPx := x == (maxX-1) && y == (maxY-1)

			if pix == prev {
				run++
				if run == maxRun || lastPx {
					buf.WriteByte(byte(Run) | byte(run-1))
					run = 0
				}
				continue
			}

			if run > 0 {
				buf.WriteByte(byte(Run) | byte(run-1))
				run = 0
			}

			pos := colorHash(pix) % 64
			switch {
			case seen[pos] == pix:
				buf.WriteByte(byte(Index) | pos)
			case pix.A == prev.A:
				seen[pos] = pix

				Δr := int8(pix.R - prev.R)
				Δg := int8(pix.G - prev.G)
				Δb := int8(pix.B - prev.B)
				Δrg := Δr - Δg
				Δbg := Δb - Δg

				switch {
				case Δr > -3 && Δr < 2 &&
					Δg > -3 && Δg < 2 &&
					Δb > -3 && Δb < 2:
					buf.WriteByte(byte(Diff) | byte(Δr+2)<<4 | byte(Δg+2)<<2 | byte(Δb+2))
				case Δg > -33 && Δg < 32 &&
					Δrg > -9 && Δrg < 8 &&
					Δbg > -9 && Δbg < 8:
					buf.Write([]byte{
						byte(Luma) | byte(Δg+32),
						byte(Δrg+8)<<4 | byte(Δbg+8),
					})
				default:
					buf.Write([]byte{byte(RGB), pix.R, pix.G, pix.B})
				}
			default:
				seen[pos] = pix
				buf.Write([]byte{byte(RGBA), pix.R, pix.G, pix.B, pix.A})
			}
			prev = pix
		}
	}

	buf.Write(endMarker[:])

	// bufio keeps the first write error and reports it here
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("qoi: encode: %w", err)
	}
	return nil
}

func colorHash(c color.NRGBA) uint8 {
	return uint8((int(c.R)*3 + int(c.G)*5 + int(c.B)*7 + int(c.A)*11) % 64)
}

func init() {
	image.RegisterFormat("qoi", Magic, Decode, DecodeConfig)
}
