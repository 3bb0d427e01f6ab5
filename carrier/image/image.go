// Package image embeds and extracts a provenance envelope in the chroma
// plane of an image using a single-level 2-D Haar DWT, QIM lattice
// quantization on the LH/HL detail subbands, and a Reed-Solomon-protected,
// length-prefixed packet — surviving moderate lossy recompression at the
// cost of a tiny, usually-imperceptible chroma shift.
package image

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/digitorus/mediaseal/errs"
)

const (
	qimStep        = 40.0
	bufferCapBits  = 15000
	maxLengthBytes = 5000
)

// Embed hides envelope in the Cb plane of the image at inPath and writes a
// lossless PNG to outPath.
func Embed(inPath, outPath, envelope string) error {
	src, err := decodeImage(inPath)
	if err != nil {
		return err
	}
	src = evenDimensions(src)

	ycbcr := toYCbCr444(src)
	bounds := ycbcr.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	cb := make2D(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cb[y][x] = float64(ycbcr.Cb[ycbcr.COffset(x+bounds.Min.X, y+bounds.Min.Y)])
		}
	}

	ll, lh, hl, hh := haar2D(cb)
	capacityBits := len(lh)*len(lh[0]) + len(hl)*len(hl[0])

	rsBlob, err := rsEncode([]byte(envelope))
	if err != nil {
		return fmt.Errorf("reed-solomon encoding envelope: %w", &errs.CryptoError{Err: err})
	}
	if len(rsBlob) > maxLengthBytes {
		return errs.ErrPayloadTooLarge
	}

	bits := packPacket(rsBlob)
	if len(bits) > capacityBits || len(bits) > bufferCapBits {
		return errs.ErrPayloadTooLarge
	}

	flat := flattenSubbands(lh, hl)
	for i, bit := range bits {
		flat[i] = qimEmbed(flat[i], qimStep, bit)
	}
	unflattenSubbands(flat, lh, hl)

	cbPrime := cropTo(ihaar2D(ll, lh, hl, hh), h, w)

	out := image.NewYCbCr(bounds, image.YCbCrSubsampleRatio444)
	copy(out.Y, ycbcr.Y)
	copy(out.Cr, ycbcr.Cr)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Cb[out.COffset(x+bounds.Min.X, y+bounds.Min.Y)] = clamp8(cbPrime[y][x])
		}
	}

	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, out, bounds.Min, draw.Src)

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, &errs.CarrierIOError{Err: err})
	}
	defer outFile.Close()
	if err := png.Encode(outFile, rgba); err != nil {
		return fmt.Errorf("encoding png %s: %w", outPath, &errs.CarrierIOError{Err: err})
	}
	return nil
}

// Extract recovers the envelope embedded in the image at path, along with
// the number of Reed-Solomon shard corrections that were needed. It returns
// errs.ErrNoSignatureFound (not an error condition at the caller level) when
// no valid packet can be decoded — the common case for an unsigned image or
// one whose embedded data was destroyed by heavy recompression.
func Extract(path string) (string, int, error) {
	src, err := decodeImage(path)
	if err != nil {
		return "", 0, err
	}

	ycbcr := toYCbCr444(src)
	bounds := ycbcr.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w%2 != 0 {
		w--
	}
	if h%2 != 0 {
		h--
	}
	if w == 0 || h == 0 {
		return "", 0, errs.ErrNoSignatureFound
	}

	cb := make2D(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cb[y][x] = float64(ycbcr.Cb[ycbcr.COffset(x+bounds.Min.X, y+bounds.Min.Y)])
		}
	}

	_, lh, hl, _ := haar2D(cb)
	flat := flattenSubbands(lh, hl)

	readBits := bufferCapBits
	if len(flat) < readBits {
		readBits = len(flat)
	}
	if readBits < 32 {
		return "", 0, errs.ErrNoSignatureFound
	}

	bits := make([]int, readBits)
	for i := 0; i < readBits; i++ {
		bits[i] = qimExtract(flat[i], qimStep)
	}

	var length uint32
	for i := 0; i < 32; i++ {
		length = (length << 1) | uint32(bits[i])
	}
	if length == 0 || int(length) > maxLengthBytes {
		return "", 0, errs.ErrNoSignatureFound
	}

	needed := 32 + int(length)*8
	if needed > readBits {
		return "", 0, errs.ErrNoSignatureFound
	}

	payloadBytes := bitsToBytes(bits[32:needed])
	envelope, corrections, err := rsDecode(payloadBytes)
	if err != nil {
		return "", 0, errs.ErrNoSignatureFound
	}
	return string(envelope), corrections, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, &errs.CarrierIOError{Err: err})
	}
	return img, nil
}

func toYCbCr444(src image.Image) *image.YCbCr {
	b := src.Bounds()
	dst := image.NewYCbCr(b, image.YCbCrSubsampleRatio444)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			dst.Y[dst.YOffset(x, y)] = yy
			dst.Cb[dst.COffset(x, y)] = cb
			dst.Cr[dst.COffset(x, y)] = cr
		}
	}
	return dst
}

// evenDimensions downscales src by one pixel on any odd dimension, since
// the DWT requires even width and height.
func evenDimensions(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	newW, newH := w, h
	if w%2 != 0 {
		newW--
	}
	if h%2 != 0 {
		newH--
	}
	if newW == w && newH == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func flattenSubbands(lh, hl [][]float64) []float64 {
	out := make([]float64, 0, len(lh)*len(lh[0])+len(hl)*len(hl[0]))
	for _, row := range lh {
		out = append(out, row...)
	}
	for _, row := range hl {
		out = append(out, row...)
	}
	return out
}

func unflattenSubbands(flat []float64, lh, hl [][]float64) {
	idx := 0
	for r := range lh {
		for c := range lh[r] {
			lh[r][c] = flat[idx]
			idx++
		}
	}
	for r := range hl {
		for c := range hl[r] {
			hl[r][c] = flat[idx]
			idx++
		}
	}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
