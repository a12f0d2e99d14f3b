// Package imagesim scores how alike two uploaded item photos are using coarse
// pixel statistics: colour histograms, mean colour and brightness. Images that
// cannot be decoded degrade to a byte-level comparison.
package imagesim

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrNoImage is returned when an empty image reference is compared
var ErrNoImage = errors.New("no image reference")

// Method names the comparison path that produced a Result
type Method string

const (
	MethodIdentical Method = "identical"
	MethodPixel     Method = "pixel"
	MethodFileSize  Method = "file_size"
)

// Config holds the resolution, cutoffs and weights used by a Comparator
type Config struct {
	Resolution int   // side of the square the images are resized to
	Bins       int   // histogram bins per channel
	MaxPixels  int64 // larger images are not decoded and use the fallback

	HistogramLowCutoff  float64 // chi-square distance at or below which histograms score 100
	HistogramHighCutoff float64 // distance at or above which histograms score 0
	ColorLowCutoff      float64 // mean RGB distance at or below which colour scores 100
	ColorHighCutoff     float64 // distance at or above which colour scores 0

	HistogramWeight  float64
	ColorWeight      float64
	BrightnessWeight float64

	NoiseFloor         float64 // every sub-score below this means no match at all
	NearDuplicate      float64 // every sub-score above this forces 100
	AggregateFloor     float64 // weighted scores below this become 0
	FallbackDampening  float64 // scales the file-size similarity
	DuplicateThreshold float64 // FindDuplicate acceptance score
}

// DefaultConfig returns the standard comparison settings
func DefaultConfig() Config {
	return Config{
		Resolution:          64,
		Bins:                16,
		MaxPixels:           40_000_000,
		HistogramLowCutoff:  0.01,
		HistogramHighCutoff: 0.5,
		ColorLowCutoff:      1.0,
		ColorHighCutoff:     150.0,
		HistogramWeight:     0.4,
		ColorWeight:         0.4,
		BrightnessWeight:    0.2,
		NoiseFloor:          5.0,
		NearDuplicate:       98.0,
		AggregateFloor:      5.0,
		FallbackDampening:   0.5,
		DuplicateThreshold:  95.0,
	}
}

// Result is the outcome of comparing two images. Sub-scores are zero unless
// Method is MethodPixel.
type Result struct {
	Score      float64 `json:"score"`
	Histogram  float64 `json:"histogram"`
	Color      float64 `json:"color"`
	Brightness float64 `json:"brightness"`
	Method     Method  `json:"method"`
}

// Signature is everything a comparison needs from one image file. It is
// computed once per file and can be compared against many others.
type Signature struct {
	Ref  string
	Size int64
	Hash [sha256.Size]byte

	// DecodeErr is set when the bytes could not be turned into pixels;
	// such signatures only support the byte-level fallback.
	DecodeErr error

	hist       [3][]float64
	mean       [3]float64
	brightness float64
}

// Duplicate identifies an existing image that matches a new upload
type Duplicate struct {
	Ref   string  `json:"ref"`
	Score float64 `json:"score"`
}

// Comparator reads images from a filesystem and compares them
type Comparator struct {
	fs  afero.Fs
	cfg Config
}

// NewComparator creates a comparator reading image references relative to fs
func NewComparator(fs afero.Fs, cfg Config) *Comparator {
	if cfg.Resolution <= 0 {
		cfg.Resolution = DefaultConfig().Resolution
	}
	if cfg.Bins <= 0 {
		cfg.Bins = DefaultConfig().Bins
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultConfig().MaxPixels
	}
	return &Comparator{fs: fs, cfg: cfg}
}

// Usable reports whether ref names an existing, non-empty file
func (c *Comparator) Usable(ref string) bool {
	if strings.TrimSpace(ref) == "" {
		return false
	}
	info, err := c.fs.Stat(ref)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

// Signature reads and analyses the image at ref. An error is returned only
// when the file cannot be read; undecodable content is recorded in DecodeErr.
func (c *Comparator) Signature(ref string) (*Signature, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, ErrNoImage
	}

	data, err := afero.ReadFile(c.fs, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", ref, err)
	}

	sig := &Signature{
		Ref:  ref,
		Size: int64(len(data)),
		Hash: sha256.Sum256(data),
	}
	sig.DecodeErr = c.analyse(sig, data)
	return sig, nil
}

// analyse decodes data and fills in the pixel statistics of sig
func (c *Comparator) analyse(sig *Signature, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("image decoder panic: %v", r)
		}
	}()

	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image header: %w", err)
	}
	if pixels := int64(header.Width) * int64(header.Height); pixels > c.cfg.MaxPixels {
		return fmt.Errorf("image is %dx%d, over the %d pixel limit", header.Width, header.Height, c.cfg.MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return errors.New("image has no pixels")
	}

	size := c.cfg.Resolution
	norm := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(norm, norm.Bounds(), img, img.Bounds(), draw.Src, nil)

	bins := c.cfg.Bins
	for ch := range sig.hist {
		sig.hist[ch] = make([]float64, bins)
	}

	var sum [3]float64
	var gray float64
	pixels := float64(size * size)
	for y := 0; y < size; y++ {
		row := norm.Pix[y*norm.Stride : y*norm.Stride+size*4]
		for x := 0; x < size; x++ {
			px := row[x*4 : x*4+3]
			for ch := 0; ch < 3; ch++ {
				v := px[ch]
				sum[ch] += float64(v)
				sig.hist[ch][int(v)*bins/256]++
			}
			gray += 0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2])
		}
	}

	for ch := 0; ch < 3; ch++ {
		sig.mean[ch] = sum[ch] / pixels
		for b := range sig.hist[ch] {
			sig.hist[ch][b] /= pixels
		}
	}
	sig.brightness = gray / pixels

	return nil
}

// Compare reads both images and scores their similarity. The score depends
// only on the file contents, never on the references themselves.
func (c *Comparator) Compare(refA, refB string) (Result, error) {
	a, err := c.Signature(refA)
	if err != nil {
		return Result{}, err
	}
	b, err := c.Signature(refB)
	if err != nil {
		return Result{}, err
	}
	return c.CompareSignatures(a, b), nil
}

// CompareSignatures scores two analysed images on a 0-100 scale
func (c *Comparator) CompareSignatures(a, b *Signature) Result {
	if a.Size == b.Size && a.Hash == b.Hash {
		return Result{Score: 100.0, Method: MethodIdentical}
	}
	if a.DecodeErr != nil || b.DecodeErr != nil {
		return c.fileSizeFallback(a, b)
	}

	hist := c.histogramSimilarity(a, b)
	color := c.colorSimilarity(a, b)
	brightness := 100.0 - math.Abs(a.brightness-b.brightness)/255.0*100.0

	floor := c.cfg.NoiseFloor
	if hist < floor && color < floor && brightness < floor {
		return Result{Method: MethodPixel}
	}

	res := Result{
		Histogram:  round2(hist),
		Color:      round2(color),
		Brightness: round2(brightness),
		Method:     MethodPixel,
	}

	score := c.cfg.HistogramWeight*hist + c.cfg.ColorWeight*color + c.cfg.BrightnessWeight*brightness
	near := c.cfg.NearDuplicate
	switch {
	case hist > near && color > near && brightness > near:
		score = 100.0
	case score < c.cfg.AggregateFloor:
		score = 0.0
	}
	res.Score = round2(clamp(score, 0, 100))

	return res
}

// histogramSimilarity maps the mean per-channel chi-square distance to 0-100
func (c *Comparator) histogramSimilarity(a, b *Signature) float64 {
	var total float64
	for ch := 0; ch < 3; ch++ {
		var d float64
		for i := range a.hist[ch] {
			p, q := a.hist[ch][i], b.hist[ch][i]
			if p+q > 0 {
				d += (p - q) * (p - q) / (p + q)
			}
		}
		total += d / 2.0
	}
	return linearSimilarity(total/3.0, c.cfg.HistogramLowCutoff, c.cfg.HistogramHighCutoff)
}

// colorSimilarity maps the Euclidean distance of the mean RGB values to 0-100
func (c *Comparator) colorSimilarity(a, b *Signature) float64 {
	var sq float64
	for ch := 0; ch < 3; ch++ {
		d := a.mean[ch] - b.mean[ch]
		sq += d * d
	}
	return linearSimilarity(math.Sqrt(sq), c.cfg.ColorLowCutoff, c.cfg.ColorHighCutoff)
}

// fileSizeFallback compares byte counts when pixels are unavailable
func (c *Comparator) fileSizeFallback(a, b *Signature) Result {
	maxSize := math.Max(float64(a.Size), float64(b.Size))
	if maxSize == 0 {
		return Result{Method: MethodFileSize}
	}
	diff := math.Abs(float64(a.Size - b.Size))
	sim := math.Max(0, 100.0-diff/maxSize*100.0) * c.cfg.FallbackDampening
	return Result{Score: round2(sim), Method: MethodFileSize}
}

// FindDuplicate returns the first existing image scoring at least the
// duplicate threshold against ref. Unreadable references are skipped.
func (c *Comparator) FindDuplicate(ref string, existing []string) (Duplicate, bool) {
	sig, err := c.Signature(ref)
	if err != nil {
		return Duplicate{}, false
	}

	for _, other := range existing {
		if other == ref {
			continue
		}
		otherSig, err := c.Signature(other)
		if err != nil {
			continue
		}
		res := c.CompareSignatures(sig, otherSig)
		if res.Score >= c.cfg.DuplicateThreshold {
			return Duplicate{Ref: other, Score: res.Score}, true
		}
	}
	return Duplicate{}, false
}

// linearSimilarity returns 100 at or below low, 0 at or above high and a
// straight line in between
func linearSimilarity(distance, low, high float64) float64 {
	switch {
	case distance <= low:
		return 100.0
	case distance >= high:
		return 0.0
	default:
		return 100.0 * (high - distance) / (high - low)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
