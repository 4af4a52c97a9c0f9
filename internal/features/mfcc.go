package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/superhg2012/asr-e2e/internal/audio"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ExtractorConfig controls MFCC extraction.
type ExtractorConfig struct {
	NumCep      int
	MelBands    int
	FrameMS     float64
	HopMS       float64
	PreEmphasis float64
	LowHz       float64
	HighHz      float64 // 0 means Nyquist
}

// DefaultExtractorConfig returns the usual 13-coefficient MFCC setup.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		NumCep:      13,
		MelBands:    26,
		FrameMS:     25,
		HopMS:       10,
		PreEmphasis: 0.97,
	}
}

func (c ExtractorConfig) validate() error {
	switch {
	case c.NumCep < 1:
		return fmt.Errorf("num_cep must be positive, got %d", c.NumCep)
	case c.MelBands < c.NumCep:
		return fmt.Errorf("mel_bands (%d) must be >= num_cep (%d)", c.MelBands, c.NumCep)
	case c.FrameMS <= 0 || c.HopMS <= 0:
		return fmt.Errorf("frame_ms and hop_ms must be positive, got %v and %v", c.FrameMS, c.HopMS)
	case c.PreEmphasis < 0 || c.PreEmphasis >= 1:
		return fmt.Errorf("pre_emphasis must be in [0, 1), got %v", c.PreEmphasis)
	case c.LowHz < 0 || (c.HighHz != 0 && c.HighHz <= c.LowHz):
		return fmt.Errorf("invalid band [%v, %v] Hz", c.LowHz, c.HighHz)
	}

	return nil
}

// Extractor computes MFCC matrices from audio clips.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor validates cfg.
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	return &Extractor{cfg: cfg}, nil
}

// Extract returns a [frames x num_cep] matrix. Clips shorter than one frame
// are zero-padded to a single frame.
func (e *Extractor) Extract(clip audio.Clip) (Matrix, error) {
	if clip.SampleRate <= 0 {
		return Matrix{}, fmt.Errorf("features: invalid sample rate %d", clip.SampleRate)
	}

	if len(clip.Samples) == 0 {
		return Matrix{}, errors.New("features: clip has no samples")
	}

	sr := float64(clip.SampleRate)
	frameLen := int(math.Round(sr * e.cfg.FrameMS / 1000))
	hop := int(math.Round(sr * e.cfg.HopMS / 1000))

	if frameLen < 2 || hop < 1 {
		return Matrix{}, fmt.Errorf("features: frame of %d samples too short at %d Hz", frameLen, clip.SampleRate)
	}

	high := e.cfg.HighHz
	if high == 0 || high > sr/2 {
		high = sr / 2
	}

	nfft := nextPow2(frameLen)
	fft := fourier.NewFFT(nfft)
	bank := melFilterbank(e.cfg.MelBands, nfft, sr, e.cfg.LowHz, high)
	window := hamming(frameLen)

	signal := preEmphasize(clip.Samples, e.cfg.PreEmphasis)

	frames := 1
	if len(signal) > frameLen {
		frames += (len(signal) - frameLen + hop - 1) / hop
	}

	buf := make([]float64, nfft)
	power := make([]float64, nfft/2+1)
	logMel := make([]float64, e.cfg.MelBands)
	coeffs := make([]complex128, nfft/2+1)
	out := make([]float32, 0, frames*e.cfg.NumCep)

	for f := range frames {
		clear(buf)

		start := f * hop
		for i := 0; i < frameLen && start+i < len(signal); i++ {
			buf[i] = signal[start+i] * window[i]
		}

		coeffs = fft.Coefficients(coeffs, buf)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] = (re*re + im*im) / float64(nfft)
		}

		for b, filter := range bank {
			var energy float64
			for k, w := range filter.weights {
				energy += w * power[filter.start+k]
			}

			logMel[b] = math.Log(math.Max(energy, math.SmallestNonzeroFloat32))
		}

		for _, v := range dct2(logMel, e.cfg.NumCep) {
			out = append(out, float32(v))
		}
	}

	return NewMatrix(out, frames, e.cfg.NumCep)
}

type melFilter struct {
	start   int
	weights []float64
}

func hzToMel(hz float64) float64 { return 2595 * math.Log10(1+hz/700) }

func melToHz(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

// melFilterbank builds triangular filters over the FFT bins.
func melFilterbank(bands, nfft int, sampleRate, low, high float64) []melFilter {
	lowMel, highMel := hzToMel(low), hzToMel(high)
	bins := make([]int, bands+2)

	for i := range bins {
		hz := melToHz(lowMel + float64(i)*(highMel-lowMel)/float64(bands+1))
		bins[i] = int(math.Floor(float64(nfft+1) * hz / sampleRate))
	}

	bank := make([]melFilter, bands)

	for b := range bank {
		left, center, right := bins[b], bins[b+1], bins[b+2]
		f := melFilter{start: left, weights: make([]float64, max(right-left+1, 1))}

		for k := left; k <= right; k++ {
			var w float64

			switch {
			case k < center && center > left:
				w = float64(k-left) / float64(center-left)
			case k == center:
				w = 1
			case k > center && right > center:
				w = float64(right-k) / float64(right-center)
			}

			f.weights[k-left] = w
		}

		bank[b] = f
	}

	return bank
}

func hamming(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	return w
}

func preEmphasize(samples []float32, coeff float64) []float64 {
	out := make([]float64, len(samples))
	prev := 0.0

	for i, s := range samples {
		v := float64(s)
		out[i] = v - coeff*prev
		prev = v
	}

	return out
}

// dct2 returns the first n orthonormal DCT-II coefficients of x.
func dct2(x []float64, n int) []float64 {
	size := float64(len(x))
	out := make([]float64, n)

	for k := range out {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/size)
		}

		scale := math.Sqrt(2 / size)
		if k == 0 {
			scale = math.Sqrt(1 / size)
		}

		out[k] = sum * scale
	}

	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
