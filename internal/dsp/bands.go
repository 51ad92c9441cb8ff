package dsp

// BandFrame is one analysis result: a fixed-length sequence of band
// intensities, each in [0, 1].
type BandFrame []float64

// MapBands aggregates frequency bins into numBands logarithmically spaced
// bands. Band i averages the magnitudes of the bin index range
// [floor((i/n)^2 L), floor(((i+1)/n)^2 L)), which gives low bands fewer
// bins (finer frequency resolution) and high bands more, approximating
// perceptual spacing without a frequency lookup table. Degenerate ranges
// map to 0.0 and every value is clamped to [0, 1]. The result always has
// exactly numBands entries, even for empty input.
func MapBands(bins []Bin, numBands int) BandFrame {
	if numBands <= 0 {
		return BandFrame{}
	}
	bands := make(BandFrame, numBands)
	total := len(bins)
	if total == 0 {
		return bands
	}

	for i := range bands {
		lo := float64(i) / float64(numBands)
		hi := float64(i+1) / float64(numBands)
		start := int(lo * lo * float64(total))
		end := int(hi * hi * float64(total))
		if end > total {
			end = total
		}
		if start >= end {
			continue
		}

		sum := 0.0
		for _, bin := range bins[start:end] {
			sum += bin.Mag
		}
		bands[i] = clamp(sum/float64(end-start), 0, 1)
	}
	return bands
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
