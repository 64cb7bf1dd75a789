package predictor

// Offsets returns the start frame of every crop of width over a clip of
// length frames, stepping by stride. The last crop is anchored to the clip
// end when the stride does not land on it, so every frame is covered and
// the final two crops may overlap by more than the stride. A clip shorter
// than width yields the single offset 0.
//
// For length >= width the count is ceil((length-width)/stride) + 1.
func Offsets(length, width, stride int) []int {
	if length <= width {
		return []int{0}
	}
	var out []int
	off := 0
	for ; off+width <= length; off += stride {
		out = append(out, off)
	}
	if last := out[len(out)-1]; last+width < length {
		out = append(out, length-width)
	}
	return out
}

// Mean averages vectors elementwise. All vectors must have the same length.
func Mean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			out[i] += x
		}
	}
	n := float64(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out
}
