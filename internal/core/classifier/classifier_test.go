package classifier

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func TestSoftmax_SumsToOne(t *testing.T) {
	probs := softmax([]float32{2.0, 1.0, 0.1, -3.0})
	var sum float64
	for i, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("prob[%d] = %f out of range", i, p)
		}
		sum += float64(p)
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Fatalf("probabilities sum to %f, want 1", sum)
	}
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[i-1] {
			t.Fatalf("ordering not preserved: %v", probs)
		}
	}
}

func TestSoftmax_LargeLogitsStable(t *testing.T) {
	probs := softmax([]float32{1000, 999})
	for i, p := range probs {
		if math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
			t.Fatalf("prob[%d] = %f", i, p)
		}
	}
	if probs[0] <= probs[1] {
		t.Fatalf("larger logit must win: %v", probs)
	}
}

func TestRankIndices_DescendingWithStableTies(t *testing.T) {
	order := rankIndices([]float32{0.1, 0.4, 0.4, 0.05, 0.05})
	want := []int{1, 2, 0, 3, 4}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestNormalize_Range(t *testing.T) {
	if got := normalize(0); got != -1.0 {
		t.Errorf("normalize(0) = %f, want -1", got)
	}
	if got := normalize(255); got != 1.0 {
		t.Errorf("normalize(255) = %f, want 1", got)
	}
	if got := normalize(128); math.Abs(float64(got)) > 0.01 {
		t.Errorf("normalize(128) = %f, want ~0", got)
	}
}

func solidPNG(t *testing.T, c color.NRGBA, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPrepareTensorData_SolidImage(t *testing.T) {
	const size = 4
	data, err := prepareTensorData(bytes.NewReader(solidPNG(t, color.NRGBA{R: 255, G: 0, B: 255, A: 255}, 2, 2)), size)
	if err != nil {
		t.Fatalf("prepareTensorData: %v", err)
	}
	if len(data) != 3*size*size {
		t.Fatalf("len = %d, want %d", len(data), 3*size*size)
	}
	near := func(got, want float32) bool {
		return math.Abs(float64(got-want)) < 0.02
	}
	plane := size * size
	for i := 0; i < plane; i++ {
		if !near(data[i], 1.0) {
			t.Fatalf("R[%d] = %f, want ~1", i, data[i])
		}
		if !near(data[plane+i], -1.0) {
			t.Fatalf("G[%d] = %f, want ~-1", i, data[plane+i])
		}
		if !near(data[2*plane+i], 1.0) {
			t.Fatalf("B[%d] = %f, want ~1", i, data[2*plane+i])
		}
	}
}

func TestPrepareTensorData_BadInput(t *testing.T) {
	if _, err := prepareTensorData(bytes.NewReader([]byte("not an image")), 4); err == nil {
		t.Fatal("expected decode error")
	}
}
