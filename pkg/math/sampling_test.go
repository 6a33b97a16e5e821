package math

import (
	gomath "math"
	"math/rand"
	"testing"
)

func TestSampleUnitDisk(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		x, y := SampleUnitDisk(rng.Float64(), rng.Float64())
		if x*x+y*y > 1+1e-12 {
			t.Fatalf("sample (%v, %v) outside unit disk", x, y)
		}
	}

	// The degenerate center sample maps to the origin.
	if x, y := SampleUnitDisk(0.5, 0.5); x != 0 || y != 0 {
		t.Errorf("SampleUnitDisk(0.5, 0.5) = (%v, %v), want origin", x, y)
	}
}

func TestSampleUnitSphere(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		v := SampleUnitSphere(rng.Float64(), rng.Float64())
		if gomath.Abs(v.Length()-1) > 1e-9 {
			t.Fatalf("sample %v not on unit sphere (length %v)", v, v.Length())
		}
	}
}

func TestSampleCosineHemisphere(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	normals := []Vec3{
		{Y: 1},
		{X: 1},
		{Z: -1},
		Vec3{X: 1, Y: 1, Z: 1}.Normalize(),
	}

	for _, n := range normals {
		for i := 0; i < 500; i++ {
			d := SampleCosineHemisphere(n, rng.Float64(), rng.Float64())
			if gomath.Abs(d.Length()-1) > 1e-9 {
				t.Fatalf("direction %v not normalized for normal %v", d, n)
			}
			if d.Dot(n) < -1e-12 {
				t.Fatalf("direction %v below hemisphere of normal %v", d, n)
			}
		}
	}
}
