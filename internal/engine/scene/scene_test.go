package scene

import (
	"errors"
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumen-render/lumen/pkg/formats"
	"github.com/lumen-render/lumen/pkg/math"
)

// sceneFile builds a minimal valid description around the given objects.
func sceneFile(materials []formats.MaterialDesc, objects []formats.ObjectDesc) *formats.SceneFile {
	return &formats.SceneFile{
		Camera: &formats.CameraDesc{
			Position: [3]float64{0, 0, 5},
			LookAt:   [3]float64{0, 0, 0},
			Up:       [3]float64{0, 1, 0},
			FOV:      45,
		},
		Materials: materials,
		Objects:   objects,
	}
}

func TestBuildLightIndexList(t *testing.T) {
	sf := sceneFile(
		[]formats.MaterialDesc{
			{Name: "white", Color: [3]float64{1, 1, 1}},
			{Name: "lamp", Color: [3]float64{1, 1, 1}, Emittance: 2},
			{Name: "dim", Color: [3]float64{1, 1, 1}, Emittance: 0.5},
		},
		[]formats.ObjectDesc{
			{Type: formats.ObjectSphere, Material: "white", Center: [3]float64{0, 0, 0}, Radius: 1},
			{Type: formats.ObjectSphere, Material: "lamp", Center: [3]float64{0, 5, 0}, Radius: 1},
			{Type: formats.ObjectBox, Material: "dim", Min: [3]float64{2, 0, 0}, Max: [3]float64{3, 1, 1}},
			{Type: formats.ObjectSphere, Material: "lamp", Center: [3]float64{0, -5, 0}, Radius: 1},
		},
	)

	sc, err := Build(sf, ".")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Only emittance >= 1 qualifies, in geometry order.
	want := []int{1, 3}
	if len(sc.Lights) != len(want) {
		t.Fatalf("expected lights %v, got %v", want, sc.Lights)
	}
	for i := range want {
		if sc.Lights[i] != want[i] {
			t.Errorf("lights[%d] = %d, want %d", i, sc.Lights[i], want[i])
		}
	}
}

func TestBuildValidation(t *testing.T) {
	white := []formats.MaterialDesc{{Name: "white", Color: [3]float64{1, 1, 1}}}

	tests := []struct {
		name    string
		objects []formats.ObjectDesc
		wantErr error
	}{
		{
			name: "zero radius",
			objects: []formats.ObjectDesc{
				{Type: formats.ObjectSphere, Material: "white", Radius: 0},
			},
			wantErr: ErrInvalidRadius,
		},
		{
			name: "negative radius",
			objects: []formats.ObjectDesc{
				{Type: formats.ObjectSphere, Material: "white", Radius: -2},
			},
			wantErr: ErrInvalidRadius,
		},
		{
			name: "inverted box",
			objects: []formats.ObjectDesc{
				{Type: formats.ObjectBox, Material: "white", Min: [3]float64{1, 0, 0}, Max: [3]float64{0, 1, 1}},
			},
			wantErr: ErrInvalidExtent,
		},
		{
			name: "negative mesh scale",
			objects: []formats.ObjectDesc{
				{Type: formats.ObjectMesh, Material: "white", PLY: "missing.ply", Scale: -1},
			},
			wantErr: ErrInvalidScale,
		},
		{
			// A description built in code skips the parser's reference
			// check; Build must reject it rather than index out of range.
			name: "unknown material",
			objects: []formats.ObjectDesc{
				{Type: formats.ObjectSphere, Material: "chrome", Radius: 1},
			},
			wantErr: formats.ErrUnknownMaterial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(sceneFile(white, tt.objects), ".")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildMeshFromPLY(t *testing.T) {
	// Single triangle facing +z, scaled by 2 and pushed back to z=-1.
	ply := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
-1 -1 0
1 -1 0
0 1 0
3 0 1 2
`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tri.ply"), []byte(ply), 0644); err != nil {
		t.Fatalf("writing mesh: %v", err)
	}

	sf := sceneFile(
		[]formats.MaterialDesc{{Name: "white", Color: [3]float64{1, 1, 1}}},
		[]formats.ObjectDesc{{
			Type:      formats.ObjectMesh,
			Material:  "white",
			PLY:       "tri.ply",
			Translate: [3]float64{0, 0, -1},
			Scale:     2,
		}},
	)

	sc, err := Build(sf, dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(sc.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(sc.Meshes))
	}

	// A ray down -z through the middle hits the transformed triangle.
	r := math.NewRay(math.Vec3{Y: 0.5, Z: 5}, math.Vec3{Z: -1})
	hit, ok := sc.Intersect(r)
	if !ok {
		t.Fatal("expected mesh hit")
	}
	if gomath.Abs(hit.T-6) > 1e-9 {
		t.Errorf("expected t=6, got %v", hit.T)
	}
	if hit.Normal.Dot(r.Dir) >= 0 {
		t.Error("normal should face the ray origin")
	}

	// A ray outside the scaled triangle misses.
	r = math.NewRay(math.Vec3{X: 3, Z: 5}, math.Vec3{Z: -1})
	if _, ok := sc.Intersect(r); ok {
		t.Error("expected miss outside the triangle")
	}
}

func TestBuildSharedMeshLoadedOnce(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tri.ply"), []byte(ply), 0644); err != nil {
		t.Fatalf("writing mesh: %v", err)
	}

	sf := sceneFile(
		[]formats.MaterialDesc{{Name: "white", Color: [3]float64{1, 1, 1}}},
		[]formats.ObjectDesc{
			{Type: formats.ObjectMesh, Material: "white", PLY: "tri.ply"},
			{Type: formats.ObjectMesh, Material: "white", PLY: "tri.ply", Translate: [3]float64{5, 0, 0}},
		},
	)

	sc, err := Build(sf, dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(sc.Meshes) != 1 {
		t.Errorf("expected shared mesh loaded once, got %d meshes", len(sc.Meshes))
	}
	if len(sc.Geometry) != 2 {
		t.Errorf("expected 2 instances, got %d", len(sc.Geometry))
	}
}

func TestIntersectNearestAndTieBreak(t *testing.T) {
	near := Sphere{Center: math.Vec3{Z: -3}, Radius: 1, Mat: 0}
	far := Sphere{Center: math.Vec3{Z: -8}, Radius: 1, Mat: 0}
	sc := &Scene{
		Geometry:  []Primitive{far, near, near},
		Materials: []Material{{Name: "white", Color: math.Vec3{X: 1, Y: 1, Z: 1}}},
	}

	r := math.NewRay(math.Vec3{}, math.Vec3{Z: -1})
	hit, ok := sc.Intersect(r)
	if !ok {
		t.Fatal("expected hit")
	}
	if gomath.Abs(hit.T-2) > 1e-9 {
		t.Errorf("expected nearest t=2, got %v", hit.T)
	}
	// Two identical spheres tie exactly; the first-found index wins.
	if hit.GeomIndex != 1 {
		t.Errorf("tie should keep first-found index 1, got %d", hit.GeomIndex)
	}
}

func TestMaterialIsLight(t *testing.T) {
	tests := []struct {
		emittance float64
		want      bool
	}{
		{0, false},
		{0.99, false},
		{1, true},
		{5, true},
	}
	for _, tt := range tests {
		m := Material{Emittance: tt.emittance}
		if m.IsLight() != tt.want {
			t.Errorf("IsLight() with emittance %v = %v, want %v", tt.emittance, m.IsLight(), tt.want)
		}
	}
}
