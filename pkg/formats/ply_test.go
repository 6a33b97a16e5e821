package formats

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lumen-render/lumen/pkg/math"
)

// buildPLY assembles an ASCII PLY file from header fields and body lines.
func buildPLY(vertexProps []string, vertices, faces []string) string {
	var b strings.Builder
	b.WriteString("ply\n")
	b.WriteString("format ascii 1.0\n")
	b.WriteString("comment generated for tests\n")
	fmt.Fprintf(&b, "element vertex %d\n", len(vertices))
	for _, p := range vertexProps {
		fmt.Fprintf(&b, "property float %s\n", p)
	}
	fmt.Fprintf(&b, "element face %d\n", len(faces))
	b.WriteString("property list uchar int vertex_indices\n")
	b.WriteString("end_header\n")
	for _, v := range vertices {
		b.WriteString(v)
		b.WriteString("\n")
	}
	for _, f := range faces {
		b.WriteString(f)
		b.WriteString("\n")
	}
	return b.String()
}

func TestParsePLY_Triangle(t *testing.T) {
	data := buildPLY(
		[]string{"x", "y", "z"},
		[]string{"0 0 0", "1 0 0", "0 1 0"},
		[]string{"3 0 1 2"},
	)

	mesh, err := ParsePLY([]byte(data))
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}

	if len(mesh.Vertices) != 3 {
		t.Errorf("expected 3 vertices, got %d", len(mesh.Vertices))
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("expected 1 triangle, got %d", mesh.TriangleCount())
	}
	if len(mesh.Normals) != 0 {
		t.Errorf("expected no normals, got %d", len(mesh.Normals))
	}
	if mesh.Vertices[1] != (math.Vec3{X: 1}) {
		t.Errorf("vertex 1 = %v, want (1, 0, 0)", mesh.Vertices[1])
	}
}

func TestParsePLY_QuadFanTriangulation(t *testing.T) {
	data := buildPLY(
		[]string{"x", "y", "z"},
		[]string{"0 0 0", "1 0 0", "1 1 0", "0 1 0"},
		[]string{"4 0 1 2 3"},
	)

	mesh, err := ParsePLY([]byte(data))
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}

	if mesh.TriangleCount() != 2 {
		t.Fatalf("expected 2 triangles from quad, got %d", mesh.TriangleCount())
	}
	wantFaces := []int{0, 1, 2, 0, 2, 3}
	for i, w := range wantFaces {
		if mesh.Faces[i] != w {
			t.Errorf("face index %d = %d, want %d", i, mesh.Faces[i], w)
		}
	}
}

func TestParsePLY_Normals(t *testing.T) {
	data := buildPLY(
		[]string{"x", "y", "z", "nx", "ny", "nz"},
		[]string{"0 0 0 0 0 1", "1 0 0 0 0 1", "0 1 0 0 0 1"},
		[]string{"3 0 1 2"},
	)

	mesh, err := ParsePLY([]byte(data))
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}

	if len(mesh.Normals) != 3 {
		t.Fatalf("expected 3 normals, got %d", len(mesh.Normals))
	}
	for i, n := range mesh.Normals {
		if n != (math.Vec3{Z: 1}) {
			t.Errorf("normal %d = %v, want (0, 0, 1)", i, n)
		}
	}
}

func TestParsePLY_ExtraProperties(t *testing.T) {
	// Coordinate columns are found by name even when interleaved with
	// properties the renderer does not use.
	data := buildPLY(
		[]string{"red", "x", "y", "z", "alpha"},
		[]string{"255 0 0 0 1", "255 1 0 0 1", "255 0 1 0 1"},
		[]string{"3 0 1 2"},
	)

	mesh, err := ParsePLY([]byte(data))
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	if mesh.Vertices[1] != (math.Vec3{X: 1}) {
		t.Errorf("vertex 1 = %v, want (1, 0, 0)", mesh.Vertices[1])
	}
}

func TestParsePLY_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{
			name: "bad magic",
			data: "obj\nformat ascii 1.0\nend_header\n",
			want: ErrInvalidPLYMagic,
		},
		{
			name: "binary format",
			data: "ply\nformat binary_little_endian 1.0\nelement vertex 0\nelement face 0\nend_header\n",
			want: ErrUnsupportedPLYFormat,
		},
		{
			name: "missing end_header",
			data: "ply\nformat ascii 1.0\nelement vertex 0\n",
			want: ErrInvalidPLYHeader,
		},
		{
			name: "missing coordinates",
			data: "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n0 0\n",
			want: ErrInvalidPLYHeader,
		},
		{
			name: "truncated header",
			data: "ply\nformat ascii 1.0\nelement ver",
			want: ErrInvalidPLYHeader,
		},
		{
			name: "truncated vertices",
			data: "ply\nformat ascii 1.0\nelement vertex 3\n" +
				"property float x\nproperty float y\nproperty float z\n" +
				"element face 0\nproperty list uchar int vertex_indices\n" +
				"end_header\n0 0 0\n1 0 0\n",
			want: ErrTruncatedPLYData,
		},
		{
			name: "missing face line",
			data: "ply\nformat ascii 1.0\nelement vertex 3\n" +
				"property float x\nproperty float y\nproperty float z\n" +
				"element face 2\nproperty list uchar int vertex_indices\n" +
				"end_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 2\n",
			want: ErrTruncatedPLYData,
		},
		{
			name: "face index out of range",
			data: buildPLY([]string{"x", "y", "z"},
				[]string{"0 0 0", "1 0 0", "0 1 0"}, []string{"3 0 1 9"}),
			want: ErrInvalidPLYFace,
		},
		{
			name: "degenerate face",
			data: buildPLY([]string{"x", "y", "z"},
				[]string{"0 0 0", "1 0 0", "0 1 0"}, []string{"2 0 1"}),
			want: ErrInvalidPLYFace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePLY([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParsePLY error = %v, want %v", err, tt.want)
			}
		})
	}
}
