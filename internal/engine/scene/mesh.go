package scene

import (
	"github.com/lumen-render/lumen/pkg/math"
)

// Mesh is a triangle list: three consecutive vertices per triangle.
// Normals holds one unit normal per vertex; Build computes flat per-face
// normals when the source mesh carries none.
type Mesh struct {
	Vertices []math.Vec3
	Normals  []math.Vec3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 3
}

// Bounds returns the axis-aligned bounds of all vertices.
func (m *Mesh) Bounds() (lo, hi math.Vec3) {
	if len(m.Vertices) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = math.Vec3{
			X: min(lo.X, v.X),
			Y: min(lo.Y, v.Y),
			Z: min(lo.Z, v.Z),
		}
		hi = math.Vec3{
			X: max(hi.X, v.X),
			Y: max(hi.Y, v.Y),
			Z: max(hi.Z, v.Z),
		}
	}
	return lo, hi
}

// computeFlatNormals fills Normals with the face normal at every vertex.
func (m *Mesh) computeFlatNormals() {
	m.Normals = make([]math.Vec3, len(m.Vertices))
	for tri := 0; tri < m.TriangleCount(); tri++ {
		v0 := m.Vertices[tri*3]
		v1 := m.Vertices[tri*3+1]
		v2 := m.Vertices[tri*3+2]
		n := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
		m.Normals[tri*3] = n
		m.Normals[tri*3+1] = n
		m.Normals[tri*3+2] = n
	}
}

// intersectTriangle runs the Möller-Trumbore test against triangle tri.
// The returned normal is interpolated from vertex normals and flipped to
// face the ray origin.
func (m *Mesh) intersectTriangle(r math.Ray, tri int) (Hit, bool) {
	v0 := m.Vertices[tri*3]
	v1 := m.Vertices[tri*3+1]
	v2 := m.Vertices[tri*3+2]

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)

	h := r.Dir.Cross(edge2)
	det := edge1.Dot(h)
	if det > -1e-12 && det < 1e-12 {
		// Ray parallel to the triangle plane.
		return Hit{}, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(v0)
	u := s.Dot(h) * invDet
	if u < 0 || u > 1 {
		return Hit{}, false
	}

	q := s.Cross(edge1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}

	t := edge2.Dot(q) * invDet
	if t < tMin {
		return Hit{}, false
	}

	w := 1 - u - v
	normal := m.Normals[tri*3].Scale(w).
		Add(m.Normals[tri*3+1].Scale(u)).
		Add(m.Normals[tri*3+2].Scale(v)).
		Normalize()

	return Hit{
		T:      t,
		Point:  r.At(t),
		Normal: faceNormal(r.Dir, normal),
	}, true
}
