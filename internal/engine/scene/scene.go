// Package scene holds the read-only scene mirror the tracer works against:
// geometry variants, meshes, materials and the light index list. A Scene is
// built once from a parsed description and never mutated afterwards, so any
// number of rays (and sessions) can share it concurrently.
package scene

import (
	"errors"
	"fmt"
	gomath "math"
	"os"
	"path/filepath"

	"github.com/lumen-render/lumen/pkg/formats"
	"github.com/lumen-render/lumen/pkg/math"
)

// Scene build errors.
var (
	ErrInvalidRadius = errors.New("sphere radius must be positive")
	ErrInvalidExtent = errors.New("box must have positive extent on every axis")
	ErrEmptyMesh     = errors.New("mesh has no triangles")
	ErrInvalidScale  = errors.New("mesh scale must be positive")
)

// Material is one surface description. Emittance >= 1 marks a light
// source; Reflectivity in [0, 1] is the probability of a mirror bounce.
type Material struct {
	Name         string
	Color        math.Vec3
	Emittance    float64
	Reflectivity float64
}

// IsLight reports whether the material is an emitter.
func (m Material) IsLight() bool {
	return m.Emittance >= 1
}

// Scene is the device scene mirror: everything the tracer reads while
// following rays.
type Scene struct {
	Geometry  []Primitive
	Meshes    []*Mesh
	Materials []Material
	// Lights indexes Geometry entries whose material is an emitter, in
	// geometry order. Used for direct light sampling.
	Lights []int
}

// Build assembles a Scene from a parsed description. Mesh files referenced
// by objects are loaded relative to baseDir. Geometric validity (radii,
// extents, mesh contents) and material references are checked here; the
// remaining structural validity was already checked by the formats parser.
func Build(sf *formats.SceneFile, baseDir string) (*Scene, error) {
	sc := &Scene{
		Geometry:  make([]Primitive, 0, len(sf.Objects)),
		Materials: make([]Material, len(sf.Materials)),
	}

	for i, m := range sf.Materials {
		sc.Materials[i] = Material{
			Name:         m.Name,
			Color:        vec3(m.Color),
			Emittance:    m.Emittance,
			Reflectivity: m.Reflectivity,
		}
	}

	// Mesh files are loaded once even when several objects reference the
	// same path.
	meshByPath := make(map[string]int)

	for i, o := range sf.Objects {
		// The parser validates references on its own path; descriptions
		// constructed in code reach Build unvalidated.
		mat := sf.MaterialIndex(o.Material)
		if mat < 0 {
			return nil, fmt.Errorf("%w: object %d material %q", formats.ErrUnknownMaterial, i, o.Material)
		}

		switch o.Type {
		case formats.ObjectSphere:
			if o.Radius <= 0 {
				return nil, fmt.Errorf("%w: object %d", ErrInvalidRadius, i)
			}
			sc.Geometry = append(sc.Geometry, Sphere{
				Center: vec3(o.Center),
				Radius: o.Radius,
				Mat:    mat,
			})

		case formats.ObjectBox:
			min, max := vec3(o.Min), vec3(o.Max)
			if min.X >= max.X || min.Y >= max.Y || min.Z >= max.Z {
				return nil, fmt.Errorf("%w: object %d", ErrInvalidExtent, i)
			}
			sc.Geometry = append(sc.Geometry, Box{Min: min, Max: max, Mat: mat})

		case formats.ObjectMesh:
			scale := o.Scale
			if scale == 0 {
				scale = 1
			}
			if scale < 0 {
				return nil, fmt.Errorf("%w: object %d", ErrInvalidScale, i)
			}

			meshID, ok := meshByPath[o.PLY]
			if !ok {
				mesh, err := loadMesh(filepath.Join(baseDir, o.PLY))
				if err != nil {
					return nil, fmt.Errorf("object %d: %w", i, err)
				}
				meshID = len(sc.Meshes)
				sc.Meshes = append(sc.Meshes, mesh)
				meshByPath[o.PLY] = meshID
			}

			inst, err := newMeshInstance(sc.Meshes[meshID], meshID, mat, vec3(o.Translate), scale)
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
			sc.Geometry = append(sc.Geometry, inst)
		}
	}

	for i, g := range sc.Geometry {
		if sc.Materials[g.MaterialID()].IsLight() {
			sc.Lights = append(sc.Lights, i)
		}
	}

	return sc, nil
}

// loadMesh parses a PLY file into a flat triangle list with unit normals.
func loadMesh(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh: %w", err)
	}
	ply, err := formats.ParsePLY(data)
	if err != nil {
		return nil, fmt.Errorf("parsing mesh %s: %w", path, err)
	}

	mesh := &Mesh{
		Vertices: make([]math.Vec3, 0, len(ply.Faces)),
	}
	hasNormals := len(ply.Normals) == len(ply.Vertices) && len(ply.Normals) > 0
	if hasNormals {
		mesh.Normals = make([]math.Vec3, 0, len(ply.Faces))
	}
	for _, idx := range ply.Faces {
		mesh.Vertices = append(mesh.Vertices, ply.Vertices[idx])
		if hasNormals {
			mesh.Normals = append(mesh.Normals, ply.Normals[idx].Normalize())
		}
	}
	if !hasNormals {
		mesh.computeFlatNormals()
	}
	return mesh, nil
}

// newMeshInstance places a mesh in the scene: vertices are scaled then
// translated in place of a full transform, which covers the supported
// scene descriptions. The stored mesh is a transformed copy so several
// instances of one file stay independent.
func newMeshInstance(src *Mesh, meshID, mat int, translate math.Vec3, scale float64) (MeshInstance, error) {
	if src.TriangleCount() == 0 {
		return MeshInstance{}, ErrEmptyMesh
	}

	mesh := &Mesh{
		Vertices: make([]math.Vec3, len(src.Vertices)),
		Normals:  make([]math.Vec3, len(src.Normals)),
	}
	for i, v := range src.Vertices {
		mesh.Vertices[i] = v.Scale(scale).Add(translate)
	}
	copy(mesh.Normals, src.Normals)

	min, max := mesh.Bounds()
	// Pad bounds so rays grazing an axis-aligned face still pass the cull.
	pad := math.Vec3{X: 1e-6, Y: 1e-6, Z: 1e-6}
	return MeshInstance{
		MeshID:    meshID,
		Mat:       mat,
		mesh:      mesh,
		boundsMin: min.Sub(pad),
		boundsMax: max.Add(pad),
	}, nil
}

// Intersect finds the nearest hit along the ray across all geometry.
// Strictly smaller t replaces the current best, so equal-t ties keep the
// first-found geometry index.
func (s *Scene) Intersect(r math.Ray) (Hit, bool) {
	best := Hit{T: gomath.Inf(1)}
	found := false
	for i, g := range s.Geometry {
		hit, ok := g.Intersect(r)
		if ok && hit.T < best.T {
			hit.GeomIndex = i
			best = hit
			found = true
		}
	}
	return best, found
}

// MaterialAt returns the material of a geometry entry.
func (s *Scene) MaterialAt(geomIndex int) Material {
	return s.Materials[s.Geometry[geomIndex].MaterialID()]
}

func vec3(a [3]float64) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
