package formats

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scene description errors.
var (
	ErrNoCamera          = errors.New("scene has no camera")
	ErrNoObjects         = errors.New("scene has no objects")
	ErrInvalidFOV        = errors.New("camera fov must be in (0, 180)")
	ErrDuplicateMaterial = errors.New("duplicate material name")
	ErrInvalidColor      = errors.New("material color outside [0, 1]")
	ErrInvalidEmittance  = errors.New("material emittance must be >= 0")
	ErrUnknownMaterial   = errors.New("object references unknown material")
	ErrUnknownObjectType = errors.New("unknown object type")
)

// Object type names accepted in scene files.
const (
	ObjectSphere = "sphere"
	ObjectBox    = "box"
	ObjectMesh   = "mesh"
)

// CameraDesc describes the camera in a scene file.
type CameraDesc struct {
	Position [3]float64 `yaml:"position"`
	LookAt   [3]float64 `yaml:"look_at"`
	Up       [3]float64 `yaml:"up"`
	FOV      float64    `yaml:"fov"`
	// Aperture > 0 together with FocalDistance > 0 enables the thin-lens
	// depth-of-field mode. Zero means a pinhole camera.
	Aperture      float64 `yaml:"aperture"`
	FocalDistance float64 `yaml:"focal_distance"`
}

// MaterialDesc describes one surface material. Emittance >= 1 marks the
// material as a light source.
type MaterialDesc struct {
	Name         string     `yaml:"name"`
	Color        [3]float64 `yaml:"color"`
	Emittance    float64    `yaml:"emittance"`
	Reflectivity float64    `yaml:"reflectivity"`
}

// ObjectDesc describes one scene object. Which fields are meaningful
// depends on Type: Center/Radius for spheres, Min/Max for boxes,
// PLY/Translate/Scale for meshes.
type ObjectDesc struct {
	Type     string `yaml:"type"`
	Material string `yaml:"material"`

	// Sphere
	Center [3]float64 `yaml:"center"`
	Radius float64    `yaml:"radius"`

	// Box (axis-aligned)
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`

	// Mesh: path to a PLY file, resolved relative to the scene file.
	// Scale defaults to 1 when omitted.
	PLY       string     `yaml:"ply"`
	Translate [3]float64 `yaml:"translate"`
	Scale     float64    `yaml:"scale"`
}

// SceneFile is a parsed scene description.
type SceneFile struct {
	Camera    *CameraDesc    `yaml:"camera"`
	Materials []MaterialDesc `yaml:"materials"`
	Objects   []ObjectDesc   `yaml:"objects"`
}

// ParseScene parses a YAML scene description and validates it.
func ParseScene(data []byte) (*SceneFile, error) {
	var sf SceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing scene yaml: %w", err)
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

// ParseSceneFile reads and parses a scene description from a file.
func ParseSceneFile(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return ParseScene(data)
}

// Validate checks the description for structural errors: camera presence,
// material name uniqueness, color ranges, and object/material references.
// Geometric validity (radii, extents, mesh contents) is checked when the
// scene is built.
func (sf *SceneFile) Validate() error {
	if sf.Camera == nil {
		return ErrNoCamera
	}
	if sf.Camera.FOV <= 0 || sf.Camera.FOV >= 180 {
		return fmt.Errorf("%w: got %g", ErrInvalidFOV, sf.Camera.FOV)
	}
	if len(sf.Objects) == 0 {
		return ErrNoObjects
	}

	names := make(map[string]bool, len(sf.Materials))
	for _, m := range sf.Materials {
		if names[m.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateMaterial, m.Name)
		}
		names[m.Name] = true

		for _, c := range m.Color {
			if c < 0 || c > 1 {
				return fmt.Errorf("%w: material %q color %v", ErrInvalidColor, m.Name, m.Color)
			}
		}
		if m.Emittance < 0 {
			return fmt.Errorf("%w: material %q", ErrInvalidEmittance, m.Name)
		}
	}

	for i, o := range sf.Objects {
		switch o.Type {
		case ObjectSphere, ObjectBox, ObjectMesh:
		default:
			return fmt.Errorf("%w: object %d type %q", ErrUnknownObjectType, i, o.Type)
		}
		if !names[o.Material] {
			return fmt.Errorf("%w: object %d material %q", ErrUnknownMaterial, i, o.Material)
		}
	}

	return nil
}

// MaterialIndex returns the index of the named material, or -1.
func (sf *SceneFile) MaterialIndex(name string) int {
	for i, m := range sf.Materials {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// DefaultScene returns a built-in Cornell-style scene: a white box, a lamp
// under the ceiling, and a diffuse plus a mirrored sphere. Used when no
// scene file is given.
func DefaultScene() *SceneFile {
	return &SceneFile{
		Camera: &CameraDesc{
			Position: [3]float64{0, 5, 10.5},
			LookAt:   [3]float64{0, 5, 0},
			Up:       [3]float64{0, 1, 0},
			FOV:      45,
		},
		Materials: []MaterialDesc{
			{Name: "white", Color: [3]float64{0.85, 0.85, 0.85}},
			{Name: "red", Color: [3]float64{0.75, 0.15, 0.15}},
			{Name: "green", Color: [3]float64{0.15, 0.75, 0.15}},
			{Name: "blue", Color: [3]float64{0.25, 0.35, 0.85}},
			{Name: "mirror", Color: [3]float64{0.95, 0.95, 0.95}, Reflectivity: 1},
			{Name: "lamp", Color: [3]float64{1, 1, 1}, Emittance: 8},
		},
		Objects: []ObjectDesc{
			// Light panel under the ceiling.
			{Type: ObjectBox, Material: "lamp", Min: [3]float64{-1.5, 9.8, -1.5}, Max: [3]float64{1.5, 9.99, 1.5}},
			// Floor, ceiling, back wall, side walls.
			{Type: ObjectBox, Material: "white", Min: [3]float64{-5, -0.2, -5}, Max: [3]float64{5, 0, 5}},
			{Type: ObjectBox, Material: "white", Min: [3]float64{-5, 10, -5}, Max: [3]float64{5, 10.2, 5}},
			{Type: ObjectBox, Material: "white", Min: [3]float64{-5, 0, -5.2}, Max: [3]float64{5, 10, -5}},
			{Type: ObjectBox, Material: "red", Min: [3]float64{-5.2, 0, -5}, Max: [3]float64{-5, 10, 5}},
			{Type: ObjectBox, Material: "green", Min: [3]float64{5, 0, -5}, Max: [3]float64{5.2, 10, 5}},
			// Spheres on the floor.
			{Type: ObjectSphere, Material: "blue", Center: [3]float64{-2, 1.5, -1}, Radius: 1.5},
			{Type: ObjectSphere, Material: "mirror", Center: [3]float64{2, 1.8, -2}, Radius: 1.8},
		},
	}
}
