package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// validSceneYAML is a minimal well-formed scene description.
const validSceneYAML = `
camera:
  position: [0, 5, 10]
  look_at: [0, 5, 0]
  up: [0, 1, 0]
  fov: 45

materials:
  - name: white
    color: [0.8, 0.8, 0.8]
  - name: lamp
    color: [1, 1, 1]
    emittance: 5
  - name: chrome
    color: [0.9, 0.9, 0.9]
    reflectivity: 1

objects:
  - type: sphere
    material: lamp
    center: [0, 9, 0]
    radius: 1.5
  - type: box
    material: white
    min: [-5, 0, -5]
    max: [5, 0.1, 5]
  - type: mesh
    material: chrome
    ply: bunny.ply
    translate: [0, 1, 0]
    scale: 2
`

func TestParseScene_Valid(t *testing.T) {
	sf, err := ParseScene([]byte(validSceneYAML))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}

	if sf.Camera == nil {
		t.Fatal("expected camera to be set")
	}
	if sf.Camera.FOV != 45 {
		t.Errorf("expected fov 45, got %g", sf.Camera.FOV)
	}
	if sf.Camera.Position != [3]float64{0, 5, 10} {
		t.Errorf("unexpected camera position %v", sf.Camera.Position)
	}

	if len(sf.Materials) != 3 {
		t.Fatalf("expected 3 materials, got %d", len(sf.Materials))
	}
	if sf.Materials[1].Emittance != 5 {
		t.Errorf("expected lamp emittance 5, got %g", sf.Materials[1].Emittance)
	}
	if sf.Materials[2].Reflectivity != 1 {
		t.Errorf("expected chrome reflectivity 1, got %g", sf.Materials[2].Reflectivity)
	}

	if len(sf.Objects) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(sf.Objects))
	}
	if sf.Objects[0].Type != ObjectSphere || sf.Objects[0].Radius != 1.5 {
		t.Errorf("unexpected sphere object %+v", sf.Objects[0])
	}
	if sf.Objects[2].PLY != "bunny.ply" || sf.Objects[2].Scale != 2 {
		t.Errorf("unexpected mesh object %+v", sf.Objects[2])
	}
}

func TestParseScene_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "no camera",
			yaml: `
materials:
  - {name: white, color: [1, 1, 1]}
objects:
  - {type: sphere, material: white, center: [0, 0, 0], radius: 1}
`,
			want: ErrNoCamera,
		},
		{
			name: "no objects",
			yaml: `
camera: {position: [0, 0, 5], look_at: [0, 0, 0], up: [0, 1, 0], fov: 45}
materials:
  - {name: white, color: [1, 1, 1]}
`,
			want: ErrNoObjects,
		},
		{
			name: "invalid fov",
			yaml: `
camera: {position: [0, 0, 5], look_at: [0, 0, 0], up: [0, 1, 0], fov: 200}
materials:
  - {name: white, color: [1, 1, 1]}
objects:
  - {type: sphere, material: white, center: [0, 0, 0], radius: 1}
`,
			want: ErrInvalidFOV,
		},
		{
			name: "duplicate material",
			yaml: `
camera: {position: [0, 0, 5], look_at: [0, 0, 0], up: [0, 1, 0], fov: 45}
materials:
  - {name: white, color: [1, 1, 1]}
  - {name: white, color: [0.5, 0.5, 0.5]}
objects:
  - {type: sphere, material: white, center: [0, 0, 0], radius: 1}
`,
			want: ErrDuplicateMaterial,
		},
		{
			name: "color out of range",
			yaml: `
camera: {position: [0, 0, 5], look_at: [0, 0, 0], up: [0, 1, 0], fov: 45}
materials:
  - {name: hot, color: [2, 1, 1]}
objects:
  - {type: sphere, material: hot, center: [0, 0, 0], radius: 1}
`,
			want: ErrInvalidColor,
		},
		{
			name: "negative emittance",
			yaml: `
camera: {position: [0, 0, 5], look_at: [0, 0, 0], up: [0, 1, 0], fov: 45}
materials:
  - {name: dark, color: [1, 1, 1], emittance: -1}
objects:
  - {type: sphere, material: dark, center: [0, 0, 0], radius: 1}
`,
			want: ErrInvalidEmittance,
		},
		{
			name: "unknown material ref",
			yaml: `
camera: {position: [0, 0, 5], look_at: [0, 0, 0], up: [0, 1, 0], fov: 45}
materials:
  - {name: white, color: [1, 1, 1]}
objects:
  - {type: sphere, material: missing, center: [0, 0, 0], radius: 1}
`,
			want: ErrUnknownMaterial,
		},
		{
			name: "unknown object type",
			yaml: `
camera: {position: [0, 0, 5], look_at: [0, 0, 0], up: [0, 1, 0], fov: 45}
materials:
  - {name: white, color: [1, 1, 1]}
objects:
  - {type: torus, material: white}
`,
			want: ErrUnknownObjectType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene([]byte(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseScene error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseScene_InvalidYAML(t *testing.T) {
	_, err := ParseScene([]byte("camera: [not a mapping"))
	if err == nil {
		t.Error("expected error parsing invalid YAML, got nil")
	}
}

func TestParseSceneFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "scene.yaml")
	if err := os.WriteFile(path, []byte(validSceneYAML), 0644); err != nil {
		t.Fatalf("failed to write scene file: %v", err)
	}

	sf, err := ParseSceneFile(path)
	if err != nil {
		t.Fatalf("ParseSceneFile failed: %v", err)
	}
	if len(sf.Objects) != 3 {
		t.Errorf("expected 3 objects, got %d", len(sf.Objects))
	}

	if _, err := ParseSceneFile(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestMaterialIndex(t *testing.T) {
	sf, err := ParseScene([]byte(validSceneYAML))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}

	if idx := sf.MaterialIndex("lamp"); idx != 1 {
		t.Errorf("MaterialIndex(lamp) = %d, want 1", idx)
	}
	if idx := sf.MaterialIndex("nope"); idx != -1 {
		t.Errorf("MaterialIndex(nope) = %d, want -1", idx)
	}
}

func TestDefaultScene(t *testing.T) {
	sf := DefaultScene()
	if err := sf.Validate(); err != nil {
		t.Fatalf("DefaultScene does not validate: %v", err)
	}

	// The built-in scene must contain at least one light so renders are
	// not black.
	hasLight := false
	for _, m := range sf.Materials {
		if m.Emittance >= 1 {
			hasLight = true
		}
	}
	if !hasLight {
		t.Error("DefaultScene has no emissive material")
	}
}
