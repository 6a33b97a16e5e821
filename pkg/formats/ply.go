package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lumen-render/lumen/pkg/math"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic      = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat = errors.New("unsupported PLY format: only ascii 1.0")
	ErrInvalidPLYHeader     = errors.New("invalid PLY header")
	ErrTruncatedPLYData     = errors.New("truncated PLY data")
	ErrInvalidPLYFace       = errors.New("invalid PLY face")
)

// PLYMesh is a parsed triangle mesh. Faces holds vertex indices, three per
// triangle; polygons in the file are fan-triangulated. Normals is empty
// when the file carries no per-vertex normals.
type PLYMesh struct {
	Vertices []math.Vec3
	Normals  []math.Vec3
	Faces    []int
}

// TriangleCount returns the number of triangles in the mesh.
func (m *PLYMesh) TriangleCount() int {
	return len(m.Faces) / 3
}

// plyHeader carries the layout discovered while parsing the header.
type plyHeader struct {
	vertexCount int
	faceCount   int

	// Column indices of the coordinate properties within a vertex line.
	x, y, z    int
	nx, ny, nz int
	hasNormals bool

	vertexProps int // total scalar properties per vertex line
}

// ParsePLY parses an ASCII PLY triangle mesh.
func ParsePLY(data []byte) (*PLYMesh, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	header, err := parsePLYHeader(scanner)
	if err != nil {
		return nil, err
	}

	mesh := &PLYMesh{
		Vertices: make([]math.Vec3, 0, header.vertexCount),
		Faces:    make([]int, 0, header.faceCount*3),
	}
	if header.hasNormals {
		mesh.Normals = make([]math.Vec3, 0, header.vertexCount)
	}

	for i := 0; i < header.vertexCount; i++ {
		fields, err := nextDataLine(scanner)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d of %d", ErrTruncatedPLYData, i, header.vertexCount)
		}
		if len(fields) < header.vertexProps {
			return nil, fmt.Errorf("%w: vertex %d has %d properties, want %d",
				ErrTruncatedPLYData, i, len(fields), header.vertexProps)
		}

		v, err := parseVec3At(fields, header.x, header.y, header.z)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		mesh.Vertices = append(mesh.Vertices, v)

		if header.hasNormals {
			n, err := parseVec3At(fields, header.nx, header.ny, header.nz)
			if err != nil {
				return nil, fmt.Errorf("vertex %d normal: %w", i, err)
			}
			mesh.Normals = append(mesh.Normals, n)
		}
	}

	for i := 0; i < header.faceCount; i++ {
		fields, err := nextDataLine(scanner)
		if err != nil {
			return nil, fmt.Errorf("%w: face %d of %d", ErrTruncatedPLYData, i, header.faceCount)
		}

		count, err := strconv.Atoi(fields[0])
		if err != nil || count < 3 || len(fields) < 1+count {
			return nil, fmt.Errorf("%w: face %d", ErrInvalidPLYFace, i)
		}

		indices := make([]int, count)
		for j := 0; j < count; j++ {
			idx, err := strconv.Atoi(fields[1+j])
			if err != nil || idx < 0 || idx >= len(mesh.Vertices) {
				return nil, fmt.Errorf("%w: face %d index %q out of range", ErrInvalidPLYFace, i, fields[1+j])
			}
			indices[j] = idx
		}

		// Fan-triangulate polygons with more than three vertices.
		for j := 1; j+1 < count; j++ {
			mesh.Faces = append(mesh.Faces, indices[0], indices[j], indices[j+1])
		}
	}

	return mesh, nil
}

// ParsePLYFile reads and parses a PLY mesh from a file.
func ParsePLYFile(path string) (*PLYMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLY file: %w", err)
	}
	return ParsePLY(data)
}

// parsePLYHeader consumes header lines up to and including end_header.
func parsePLYHeader(scanner *bufio.Scanner) (*plyHeader, error) {
	if !scanner.Scan() {
		return nil, ErrInvalidPLYMagic
	}
	if strings.TrimSpace(scanner.Text()) != "ply" {
		return nil, ErrInvalidPLYMagic
	}

	header := &plyHeader{x: -1, y: -1, z: -1, nx: -1, ny: -1, nz: -1}
	currentElement := ""
	sawFormat := false
	sawEnd := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "comment", "obj_info":
			// Ignored.

		case "format":
			if len(fields) < 3 || fields[1] != "ascii" {
				return nil, ErrUnsupportedPLYFormat
			}
			sawFormat = true

		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: element count %q", ErrInvalidPLYHeader, fields[2])
			}
			currentElement = fields[1]
			switch currentElement {
			case "vertex":
				header.vertexCount = count
			case "face":
				header.faceCount = count
			}

		case "property":
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			if currentElement != "vertex" || fields[1] == "list" {
				continue
			}
			// Scalar vertex property: record coordinate columns by name.
			col := header.vertexProps
			switch fields[len(fields)-1] {
			case "x":
				header.x = col
			case "y":
				header.y = col
			case "z":
				header.z = col
			case "nx":
				header.nx = col
			case "ny":
				header.ny = col
			case "nz":
				header.nz = col
			}
			header.vertexProps++

		case "end_header":
			sawEnd = true
		}

		if sawEnd {
			break
		}
	}

	if !sawFormat {
		return nil, ErrUnsupportedPLYFormat
	}
	if !sawEnd {
		return nil, fmt.Errorf("%w: missing end_header", ErrInvalidPLYHeader)
	}
	if header.x < 0 || header.y < 0 || header.z < 0 {
		return nil, fmt.Errorf("%w: vertex element missing x/y/z", ErrInvalidPLYHeader)
	}
	header.hasNormals = header.nx >= 0 && header.ny >= 0 && header.nz >= 0
	return header, nil
}

// nextDataLine returns the fields of the next non-empty line.
func nextDataLine(scanner *bufio.Scanner) ([]string, error) {
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			return fields, nil
		}
	}
	return nil, ErrTruncatedPLYData
}

// parseVec3At parses three float columns out of a vertex line.
func parseVec3At(fields []string, xi, yi, zi int) (math.Vec3, error) {
	x, err := strconv.ParseFloat(fields[xi], 64)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("%w: %q", ErrTruncatedPLYData, fields[xi])
	}
	y, err := strconv.ParseFloat(fields[yi], 64)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("%w: %q", ErrTruncatedPLYData, fields[yi])
	}
	z, err := strconv.ParseFloat(fields[zi], 64)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("%w: %q", ErrTruncatedPLYData, fields[zi])
	}
	return math.Vec3{X: x, Y: y, Z: z}, nil
}
