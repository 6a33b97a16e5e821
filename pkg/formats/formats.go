// Package formats provides parsers for renderer input files: YAML scene
// descriptions and ASCII PLY triangle meshes.
package formats
