package app

import (
	"github.com/timcash/code-cad/pkg/exchange"
	"github.com/timcash/code-cad/pkg/kernel"
	"github.com/timcash/code-cad/pkg/scene"
)

// modelPath resolves the optional positional model file argument.
func modelPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return DefaultModelFile
}

// loadParts reads a model file into renderable part meshes.
func loadParts(path string) ([]*scene.PartMesh, error) {
	m, err := exchange.Load(path)
	if err != nil {
		return nil, err
	}
	parts := make([]*scene.PartMesh, 0, len(m.Parts))
	for _, p := range m.Parts {
		parts = append(parts, &scene.PartMesh{Name: p.Name, Color: p.Color, Mesh: p.Mesh})
	}
	return parts, nil
}

// mergeParts flattens part meshes into a single mesh for topology
// analysis. Part boundaries carry no meaning there; solids are found by
// surface connectivity.
func mergeParts(parts []*scene.PartMesh) *kernel.Mesh {
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		meshes = append(meshes, p.Mesh)
	}
	return kernel.Merge(meshes...)
}
