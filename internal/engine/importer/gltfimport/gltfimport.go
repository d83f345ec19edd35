// Package gltfimport reads glTF 2.0 files (.gltf and .glb) into
// importer.Scene values.
//
// Every primitive becomes one importer.Mesh. The base color texture (or the
// diffuse texture of KHR_materials_pbrSpecularGlossiness) fills the diffuse
// slot; specular textures come from KHR_materials_specular and
// KHR_materials_pbrSpecularGlossiness. Node transforms are not applied.
package gltfimport

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/importer"
	"github.com/Faultbox/meshview/internal/logger"
)

const (
	extSpecular           = "KHR_materials_specular"
	extSpecularGlossiness = "KHR_materials_pbrSpecularGlossiness"
)

// Source loads glTF files from disk.
type Source struct{}

var _ importer.Source = Source{}

// Load opens and converts a glTF file. Failures are logged and reported as
// an incomplete scene.
func (Source) Load(path string) *importer.Scene {
	doc, err := gltf.Open(path)
	if err != nil {
		logger.Error("failed to open scene", zap.String("path", path), zap.Error(err))
		return &importer.Scene{Incomplete: true}
	}
	scene, err := FromDocument(doc)
	if err != nil {
		logger.Error("failed to import scene", zap.String("path", path), zap.Error(err))
		return &importer.Scene{Incomplete: true}
	}
	return scene
}

// FromDocument converts a decoded glTF document. The returned scene gets an
// extra synthetic root node whose children are the root nodes of the default
// scene.
func FromDocument(doc *gltf.Document) (*importer.Scene, error) {
	c := converter{doc: doc, scene: &importer.Scene{}}

	if err := c.materials(); err != nil {
		return nil, err
	}
	if err := c.meshes(); err != nil {
		return nil, err
	}
	if err := c.nodes(); err != nil {
		return nil, err
	}
	return c.scene, nil
}

type converter struct {
	doc   *gltf.Document
	scene *importer.Scene

	// primitives[i] lists the importer meshes created for glTF mesh i.
	primitives [][]int
}

func (c *converter) materials() error {
	for i, m := range c.doc.Materials {
		mat := importer.Material{Name: m.Name}

		if pbr := m.PBRMetallicRoughness; pbr != nil && pbr.BaseColorTexture != nil {
			c.appendTexture(&mat.Diffuse, pbr.BaseColorTexture.Index, i)
		}

		var sg struct {
			DiffuseTexture            *gltf.TextureInfo `json:"diffuseTexture"`
			SpecularGlossinessTexture *gltf.TextureInfo `json:"specularGlossinessTexture"`
		}
		if decodeExtension(m.Extensions, extSpecularGlossiness, &sg) {
			if len(mat.Diffuse) == 0 && sg.DiffuseTexture != nil {
				c.appendTexture(&mat.Diffuse, sg.DiffuseTexture.Index, i)
			}
			if sg.SpecularGlossinessTexture != nil {
				c.appendTexture(&mat.Specular, sg.SpecularGlossinessTexture.Index, i)
			}
		}

		var spec struct {
			SpecularTexture      *gltf.TextureInfo `json:"specularTexture"`
			SpecularColorTexture *gltf.TextureInfo `json:"specularColorTexture"`
		}
		if decodeExtension(m.Extensions, extSpecular, &spec) {
			if spec.SpecularColorTexture != nil {
				c.appendTexture(&mat.Specular, spec.SpecularColorTexture.Index, i)
			}
			if spec.SpecularTexture != nil {
				c.appendTexture(&mat.Specular, spec.SpecularTexture.Index, i)
			}
		}

		c.scene.Materials = append(c.scene.Materials, mat)
	}
	return nil
}

// appendTexture resolves a texture index to its image URI. Images stored in
// buffer views or data URIs have no path and are skipped.
func (c *converter) appendTexture(dst *[]string, texIndex uint32, material int) {
	if int(texIndex) >= len(c.doc.Textures) {
		logger.Warn("material references missing texture",
			zap.Int("material", material), zap.Uint32("texture", texIndex))
		return
	}
	src := c.doc.Textures[texIndex].Source
	if src == nil || int(*src) >= len(c.doc.Images) {
		logger.Warn("texture has no image source",
			zap.Int("material", material), zap.Uint32("texture", texIndex))
		return
	}
	img := c.doc.Images[*src]
	if img.URI == "" || img.IsEmbeddedResource() {
		logger.Warn("embedded texture images are not supported",
			zap.Int("material", material), zap.Uint32("image", *src))
		return
	}
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		uri = img.URI
	}
	*dst = append(*dst, uri)
}

func decodeExtension(exts gltf.Extensions, name string, v any) bool {
	ext, ok := exts[name]
	if !ok {
		return false
	}
	var raw []byte
	switch e := ext.(type) {
	case json.RawMessage:
		raw = e
	case []byte:
		raw = e
	default:
		var err error
		if raw, err = json.Marshal(e); err != nil {
			return false
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		logger.Warn("malformed material extension", zap.String("extension", name), zap.Error(err))
		return false
	}
	return true
}

func (c *converter) meshes() error {
	c.primitives = make([][]int, len(c.doc.Meshes))
	for mi, m := range c.doc.Meshes {
		for pi, p := range m.Primitives {
			if p.Mode != gltf.PrimitiveTriangles {
				logger.Warn("skipping non-triangle primitive",
					zap.String("mesh", m.Name), zap.Int("primitive", pi))
				continue
			}
			mesh, err := c.primitive(m.Name, p)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			c.primitives[mi] = append(c.primitives[mi], len(c.scene.Meshes))
			c.scene.Meshes = append(c.scene.Meshes, mesh)
		}
	}
	return nil
}

func (c *converter) accessor(index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(c.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	return c.doc.Accessors[index], nil
}

func (c *converter) primitive(name string, p *gltf.Primitive) (importer.Mesh, error) {
	mesh := importer.Mesh{Name: name, Material: importer.NoMaterial}

	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return mesh, fmt.Errorf("no %s attribute", gltf.POSITION)
	}
	acr, err := c.accessor(posIdx)
	if err != nil {
		return mesh, err
	}
	if mesh.Positions, err = modeler.ReadPosition(c.doc, acr, nil); err != nil {
		return mesh, fmt.Errorf("reading positions: %w", err)
	}

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		if acr, err = c.accessor(idx); err != nil {
			return mesh, err
		}
		if mesh.Normals, err = modeler.ReadNormal(c.doc, acr, nil); err != nil {
			return mesh, fmt.Errorf("reading normals: %w", err)
		}
	}

	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = c.accessor(idx); err != nil {
			return mesh, err
		}
		if mesh.TexCoords, err = modeler.ReadTextureCoord(c.doc, acr, nil); err != nil {
			return mesh, fmt.Errorf("reading texture coordinates: %w", err)
		}
	}

	var indices []uint32
	if p.Indices != nil {
		if acr, err = c.accessor(*p.Indices); err != nil {
			return mesh, err
		}
		if indices, err = modeler.ReadIndices(c.doc, acr, nil); err != nil {
			return mesh, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(mesh.Positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return mesh, fmt.Errorf("%d indices do not form whole triangles", len(indices))
	}
	mesh.Faces = make([][]uint32, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		mesh.Faces = append(mesh.Faces, indices[i:i+3:i+3])
	}

	if p.Material != nil {
		mesh.Material = importer.MaterialAt(int(*p.Material))
	}
	return mesh, nil
}

func (c *converter) nodes() error {
	for i, n := range c.doc.Nodes {
		node := importer.Node{Name: n.Name, Children: toInts(n.Children)}
		if n.Mesh != nil {
			if int(*n.Mesh) >= len(c.primitives) {
				return fmt.Errorf("node %d: mesh %d out of range", i, *n.Mesh)
			}
			node.Meshes = append(node.Meshes, c.primitives[*n.Mesh]...)
		}
		c.scene.Nodes = append(c.scene.Nodes, node)
	}

	root := importer.Node{Name: "root", Children: c.rootNodes()}
	c.scene.Root = len(c.scene.Nodes)
	c.scene.Nodes = append(c.scene.Nodes, root)
	return nil
}

// rootNodes returns the root nodes of the default scene, or every node that
// is nobody's child when the document declares no scenes.
func (c *converter) rootNodes() []int {
	if len(c.doc.Scenes) > 0 {
		s := 0
		if c.doc.Scene != nil && int(*c.doc.Scene) < len(c.doc.Scenes) {
			s = int(*c.doc.Scene)
		}
		return toInts(c.doc.Scenes[s].Nodes)
	}

	isChild := make([]bool, len(c.doc.Nodes))
	for _, n := range c.doc.Nodes {
		for _, ch := range n.Children {
			if int(ch) < len(isChild) {
				isChild[ch] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

// toInts converts glTF indices to the int indices used by importer.Scene.
func toInts(v []uint32) []int {
	if len(v) == 0 {
		return nil
	}
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}
