package scene

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/gknext/render-go/errs"
)

// decodeInto unmarshals a glTF "extras" payload (carried as
// json.RawMessage by the underlying decoder) into dst. A nil or absent
// extras block is not an error; dst is simply left at its zero value.
func decodeInto(raw interface{}, dst any) error {
	switch v := raw.(type) {
	case nil:
		return nil
	case json.RawMessage:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

// LoadedGLTF is everything a glTF file contributes to a scene: the
// models and materials it defines, every node reachable from its default
// scene's roots (each parent before its children),
// the lights tagged via the arealight extra, and the sky/sun/camera
// settings carried as document-level extras.
type LoadedGLTF struct {
	AssetID   uuid.UUID
	Models    []Model
	Materials []Material
	Nodes     []*Node
	Lights    []Light
	Env       Environment
}

// sceneExtras mirrors the custom top-level extras keys a scene file may
// carry: SkyIdx, SkyIntensity, SkyRotation, SunIntensity, SunRotation,
// WithSun, CamSpeed, NoSky.
type sceneExtras struct {
	SkyIdx       *int32   `json:"SkyIdx"`
	SkyIntensity *float32 `json:"SkyIntensity"`
	SkyRotation  *float32 `json:"SkyRotation"`
	SunIntensity *float32 `json:"SunIntensity"`
	SunRotation  *[2]float32 `json:"SunRotation"`
	WithSun      *bool    `json:"WithSun"`
	CamSpeed     *float32 `json:"CamSpeed"`
	NoSky        *bool    `json:"NoSky"`
}

// nodeExtras mirrors the per-node custom extras a glTF node may carry:
// ior2 (layered dielectric's second IOR) and arealight (marks the node's
// mesh as an emissive quad light instead of a renderable primitive).
type nodeExtras struct {
	IOR2      *float32 `json:"ior2"`
	AreaLight *bool    `json:"arealight"`
}

// LoadGLTF parses a glTF/GLB document into a LoadedGLTF, honoring
// POSITION/NORMAL/TEXCOORD_0/TANGENT accessors, KHR_materials_ior,
// KHR_materials_transmission and KHR_materials_emissive_strength, and the
// custom extras keys above. The loaded file as a whole is given a fresh
// random uuid (AssetID); its models, materials and textures carry none.
func LoadGLTF(path string) (*LoadedGLTF, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.AssetParse, err)
	}

	out := &LoadedGLTF{AssetID: uuid.New(), Env: DefaultEnvironment()}

	if err := decodeExtras(doc.Extras, &out.Env); err != nil {
		return nil, err
	}

	materialIndex := make(map[int]uint32, len(doc.Materials))
	for i, m := range doc.Materials {
		materialIndex[i] = uint32(len(out.Materials))
		out.Materials = append(out.Materials, convertMaterial(doc, m))
	}

	modelIndex := make(map[int]int32, len(doc.Meshes))
	for i, mesh := range doc.Meshes {
		model, err := convertMesh(doc, mesh, materialIndex)
		if err != nil {
			return nil, err
		}
		model.GenerateTangentsIfAbsent()
		modelIndex[i] = int32(len(out.Models))
		out.Models = append(out.Models, model)
	}

	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = int(*doc.Scene)
	}
	if sceneIdx >= len(doc.Scenes) {
		return nil, fmt.Errorf("%w: scene index out of range", errs.AssetParse)
	}

	for _, rootIdx := range doc.Scenes[sceneIdx].Nodes {
		if err := out.walkNode(doc, int(rootIdx), modelIndex, NilHandle); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (out *LoadedGLTF) walkNode(doc *gltf.Document, idx int, modelIndex map[int]int32, parent NodeHandle) error {
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("%w: node index out of range", errs.AssetParse)
	}
	gn := doc.Nodes[idx]

	var extras nodeExtras
	_ = decodeInto(gn.Extras, &extras)

	n := newNode(uint32(len(out.Nodes)))
	n.Name = gn.Name
	n.LocalPosition = mgl32.Vec3{gn.Translation[0], gn.Translation[1], gn.Translation[2]}
	n.LocalRotation = mgl32.Quat{
		W: gn.Rotation[3],
		V: mgl32.Vec3{gn.Rotation[0], gn.Rotation[1], gn.Rotation[2]},
	}
	n.LocalScale = mgl32.Vec3{gn.Scale[0], gn.Scale[1], gn.Scale[2]}
	n.recalcLocal()
	n.worldTransform = n.localTransform
	if !parent.IsNil() {
		// Handles index out.Nodes, which Scene.Reload places slot for slot
		// at generation 1.
		p := out.Nodes[parent.Index]
		n.Parent = parent
		n.worldTransform = p.worldTransform.Mul4(n.localTransform)
		p.Children = append(p.Children, NodeHandle{Index: int32(len(out.Nodes)), Generation: 1})
	}
	n.prevWorldTransform = n.worldTransform

	if gn.Mesh != nil {
		modelID, ok := modelIndex[int(*gn.Mesh)]
		if !ok {
			return fmt.Errorf("%w: mesh index out of range", errs.AssetParse)
		}
		if extras.AreaLight != nil && *extras.AreaLight {
			light := quadLightFromNode(n, 0)
			out.Lights = append(out.Lights, light)
		} else {
			n.ModelID = modelID
		}
	}

	self := NodeHandle{Index: int32(len(out.Nodes)), Generation: 1}
	out.Nodes = append(out.Nodes, n)

	for _, childIdx := range gn.Children {
		if err := out.walkNode(doc, int(childIdx), modelIndex, self); err != nil {
			return err
		}
	}
	return nil
}

// quadLightFromNode derives a quad light from a light-tagged node's
// world transform applied to the canonical local -1..1 square, with the
// normal taken from the transformed local Y axis — not from the tagged
// mesh's own triangle vertices, whose winding says nothing about the
// node's intended up direction once rotated.
func quadLightFromNode(n *Node, materialID uint32) Light {
	t := n.worldTransform
	corner := func(lx, lz float32) mgl32.Vec3 {
		v := t.Mul4x1(mgl32.Vec4{lx, 0, lz, 1})
		return v.Vec3()
	}
	p0 := corner(-1, -1)
	p1 := corner(1, -1)
	p3 := corner(-1, 1)
	normal := t.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3()
	return NewQuadLight(p0, p1, p3, normal, materialID)
}

func convertMesh(doc *gltf.Document, mesh *gltf.Mesh, materialIndex map[int]uint32) (Model, error) {
	model := Model{Name: mesh.Name}

	for _, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			return model, fmt.Errorf("%w: primitive missing POSITION", errs.AssetParse)
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return model, fmt.Errorf("%w: %v", errs.AssetParse, err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
			if err != nil {
				return model, fmt.Errorf("%w: %v", errs.AssetParse, err)
			}
		}

		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
			if err != nil {
				return model, fmt.Errorf("%w: %v", errs.AssetParse, err)
			}
		}

		var tangents [][4]float32
		if tanIdx, ok := prim.Attributes[gltf.TANGENT]; ok {
			tangents, err = modeler.ReadTangent(doc, doc.Accessors[tanIdx], nil)
			if err != nil {
				return model, fmt.Errorf("%w: %v", errs.AssetParse, err)
			}
		}

		materialID := uint32(0)
		if prim.Material != nil {
			materialID = materialIndex[int(*prim.Material)]
		}
		section := uint32(len(model.SectionMaterials))
		model.SectionMaterials = append(model.SectionMaterials, materialID)

		base := uint32(len(model.Vertices))
		for i, p := range positions {
			v := Vertex{
				Position:        mgl32.Vec3{p[0], p[1], p[2]},
				UV:              mgl32.Vec2{},
				MaterialSection: section,
			}
			if i < len(normals) {
				v.Normal = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
			}
			if i < len(uvs) {
				v.UV = mgl32.Vec2{uvs[i][0], uvs[i][1]}
			}
			if i < len(tangents) {
				v.Tangent = mgl32.Vec4{tangents[i][0], tangents[i][1], tangents[i][2], tangents[i][3]}
			}
			model.Vertices = append(model.Vertices, v)
		}

		if prim.Indices != nil {
			idx, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return model, fmt.Errorf("%w: %v", errs.AssetParse, err)
			}
			for _, v := range idx {
				model.Indices = append(model.Indices, base+v)
			}
		} else {
			for i := range positions {
				model.Indices = append(model.Indices, base+uint32(i))
			}
		}
	}

	model.RecomputeAABB()
	return model, nil
}

func convertMaterial(doc *gltf.Document, gm *gltf.Material) Material {
	mat := DefaultMaterial()

	if gm.PBRMetallicRoughness != nil {
		pbr := gm.PBRMetallicRoughness
		mat.BaseColor = pbr.BaseColorFactor
		if pbr.MetallicFactor != nil {
			mat.Metalness = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			mat.Fuzziness = *pbr.RoughnessFactor
		}
		if pbr.BaseColorTexture != nil {
			mat.DiffuseTexture = int32(pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			mat.MRATexture = int32(pbr.MetallicRoughnessTexture.Index)
		}
	}
	if gm.NormalTexture != nil {
		mat.NormalTexture = int32(gm.NormalTexture.Index)
		if gm.NormalTexture.Scale != nil {
			mat.NormalScale = *gm.NormalTexture.Scale
		}
	}

	if ior, ok := gm.Extensions["KHR_materials_ior"]; ok {
		if m, ok := ior.(map[string]interface{}); ok {
			if v, ok := m["ior"].(float64); ok {
				mat.IOR1 = float32(v)
			}
		}
	}
	if transmission, ok := gm.Extensions["KHR_materials_transmission"]; ok {
		if m, ok := transmission.(map[string]interface{}); ok {
			if v, ok := m["transmissionFactor"].(float64); ok && v > 0.8 {
				mat.Model = Dielectric
			}
		}
	}
	if emissive, ok := gm.Extensions["KHR_materials_emissive_strength"]; ok {
		if m, ok := emissive.(map[string]interface{}); ok {
			if v, ok := m["emissiveStrength"].(float64); ok && v > 0 {
				mat.Model = DiffuseLight
				mat.BaseColor = [4]float32{
					gm.EmissiveFactor[0] * float32(v),
					gm.EmissiveFactor[1] * float32(v),
					gm.EmissiveFactor[2] * float32(v),
					1,
				}
			}
		}
	}

	var extras struct {
		IOR2 *float32 `json:"ior2"`
	}
	if decodeInto(gm.Extras, &extras) == nil && extras.IOR2 != nil {
		mat.IOR2 = *extras.IOR2
	}

	return mat
}

func decodeExtras(raw interface{}, env *Environment) error {
	var e sceneExtras
	if err := decodeInto(raw, &e); err != nil {
		return nil
	}
	if e.SkyIdx != nil {
		env.SkyTextureID = *e.SkyIdx
		env.HasSky = true
	}
	if e.NoSky != nil && *e.NoSky {
		env.HasSky = false
	}
	if e.SkyIntensity != nil {
		env.SkyIntensity = *e.SkyIntensity
	}
	if e.SkyRotation != nil {
		env.SkyRotation = *e.SkyRotation
	}
	if e.SunIntensity != nil {
		env.SunIntensity = *e.SunIntensity
	}
	if e.SunRotation != nil {
		env.SunRotation = mgl32.Vec2{e.SunRotation[0], e.SunRotation[1]}
	}
	if e.WithSun != nil {
		env.HasSun = *e.WithSun
	}
	if e.CamSpeed != nil {
		env.ControlSpeed = *e.CamSpeed
	}
	return nil
}
