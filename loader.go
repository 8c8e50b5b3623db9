package engine

import (
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/errs"
	"github.com/gknext/render-go/scene"
)

// parsedScene is what a background scene-file parse produces; the
// completion phase folds it into the live Scene on the main thread.
type parsedScene struct {
	name      string
	nodes     []*scene.Node
	models    []scene.Model
	materials []scene.Material
	lights    []scene.Light
	env       scene.Environment
}

// parseSceneFile dispatches on extension: ".proc" builds one of the
// built-in procedural scenes (currently only the Cornell box); anything
// else is handed to the glTF loader. It runs off the main thread, so it
// must not touch the live Scene or any GPU resource.
func parseSceneFile(path string) (*parsedScene, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	if ext == ".proc" {
		return parseProceduralScene(name)
	}
	return parseGLTFScene(path, name)
}

// parseProceduralScene strips any leading run of digits from name (the
// scene-index prefix benchmark scene lists use, e.g. "0cornellbox") and
// builds the matching procedural scene.
func parseProceduralScene(name string) (*parsedScene, error) {
	trimmed := strings.TrimLeft(name, "0123456789")
	switch trimmed {
	case "cornellbox":
		const wallScale = 555.0
		room, light := scene.BuildCornellBox(wallScale)
		materials := scene.CornellBoxMaterials()

		accentWhiteID := uint32(len(materials))
		materials = append(materials, scene.DefaultMaterial())
		materials[accentWhiteID].BaseColor = [4]float32{0.73, 0.73, 0.73, 1}
		accentBox := scene.BuildCornellBoxAccentBox(wallScale, accentWhiteID)

		const roomModelID, accentBoxModelID = 0, 1

		roomNode := scene.NewNode(1)
		roomNode.Name = "cornellbox"
		roomNode.ModelID = roomModelID

		// Transforms mirror CornellBox()'s two box0 instances: same box
		// model, different position/rotation/scale per node.
		box0 := scene.NewNode(2)
		box0.Name = "box0"
		box0.ModelID = accentBoxModelID
		box0.SetTranslation(mgl32.Vec3{130, 0, 80})
		box0.SetRotation(mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0}))

		box1 := scene.NewNode(3)
		box1.Name = "box1"
		box1.ModelID = accentBoxModelID
		box1.SetTranslation(mgl32.Vec3{-130, 0, -80})
		box1.SetRotation(mgl32.QuatRotate(0.25, mgl32.Vec3{0, 1, 0}))
		box1.SetScale(mgl32.Vec3{1, 2, 1})

		return &parsedScene{
			name:      trimmed,
			nodes:     []*scene.Node{roomNode, box0, box1},
			models:    []scene.Model{room, accentBox},
			materials: materials,
			lights:    []scene.Light{light},
			env:       scene.DefaultEnvironment(),
		}, nil
	default:
		return nil, errs.AssetParse
	}
}

func parseGLTFScene(path, name string) (*parsedScene, error) {
	loaded, err := scene.LoadGLTF(path)
	if err != nil {
		return nil, err
	}
	return &parsedScene{
		name:      name,
		nodes:     loaded.Nodes,
		models:    loaded.Models,
		materials: loaded.Materials,
		lights:    loaded.Lights,
		env:       loaded.Env,
	}, nil
}
