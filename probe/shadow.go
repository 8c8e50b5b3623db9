package probe

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/accel"
	"github.com/gknext/render-go/task"
)

// ShadowMapSize is the screen-space sun shadow map's resolution; it is
// tiled in TileSize x TileSize chunks, one parallel task per tile.
const (
	ShadowMapSize = 4096
	TileSize      = 256
)

// ShadowBaker owns the sun shadow-map depth buffer and the tile-upload
// callback that writes a finished tile's pixels into GPU memory.
type ShadowBaker struct {
	Depth []float32 // ShadowMapSize*ShadowMapSize, NDC-space closest-hit depth

	UploadTile func(startX, startY, size int, data []float32)
}

func NewShadowBaker() *ShadowBaker {
	return &ShadowBaker{Depth: make([]float32, ShadowMapSize*ShadowMapSize)}
}

// GenShadowMap dispatches one parallel task per tile. Each task shoots
// one ray per texel from the sun's inverse light-view-projection matrix
// and records the NDC depth of the closest hit; its completion callback
// uploads that tile.
func (sb *ShadowBaker) GenShadowMap(coord *task.Coordinator, tr *accel.Structure, lightViewProj mgl32.Mat4, sunDir mgl32.Vec3) {
	if lightViewProj.Det() == 0 {
		return
	}
	invLVP := lightViewProj.Inverse()
	rayDir := sunDir.Mul(-1).Normalize()

	tilesPerRow := ShadowMapSize / TileSize
	for tx := 0; tx < tilesPerRow; tx++ {
		for ty := 0; ty < tilesPerRow; ty++ {
			startX, startY := tx*TileSize, ty*TileSize
			coord.AddParralledTask(
				func(t *task.Task) {
					sb.renderTile(tr, lightViewProj, invLVP, rayDir, startX, startY)
				},
				func(t *task.Task) {
					if sb.UploadTile == nil {
						return
					}
					tile := make([]float32, TileSize*TileSize)
					for y := 0; y < TileSize; y++ {
						copy(tile[y*TileSize:(y+1)*TileSize], sb.Depth[(startY+y)*ShadowMapSize+startX:(startY+y)*ShadowMapSize+startX+TileSize])
					}
					sb.UploadTile(startX, startY, TileSize, tile)
				},
			)
		}
	}
}

func (sb *ShadowBaker) renderTile(tr *accel.Structure, lightViewProj, invLVP mgl32.Mat4, rayDir mgl32.Vec3, startX, startY int) {
	const maxDist = 10000.0
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			pixelX, pixelY := startX+x, startY+y
			ndcX := float32(pixelX)/float32(ShadowMapSize-1)*2 - 1
			ndcY := 1 - float32(pixelY)/float32(ShadowMapSize-1)*2

			worldPos4 := invLVP.Mul4x1(mgl32.Vec4{ndcX, ndcY, 0, 1})
			if worldPos4.W() == 0 {
				continue
			}
			worldPos := mgl32.Vec3{worldPos4.X(), worldPos4.Y(), worldPos4.Z()}.Mul(1 / worldPos4.W())

			hit, ok := tr.TraceRay(worldPos, rayDir, maxDist)
			if !ok || hit.Dist >= maxDist {
				continue
			}
			hitPoint := worldPos.Add(rayDir.Mul(hit.Dist))
			hitLightSpace := lightViewProj.Mul4x1(mgl32.Vec4{hitPoint.X(), hitPoint.Y(), hitPoint.Z(), 1})
			if hitLightSpace.W() == 0 {
				continue
			}
			depth := (hitLightSpace.Z()/hitLightSpace.W() + 1) * 0.5
			sb.Depth[pixelY*ShadowMapSize+pixelX] = depth
		}
	}
}
