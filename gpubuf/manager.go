package gpubuf

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gknext/render-go/scene"
)

// nodeProxyStride is the packed byte size of one scene.NodeProxy record on
// the GPU: instance id, model id, two 4x4 transforms, and the packed
// material-override ids.
const nodeProxyStride = 4 + 4 + 16*4 + 16*4 + scene.MaxMaterialOverrides*4

// indirectDrawStride is the packed byte size of one IndirectDrawCommand,
// matching the five uint32 fields a GPU indirect-draw call expects.
const indirectDrawStride = 4 * 5

// Manager implements scene.Uploader against a real WebGPU device: it owns
// the vertex/index/proxy/indirect-draw buffers and the per-frame uniform
// buffer, growing each geometrically as GpuBufferManager does rather than
// reallocating every frame.
type Manager struct {
	Device *wgpu.Device

	UniformBuf *wgpu.Buffer
	VertexBuf  *wgpu.Buffer
	IndexBuf   *wgpu.Buffer
	ProxyBuf   *wgpu.Buffer
	DrawBuf    *wgpu.Buffer

	Builder Builder
}

func NewManager(device *wgpu.Device) *Manager {
	return &Manager{Device: device}
}

// WriteFrame composes and uploads the per-frame uniform buffer.
func (m *Manager) WriteFrame(sc *scene.Scene, cam scene.Camera, aspect float32, vp Viewport, s Settings) UniformBufferObject {
	u := m.Builder.Compose(sc, cam, aspect, vp, s)
	m.ensureBuffer(&m.UniformBuf, "UniformBuffer", u.Bytes(), wgpu.BufferUsageUniform, 0)
	return u
}

func (m *Manager) AllocateMeshBuffers(vertexBytes, indexBytes int) error {
	m.ensureBuffer(&m.VertexBuf, "VertexBuffer", make([]byte, vertexBytes), wgpu.BufferUsageVertex, 0)
	m.ensureBuffer(&m.IndexBuf, "IndexBuffer", make([]byte, indexBytes), wgpu.BufferUsageIndex, 0)
	return nil
}

func (m *Manager) AllocateProxyBuffers(maxNodes int) error {
	m.ensureBuffer(&m.ProxyBuf, "ProxyBuffer", make([]byte, maxNodes*nodeProxyStride), wgpu.BufferUsageStorage, 0)
	m.ensureBuffer(&m.DrawBuf, "IndirectDrawBuffer", make([]byte, maxNodes*indirectDrawStride), wgpu.BufferUsageIndirect, 0)
	return nil
}

func (m *Manager) WriteProxies(proxies []scene.NodeProxy) error {
	if m.ProxyBuf == nil {
		return nil
	}
	data := make([]byte, len(proxies)*nodeProxyStride)
	for i, p := range proxies {
		off := i * nodeProxyStride
		binary.LittleEndian.PutUint32(data[off:], p.InstanceID)
		binary.LittleEndian.PutUint32(data[off+4:], uint32(p.ModelID))
		off += 8
		off = putMat4(data, off, p.WorldTransform)
		off = putMat4(data, off, p.PrevWorldTransform)
		for _, matID := range p.MaterialIDs {
			binary.LittleEndian.PutUint32(data[off:], matID)
			off += 4
		}
	}
	m.Device.GetQueue().WriteBuffer(m.ProxyBuf, 0, data)
	return nil
}

func (m *Manager) WriteIndirectDraws(draws []scene.IndirectDrawCommand) error {
	if m.DrawBuf == nil {
		return nil
	}
	data := make([]byte, len(draws)*indirectDrawStride)
	for i, d := range draws {
		off := i * indirectDrawStride
		binary.LittleEndian.PutUint32(data[off:], d.FirstIndex)
		binary.LittleEndian.PutUint32(data[off+4:], d.IndexCount)
		binary.LittleEndian.PutUint32(data[off+8:], uint32(d.VertexOffset))
		binary.LittleEndian.PutUint32(data[off+12:], d.FirstInstance)
		binary.LittleEndian.PutUint32(data[off+16:], d.InstanceCount)
	}
	m.Device.GetQueue().WriteBuffer(m.DrawBuf, 0, data)
	return nil
}

func putMat4(dst []byte, off int, m mgl32.Mat4) int {
	for _, v := range m {
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(v))
		off += 4
	}
	return off
}

// ensureBuffer grows *buf geometrically (1.5x) rather than reallocating on
// every size change, mirroring a GPU buffer manager's amortized-growth
// discipline; it always writes data after (re)allocating.
func (m *Manager) ensureBuffer(buf **wgpu.Buffer, label string, data []byte, usage wgpu.BufferUsage, headroom int) bool {
	needed := uint64(len(data) + headroom)
	usage |= wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

	current := *buf
	if current == nil || current.GetSize() < needed {
		newSize := needed
		if current != nil {
			if grown := uint64(float64(current.GetSize()) * 1.5); grown > newSize {
				newSize = grown
			}
			current.Release()
		}
		desc := &wgpu.BufferDescriptor{Label: label, Size: newSize, Usage: usage}
		newBuf, err := m.Device.CreateBuffer(desc)
		if err != nil {
			panic(err)
		}
		*buf = newBuf
	}
	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return true
}
