package renderer

import (
	"bytes"
	"encoding/binary"
	"testing"
	"testing/fstest"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/vulkantest/gpu"
	"github.com/vkngwrapper/vulkantest/gpu/gputest"
	"github.com/vkngwrapper/vulkantest/mesh"
)

var testExtent = gpu.Extent{Width: 800, Height: 600}

// fakeShaders holds two tiny blobs whose length is a multiple of four, which
// is all the fake device checks.
func fakeShaders() fstest.MapFS {
	return fstest.MapFS{
		VertexShaderPath:   {Data: []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}},
		FragmentShaderPath: {Data: []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 2, 0}},
	}
}

type fixedCamera struct{}

func (fixedCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(mgl32.Vec3{0, 0, 2}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

func (fixedCamera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 100)
}

func newTestRenderer(t *testing.T, dev *gputest.Device) *Renderer {
	t.Helper()
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)
	r, err := New(ctx, Options{Extent: testExtent, Shaders: fakeShaders()})
	require.NoError(t, err)
	return r
}

func assertClean(t *testing.T, dev *gputest.Device) {
	t.Helper()
	assert.Empty(t, dev.Hazards)
	assert.Zero(t, dev.Live(""), "leaked: %v", dev.LiveKinds())
	assert.Zero(t, dev.NullDestroys)
}

func TestNewContextRejectsNilDevice(t *testing.T) {
	_, err := NewContext(nil, nil)
	assert.Error(t, err)
}

func TestTriangleThreeFrames(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)

	_, err := r.AddModel("triangle", mesh.Triangle(), Identity())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Render(fixedCamera{}))
	}

	assert.Equal(t, uint64(3), r.Frames.Counter())
	for i := 0; i < r.Frames.Len(); i++ {
		assert.Equal(t, 1, dev.FenceWaits[r.Frames.Slot(i).RenderFence], "slot %d", i)
	}
	for _, idx := range dev.Acquired {
		assert.True(t, idx >= 0 && idx < len(r.Swapchain.Images))
	}
	for _, st := range dev.Statuses {
		assert.Equal(t, gpu.StatusSuccess, st)
	}
	assert.Len(t, dev.Presents, 3)

	// A fourth frame reuses slot 0 and has to wait for its first frame.
	require.NoError(t, r.Render(fixedCamera{}))
	assert.Equal(t, 2, dev.FenceWaits[r.Frames.Slot(0).RenderFence])

	frames := dev.Submissions[1:]
	require.Len(t, frames, 4)
	for i, s := range frames {
		slot := r.Frames.Slot(SlotIndex(uint64(i), r.Frames.Len()))
		require.Len(t, s.Draws, 1)
		draw := s.Draws[0]
		assert.Equal(t, 3, draw.VertexCount)
		assert.Equal(t, 1, draw.InstanceCount)
		assert.Equal(t, 0, draw.FirstInstance)
		assert.Equal(t, r.Pipeline, draw.Pipeline)
		assert.Equal(t, []gpu.DescriptorSet{slot.GlobalDescriptor, slot.ObjectDescriptor}, draw.DescriptorSets)
		assert.Equal(t, []int{slot.Index * r.SceneStride()}, draw.DynamicOffsets)

		assert.Equal(t, []gpu.Semaphore{slot.AcquireSemaphore}, s.WaitSemaphores)
		assert.Equal(t, []gpu.PipelineStage{gpu.StageColorAttachmentOutput}, s.WaitStages)
		assert.Equal(t, []gpu.Semaphore{slot.ReleaseSemaphore}, s.SignalSemaphores)
		assert.Equal(t, slot.RenderFence, s.Fence)

		require.Len(t, s.RenderPasses, 1)
		assert.Equal(t, testExtent, s.RenderPasses[0].Extent)
		assert.Equal(t, float32(1), s.RenderPasses[0].ClearDepth)
	}

	require.NoError(t, r.Destroy())
	assertClean(t, dev)
}

func TestNoRecordingWhileInFlight(t *testing.T) {
	for n := 2; n <= 5; n++ {
		for _, timeouts := range []int{0, 2} {
			dev := gputest.New()
			dev.TimeoutsPerWait = timeouts
			ctx, err := NewContext(dev, nil)
			require.NoError(t, err)
			r, err := New(ctx, Options{Extent: testExtent, Shaders: fakeShaders(), Frames: n})
			require.NoError(t, err)
			require.Equal(t, n, r.Frames.Len())

			_, err = r.AddModel("triangle", mesh.Triangle(), Identity())
			require.NoError(t, err)

			for i := 0; i < 4*n; i++ {
				require.NoError(t, r.Render(fixedCamera{}), "n=%d frame %d", n, i)
				assert.LessOrEqual(t, dev.Pending(), n)
			}
			assert.Empty(t, dev.Hazards, "n=%d timeouts=%d", n, timeouts)
			if timeouts > 0 {
				assert.Contains(t, dev.Statuses, gpu.StatusTimeout)
			}

			require.NoError(t, r.Destroy())
			assertClean(t, dev)
		}
	}
}

func TestZeroModels(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Render(fixedCamera{}))
	}
	assert.Equal(t, 5, dev.CallCount("AcquireNextImage"))
	assert.Equal(t, 5, dev.CallCount("QueueSubmit"))
	assert.Equal(t, 5, dev.CallCount("QueuePresent"))
	assert.Zero(t, dev.CallCount("CmdDraw"))

	require.NoError(t, r.Destroy())
	assertClean(t, dev)
}

func TestUploadRoundTrip(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)

	vertices := mesh.Triangle()
	m, err := r.AddModel("triangle", vertices, Identity())
	require.NoError(t, err)

	want := &bytes.Buffer{}
	require.NoError(t, binary.Write(want, gpu.ByteOrder, vertices))
	assert.Equal(t, want.Bytes(), dev.BufferContents(m.VertexBuffer.Handle))

	info, ok := dev.BufferInfo(m.VertexBuffer.Handle)
	require.True(t, ok)
	assert.Equal(t, gpu.MemoryGPUOnly, info.Memory)
	assert.NotZero(t, info.Usage&gpu.BufferUsageVertexBuffer)

	// Only the vertex buffer survives the upload; staging is gone.
	assert.Equal(t, 1, dev.CallCount("DestroyBuffer"))
	assert.NotEqual(t, uuid.Nil, m.ID)

	require.NoError(t, r.Destroy())
	assertClean(t, dev)
}

func TestUploadEmptyVertices(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	_, err := r.AddModel("empty", nil, Identity())
	assert.Error(t, err)
	assert.Empty(t, r.Models)
	require.NoError(t, r.Destroy())
	assertClean(t, dev)
}

func TestFrameDataWrittenBeforeSubmit(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	r.Mode = RenderRainbow
	r.Scene.AmbientColor = mgl32.Vec4{0.1, 0.2, 0.3, 1}

	tr := Identity()
	tr.Translation = mgl32.Vec3{1, 2, 3}
	_, err := r.AddModel("triangle", mesh.Triangle(), tr)
	require.NoError(t, err)
	require.NoError(t, r.Render(fixedCamera{}))

	slot := r.Frames.Slot(0)
	var objects [1]GPUObjectData
	require.NoError(t, binary.Read(bytes.NewReader(dev.BufferContents(slot.ObjectBuffer.Handle)), gpu.ByteOrder, &objects))
	assert.Equal(t, tr.Matrix(), objects[0].Model)

	var scene SceneData
	raw := dev.BufferContents(r.SceneBuffer.Handle)
	require.NoError(t, binary.Read(bytes.NewReader(raw), gpu.ByteOrder, &scene))
	assert.Equal(t, r.Scene.AmbientColor, scene.AmbientColor)
	assert.Equal(t, float32(RenderRainbow), scene.FogDistance[3])

	var camera GPUCameraData
	require.NoError(t, binary.Read(bytes.NewReader(dev.BufferContents(slot.CameraBuffer.Handle)), gpu.ByteOrder, &camera))
	cam := fixedCamera{}
	assert.Equal(t, cam.Projection(testExtent.Aspect()).Mul4(cam.View()), camera.ViewProj)

	require.NoError(t, r.Destroy())
}

func TestFrameDataWriteWhileInFlightIsCaught(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	_, err := r.AddModel("triangle", mesh.Triangle(), Identity())
	require.NoError(t, err)
	require.NoError(t, r.Render(fixedCamera{}))
	require.Empty(t, dev.Hazards)

	slot := r.Frames.Slot(0)
	require.Equal(t, SlotInFlight, slot.State)

	cam := GPUCameraData{}
	require.NoError(t, slot.CameraBuffer.Write(dev, 0, &cam))
	require.Len(t, dev.Hazards, 1)
	assert.Contains(t, dev.Hazards[0], "pending submission")

	objects := []GPUObjectData{{Model: mgl32.Ident4()}}
	require.NoError(t, slot.ObjectBuffer.Write(dev, 0, objects))
	assert.Len(t, dev.Hazards, 2)

	// The next slot's buffers and scene region are not read by slot 0.
	next := r.Frames.Slot(1)
	require.NoError(t, next.CameraBuffer.Write(dev, 0, &cam))
	scene := SceneData{}
	require.NoError(t, r.SceneBuffer.Write(dev, r.SceneStride(), &scene))
	assert.Len(t, dev.Hazards, 2)

	require.NoError(t, r.Destroy())
}

func TestDrawsUseModelIndexAsInstance(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	for _, name := range []string{"a", "b", "c"} {
		_, err := r.AddModel(name, mesh.Triangle(), Identity())
		require.NoError(t, err)
	}
	require.NoError(t, r.Render(fixedCamera{}))

	draws := dev.Submissions[len(dev.Submissions)-1].Draws
	require.Len(t, draws, 3)
	for i, d := range draws {
		assert.Equal(t, i, d.FirstInstance)
		assert.Equal(t, r.Models[i].VertexBuffer.Handle, d.VertexBuffer)
	}
	require.NoError(t, r.Destroy())
}

func TestOutOfDateIsAnError(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	dev.AcquireStatus = gpu.StatusOutOfDate

	err := r.Render(fixedCamera{})
	assert.True(t, errors.Is(err, ErrSwapchainOutOfDate))
	require.NoError(t, r.Destroy())
}

func TestPresentOutOfDateIsAnError(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	dev.PresentStatus = gpu.StatusOutOfDate

	err := r.Render(fixedCamera{})
	assert.True(t, errors.Is(err, ErrSwapchainOutOfDate))
	require.NoError(t, r.Destroy())
}

func TestSuboptimalIsSuccess(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	dev.AcquireStatus = gpu.StatusSuboptimal
	dev.PresentStatus = gpu.StatusSuboptimal

	for i := 0; i < 4; i++ {
		require.NoError(t, r.Render(fixedCamera{}))
	}
	require.NoError(t, r.Destroy())
	assertClean(t, dev)
}

func TestPresentError(t *testing.T) {
	assert.NoError(t, presentError("op", gpu.StatusSuccess, nil))
	assert.NoError(t, presentError("op", gpu.StatusSuboptimal, nil))
	assert.True(t, errors.Is(presentError("op", gpu.StatusOutOfDate, gpu.NewError("x", gpu.StatusOutOfDate)), ErrSwapchainOutOfDate))
	assert.Error(t, presentError("op", gpu.StatusDeviceLost, gpu.NewError("x", gpu.StatusDeviceLost)))
	assert.Error(t, presentError("op", gpu.StatusNotReady, nil))
}

func TestMissingShader(t *testing.T) {
	dev := gputest.New()
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)

	shaders := fakeShaders()
	delete(shaders, FragmentShaderPath)
	_, err = New(ctx, Options{Extent: testExtent, Shaders: shaders})
	assert.True(t, errors.Is(err, ErrShaderMissing))
	assertClean(t, dev)
}

func TestNoDepthFormat(t *testing.T) {
	dev := gputest.New()
	dev.DepthFormats = []gpu.Format{}
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)

	_, err = New(ctx, Options{Extent: testExtent, Shaders: fakeShaders()})
	assert.True(t, errors.Is(err, ErrNoDepthFormat))
	assertClean(t, dev)
}

func TestDestroyAfterPartialInit(t *testing.T) {
	ops := []struct {
		op    string
		after int
	}{
		{"CreateSwapchain", 0},
		{"CreateImageView", 1},
		{"CreateImage", 0},
		{"CreateRenderPass", 0},
		{"CreateFramebuffer", 2},
		{"CreateCommandPool", 1},
		{"CreateFence", 2},
		{"CreateSemaphore", 3},
		{"CreateBuffer", 4},
		{"CreateDescriptorSetLayout", 1},
		{"CreateDescriptorPool", 0},
		{"AllocateDescriptorSet", 3},
		{"UpdateDescriptorSets", 1},
		{"CreateShaderModule", 1},
		{"CreatePipelineLayout", 0},
		{"CreateGraphicsPipeline", 0},
	}
	for _, tc := range ops {
		t.Run(tc.op, func(t *testing.T) {
			dev := gputest.New()
			dev.InjectError(tc.op, tc.after, nil)
			ctx, err := NewContext(dev, nil)
			require.NoError(t, err)

			_, err = New(ctx, Options{Extent: testExtent, Shaders: fakeShaders()})
			require.Error(t, err)
			assert.Equal(t, gpu.StatusOutOfDeviceMemory, gpu.StatusOf(err))
			assertClean(t, dev)
		})
	}
}

func TestDestroyTwice(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	_, err := r.AddModel("triangle", mesh.Triangle(), Identity())
	require.NoError(t, err)
	require.NoError(t, r.Render(fixedCamera{}))

	require.NoError(t, r.Destroy())
	destroyed := len(dev.DestroyLog)
	require.NoError(t, r.Destroy())
	assert.Len(t, dev.DestroyLog, destroyed)
	assertClean(t, dev)
}

func TestDestroyKeepsRecordsWhenIdleFails(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	require.NoError(t, r.Render(fixedCamera{}))

	dev.InjectError("WaitIdle", dev.CallCount("WaitIdle"), nil)
	assert.Error(t, r.Destroy())
	assert.NotZero(t, dev.Live(""))

	require.NoError(t, r.Destroy())
	assertClean(t, dev)
}

func TestTooManyObjects(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	r.Models = make([]*Model, MaxObjects)

	_, err := r.AddModel("one too many", mesh.Triangle(), Identity())
	assert.True(t, errors.Is(err, ErrTooManyObjects))

	r.Models = nil
	require.NoError(t, r.Destroy())
	assertClean(t, dev)
}

func TestPipelineDescription(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)

	info := dev.Pipelines[r.Pipeline]
	assert.True(t, info.DepthTest)
	assert.Equal(t, "main", info.EntryPoint)
	assert.Equal(t, testExtent, info.Extent)
	assert.Equal(t, 44, info.VertexInput.Stride)
	assert.Len(t, info.VertexInput.Attributes, 4)

	// Shader modules are only needed while the pipeline is built.
	assert.Zero(t, dev.Live("shader module"))
	require.NoError(t, r.Destroy())
}

func TestSceneStrideIsAligned(t *testing.T) {
	dev := gputest.New()
	r := newTestRenderer(t, dev)
	assert.Equal(t, 256, r.SceneStride())
	assert.Equal(t, 256*FrameOverlap, r.SceneBuffer.Size)
	require.NoError(t, r.Destroy())
}
