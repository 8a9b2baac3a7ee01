package renderer

import (
	"io/fs"
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/vkngwrapper/vulkantest/gpu"
	"github.com/vkngwrapper/vulkantest/mesh"
)

// Camera supplies the view and projection for a frame.
type Camera interface {
	View() mgl32.Mat4
	Projection(aspect float32) mgl32.Mat4
}

type Options struct {
	Extent gpu.Extent
	// Shaders holds VertexShaderPath and FragmentShaderPath.
	Shaders fs.FS
	Scene   SceneData
	// Frames is the number of frame slots. Zero means FrameOverlap.
	Frames int
}

// Renderer owns the swapchain, the mesh pipeline, the frame ring and every
// uploaded model.
type Renderer struct {
	ctx *Context

	Swapchain *Swapchain
	Frames    *FrameRing
	Uploader  *Uploader

	RenderPass     gpu.RenderPass
	GlobalLayout   gpu.DescriptorSetLayout
	ObjectLayout   gpu.DescriptorSetLayout
	PipelineLayout gpu.PipelineLayout
	Pipeline       gpu.Pipeline
	DescriptorPool gpu.DescriptorPool

	// SceneBuffer holds one padded SceneData region per frame slot.
	SceneBuffer AllocatedBuffer
	sceneStride int

	Scene  SceneData
	Mode   RenderMode
	Models []*Model

	deletion DeletionQueue
	uploads  DeletionQueue
}

// New builds everything needed to draw. On failure whatever was created is
// destroyed again before the error is returned.
func New(ctx *Context, opts Options) (*Renderer, error) {
	r := &Renderer{ctx: ctx, Scene: opts.Scene}
	if err := r.init(opts); err != nil {
		return nil, errors.CombineErrors(err, r.Destroy())
	}
	ctx.Log.Info("renderer ready", "device", ctx.Properties.DeviceName, "frames", r.Frames.Len())
	return r, nil
}

func (r *Renderer) init(opts Options) error {
	dev := r.ctx.Device

	var err error
	r.Swapchain, err = NewSwapchain(r.ctx, opts.Extent)
	if err != nil {
		return err
	}

	r.RenderPass, err = dev.CreateRenderPass(MeshRenderPassInfo(r.Swapchain.Format, r.Swapchain.DepthFormat))
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	r.deletion.Push(KindRenderPass, uint64(r.RenderPass), "mesh render pass")

	if err := r.Swapchain.CreateFramebuffers(r.RenderPass); err != nil {
		return err
	}

	frames := opts.Frames
	if frames == 0 {
		frames = FrameOverlap
	}
	r.Frames, err = newFrameRing(r.ctx, frames)
	if err != nil {
		return err
	}

	r.Uploader, err = NewUploader(r.ctx)
	if err != nil {
		return err
	}

	if err := r.initDescriptors(); err != nil {
		return err
	}
	return r.initPipeline(opts.Shaders)
}

func (r *Renderer) initDescriptors() error {
	dev := r.ctx.Device

	var err error
	r.GlobalLayout, err = dev.CreateDescriptorSetLayout(globalSetBindings())
	if err != nil {
		return errors.Wrap(err, "create global set layout")
	}
	r.deletion.Push(KindDescriptorSetLayout, uint64(r.GlobalLayout), "global set layout")

	r.ObjectLayout, err = dev.CreateDescriptorSetLayout(objectSetBindings())
	if err != nil {
		return errors.Wrap(err, "create object set layout")
	}
	r.deletion.Push(KindDescriptorSetLayout, uint64(r.ObjectLayout), "object set layout")

	r.DescriptorPool, err = dev.CreateDescriptorPool(descriptorPoolInfo(max(MaxDescriptorSets, 2*r.Frames.Len())))
	if err != nil {
		return errors.Wrap(err, "create descriptor pool")
	}
	r.deletion.Push(KindDescriptorPool, uint64(r.DescriptorPool), "descriptor pool")

	sceneSize := int(unsafe.Sizeof(SceneData{}))
	r.sceneStride = PadUniformBufferSize(sceneSize, r.ctx.Properties.MinUniformBufferOffsetAlignment)
	r.SceneBuffer, err = CreateBuffer(r.ctx, r.sceneStride*r.Frames.Len(), gpu.BufferUsageUniformBuffer, gpu.MemoryCPUToGPU)
	if err != nil {
		return errors.Wrap(err, "scene buffer")
	}
	r.deletion.Push(KindBuffer, uint64(r.SceneBuffer.Handle), "scene buffer")

	for i := 0; i < r.Frames.Len(); i++ {
		slot := r.Frames.Slot(i)

		slot.GlobalDescriptor, err = dev.AllocateDescriptorSet(r.DescriptorPool, r.GlobalLayout)
		if err != nil {
			return errors.Wrapf(err, "allocate global set %d", i)
		}
		slot.ObjectDescriptor, err = dev.AllocateDescriptorSet(r.DescriptorPool, r.ObjectLayout)
		if err != nil {
			return errors.Wrapf(err, "allocate object set %d", i)
		}

		err = dev.UpdateDescriptorSets(
			gpu.DescriptorBufferWrite{
				Set:     slot.GlobalDescriptor,
				Binding: 0,
				Type:    gpu.DescriptorTypeUniformBuffer,
				Buffer:  slot.CameraBuffer.Handle,
				Range:   slot.CameraBuffer.Size,
			},
			gpu.DescriptorBufferWrite{
				Set:     slot.GlobalDescriptor,
				Binding: 1,
				Type:    gpu.DescriptorTypeUniformBufferDynamic,
				Buffer:  r.SceneBuffer.Handle,
				Range:   sceneSize,
			},
			gpu.DescriptorBufferWrite{
				Set:     slot.ObjectDescriptor,
				Binding: 0,
				Type:    gpu.DescriptorTypeStorageBuffer,
				Buffer:  slot.ObjectBuffer.Handle,
				Range:   slot.ObjectBuffer.Size,
			},
		)
		if err != nil {
			return errors.Wrapf(err, "write descriptor sets of slot %d", i)
		}
	}
	return nil
}

func (r *Renderer) initPipeline(shaders fs.FS) error {
	dev := r.ctx.Device

	vert, err := LoadShaderModule(r.ctx, shaders, VertexShaderPath)
	if err != nil {
		return err
	}
	defer dev.DestroyShaderModule(vert)

	frag, err := LoadShaderModule(r.ctx, shaders, FragmentShaderPath)
	if err != nil {
		return err
	}
	defer dev.DestroyShaderModule(frag)

	r.PipelineLayout, err = dev.CreatePipelineLayout([]gpu.DescriptorSetLayout{r.GlobalLayout, r.ObjectLayout})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}
	r.deletion.Push(KindPipelineLayout, uint64(r.PipelineLayout), "mesh pipeline layout")

	r.Pipeline, err = dev.CreateGraphicsPipeline(gpu.GraphicsPipelineCreateInfo{
		VertexShader:   vert,
		FragmentShader: frag,
		EntryPoint:     "main",
		VertexInput:    VertexInputDescription(),
		Extent:         r.Swapchain.Extent,
		DepthTest:      true,
		Layout:         r.PipelineLayout,
		RenderPass:     r.RenderPass,
	})
	if err != nil {
		return errors.Wrap(err, "create mesh pipeline")
	}
	r.deletion.Push(KindPipeline, uint64(r.Pipeline), "mesh pipeline")
	return nil
}

// AddModel uploads vertices and takes ownership of the resulting model.
func (r *Renderer) AddModel(name string, vertices []mesh.Vertex, transform Transform) (*Model, error) {
	if len(r.Models) >= MaxObjects {
		return nil, errors.Wrapf(ErrTooManyObjects, "model %q", name)
	}
	vb, err := r.Uploader.UploadVertices(vertices)
	if err != nil {
		return nil, errors.Wrapf(err, "upload model %q", name)
	}
	r.uploads.Push(KindBuffer, uint64(vb.Handle), name+" vertex buffer")

	m := &Model{
		ID:           uuid.New(),
		Name:         name,
		Vertices:     vertices,
		VertexBuffer: vb,
		Transform:    transform,
	}
	r.Models = append(r.Models, m)
	r.ctx.Log.Info("added model", "model", name, "id", m.ID, "vertices", len(vertices))
	return m, nil
}

// Render draws one frame.
func (r *Renderer) Render(cam Camera) error {
	dev := r.ctx.Device
	frame := r.Frames.Counter()

	slot, err := r.Frames.Acquire()
	if err != nil {
		return err
	}

	imageIndex, status, err := dev.AcquireNextImage(r.Swapchain.Handle, gpu.NoTimeout, slot.AcquireSemaphore)
	if err := presentError("acquire next image", status, err); err != nil {
		return err
	}
	if imageIndex < 0 || imageIndex >= len(r.Swapchain.Framebuffers) {
		return errors.Newf("acquired image index %d out of range [0, %d)", imageIndex, len(r.Swapchain.Framebuffers))
	}

	if err := r.writeFrameData(slot, cam); err != nil {
		return err
	}

	if err := r.Frames.Begin(slot); err != nil {
		return err
	}
	cmd := slot.CommandBuffer

	flash := float32(math.Abs(math.Sin(float64(frame) / 120)))
	err = dev.CmdBeginRenderPass(cmd, gpu.RenderPassBeginInfo{
		RenderPass:  r.RenderPass,
		Framebuffer: r.Swapchain.Framebuffers[imageIndex],
		Extent:      r.Swapchain.Extent,
		ClearColor:  [4]float32{flash, flash, flash, 1},
		ClearDepth:  1,
		HasDepth:    true,
	})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	dev.CmdBindPipeline(cmd, r.Pipeline)
	dev.CmdBindDescriptorSets(cmd, r.PipelineLayout, 0,
		[]gpu.DescriptorSet{slot.GlobalDescriptor}, []int{slot.Index * r.sceneStride})
	dev.CmdBindDescriptorSets(cmd, r.PipelineLayout, 1,
		[]gpu.DescriptorSet{slot.ObjectDescriptor}, nil)

	for i, m := range r.Models {
		dev.CmdBindVertexBuffer(cmd, m.VertexBuffer.Handle, 0)
		dev.CmdDraw(cmd, m.VertexCount(), 1, 0, i)
	}

	dev.CmdEndRenderPass(cmd)
	if err := dev.EndCommandBuffer(cmd); err != nil {
		return errors.Wrap(err, "end command buffer")
	}

	err = dev.QueueSubmit(gpu.SubmitInfo{
		CommandBuffers:   []gpu.CommandBuffer{cmd},
		WaitSemaphores:   []gpu.Semaphore{slot.AcquireSemaphore},
		WaitStages:       []gpu.PipelineStage{gpu.StageColorAttachmentOutput},
		SignalSemaphores: []gpu.Semaphore{slot.ReleaseSemaphore},
		Fence:            slot.RenderFence,
	})
	if err != nil {
		return errors.Wrapf(err, "submit frame %d", frame)
	}

	status, err = dev.QueuePresent(gpu.PresentInfo{
		Swapchain:      r.Swapchain.Handle,
		ImageIndex:     imageIndex,
		WaitSemaphores: []gpu.Semaphore{slot.ReleaseSemaphore},
	})
	if err := presentError("present", status, err); err != nil {
		return err
	}

	r.ctx.Log.Debug("frame", "frame", frame, "slot", slot.Index, "image", imageIndex, "models", len(r.Models))
	return r.Frames.Retire(slot)
}

// writeFrameData fills the slot's camera and object buffers and its region
// of the scene buffer. The slot's fence has already been waited on, so the
// GPU is no longer reading any of them.
func (r *Renderer) writeFrameData(slot *FrameSlot, cam Camera) error {
	dev := r.ctx.Device

	view := cam.View()
	proj := cam.Projection(r.Swapchain.Extent.Aspect())
	camera := GPUCameraData{View: view, Proj: proj, ViewProj: proj.Mul4(view)}
	if err := slot.CameraBuffer.Write(dev, 0, &camera); err != nil {
		return errors.Wrap(err, "camera data")
	}

	scene := r.Scene
	scene.FogDistance[3] = float32(r.Mode)
	if err := r.SceneBuffer.Write(dev, slot.Index*r.sceneStride, &scene); err != nil {
		return errors.Wrap(err, "scene data")
	}

	if len(r.Models) == 0 {
		return nil
	}
	objects := make([]GPUObjectData, len(r.Models))
	for i, m := range r.Models {
		objects[i].Model = m.Transform.Matrix()
	}
	return errors.Wrap(slot.ObjectBuffer.Write(dev, 0, objects), "object data")
}

// SceneStride is the distance between two slots' regions of SceneBuffer.
func (r *Renderer) SceneStride() int {
	return r.sceneStride
}

// Destroy waits for the GPU and releases everything the renderer created,
// in reverse order. It is safe to call more than once, including on a
// renderer whose construction failed part way.
func (r *Renderer) Destroy() error {
	var errs error
	if r.Frames != nil {
		errs = errors.CombineErrors(errs, r.Frames.Destroy())
	}
	if r.Uploader != nil {
		errs = errors.CombineErrors(errs, r.Uploader.Destroy())
	}
	errs = errors.CombineErrors(errs, r.uploads.Flush(r.ctx.Device))
	r.Models = nil
	if r.Swapchain != nil {
		errs = errors.CombineErrors(errs, r.Swapchain.Destroy())
	}
	return errors.CombineErrors(errs, r.deletion.Flush(r.ctx.Device))
}

// presentError maps an acquire or present result onto an error.
// Suboptimal still counts as success.
func presentError(op string, status gpu.Status, err error) error {
	switch {
	case status == gpu.StatusOutOfDate:
		return errors.Wrap(ErrSwapchainOutOfDate, op)
	case err != nil:
		return errors.Wrap(err, op)
	case status == gpu.StatusSuccess || status == gpu.StatusSuboptimal:
		return nil
	}
	return errors.Newf("%s: unexpected status %s", op, status)
}
