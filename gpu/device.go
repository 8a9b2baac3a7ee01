package gpu

import "time"

// Every Destroy method is a no-op when handed the null handle.

// Synchronizer creates and drives fences and semaphores.
type Synchronizer interface {
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(fence Fence)
	// WaitForFence blocks up to timeout. A fence that is still unsignaled
	// when the timeout elapses yields StatusTimeout and a nil error.
	WaitForFence(fence Fence, timeout time.Duration) (Status, error)
	ResetFence(fence Fence) error

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)
}

// Recorder allocates command buffers on the graphics queue family and
// records into them.
type Recorder interface {
	CreateCommandPool() (CommandPool, error)
	// ResetCommandPool returns every command buffer allocated from the pool
	// to the initial state.
	ResetCommandPool(pool CommandPool) error
	DestroyCommandPool(pool CommandPool)
	AllocateCommandBuffer(pool CommandPool) (CommandBuffer, error)

	// BeginCommandBuffer starts one-time-submit recording.
	BeginCommandBuffer(cmd CommandBuffer) error
	EndCommandBuffer(cmd CommandBuffer) error

	CmdBeginRenderPass(cmd CommandBuffer, info RenderPassBeginInfo) error
	CmdEndRenderPass(cmd CommandBuffer)
	CmdBindPipeline(cmd CommandBuffer, pipeline Pipeline)
	CmdBindDescriptorSets(cmd CommandBuffer, layout PipelineLayout, firstSet int, sets []DescriptorSet, dynamicOffsets []int)
	CmdBindVertexBuffer(cmd CommandBuffer, buffer Buffer, offset int)
	CmdDraw(cmd CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int)
	CmdCopyBuffer(cmd CommandBuffer, src, dst Buffer, size int) error
}

// Submitter hands recorded work to the graphics queue.
type Submitter interface {
	QueueSubmit(info SubmitInfo) error
	WaitIdle() error
}

// Presenter owns the swapchain and the presentation engine handshake.
type Presenter interface {
	CreateSwapchain(info SwapchainCreateInfo) (SwapchainImages, error)
	DestroySwapchain(swapchain Swapchain)
	// AcquireNextImage returns the index of the next presentable image. The
	// semaphore is signaled once the image is actually available.
	AcquireNextImage(swapchain Swapchain, timeout time.Duration, signal Semaphore) (int, Status, error)
	QueuePresent(info PresentInfo) (Status, error)
}

// Allocator creates memory-backed buffers and images.
type Allocator interface {
	CreateBuffer(info BufferCreateInfo) (Buffer, error)
	DestroyBuffer(buffer Buffer)
	// WriteBuffer maps a host-visible buffer, copies data at offset and
	// unmaps it again.
	WriteBuffer(buffer Buffer, offset int, data []byte) error

	CreateImage(info ImageCreateInfo) (Image, error)
	DestroyImage(image Image)
	CreateImageView(info ImageViewCreateInfo) (ImageView, error)
	DestroyImageView(view ImageView)
	// SupportsDepthFormat reports whether format can back an optimally
	// tiled depth attachment.
	SupportsDepthFormat(format Format) bool
}

// PassBuilder creates render passes and framebuffers.
type PassBuilder interface {
	CreateRenderPass(info RenderPassCreateInfo) (RenderPass, error)
	DestroyRenderPass(pass RenderPass)
	CreateFramebuffer(info FramebufferCreateInfo) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)
}

// PipelineFactory creates shader modules, pipelines and descriptor objects.
type PipelineFactory interface {
	CreateShaderModule(code []byte) (ShaderModule, error)
	DestroyShaderModule(module ShaderModule)

	CreateDescriptorSetLayout(bindings []DescriptorSetLayoutBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)
	CreateDescriptorPool(info DescriptorPoolCreateInfo) (DescriptorPool, error)
	DestroyDescriptorPool(pool DescriptorPool)
	AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error)
	UpdateDescriptorSets(writes ...DescriptorBufferWrite) error

	CreatePipelineLayout(setLayouts []DescriptorSetLayout) (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)
	CreateGraphicsPipeline(info GraphicsPipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)
}

// Device is a logical device with one graphics queue that can present.
type Device interface {
	Properties() DeviceProperties

	Synchronizer
	Recorder
	Submitter
	Presenter
	Allocator
	PassBuilder
	PipelineFactory
}
