package gpu

// DeviceProperties describes the selected physical device and the queue the
// logical device was created with.
type DeviceProperties struct {
	DeviceName          string
	APIVersion          string
	GraphicsQueueFamily int

	MinUniformBufferOffsetAlignment int
	MinStorageBufferOffsetAlignment int
}

type SwapchainCreateInfo struct {
	Extent        Extent
	MinImageCount int
	PresentMode   PresentMode
}

// SwapchainImages is what a device hands back after building a swapchain.
// Extent may differ from the requested one when the surface dictates its
// own size.
type SwapchainImages struct {
	Handle Swapchain
	Format Format
	Extent Extent
	Images []Image
}

type AttachmentDescription struct {
	Format         Format
	LoadOp         LoadOp
	StoreOp        StoreOp
	StencilLoadOp  LoadOp
	StencilStoreOp StoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

type AttachmentReference struct {
	Attachment int
	Layout     ImageLayout
}

type SubpassDependency struct {
	SrcSubpass    int
	DstSubpass    int
	SrcStageMask  PipelineStage
	DstStageMask  PipelineStage
	SrcAccessMask Access
	DstAccessMask Access
}

// RenderPassCreateInfo describes a single-subpass graphics render pass.
type RenderPassCreateInfo struct {
	Attachments      []AttachmentDescription
	ColorAttachments []AttachmentReference
	DepthAttachment  *AttachmentReference
	Dependencies     []SubpassDependency
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent
}

type BufferCreateInfo struct {
	Size   int
	Usage  BufferUsage
	Memory MemoryUsage
}

// ImageCreateInfo describes a single-mip, single-layer 2D image in
// device-local memory.
type ImageCreateInfo struct {
	Extent Extent
	Format Format
	Usage  ImageUsage
}

type ImageViewCreateInfo struct {
	Image  Image
	Format Format
	Aspect ImageAspect
}

type DescriptorSetLayoutBinding struct {
	Binding int
	Type    DescriptorType
	Count   int
	Stages  ShaderStage
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count int
}

type DescriptorPoolCreateInfo struct {
	MaxSets int
	Sizes   []DescriptorPoolSize
}

// DescriptorBufferWrite points one buffer binding of a descriptor set at a
// range of a buffer.
type DescriptorBufferWrite struct {
	Set     DescriptorSet
	Binding int
	Type    DescriptorType
	Buffer  Buffer
	Offset  int
	Range   int
}

type VertexAttribute struct {
	Location int
	Format   Format
	Offset   int
}

// VertexInput describes a single per-vertex binding at binding 0.
type VertexInput struct {
	Stride     int
	Attributes []VertexAttribute
}

type GraphicsPipelineCreateInfo struct {
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	EntryPoint     string
	VertexInput    VertexInput
	Extent         Extent
	DepthTest      bool
	Layout         PipelineLayout
	RenderPass     RenderPass
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      Extent
	ClearColor  [4]float32
	// ClearDepth is only used when HasDepth is set.
	ClearDepth float32
	HasDepth   bool
}

type SubmitInfo struct {
	CommandBuffers   []CommandBuffer
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStage
	SignalSemaphores []Semaphore
	// Fence, when not null, is signaled once every command buffer in the
	// batch has completed.
	Fence Fence
}

type PresentInfo struct {
	Swapchain      Swapchain
	ImageIndex     int
	WaitSemaphores []Semaphore
}
