package gpu

// Format is a VkFormat value.
type Format int32

const (
	FormatUndefined             Format = 0
	FormatB8G8R8A8UnsignedNorm  Format = 44
	FormatB8G8R8A8SRGB          Format = 50
	FormatR32G32SignedFloat     Format = 103
	FormatR32G32B32SignedFloat  Format = 106
	FormatD32SignedFloat        Format = 126
	FormatD24UnsignedNormS8UInt Format = 129
	FormatD32SignedFloatS8UInt  Format = 130
)

// HasStencil reports whether a depth format also carries a stencil
// component.
func (f Format) HasStencil() bool {
	return f == FormatD32SignedFloatS8UInt || f == FormatD24UnsignedNormS8UInt
}

// DepthFormatCandidates lists depth formats in order of preference.
var DepthFormatCandidates = []Format{
	FormatD32SignedFloat,
	FormatD32SignedFloatS8UInt,
	FormatD24UnsignedNormS8UInt,
}

// PresentMode is a VkPresentModeKHR value.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

// ImageLayout is a VkImageLayout value.
type ImageLayout int32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutGeneral                       ImageLayout = 1
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

// LoadOp is a VkAttachmentLoadOp value.
type LoadOp int32

const (
	LoadOpLoad     LoadOp = 0
	LoadOpClear    LoadOp = 1
	LoadOpDontCare LoadOp = 2
)

// StoreOp is a VkAttachmentStoreOp value.
type StoreOp int32

const (
	StoreOpStore    StoreOp = 0
	StoreOpDontCare StoreOp = 1
)

// PipelineStage is a VkPipelineStageFlags bitmask.
type PipelineStage uint32

const (
	StageTopOfPipe             PipelineStage = 0x00000001
	StageVertexInput           PipelineStage = 0x00000004
	StageVertexShader          PipelineStage = 0x00000008
	StageFragmentShader        PipelineStage = 0x00000080
	StageEarlyFragmentTests    PipelineStage = 0x00000100
	StageLateFragmentTests     PipelineStage = 0x00000200
	StageColorAttachmentOutput PipelineStage = 0x00000400
	StageTransfer              PipelineStage = 0x00001000
	StageBottomOfPipe          PipelineStage = 0x00002000
)

// Access is a VkAccessFlags bitmask.
type Access uint32

const (
	AccessColorAttachmentRead         Access = 0x00000080
	AccessColorAttachmentWrite        Access = 0x00000100
	AccessDepthStencilAttachmentRead  Access = 0x00000200
	AccessDepthStencilAttachmentWrite Access = 0x00000400
	AccessTransferRead                Access = 0x00000800
	AccessTransferWrite               Access = 0x00001000
)

// SubpassExternal refers to work outside the render pass in a subpass
// dependency.
const SubpassExternal = -1

// BufferUsage is a VkBufferUsageFlags bitmask.
type BufferUsage uint32

const (
	BufferUsageTransferSrc   BufferUsage = 0x00000001
	BufferUsageTransferDst   BufferUsage = 0x00000002
	BufferUsageUniformBuffer BufferUsage = 0x00000010
	BufferUsageStorageBuffer BufferUsage = 0x00000020
	BufferUsageIndexBuffer   BufferUsage = 0x00000040
	BufferUsageVertexBuffer  BufferUsage = 0x00000080
)

// ImageUsage is a VkImageUsageFlags bitmask.
type ImageUsage uint32

const (
	ImageUsageTransferSrc            ImageUsage = 0x00000001
	ImageUsageTransferDst            ImageUsage = 0x00000002
	ImageUsageSampled                ImageUsage = 0x00000004
	ImageUsageColorAttachment        ImageUsage = 0x00000010
	ImageUsageDepthStencilAttachment ImageUsage = 0x00000020
)

// ImageAspect is a VkImageAspectFlags bitmask.
type ImageAspect uint32

const (
	ImageAspectColor   ImageAspect = 0x00000001
	ImageAspectDepth   ImageAspect = 0x00000002
	ImageAspectStencil ImageAspect = 0x00000004
)

// MemoryUsage says where a buffer's memory should live. It replaces the
// raw memory property flags with the three residencies the renderer uses.
type MemoryUsage int

const (
	// MemoryGPUOnly is device-local memory the host cannot map.
	MemoryGPUOnly MemoryUsage = iota
	// MemoryCPUOnly is host-visible, host-coherent memory used for staging.
	MemoryCPUOnly
	// MemoryCPUToGPU is host-visible, host-coherent memory read by shaders.
	MemoryCPUToGPU
)

func (m MemoryUsage) String() string {
	switch m {
	case MemoryGPUOnly:
		return "gpu-only"
	case MemoryCPUOnly:
		return "cpu-only"
	case MemoryCPUToGPU:
		return "cpu-to-gpu"
	}
	return "unknown"
}

// HostVisible reports whether buffers with this residency can be mapped.
func (m MemoryUsage) HostVisible() bool {
	return m == MemoryCPUOnly || m == MemoryCPUToGPU
}

// DescriptorType is a VkDescriptorType value.
type DescriptorType int32

const (
	DescriptorTypeUniformBuffer        DescriptorType = 6
	DescriptorTypeStorageBuffer        DescriptorType = 7
	DescriptorTypeUniformBufferDynamic DescriptorType = 8
	DescriptorTypeStorageBufferDynamic DescriptorType = 9
)

// ShaderStage is a VkShaderStageFlags bitmask.
type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x00000001
	ShaderStageFragment ShaderStage = 0x00000010
)
