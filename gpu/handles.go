// Package gpu is the seam between the renderer and the Vulkan binding. It
// names every object the renderer touches with an opaque 64-bit handle,
// where the zero value is the null handle, and exposes the small set of
// device operations the frame loop needs.
//
// Enumerations reuse the numeric values of the Vulkan API so that a binding
// can convert them without a lookup table.
package gpu

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/vkngwrapper/core/v3/common"
)

// ByteOrder is the byte order used when encoding host data into mapped
// device memory.
var ByteOrder binary.ByteOrder = common.ByteOrder

// NoTimeout waits forever.
const NoTimeout = time.Duration(math.MaxInt64)

type (
	Fence               uint64
	Semaphore           uint64
	CommandPool         uint64
	CommandBuffer       uint64
	Buffer              uint64
	Image               uint64
	ImageView           uint64
	Framebuffer         uint64
	RenderPass          uint64
	ShaderModule        uint64
	DescriptorSetLayout uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
	PipelineLayout      uint64
	Pipeline            uint64
	Swapchain           uint64
)

// Extent is a two-dimensional size in pixels.
type Extent struct {
	Width  int
	Height int
}

// Empty reports whether either dimension is zero, as happens for a
// minimized window.
func (e Extent) Empty() bool {
	return e.Width <= 0 || e.Height <= 0
}

// Aspect returns width / height, or 1 for an empty extent.
func (e Extent) Aspect() float32 {
	if e.Empty() {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}
