package renderer

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/gpu"
)

// ResourceKind names the destroy call a Release record maps to.
type ResourceKind int

const (
	KindFence ResourceKind = iota + 1
	KindSemaphore
	KindCommandPool
	KindBuffer
	KindImage
	KindImageView
	KindFramebuffer
	KindRenderPass
	KindShaderModule
	KindDescriptorSetLayout
	KindDescriptorPool
	KindPipelineLayout
	KindPipeline
	KindSwapchain
)

var kindNames = map[ResourceKind]string{
	KindFence:               "fence",
	KindSemaphore:           "semaphore",
	KindCommandPool:         "command pool",
	KindBuffer:              "buffer",
	KindImage:               "image",
	KindImageView:           "image view",
	KindFramebuffer:         "framebuffer",
	KindRenderPass:          "render pass",
	KindShaderModule:        "shader module",
	KindDescriptorSetLayout: "descriptor set layout",
	KindDescriptorPool:      "descriptor pool",
	KindPipelineLayout:      "pipeline layout",
	KindPipeline:            "pipeline",
	KindSwapchain:           "swapchain",
}

func (k ResourceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ResourceKind(%d)", int(k))
}

// Release is one pending destroy call.
type Release struct {
	Kind   ResourceKind
	Handle uint64
	Label  string
}

func (r Release) String() string {
	return fmt.Sprintf("%s %d (%s)", r.Kind, r.Handle, r.Label)
}

// DeletionQueue collects resources to destroy at shutdown. Records are
// plain data so the pending work can be inspected without running it.
type DeletionQueue struct {
	records []Release
}

// Push records handle for release. Null handles are ignored.
func (q *DeletionQueue) Push(kind ResourceKind, handle uint64, label string) {
	if handle == 0 {
		return
	}
	q.records = append(q.records, Release{Kind: kind, Handle: handle, Label: label})
}

// Pending returns the records in push order.
func (q *DeletionQueue) Pending() []Release {
	return append([]Release(nil), q.records...)
}

func (q *DeletionQueue) Len() int {
	return len(q.records)
}

// Flush waits for the device to go idle, then destroys every record in
// reverse push order and empties the queue. If the device cannot be idled
// nothing is released and the records stay queued.
func (q *DeletionQueue) Flush(dev gpu.Device) error {
	if len(q.records) == 0 {
		return nil
	}
	if err := dev.WaitIdle(); err != nil {
		return errors.Wrap(err, "flush deletion queue")
	}
	for i := len(q.records) - 1; i >= 0; i-- {
		destroy(dev, q.records[i])
	}
	q.records = q.records[:0]
	return nil
}

func destroy(dev gpu.Device, r Release) {
	switch r.Kind {
	case KindFence:
		dev.DestroyFence(gpu.Fence(r.Handle))
	case KindSemaphore:
		dev.DestroySemaphore(gpu.Semaphore(r.Handle))
	case KindCommandPool:
		dev.DestroyCommandPool(gpu.CommandPool(r.Handle))
	case KindBuffer:
		dev.DestroyBuffer(gpu.Buffer(r.Handle))
	case KindImage:
		dev.DestroyImage(gpu.Image(r.Handle))
	case KindImageView:
		dev.DestroyImageView(gpu.ImageView(r.Handle))
	case KindFramebuffer:
		dev.DestroyFramebuffer(gpu.Framebuffer(r.Handle))
	case KindRenderPass:
		dev.DestroyRenderPass(gpu.RenderPass(r.Handle))
	case KindShaderModule:
		dev.DestroyShaderModule(gpu.ShaderModule(r.Handle))
	case KindDescriptorSetLayout:
		dev.DestroyDescriptorSetLayout(gpu.DescriptorSetLayout(r.Handle))
	case KindDescriptorPool:
		dev.DestroyDescriptorPool(gpu.DescriptorPool(r.Handle))
	case KindPipelineLayout:
		dev.DestroyPipelineLayout(gpu.PipelineLayout(r.Handle))
	case KindPipeline:
		dev.DestroyPipeline(gpu.Pipeline(r.Handle))
	case KindSwapchain:
		dev.DestroySwapchain(gpu.Swapchain(r.Handle))
	}
}
