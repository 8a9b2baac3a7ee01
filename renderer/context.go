// Package renderer draws a small set of static meshes with a fixed ring of
// frames in flight. It talks to the GPU only through gpu.Device.
package renderer

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/gpu"
)

const (
	// FrameOverlap is the number of frames the CPU may record ahead of the
	// GPU.
	FrameOverlap = 3
	// MaxDescriptorSets bounds the descriptor pool.
	MaxDescriptorSets = 10
	// MaxObjects is the capacity of each slot's object storage buffer.
	MaxObjects = 10000
	// FenceTimeout is how long a single fence wait blocks before it is
	// retried.
	FenceTimeout = time.Second
	// SwapchainImageCount is the requested minimum image count.
	SwapchainImageCount = 3
)

var (
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	ErrSlotState          = errors.New("frame slot in wrong state")
	ErrTooManyObjects     = errors.New("too many objects for object buffer")
	ErrShaderMissing      = errors.New("shader binary missing")
	ErrNoDepthFormat      = errors.New("no supported depth format")
)

// Context is the device a renderer and all of its resources are created
// against. It must outlive every object built from it.
type Context struct {
	Device     gpu.Device
	Properties gpu.DeviceProperties
	Log        *log.Logger
}

// NewContext wraps dev. A nil logger discards output.
func NewContext(dev gpu.Device, logger *log.Logger) (*Context, error) {
	if dev == nil {
		return nil, errors.New("renderer: nil device")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Context{
		Device:     dev,
		Properties: dev.Properties(),
		Log:        logger,
	}, nil
}

// waitFence blocks until fence signals, retrying on timeouts only.
func (c *Context) waitFence(fence gpu.Fence) error {
	for {
		status, err := c.Device.WaitForFence(fence, FenceTimeout)
		if err != nil {
			return errors.Wrap(err, "wait for fence")
		}
		switch status {
		case gpu.StatusSuccess:
			return nil
		case gpu.StatusTimeout:
			c.Log.Debug("fence wait timed out, retrying", "fence", fence)
		default:
			if status.Failed() {
				return errors.Wrap(gpu.NewError("vkWaitForFences", status), "wait for fence")
			}
			return errors.Newf("wait for fence: unexpected status %s", status)
		}
	}
}
