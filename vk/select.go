package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vulkantest/gpu"
)

var deviceExtensions = []string{khr_swapchain.ExtensionName}

type queueFamilies struct {
	graphics int
	present  int
}

func (q queueFamilies) complete() bool {
	return q.graphics >= 0 && q.present >= 0
}

// findQueueFamilies picks a graphics family and a present family,
// preferring a single family that does both.
func findQueueFamilies(flags []core1_0.QueueFlags, canPresent func(idx int) (bool, error)) (queueFamilies, error) {
	found := queueFamilies{graphics: -1, present: -1}
	for idx, f := range flags {
		graphics := f&core1_0.QueueGraphics != 0
		present, err := canPresent(idx)
		if err != nil {
			return found, err
		}
		if graphics && present {
			return queueFamilies{graphics: idx, present: idx}, nil
		}
		if graphics && found.graphics < 0 {
			found.graphics = idx
		}
		if present && found.present < 0 {
			found.present = idx
		}
	}
	return found, nil
}

// chooseSurfaceFormat prefers 8-bit BGRA sRGB and otherwise takes whatever
// the surface lists first.
func chooseSurfaceFormat(formats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range formats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode uses want when the surface supports it. FIFO is always
// available.
func choosePresentMode(modes []khr_surface.PresentMode, want gpu.PresentMode) khr_surface.PresentMode {
	for _, mode := range modes {
		if mode == khr_surface.PresentMode(want) {
			return mode
		}
	}
	return khr_surface.PresentModeFIFO
}

// chooseExtent returns the surface's own extent when it has one, otherwise
// want clamped to the surface limits.
func chooseExtent(caps *khr_surface.SurfaceCapabilities, want gpu.Extent) core1_0.Extent2D {
	if caps.CurrentExtent.Width != -1 {
		return caps.CurrentExtent
	}
	return core1_0.Extent2D{
		Width:  clamp(want.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(want.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount honors the requested minimum within the surface limits.
// A zero maximum means unbounded.
func chooseImageCount(caps *khr_surface.SurfaceCapabilities, want int) int {
	count := max(want, caps.MinImageCount)
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func memoryProperties(usage gpu.MemoryUsage) core1_0.MemoryPropertyFlags {
	if usage.HostVisible() {
		return core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
	}
	return core1_0.MemoryPropertyDeviceLocal
}

func findMemoryType(types []core1_0.MemoryType, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range types {
		typeBit := uint32(1 << i)
		if typeFilter&typeBit != 0 && memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Newf("no memory type with properties %s", properties)
}

// bytesToBytecode reinterprets SPIR-V bytes as the 32-bit words the driver
// expects.
func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("spir-v length %d is not a positive multiple of 4", len(b))
	}
	code := make([]uint32, len(b)/4)
	for i := range code {
		code[i] = common.ByteOrder.Uint32(b[i*4:])
	}
	return code, nil
}
