package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vulkantest/gpu"
)

var statuses = map[common.VkResult]gpu.Status{
	core1_0.VKSuccess:                   gpu.StatusSuccess,
	core1_0.VKNotReady:                  gpu.StatusNotReady,
	core1_0.VKTimeout:                   gpu.StatusTimeout,
	khr_swapchain.VKSuboptimal:          gpu.StatusSuboptimal,
	khr_swapchain.VKErrorOutOfDate:      gpu.StatusOutOfDate,
	core1_0.VKErrorDeviceLost:           gpu.StatusDeviceLost,
	core1_0.VKErrorOutOfHostMemory:      gpu.StatusOutOfHostMemory,
	core1_0.VKErrorOutOfDeviceMemory:    gpu.StatusOutOfDeviceMemory,
	khr_surface.VKErrorSurfaceLost:      gpu.StatusSurfaceLost,
	core1_0.VKErrorInitializationFailed: gpu.StatusInitializationFailed,
}

func statusOf(res common.VkResult) gpu.Status {
	if st, ok := statuses[res]; ok {
		return st
	}
	return gpu.StatusUnknown
}

// check turns a binding result into an error carrying a gpu.Status. The
// binding's own error is kept as detail.
func check(op string, res common.VkResult, err error) error {
	if err == nil {
		return nil
	}
	st := statusOf(res)
	if !st.Failed() {
		st = gpu.StatusUnknown
	}
	return errors.WithSecondaryError(gpu.NewError(op, st), err)
}
