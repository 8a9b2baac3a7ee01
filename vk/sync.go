package vk

import (
	"time"

	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/vulkantest/gpu"
)

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	fence, res, err := d.deviceDriver.CreateFence(nil, info)
	if err != nil {
		return 0, check("vkCreateFence", res, err)
	}
	h := d.id()
	d.fences[h] = fence
	return gpu.Fence(h), nil
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	f, ok := d.fences[uint64(fence)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyFence(f, nil)
	delete(d.fences, uint64(fence))
}

func (d *Device) WaitForFence(fence gpu.Fence, timeout time.Duration) (gpu.Status, error) {
	f, err := lookup(d.fences, "fence", uint64(fence))
	if err != nil {
		return gpu.StatusUnknown, err
	}
	res, err := d.deviceDriver.WaitForFences(true, timeout, f)
	if err != nil {
		return statusOf(res), check("vkWaitForFences", res, err)
	}
	return statusOf(res), nil
}

func (d *Device) ResetFence(fence gpu.Fence) error {
	f, err := lookup(d.fences, "fence", uint64(fence))
	if err != nil {
		return err
	}
	res, err := d.deviceDriver.ResetFences(f)
	return check("vkResetFences", res, err)
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	semaphore, res, err := d.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return 0, check("vkCreateSemaphore", res, err)
	}
	h := d.id()
	d.semaphores[h] = semaphore
	return gpu.Semaphore(h), nil
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	s, ok := d.semaphores[uint64(semaphore)]
	if !ok {
		return
	}
	d.deviceDriver.DestroySemaphore(s, nil)
	delete(d.semaphores, uint64(semaphore))
}

func (d *Device) semaphoreList(handles []gpu.Semaphore) ([]core1_0.Semaphore, error) {
	var out []core1_0.Semaphore
	for _, h := range handles {
		s, err := lookup(d.semaphores, "semaphore", uint64(h))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *Device) QueueSubmit(info gpu.SubmitInfo) error {
	submit := core1_0.SubmitInfo{}
	for _, h := range info.CommandBuffers {
		cmd, err := lookup(d.commandBuffers, "command buffer", uint64(h))
		if err != nil {
			return err
		}
		submit.CommandBuffers = append(submit.CommandBuffers, cmd)
	}

	var err error
	if submit.WaitSemaphores, err = d.semaphoreList(info.WaitSemaphores); err != nil {
		return err
	}
	if submit.SignalSemaphores, err = d.semaphoreList(info.SignalSemaphores); err != nil {
		return err
	}
	for _, stage := range info.WaitStages {
		submit.WaitDstStageMask = append(submit.WaitDstStageMask, core1_0.PipelineStageFlags(stage))
	}

	var fence *core1_0.Fence
	if info.Fence != 0 {
		f, err := lookup(d.fences, "fence", uint64(info.Fence))
		if err != nil {
			return err
		}
		fence = &f
	}

	res, err := d.deviceDriver.QueueSubmit(d.graphicsQueue, fence, submit)
	return check("vkQueueSubmit", res, err)
}

func (d *Device) WaitIdle() error {
	res, err := d.deviceDriver.DeviceWaitIdle()
	return check("vkDeviceWaitIdle", res, err)
}
