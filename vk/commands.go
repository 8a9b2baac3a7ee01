package vk

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/vulkantest/gpu"
)

func (d *Device) CreateCommandPool() (gpu.CommandPool, error) {
	pool, res, err := d.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: d.families.graphics,
	})
	if err != nil {
		return 0, check("vkCreateCommandPool", res, err)
	}
	h := d.id()
	d.commandPools[h] = commandPool{pool: pool}
	return gpu.CommandPool(h), nil
}

// ResetCommandPool resets the pool as a whole, returning every buffer
// allocated from it to the initial state.
func (d *Device) ResetCommandPool(pool gpu.CommandPool) error {
	p, err := lookup(d.commandPools, "command pool", uint64(pool))
	if err != nil {
		return err
	}
	res, err := d.deviceDriver.ResetCommandPool(p.pool, 0)
	return check("vkResetCommandPool", res, err)
}

func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	p, ok := d.commandPools[uint64(pool)]
	if !ok {
		return
	}
	for _, h := range p.buffers {
		delete(d.commandBuffers, h)
	}
	d.deviceDriver.DestroyCommandPool(p.pool, nil)
	delete(d.commandPools, uint64(pool))
}

func (d *Device) AllocateCommandBuffer(pool gpu.CommandPool) (gpu.CommandBuffer, error) {
	p, err := lookup(d.commandPools, "command pool", uint64(pool))
	if err != nil {
		return 0, err
	}
	buffers, res, err := d.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return 0, check("vkAllocateCommandBuffers", res, err)
	}
	h := d.id()
	d.commandBuffers[h] = buffers[0]
	p.buffers = append(p.buffers, h)
	d.commandPools[uint64(pool)] = p
	return gpu.CommandBuffer(h), nil
}

func (d *Device) BeginCommandBuffer(cmd gpu.CommandBuffer) error {
	buffer, err := lookup(d.commandBuffers, "command buffer", uint64(cmd))
	if err != nil {
		return err
	}
	res, err := d.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	return check("vkBeginCommandBuffer", res, err)
}

func (d *Device) EndCommandBuffer(cmd gpu.CommandBuffer) error {
	buffer, err := lookup(d.commandBuffers, "command buffer", uint64(cmd))
	if err != nil {
		return err
	}
	res, err := d.deviceDriver.EndCommandBuffer(buffer)
	return check("vkEndCommandBuffer", res, err)
}

func (d *Device) CmdBeginRenderPass(cmd gpu.CommandBuffer, info gpu.RenderPassBeginInfo) error {
	buffer, err := lookup(d.commandBuffers, "command buffer", uint64(cmd))
	if err != nil {
		return err
	}
	pass, err := lookup(d.renderPasses, "render pass", uint64(info.RenderPass))
	if err != nil {
		return err
	}
	framebuffer, err := lookup(d.framebuffers, "framebuffer", uint64(info.Framebuffer))
	if err != nil {
		return err
	}

	clearValues := []core1_0.ClearValue{core1_0.ClearValueFloat(info.ClearColor)}
	if info.HasDepth {
		clearValues = append(clearValues, core1_0.ClearValueDepthStencil{Depth: info.ClearDepth})
	}
	return d.deviceDriver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  pass,
			Framebuffer: framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent2D(info.Extent),
			},
			ClearValues: clearValues,
		})
}

// The Cmd* methods below cannot report errors; an unknown handle is logged
// and the command is skipped.

func (d *Device) CmdEndRenderPass(cmd gpu.CommandBuffer) {
	if buffer, ok := d.recording(cmd); ok {
		d.deviceDriver.CmdEndRenderPass(buffer)
	}
}

func (d *Device) CmdBindPipeline(cmd gpu.CommandBuffer, pipeline gpu.Pipeline) {
	buffer, ok := d.recording(cmd)
	if !ok {
		return
	}
	p, ok := d.pipelines[uint64(pipeline)]
	if !ok {
		d.log.Error("bind of unknown pipeline", "pipeline", pipeline)
		return
	}
	d.deviceDriver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, p)
}

func (d *Device) CmdBindDescriptorSets(cmd gpu.CommandBuffer, layout gpu.PipelineLayout, firstSet int, sets []gpu.DescriptorSet, dynamicOffsets []int) {
	buffer, ok := d.recording(cmd)
	if !ok {
		return
	}
	l, ok := d.pipelineLayouts[uint64(layout)]
	if !ok {
		d.log.Error("bind with unknown pipeline layout", "layout", layout)
		return
	}
	var descriptorSets []core1_0.DescriptorSet
	for _, h := range sets {
		set, ok := d.descriptorSets[uint64(h)]
		if !ok {
			d.log.Error("bind of unknown descriptor set", "set", h)
			return
		}
		descriptorSets = append(descriptorSets, set)
	}
	d.deviceDriver.CmdBindDescriptorSets(buffer, core1_0.PipelineBindPointGraphics, l, firstSet, descriptorSets, dynamicOffsets)
}

func (d *Device) CmdBindVertexBuffer(cmd gpu.CommandBuffer, vb gpu.Buffer, offset int) {
	buffer, ok := d.recording(cmd)
	if !ok {
		return
	}
	b, ok := d.buffers[uint64(vb)]
	if !ok {
		d.log.Error("bind of unknown vertex buffer", "buffer", vb)
		return
	}
	d.deviceDriver.CmdBindVertexBuffers(buffer, 0, []core1_0.Buffer{b.buffer}, []int{offset})
}

func (d *Device) CmdDraw(cmd gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) {
	if buffer, ok := d.recording(cmd); ok {
		d.deviceDriver.CmdDraw(buffer, vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
	}
}

func (d *Device) CmdCopyBuffer(cmd gpu.CommandBuffer, src, dst gpu.Buffer, size int) error {
	buffer, err := lookup(d.commandBuffers, "command buffer", uint64(cmd))
	if err != nil {
		return err
	}
	s, err := lookup(d.buffers, "buffer", uint64(src))
	if err != nil {
		return err
	}
	t, err := lookup(d.buffers, "buffer", uint64(dst))
	if err != nil {
		return err
	}
	return d.deviceDriver.CmdCopyBuffer(buffer, s.buffer, t.buffer, core1_0.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	})
}

func (d *Device) recording(cmd gpu.CommandBuffer) (core1_0.CommandBuffer, bool) {
	buffer, ok := d.commandBuffers[uint64(cmd)]
	if !ok {
		d.log.Error("command on unknown command buffer", "cmd", cmd)
	}
	return buffer, ok
}

func extent2D(e gpu.Extent) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}
