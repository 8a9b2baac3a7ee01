package vk

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/vulkantest/gpu"
)

func renderPassCreateInfo(info gpu.RenderPassCreateInfo) core1_0.RenderPassCreateInfo {
	var out core1_0.RenderPassCreateInfo
	for _, a := range info.Attachments {
		out.Attachments = append(out.Attachments, core1_0.AttachmentDescription{
			Format:         core1_0.Format(a.Format),
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOp(a.LoadOp),
			StoreOp:        core1_0.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  core1_0.AttachmentLoadOp(a.StencilLoadOp),
			StencilStoreOp: core1_0.AttachmentStoreOp(a.StencilStoreOp),
			InitialLayout:  core1_0.ImageLayout(a.InitialLayout),
			FinalLayout:    core1_0.ImageLayout(a.FinalLayout),
		})
	}

	subpass := core1_0.SubpassDescription{PipelineBindPoint: core1_0.PipelineBindPointGraphics}
	for _, ref := range info.ColorAttachments {
		subpass.ColorAttachments = append(subpass.ColorAttachments, attachmentReference(ref))
	}
	if info.DepthAttachment != nil {
		depth := attachmentReference(*info.DepthAttachment)
		subpass.DepthStencilAttachment = &depth
	}
	out.Subpasses = []core1_0.SubpassDescription{subpass}

	for _, dep := range info.Dependencies {
		out.SubpassDependencies = append(out.SubpassDependencies, core1_0.SubpassDependency{
			SrcSubpass: dep.SrcSubpass,
			DstSubpass: dep.DstSubpass,

			SrcStageMask:  core1_0.PipelineStageFlags(dep.SrcStageMask),
			SrcAccessMask: core1_0.AccessFlags(dep.SrcAccessMask),

			DstStageMask:  core1_0.PipelineStageFlags(dep.DstStageMask),
			DstAccessMask: core1_0.AccessFlags(dep.DstAccessMask),
		})
	}
	return out
}

func attachmentReference(ref gpu.AttachmentReference) core1_0.AttachmentReference {
	return core1_0.AttachmentReference{
		Attachment: ref.Attachment,
		Layout:     core1_0.ImageLayout(ref.Layout),
	}
}

func vertexInputState(in gpu.VertexInput) *core1_0.PipelineVertexInputStateCreateInfo {
	state := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions: []core1_0.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    in.Stride,
				InputRate: core1_0.VertexInputRateVertex,
			},
		},
	}
	for _, attr := range in.Attributes {
		state.VertexAttributeDescriptions = append(state.VertexAttributeDescriptions, core1_0.VertexInputAttributeDescription{
			Binding:  0,
			Location: attr.Location,
			Format:   core1_0.Format(attr.Format),
			Offset:   attr.Offset,
		})
	}
	return state
}

func (d *Device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	pass, res, err := d.deviceDriver.CreateRenderPass(nil, renderPassCreateInfo(info))
	if err != nil {
		return 0, check("vkCreateRenderPass", res, err)
	}
	h := d.id()
	d.renderPasses[h] = pass
	return gpu.RenderPass(h), nil
}

func (d *Device) DestroyRenderPass(pass gpu.RenderPass) {
	p, ok := d.renderPasses[uint64(pass)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyRenderPass(p, nil)
	delete(d.renderPasses, uint64(pass))
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	pass, err := lookup(d.renderPasses, "render pass", uint64(info.RenderPass))
	if err != nil {
		return 0, err
	}
	var attachments []core1_0.ImageView
	for _, h := range info.Attachments {
		view, err := lookup(d.imageViews, "image view", uint64(h))
		if err != nil {
			return 0, err
		}
		attachments = append(attachments, view)
	}

	framebuffer, res, err := d.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  pass,
		Layers:      1,
		Attachments: attachments,
		Width:       info.Extent.Width,
		Height:      info.Extent.Height,
	})
	if err != nil {
		return 0, check("vkCreateFramebuffer", res, err)
	}
	h := d.id()
	d.framebuffers[h] = framebuffer
	return gpu.Framebuffer(h), nil
}

func (d *Device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	f, ok := d.framebuffers[uint64(framebuffer)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyFramebuffer(f, nil)
	delete(d.framebuffers, uint64(framebuffer))
}

func (d *Device) CreateShaderModule(code []byte) (gpu.ShaderModule, error) {
	bytecode, err := bytesToBytecode(code)
	if err != nil {
		return 0, err
	}
	module, res, err := d.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytecode,
	})
	if err != nil {
		return 0, check("vkCreateShaderModule", res, err)
	}
	h := d.id()
	d.shaderModules[h] = module
	return gpu.ShaderModule(h), nil
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	m, ok := d.shaderModules[uint64(module)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyShaderModule(m, nil)
	delete(d.shaderModules, uint64(module))
}

func (d *Device) CreateDescriptorSetLayout(bindings []gpu.DescriptorSetLayoutBinding) (gpu.DescriptorSetLayout, error) {
	var info core1_0.DescriptorSetLayoutCreateInfo
	for _, b := range bindings {
		info.Bindings = append(info.Bindings, core1_0.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  core1_0.DescriptorType(b.Type),
			DescriptorCount: b.Count,

			StageFlags: core1_0.ShaderStageFlags(b.Stages),
		})
	}
	layout, res, err := d.deviceDriver.CreateDescriptorSetLayout(nil, info)
	if err != nil {
		return 0, check("vkCreateDescriptorSetLayout", res, err)
	}
	h := d.id()
	d.setLayouts[h] = layout
	return gpu.DescriptorSetLayout(h), nil
}

func (d *Device) DestroyDescriptorSetLayout(layout gpu.DescriptorSetLayout) {
	l, ok := d.setLayouts[uint64(layout)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyDescriptorSetLayout(l, nil)
	delete(d.setLayouts, uint64(layout))
}

func (d *Device) CreateDescriptorPool(info gpu.DescriptorPoolCreateInfo) (gpu.DescriptorPool, error) {
	create := core1_0.DescriptorPoolCreateInfo{MaxSets: info.MaxSets}
	for _, size := range info.Sizes {
		create.PoolSizes = append(create.PoolSizes, core1_0.DescriptorPoolSize{
			Type:            core1_0.DescriptorType(size.Type),
			DescriptorCount: size.Count,
		})
	}
	pool, res, err := d.deviceDriver.CreateDescriptorPool(nil, create)
	if err != nil {
		return 0, check("vkCreateDescriptorPool", res, err)
	}
	h := d.id()
	d.descriptorPools[h] = descriptorPool{pool: pool}
	return gpu.DescriptorPool(h), nil
}

// DestroyDescriptorPool also forgets every set allocated from the pool.
func (d *Device) DestroyDescriptorPool(pool gpu.DescriptorPool) {
	p, ok := d.descriptorPools[uint64(pool)]
	if !ok {
		return
	}
	for _, h := range p.sets {
		delete(d.descriptorSets, h)
	}
	d.deviceDriver.DestroyDescriptorPool(p.pool, nil)
	delete(d.descriptorPools, uint64(pool))
}

func (d *Device) AllocateDescriptorSet(pool gpu.DescriptorPool, layout gpu.DescriptorSetLayout) (gpu.DescriptorSet, error) {
	p, err := lookup(d.descriptorPools, "descriptor pool", uint64(pool))
	if err != nil {
		return 0, err
	}
	l, err := lookup(d.setLayouts, "descriptor set layout", uint64(layout))
	if err != nil {
		return 0, err
	}
	sets, res, err := d.deviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.pool,
		SetLayouts:     []core1_0.DescriptorSetLayout{l},
	})
	if err != nil {
		return 0, check("vkAllocateDescriptorSets", res, err)
	}
	h := d.id()
	d.descriptorSets[h] = sets[0]
	p.sets = append(p.sets, h)
	d.descriptorPools[uint64(pool)] = p
	return gpu.DescriptorSet(h), nil
}

func (d *Device) UpdateDescriptorSets(writes ...gpu.DescriptorBufferWrite) error {
	var out []core1_0.WriteDescriptorSet
	for _, w := range writes {
		set, err := lookup(d.descriptorSets, "descriptor set", uint64(w.Set))
		if err != nil {
			return err
		}
		b, err := lookup(d.buffers, "buffer", uint64(w.Buffer))
		if err != nil {
			return err
		}
		out = append(out, core1_0.WriteDescriptorSet{
			DstSet:          set,
			DstBinding:      w.Binding,
			DstArrayElement: 0,

			DescriptorType: core1_0.DescriptorType(w.Type),

			BufferInfo: []core1_0.DescriptorBufferInfo{
				{
					Buffer: b.buffer,
					Offset: w.Offset,
					Range:  w.Range,
				},
			},
		})
	}
	return d.deviceDriver.UpdateDescriptorSets(out, nil)
}

func (d *Device) CreatePipelineLayout(setLayouts []gpu.DescriptorSetLayout) (gpu.PipelineLayout, error) {
	var info core1_0.PipelineLayoutCreateInfo
	for _, h := range setLayouts {
		l, err := lookup(d.setLayouts, "descriptor set layout", uint64(h))
		if err != nil {
			return 0, err
		}
		info.SetLayouts = append(info.SetLayouts, l)
	}
	layout, res, err := d.deviceDriver.CreatePipelineLayout(nil, info)
	if err != nil {
		return 0, check("vkCreatePipelineLayout", res, err)
	}
	h := d.id()
	d.pipelineLayouts[h] = layout
	return gpu.PipelineLayout(h), nil
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	l, ok := d.pipelineLayouts[uint64(layout)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyPipelineLayout(l, nil)
	delete(d.pipelineLayouts, uint64(layout))
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	vertShader, err := lookup(d.shaderModules, "shader module", uint64(info.VertexShader))
	if err != nil {
		return 0, err
	}
	fragShader, err := lookup(d.shaderModules, "shader module", uint64(info.FragmentShader))
	if err != nil {
		return 0, err
	}
	layout, err := lookup(d.pipelineLayouts, "pipeline layout", uint64(info.Layout))
	if err != nil {
		return 0, err
	}
	pass, err := lookup(d.renderPasses, "render pass", uint64(info.RenderPass))
	if err != nil {
		return 0, err
	}

	entry := info.EntryPoint
	if entry == "" {
		entry = "main"
	}
	extent := extent2D(info.Extent)

	var depthStencil *core1_0.PipelineDepthStencilStateCreateInfo
	if info.DepthTest {
		depthStencil = &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLessOrEqual,
			MinDepthBounds:   0,
			MaxDepthBounds:   1,
		}
	}

	pipelines, res, err := d.deviceDriver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   entry,
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   entry,
				},
			},
			VertexInputState: vertexInputState(info.VertexInput),
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology: core1_0.PrimitiveTopologyTriangleList,
			},
			ViewportState: &core1_0.PipelineViewportStateCreateInfo{
				Viewports: []core1_0.Viewport{
					{
						Width:    float32(extent.Width),
						Height:   float32(extent.Height),
						MinDepth: 0,
						MaxDepth: 1,
					},
				},
				Scissors: []core1_0.Rect2D{
					{
						Offset: core1_0.Offset2D{X: 0, Y: 0},
						Extent: extent,
					},
				},
			},
			// No culling, so winding order does not matter.
			RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
				PolygonMode: core1_0.PolygonModeFill,
				FrontFace:   core1_0.FrontFaceClockwise,
				LineWidth:   1.0,
			},
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				RasterizationSamples: core1_0.Samples1,
				MinSampleShading:     1.0,
			},
			DepthStencilState: depthStencil,
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOp: core1_0.LogicOpCopy,
				Attachments: []core1_0.PipelineColorBlendAttachmentState{
					{
						ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
					},
				},
			},
			Layout:            layout,
			RenderPass:        pass,
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	)
	if err != nil {
		return 0, check("vkCreateGraphicsPipelines", res, err)
	}
	h := d.id()
	d.pipelines[h] = pipelines[0]
	return gpu.Pipeline(h), nil
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	p, ok := d.pipelines[uint64(pipeline)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyPipeline(p, nil)
	delete(d.pipelines, uint64(pipeline))
}
