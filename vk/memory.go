package vk

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/vulkantest/gpu"
)

func (d *Device) allocate(op string, typeBits uint32, size int, usage gpu.MemoryUsage) (core1_0.DeviceMemory, error) {
	memoryTypeIndex, err := findMemoryType(d.memoryTypes, typeBits, memoryProperties(usage))
	if err != nil {
		return core1_0.DeviceMemory{}, errors.CombineErrors(gpu.NewError(op, gpu.StatusOutOfDeviceMemory), err)
	}
	memory, res, err := d.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return core1_0.DeviceMemory{}, check(op, res, err)
	}
	return memory, nil
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	vkBuffer, res, err := d.deviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        info.Size,
		Usage:       core1_0.BufferUsageFlags(info.Usage),
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return 0, check("vkCreateBuffer", res, err)
	}

	memRequirements := d.deviceDriver.GetBufferMemoryRequirements(vkBuffer)
	memory, err := d.allocate("vkAllocateMemory", memRequirements.MemoryTypeBits, memRequirements.Size, info.Memory)
	if err != nil {
		d.deviceDriver.DestroyBuffer(vkBuffer, nil)
		return 0, err
	}

	res, err = d.deviceDriver.BindBufferMemory(vkBuffer, memory, 0)
	if err != nil {
		d.deviceDriver.DestroyBuffer(vkBuffer, nil)
		d.deviceDriver.FreeMemory(memory, nil)
		return 0, check("vkBindBufferMemory", res, err)
	}

	h := d.id()
	d.buffers[h] = buffer{buffer: vkBuffer, memory: memory, size: info.Size, usage: info.Memory}
	return gpu.Buffer(h), nil
}

func (d *Device) DestroyBuffer(handle gpu.Buffer) {
	b, ok := d.buffers[uint64(handle)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyBuffer(b.buffer, nil)
	d.deviceDriver.FreeMemory(b.memory, nil)
	delete(d.buffers, uint64(handle))
}

func (d *Device) WriteBuffer(handle gpu.Buffer, offset int, data []byte) error {
	b, err := lookup(d.buffers, "buffer", uint64(handle))
	if err != nil {
		return err
	}
	if !b.usage.HostVisible() {
		return errors.Newf("buffer %d is %s and cannot be mapped", handle, b.usage)
	}
	if offset < 0 || offset+len(data) > b.size {
		return errors.Newf("write of %d bytes at %d overruns buffer %d of %d bytes", len(data), offset, handle, b.size)
	}
	if len(data) == 0 {
		return nil
	}

	memoryPtr, res, err := d.deviceDriver.MapMemory(b.memory, offset, len(data), 0)
	if err != nil {
		return check("vkMapMemory", res, err)
	}
	defer d.deviceDriver.UnmapMemory(b.memory)

	copy(unsafe.Slice((*byte)(memoryPtr), len(data)), data)
	return nil
}

func (d *Device) CreateImage(info gpu.ImageCreateInfo) (gpu.Image, error) {
	vkImage, res, err := d.deviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        core1_0.Format(info.Format),
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         core1_0.ImageUsageFlags(info.Usage),
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return 0, check("vkCreateImage", res, err)
	}

	memReqs := d.deviceDriver.GetImageMemoryRequirements(vkImage)
	memory, err := d.allocate("vkAllocateMemory", memReqs.MemoryTypeBits, memReqs.Size, gpu.MemoryGPUOnly)
	if err != nil {
		d.deviceDriver.DestroyImage(vkImage, nil)
		return 0, err
	}

	res, err = d.deviceDriver.BindImageMemory(vkImage, memory, 0)
	if err != nil {
		d.deviceDriver.DestroyImage(vkImage, nil)
		d.deviceDriver.FreeMemory(memory, nil)
		return 0, check("vkBindImageMemory", res, err)
	}

	h := d.id()
	d.images[h] = image{image: vkImage, memory: memory, owned: true}
	return gpu.Image(h), nil
}

// DestroyImage ignores swapchain images, which go away with their
// swapchain.
func (d *Device) DestroyImage(handle gpu.Image) {
	img, ok := d.images[uint64(handle)]
	if !ok || !img.owned {
		return
	}
	d.deviceDriver.DestroyImage(img.image, nil)
	d.deviceDriver.FreeMemory(img.memory, nil)
	delete(d.images, uint64(handle))
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	img, err := lookup(d.images, "image", uint64(info.Image))
	if err != nil {
		return 0, err
	}
	view, res, err := d.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    img.image,
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(info.Format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectFlags(info.Aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return 0, check("vkCreateImageView", res, err)
	}
	h := d.id()
	d.imageViews[h] = view
	return gpu.ImageView(h), nil
}

func (d *Device) DestroyImageView(handle gpu.ImageView) {
	view, ok := d.imageViews[uint64(handle)]
	if !ok {
		return
	}
	d.deviceDriver.DestroyImageView(view, nil)
	delete(d.imageViews, uint64(handle))
}

func (d *Device) SupportsDepthFormat(format gpu.Format) bool {
	props := d.instanceDriver.GetPhysicalDeviceFormatProperties(d.physicalDevice, core1_0.Format(format))
	return props.OptimalTilingFeatures&core1_0.FormatFeatureDepthStencilAttachment != 0
}
