package vk

import (
	"time"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vulkantest/gpu"
)

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.SwapchainImages, error) {
	caps, res, err := d.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(d.surface, d.physicalDevice)
	if err != nil {
		return gpu.SwapchainImages{}, check("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res, err)
	}
	formats, res, err := d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.surface, d.physicalDevice)
	if err != nil {
		return gpu.SwapchainImages{}, check("vkGetPhysicalDeviceSurfaceFormatsKHR", res, err)
	}
	presentModes, res, err := d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.surface, d.physicalDevice)
	if err != nil {
		return gpu.SwapchainImages{}, check("vkGetPhysicalDeviceSurfacePresentModesKHR", res, err)
	}

	surfaceFormat := chooseSurfaceFormat(formats)
	presentMode := choosePresentMode(presentModes, info.PresentMode)
	extent := chooseExtent(caps, info.Extent)
	if extent.Width == 0 || extent.Height == 0 {
		return gpu.SwapchainImages{}, gpu.NewError("vkCreateSwapchainKHR", gpu.StatusInitializationFailed)
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if d.families.graphics != d.families.present {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, d.families.graphics, d.families.present)
	}

	vkSwapchain, res, err := d.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: d.surface,

		MinImageCount:    chooseImageCount(caps, info.MinImageCount),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   caps.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return gpu.SwapchainImages{}, check("vkCreateSwapchainKHR", res, err)
	}

	images, res, err := d.swapchainExtension.GetSwapchainImages(vkSwapchain)
	if err != nil {
		d.swapchainExtension.DestroySwapchain(vkSwapchain, nil)
		return gpu.SwapchainImages{}, check("vkGetSwapchainImagesKHR", res, err)
	}

	sc := swapchain{swapchain: vkSwapchain}
	out := gpu.SwapchainImages{
		Format: gpu.Format(surfaceFormat.Format),
		Extent: gpu.Extent{Width: extent.Width, Height: extent.Height},
	}
	for _, img := range images {
		h := d.id()
		d.images[h] = image{image: img}
		sc.images = append(sc.images, h)
		out.Images = append(out.Images, gpu.Image(h))
	}
	h := d.id()
	d.swapchains[h] = sc
	out.Handle = gpu.Swapchain(h)

	d.log.Debug("swapchain created",
		"extent", out.Extent,
		"images", len(out.Images),
		"format", surfaceFormat.Format,
		"presentMode", presentMode)
	return out, nil
}

func (d *Device) DestroySwapchain(handle gpu.Swapchain) {
	sc, ok := d.swapchains[uint64(handle)]
	if !ok {
		return
	}
	for _, h := range sc.images {
		delete(d.images, h)
	}
	d.swapchainExtension.DestroySwapchain(sc.swapchain, nil)
	delete(d.swapchains, uint64(handle))
}

func (d *Device) AcquireNextImage(handle gpu.Swapchain, timeout time.Duration, signal gpu.Semaphore) (int, gpu.Status, error) {
	sc, err := lookup(d.swapchains, "swapchain", uint64(handle))
	if err != nil {
		return 0, gpu.StatusUnknown, err
	}
	semaphore, err := lookup(d.semaphores, "semaphore", uint64(signal))
	if err != nil {
		return 0, gpu.StatusUnknown, err
	}

	index, res, err := d.swapchainExtension.AcquireNextImage(sc.swapchain, timeout, &semaphore, nil)
	if err != nil {
		return 0, statusOf(res), check("vkAcquireNextImageKHR", res, err)
	}
	return index, statusOf(res), nil
}

func (d *Device) QueuePresent(info gpu.PresentInfo) (gpu.Status, error) {
	sc, err := lookup(d.swapchains, "swapchain", uint64(info.Swapchain))
	if err != nil {
		return gpu.StatusUnknown, err
	}
	waits, err := d.semaphoreList(info.WaitSemaphores)
	if err != nil {
		return gpu.StatusUnknown, err
	}

	res, err := d.swapchainExtension.QueuePresent(d.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: waits,
		Swapchains:     []khr_swapchain.Swapchain{sc.swapchain},
		ImageIndices:   []int{info.ImageIndex},
	})
	if err != nil {
		return statusOf(res), check("vkQueuePresentKHR", res, err)
	}
	return statusOf(res), nil
}
