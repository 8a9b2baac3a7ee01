// Package vk implements gpu.Device on top of vkngwrapper. Objects are kept
// in per-kind tables keyed by the handles handed to the renderer.
package vk

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkngwrapper/vulkantest/gpu"
)

var ErrNoSuitableDevice = errors.New("no suitable physical device")

var _ gpu.Device = (*Device)(nil)

type Options struct {
	AppName string
	Log     *log.Logger
}

type table[T any] map[uint64]T

type buffer struct {
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
	size   int
	usage  gpu.MemoryUsage
}

type image struct {
	image  core1_0.Image
	memory core1_0.DeviceMemory
	// Swapchain images are owned by their swapchain and have no memory.
	owned bool
}

type commandPool struct {
	pool    core1_0.CommandPool
	buffers []uint64
}

type descriptorPool struct {
	pool core1_0.DescriptorPool
	sets []uint64
}

type swapchain struct {
	swapchain khr_swapchain.Swapchain
	images    []uint64
}

// Device owns the instance, surface and logical device created for one
// window.
type Device struct {
	log    *log.Logger
	window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver        ext_debug_utils.ExtensionDriver
	debugMessenger     ext_debug_utils.DebugUtilsMessenger
	surfaceExtension   khr_surface.ExtensionDriver
	surface            khr_surface.Surface
	swapchainExtension khr_swapchain.ExtensionDriver

	physicalDevice core1_0.PhysicalDevice
	families       queueFamilies
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue
	memoryTypes    []core1_0.MemoryType
	props          gpu.DeviceProperties

	next            uint64
	fences          table[core1_0.Fence]
	semaphores      table[core1_0.Semaphore]
	commandPools    table[commandPool]
	commandBuffers  table[core1_0.CommandBuffer]
	buffers         table[buffer]
	images          table[image]
	imageViews      table[core1_0.ImageView]
	renderPasses    table[core1_0.RenderPass]
	framebuffers    table[core1_0.Framebuffer]
	shaderModules   table[core1_0.ShaderModule]
	setLayouts      table[core1_0.DescriptorSetLayout]
	descriptorPools table[descriptorPool]
	descriptorSets  table[core1_0.DescriptorSet]
	pipelineLayouts table[core1_0.PipelineLayout]
	pipelines       table[core1_0.Pipeline]
	swapchains      table[swapchain]
}

// Bootstrap creates a Vulkan 1.1 instance with the window's surface
// extensions, picks the first physical device that can draw to that surface
// and creates a logical device on it. Validation is on unless the binary is
// built with the release tag.
func Bootstrap(window *sdl.Window, opts Options) (*Device, error) {
	if opts.Log == nil {
		opts.Log = log.New(io.Discard)
	}
	if opts.AppName == "" {
		opts.AppName = "vulkantest"
	}

	d := &Device{
		log:             opts.Log,
		window:          window,
		fences:          table[core1_0.Fence]{},
		semaphores:      table[core1_0.Semaphore]{},
		commandPools:    table[commandPool]{},
		commandBuffers:  table[core1_0.CommandBuffer]{},
		buffers:         table[buffer]{},
		images:          table[image]{},
		imageViews:      table[core1_0.ImageView]{},
		renderPasses:    table[core1_0.RenderPass]{},
		framebuffers:    table[core1_0.Framebuffer]{},
		shaderModules:   table[core1_0.ShaderModule]{},
		setLayouts:      table[core1_0.DescriptorSetLayout]{},
		descriptorPools: table[descriptorPool]{},
		descriptorSets:  table[core1_0.DescriptorSet]{},
		pipelineLayouts: table[core1_0.PipelineLayout]{},
		pipelines:       table[core1_0.Pipeline]{},
		swapchains:      table[swapchain]{},
	}

	var err error
	d.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"create instance", func() error { return d.createInstance(opts.AppName) }},
		{"set up debug messenger", d.setupDebugMessenger},
		{"create surface", d.createSurface},
		{"pick physical device", d.pickPhysicalDevice},
		{"create logical device", d.createLogicalDevice},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, errors.CombineErrors(errors.Wrap(err, step.name), d.Destroy())
		}
	}

	d.log.Info("vulkan device ready",
		"device", d.props.DeviceName,
		"api", d.props.APIVersion,
		"graphicsFamily", d.families.graphics,
		"presentFamily", d.families.present)
	return d, nil
}

func (d *Device) createInstance(appName string) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    appName,
		ApplicationVersion: common.CreateVersion(0, 1, 0),
		EngineName:         "vulkantest",
		EngineVersion:      common.CreateVersion(0, 1, 0),
		APIVersion:         common.Vulkan1_1,
	}

	sdlExtensions := d.window.VulkanGetInstanceExtensions()
	extensions, _, err := d.globalDriver.AvailableExtensions()
	if err != nil {
		return err
	}
	for _, ext := range sdlExtensions {
		if _, ok := extensions[ext]; !ok {
			return errors.Newf("missing instance extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if _, ok := extensions[khr_portability_enumeration.ExtensionName]; ok {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if enableValidationLayers {
		layers, _, err := d.globalDriver.AvailableLayers()
		if err != nil {
			return err
		}
		for _, layer := range validationLayers {
			if _, ok := layers[layer]; !ok {
				return errors.Newf("validation layer %s not available, install the Vulkan SDK or build with -tags release", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		instanceOptions.Next = d.debugMessengerOptions()
	}

	var res common.VkResult
	d.instanceDriver, res, err = d.globalDriver.CreateInstance(nil, instanceOptions)
	return check("vkCreateInstance", res, err)
}

func (d *Device) createSurface() error {
	d.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(d.instanceDriver.Instance(), d.surfaceExtension, d.window)
	if err != nil {
		return err
	}
	d.surface = surface
	return nil
}

func (d *Device) pickPhysicalDevice() error {
	physicalDevices, res, err := d.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return check("vkEnumeratePhysicalDevices", res, err)
	}

	for _, device := range physicalDevices {
		families, ok, err := d.checkDevice(device)
		if err != nil {
			return err
		}
		if ok {
			d.physicalDevice = device
			d.families = families
			return nil
		}
	}
	return ErrNoSuitableDevice
}

// checkDevice reports whether device supports Vulkan 1.1, the swapchain
// extension and has queue families that can draw to and present on the
// surface.
func (d *Device) checkDevice(device core1_0.PhysicalDevice) (queueFamilies, bool, error) {
	props, err := d.instanceDriver.GetPhysicalDeviceProperties(device)
	if err != nil {
		return queueFamilies{}, false, err
	}
	if !props.APIVersion.IsAtLeast(common.Vulkan1_1) {
		d.log.Debug("skipping device", "device", props.DeviceName, "reason", "api "+props.APIVersion.String())
		return queueFamilies{}, false, nil
	}

	extensions, res, err := d.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return queueFamilies{}, false, check("vkEnumerateDeviceExtensionProperties", res, err)
	}
	for _, ext := range deviceExtensions {
		if _, ok := extensions[ext]; !ok {
			d.log.Debug("skipping device", "device", props.DeviceName, "reason", "missing "+ext)
			return queueFamilies{}, false, nil
		}
	}

	var flags []core1_0.QueueFlags
	for _, family := range d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device) {
		flags = append(flags, family.QueueFlags)
	}
	families, err := findQueueFamilies(flags, func(idx int) (bool, error) {
		supported, res, err := d.surfaceExtension.GetPhysicalDeviceSurfaceSupport(d.surface, device, idx)
		return supported, check("vkGetPhysicalDeviceSurfaceSupportKHR", res, err)
	})
	if err != nil {
		return queueFamilies{}, false, err
	}
	if !families.complete() {
		d.log.Debug("skipping device", "device", props.DeviceName, "reason", "no graphics or present queue")
		return queueFamilies{}, false, nil
	}

	formats, res, err := d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.surface, device)
	if err != nil {
		return queueFamilies{}, false, check("vkGetPhysicalDeviceSurfaceFormatsKHR", res, err)
	}
	presentModes, res, err := d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.surface, device)
	if err != nil {
		return queueFamilies{}, false, check("vkGetPhysicalDeviceSurfacePresentModesKHR", res, err)
	}
	return families, len(formats) > 0 && len(presentModes) > 0, nil
}

func (d *Device) createLogicalDevice() error {
	uniqueQueueFamilies := []int{d.families.graphics}
	if d.families.present != d.families.graphics {
		uniqueQueueFamilies = append(uniqueQueueFamilies, d.families.present)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, family := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := append([]string(nil), deviceExtensions...)
	extensions, res, err := d.instanceDriver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return check("vkEnumerateDeviceExtensionProperties", res, err)
	}
	// Needed on MoltenVK.
	if _, ok := extensions[khr_portability_subset.ExtensionName]; ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	d.deviceDriver, res, err = d.instanceDriver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return check("vkCreateDevice", res, err)
	}

	d.graphicsQueue = d.deviceDriver.GetQueue(d.families.graphics, 0)
	d.presentQueue = d.deviceDriver.GetQueue(d.families.present, 0)
	d.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(d.deviceDriver)
	d.memoryTypes = d.instanceDriver.GetPhysicalDeviceMemoryProperties(d.physicalDevice).MemoryTypes

	props, err := d.instanceDriver.GetPhysicalDeviceProperties(d.physicalDevice)
	if err != nil {
		return err
	}
	d.props = gpu.DeviceProperties{
		DeviceName:                      props.DeviceName,
		APIVersion:                      props.APIVersion.String(),
		GraphicsQueueFamily:             d.families.graphics,
		MinUniformBufferOffsetAlignment: props.Limits.MinUniformBufferOffsetAlignment,
		MinStorageBufferOffsetAlignment: props.Limits.MinStorageBufferOffsetAlignment,
	}
	return nil
}

func (d *Device) Properties() gpu.DeviceProperties {
	return d.props
}

// Destroy tears down the logical device, surface and instance. Objects the
// renderer failed to release are destroyed by the driver along with the
// device and logged as leaks. Destroy is safe to call on a partially
// bootstrapped device and more than once.
func (d *Device) Destroy() error {
	var err error
	if d.deviceDriver != nil {
		if _, waitErr := d.deviceDriver.DeviceWaitIdle(); waitErr != nil {
			err = errors.Wrap(waitErr, "wait idle before destroy")
		}
		if n := d.live(); n > 0 {
			d.log.Warn("destroying device with live objects", "count", n)
		}
		d.deviceDriver.DestroyDevice(nil)
		d.deviceDriver = nil
	}

	if d.surface.Initialized() {
		d.surfaceExtension.DestroySurface(d.surface, nil)
		d.surface = khr_surface.Surface{}
	}

	if d.debugMessenger.Initialized() {
		d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil)
		d.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if d.instanceDriver != nil {
		d.instanceDriver.DestroyInstance(nil)
		d.instanceDriver = nil
	}
	return err
}

func (d *Device) live() int {
	return len(d.fences) + len(d.semaphores) + len(d.commandPools) +
		len(d.buffers) + len(d.imageViews) + len(d.renderPasses) +
		len(d.framebuffers) + len(d.shaderModules) + len(d.setLayouts) +
		len(d.descriptorPools) + len(d.pipelineLayouts) + len(d.pipelines) +
		len(d.swapchains)
}

func (d *Device) id() uint64 {
	d.next++
	return d.next
}

func lookup[T any](t table[T], kind string, handle uint64) (T, error) {
	v, ok := t[handle]
	if !ok {
		var zero T
		return zero, errors.Newf("unknown %s %d", kind, handle)
	}
	return v, nil
}
