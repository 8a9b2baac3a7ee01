package renderer

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/gpu"
)

// Swapchain owns the presentable images, one view and one framebuffer per
// image, and the depth buffer they share.
type Swapchain struct {
	ctx *Context

	Handle       gpu.Swapchain
	Format       gpu.Format
	Extent       gpu.Extent
	Images       []gpu.Image
	Views        []gpu.ImageView
	Framebuffers []gpu.Framebuffer

	DepthFormat gpu.Format
	DepthImage  gpu.Image
	DepthView   gpu.ImageView

	deletion DeletionQueue
}

// NewSwapchain builds a FIFO swapchain of at least SwapchainImageCount
// images and a depth buffer of the same extent.
func NewSwapchain(ctx *Context, extent gpu.Extent) (*Swapchain, error) {
	s := &Swapchain{ctx: ctx}
	if err := s.init(extent); err != nil {
		return nil, errors.CombineErrors(err, s.Destroy())
	}
	ctx.Log.Info("created swapchain",
		"images", len(s.Images), "width", s.Extent.Width, "height", s.Extent.Height, "depth", s.DepthFormat)
	return s, nil
}

func (s *Swapchain) init(extent gpu.Extent) error {
	dev := s.ctx.Device

	images, err := dev.CreateSwapchain(gpu.SwapchainCreateInfo{
		Extent:        extent,
		MinImageCount: SwapchainImageCount,
		PresentMode:   gpu.PresentModeFIFO,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	s.Handle = images.Handle
	s.Format = images.Format
	s.Extent = images.Extent
	s.Images = images.Images
	s.deletion.Push(KindSwapchain, uint64(s.Handle), "swapchain")

	for i, image := range s.Images {
		view, err := dev.CreateImageView(gpu.ImageViewCreateInfo{
			Image:  image,
			Format: s.Format,
			Aspect: gpu.ImageAspectColor,
		})
		if err != nil {
			return errors.Wrapf(err, "create view of swapchain image %d", i)
		}
		s.Views = append(s.Views, view)
		s.deletion.Push(KindImageView, uint64(view), fmt.Sprintf("swapchain view %d", i))
	}

	s.DepthFormat, err = FindDepthFormat(dev)
	if err != nil {
		return err
	}
	s.DepthImage, err = dev.CreateImage(gpu.ImageCreateInfo{
		Extent: s.Extent,
		Format: s.DepthFormat,
		Usage:  gpu.ImageUsageDepthStencilAttachment,
	})
	if err != nil {
		return errors.Wrap(err, "create depth image")
	}
	s.deletion.Push(KindImage, uint64(s.DepthImage), "depth image")

	aspect := gpu.ImageAspectDepth
	if s.DepthFormat.HasStencil() {
		aspect |= gpu.ImageAspectStencil
	}
	s.DepthView, err = dev.CreateImageView(gpu.ImageViewCreateInfo{
		Image:  s.DepthImage,
		Format: s.DepthFormat,
		Aspect: aspect,
	})
	if err != nil {
		return errors.Wrap(err, "create depth view")
	}
	s.deletion.Push(KindImageView, uint64(s.DepthView), "depth view")
	return nil
}

// FindDepthFormat returns the first supported entry of
// gpu.DepthFormatCandidates.
func FindDepthFormat(dev gpu.Device) (gpu.Format, error) {
	for _, format := range gpu.DepthFormatCandidates {
		if dev.SupportsDepthFormat(format) {
			return format, nil
		}
	}
	return gpu.FormatUndefined, ErrNoDepthFormat
}

// MeshRenderPassInfo describes the single-subpass pass used to draw meshes:
// attachment 0 is the swapchain image, attachment 1 the depth buffer.
func MeshRenderPassInfo(color, depth gpu.Format) gpu.RenderPassCreateInfo {
	return gpu.RenderPassCreateInfo{
		Attachments: []gpu.AttachmentDescription{
			{
				Format:         color,
				LoadOp:         gpu.LoadOpClear,
				StoreOp:        gpu.StoreOpStore,
				StencilLoadOp:  gpu.LoadOpDontCare,
				StencilStoreOp: gpu.StoreOpDontCare,
				InitialLayout:  gpu.ImageLayoutUndefined,
				FinalLayout:    gpu.ImageLayoutPresentSrc,
			},
			{
				Format:         depth,
				LoadOp:         gpu.LoadOpClear,
				StoreOp:        gpu.StoreOpStore,
				StencilLoadOp:  gpu.LoadOpClear,
				StencilStoreOp: gpu.StoreOpDontCare,
				InitialLayout:  gpu.ImageLayoutUndefined,
				FinalLayout:    gpu.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		ColorAttachments: []gpu.AttachmentReference{
			{Attachment: 0, Layout: gpu.ImageLayoutColorAttachmentOptimal},
		},
		DepthAttachment: &gpu.AttachmentReference{
			Attachment: 1,
			Layout:     gpu.ImageLayoutDepthStencilAttachmentOptimal,
		},
		Dependencies: []gpu.SubpassDependency{
			{
				SrcSubpass:    gpu.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  gpu.StageColorAttachmentOutput,
				DstStageMask:  gpu.StageColorAttachmentOutput,
				DstAccessMask: gpu.AccessColorAttachmentWrite,
			},
			{
				SrcSubpass:    gpu.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  gpu.StageEarlyFragmentTests | gpu.StageLateFragmentTests,
				DstStageMask:  gpu.StageEarlyFragmentTests | gpu.StageLateFragmentTests,
				DstAccessMask: gpu.AccessDepthStencilAttachmentRead | gpu.AccessDepthStencilAttachmentWrite,
			},
		},
	}
}

// CreateFramebuffers builds one framebuffer per swapchain image, each
// binding that image's view and the shared depth view.
func (s *Swapchain) CreateFramebuffers(renderPass gpu.RenderPass) error {
	dev := s.ctx.Device
	for i, view := range s.Views {
		fb, err := dev.CreateFramebuffer(gpu.FramebufferCreateInfo{
			RenderPass:  renderPass,
			Attachments: []gpu.ImageView{view, s.DepthView},
			Extent:      s.Extent,
		})
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		s.Framebuffers = append(s.Framebuffers, fb)
		s.deletion.Push(KindFramebuffer, uint64(fb), fmt.Sprintf("framebuffer %d", i))
	}
	return nil
}

// Destroy releases framebuffers, views, the depth buffer and the swapchain.
// It is safe to call more than once.
func (s *Swapchain) Destroy() error {
	if err := s.deletion.Flush(s.ctx.Device); err != nil {
		return err
	}
	s.Framebuffers, s.Views, s.Images = nil, nil, nil
	s.Handle, s.DepthImage, s.DepthView = 0, 0, 0
	return nil
}
