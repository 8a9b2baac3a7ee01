package renderer

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/gpu"
	"github.com/vkngwrapper/vulkantest/mesh"
)

// Uploader runs one-shot command buffers synchronously. It is used to move
// data from host-visible staging buffers into device-local memory.
type Uploader struct {
	ctx      *Context
	fence    gpu.Fence
	pool     gpu.CommandPool
	cmd      gpu.CommandBuffer
	deletion DeletionQueue
}

func NewUploader(ctx *Context) (*Uploader, error) {
	u := &Uploader{ctx: ctx}
	if err := u.init(); err != nil {
		return nil, errors.CombineErrors(err, u.Destroy())
	}
	return u, nil
}

func (u *Uploader) init() error {
	dev := u.ctx.Device

	var err error
	u.fence, err = dev.CreateFence(false)
	if err != nil {
		return errors.Wrap(err, "create upload fence")
	}
	u.deletion.Push(KindFence, uint64(u.fence), "upload fence")

	u.pool, err = dev.CreateCommandPool()
	if err != nil {
		return errors.Wrap(err, "create upload command pool")
	}
	u.deletion.Push(KindCommandPool, uint64(u.pool), "upload command pool")

	u.cmd, err = dev.AllocateCommandBuffer(u.pool)
	if err != nil {
		return errors.Wrap(err, "allocate upload command buffer")
	}
	return nil
}

// ImmediateSubmit records with record, submits the result and blocks until
// the GPU has executed it. record is called exactly once.
func (u *Uploader) ImmediateSubmit(record func(cmd gpu.CommandBuffer) error) error {
	dev := u.ctx.Device

	if err := dev.BeginCommandBuffer(u.cmd); err != nil {
		return errors.Wrap(err, "begin upload commands")
	}
	if err := record(u.cmd); err != nil {
		return errors.CombineErrors(errors.Wrap(err, "record upload commands"), dev.ResetCommandPool(u.pool))
	}
	if err := dev.EndCommandBuffer(u.cmd); err != nil {
		return errors.CombineErrors(errors.Wrap(err, "end upload commands"), dev.ResetCommandPool(u.pool))
	}

	err := dev.QueueSubmit(gpu.SubmitInfo{
		CommandBuffers: []gpu.CommandBuffer{u.cmd},
		Fence:          u.fence,
	})
	if err != nil {
		return errors.CombineErrors(errors.Wrap(err, "submit upload commands"), dev.ResetCommandPool(u.pool))
	}
	if err := u.ctx.waitFence(u.fence); err != nil {
		// The commands may still be executing and reading the caller's
		// buffers. Drain the queue before handing them back.
		if idleErr := dev.WaitIdle(); idleErr != nil {
			return errors.CombineErrors(err, errors.Wrap(idleErr, "drain after failed upload"))
		}
		return errors.CombineErrors(err, u.reset())
	}
	return u.reset()
}

// reset readies the fence and command buffer for the next submission.
func (u *Uploader) reset() error {
	dev := u.ctx.Device
	if err := dev.ResetFence(u.fence); err != nil {
		return errors.Wrap(err, "reset upload fence")
	}
	return errors.Wrap(dev.ResetCommandPool(u.pool), "reset upload command pool")
}

// UploadVertices copies vertices into a new device-local vertex buffer
// through a staging buffer. The staging buffer is gone by the time it
// returns.
func (u *Uploader) UploadVertices(vertices []mesh.Vertex) (AllocatedBuffer, error) {
	if len(vertices) == 0 {
		return AllocatedBuffer{}, errors.New("upload of empty vertex list")
	}
	dev := u.ctx.Device
	size := binary.Size(vertices)

	staging, err := CreateBuffer(u.ctx, size, gpu.BufferUsageTransferSrc, gpu.MemoryCPUOnly)
	if err != nil {
		return AllocatedBuffer{}, errors.Wrap(err, "staging buffer")
	}
	defer dev.DestroyBuffer(staging.Handle)

	if err := staging.Write(dev, 0, vertices); err != nil {
		return AllocatedBuffer{}, err
	}

	vb, err := CreateBuffer(u.ctx, size, gpu.BufferUsageVertexBuffer|gpu.BufferUsageTransferDst, gpu.MemoryGPUOnly)
	if err != nil {
		return AllocatedBuffer{}, errors.Wrap(err, "vertex buffer")
	}

	err = u.ImmediateSubmit(func(cmd gpu.CommandBuffer) error {
		return dev.CmdCopyBuffer(cmd, staging.Handle, vb.Handle, size)
	})
	if err != nil {
		dev.DestroyBuffer(vb.Handle)
		return AllocatedBuffer{}, err
	}

	u.ctx.Log.Debug("uploaded vertices", "count", len(vertices), "bytes", size)
	return vb, nil
}

// Destroy releases the upload fence and command pool. It is safe to call
// more than once.
func (u *Uploader) Destroy() error {
	return u.deletion.Flush(u.ctx.Device)
}
