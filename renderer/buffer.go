package renderer

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/gpu"
)

// AllocatedBuffer is a buffer together with the memory bound to it.
type AllocatedBuffer struct {
	Handle gpu.Buffer
	Size   int
	Usage  gpu.BufferUsage
	Memory gpu.MemoryUsage
}

func CreateBuffer(ctx *Context, size int, usage gpu.BufferUsage, memory gpu.MemoryUsage) (AllocatedBuffer, error) {
	handle, err := ctx.Device.CreateBuffer(gpu.BufferCreateInfo{
		Size:   size,
		Usage:  usage,
		Memory: memory,
	})
	if err != nil {
		return AllocatedBuffer{}, errors.Wrapf(err, "create %d byte %s buffer", size, memory)
	}
	return AllocatedBuffer{
		Handle: handle,
		Size:   size,
		Usage:  usage,
		Memory: memory,
	}, nil
}

// Write encodes data in device byte order and copies it into the buffer at
// offset. data must be a fixed-size value or a slice of them, as accepted
// by encoding/binary.
func (b AllocatedBuffer) Write(dev gpu.Device, offset int, data interface{}) error {
	if !b.Memory.HostVisible() {
		return errors.Newf("write to %s buffer", b.Memory)
	}
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, gpu.ByteOrder, data); err != nil {
		return errors.Wrap(err, "encode buffer data")
	}
	if offset < 0 || offset+buf.Len() > b.Size {
		return errors.Newf("write of %d bytes at offset %d overruns %d byte buffer", buf.Len(), offset, b.Size)
	}
	return errors.Wrap(dev.WriteBuffer(b.Handle, offset, buf.Bytes()), "write buffer")
}

// PadUniformBufferSize rounds size up to the device's minimum uniform
// buffer offset alignment, which is always a power of two.
func PadUniformBufferSize(size, minAlignment int) int {
	if minAlignment <= 0 {
		return size
	}
	return (size + minAlignment - 1) &^ (minAlignment - 1)
}
