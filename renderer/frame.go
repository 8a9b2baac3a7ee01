package renderer

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/gpu"
)

type SlotState int

const (
	// SlotIdle slots have no GPU work outstanding that the CPU knows of.
	SlotIdle SlotState = iota
	// SlotRecording slots have waited out their fence and are being filled.
	SlotRecording
	// SlotInFlight slots have been submitted and are owned by the GPU until
	// their fence signals.
	SlotInFlight
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotRecording:
		return "recording"
	case SlotInFlight:
		return "in-flight"
	}
	return fmt.Sprintf("SlotState(%d)", int(s))
}

// FrameSlot holds everything one frame in flight needs.
type FrameSlot struct {
	Index int
	State SlotState

	CommandPool   gpu.CommandPool
	CommandBuffer gpu.CommandBuffer

	// RenderFence signals when the slot's last submission has completed.
	RenderFence gpu.Fence
	// AcquireSemaphore is signaled when the swapchain image is ready to be
	// drawn to.
	AcquireSemaphore gpu.Semaphore
	// ReleaseSemaphore is signaled when rendering is done and the image can
	// be presented.
	ReleaseSemaphore gpu.Semaphore

	CameraBuffer     AllocatedBuffer
	GlobalDescriptor gpu.DescriptorSet
	ObjectBuffer     AllocatedBuffer
	ObjectDescriptor gpu.DescriptorSet
}

// SlotIndex maps a frame counter onto a ring of n slots.
func SlotIndex(counter uint64, n int) int {
	return int(counter % uint64(n))
}

// FrameRing hands out frame slots round-robin and makes sure a slot is
// never reused before the GPU is done with it.
type FrameRing struct {
	ctx      *Context
	slots    []*FrameSlot
	counter  uint64
	deletion DeletionQueue
}

// NewFrameRing creates FrameOverlap slots.
func NewFrameRing(ctx *Context) (*FrameRing, error) {
	return newFrameRing(ctx, FrameOverlap)
}

func newFrameRing(ctx *Context, n int) (*FrameRing, error) {
	if n < 1 {
		return nil, errors.Newf("frame ring of %d slots", n)
	}
	r := &FrameRing{ctx: ctx}
	for i := 0; i < n; i++ {
		slot, err := r.createSlot(i)
		if err != nil {
			return nil, errors.CombineErrors(errors.Wrapf(err, "frame slot %d", i), r.Destroy())
		}
		r.slots = append(r.slots, slot)
	}
	return r, nil
}

func (r *FrameRing) createSlot(index int) (*FrameSlot, error) {
	dev := r.ctx.Device
	slot := &FrameSlot{Index: index}
	label := fmt.Sprintf("frame %d", index)

	var err error
	slot.CommandPool, err = dev.CreateCommandPool()
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	r.deletion.Push(KindCommandPool, uint64(slot.CommandPool), label+" command pool")

	slot.CommandBuffer, err = dev.AllocateCommandBuffer(slot.CommandPool)
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffer")
	}

	// Signaled so the first wait on a fresh slot returns at once.
	slot.RenderFence, err = dev.CreateFence(true)
	if err != nil {
		return nil, errors.Wrap(err, "create render fence")
	}
	r.deletion.Push(KindFence, uint64(slot.RenderFence), label+" render fence")

	slot.AcquireSemaphore, err = dev.CreateSemaphore()
	if err != nil {
		return nil, errors.Wrap(err, "create acquire semaphore")
	}
	r.deletion.Push(KindSemaphore, uint64(slot.AcquireSemaphore), label+" acquire semaphore")

	slot.ReleaseSemaphore, err = dev.CreateSemaphore()
	if err != nil {
		return nil, errors.Wrap(err, "create release semaphore")
	}
	r.deletion.Push(KindSemaphore, uint64(slot.ReleaseSemaphore), label+" release semaphore")

	slot.CameraBuffer, err = CreateBuffer(r.ctx, int(unsafe.Sizeof(GPUCameraData{})), gpu.BufferUsageUniformBuffer, gpu.MemoryCPUToGPU)
	if err != nil {
		return nil, errors.Wrap(err, "camera buffer")
	}
	r.deletion.Push(KindBuffer, uint64(slot.CameraBuffer.Handle), label+" camera buffer")

	slot.ObjectBuffer, err = CreateBuffer(r.ctx, int(unsafe.Sizeof(GPUObjectData{}))*MaxObjects, gpu.BufferUsageStorageBuffer, gpu.MemoryCPUToGPU)
	if err != nil {
		return nil, errors.Wrap(err, "object buffer")
	}
	r.deletion.Push(KindBuffer, uint64(slot.ObjectBuffer.Handle), label+" object buffer")

	return slot, nil
}

func (r *FrameRing) Len() int {
	return len(r.slots)
}

// Counter is the number of frames retired so far.
func (r *FrameRing) Counter() uint64 {
	return r.counter
}

func (r *FrameRing) Slot(i int) *FrameSlot {
	return r.slots[i]
}

// Acquire selects the slot for the current frame, blocks until the GPU has
// finished the slot's previous submission and resets its fence. The slot is
// returned in the recording state.
func (r *FrameRing) Acquire() (*FrameSlot, error) {
	slot := r.slots[SlotIndex(r.counter, len(r.slots))]
	if slot.State == SlotRecording {
		return nil, errors.Wrapf(ErrSlotState, "acquire of slot %d that is still %s", slot.Index, slot.State)
	}
	if err := r.ctx.waitFence(slot.RenderFence); err != nil {
		return nil, errors.Wrapf(err, "slot %d", slot.Index)
	}
	if err := r.ctx.Device.ResetFence(slot.RenderFence); err != nil {
		return nil, errors.Wrapf(err, "reset fence of slot %d", slot.Index)
	}
	slot.State = SlotRecording
	return slot, nil
}

// Begin resets the slot's command pool and starts a one-time-submit
// recording into its command buffer.
func (r *FrameRing) Begin(slot *FrameSlot) error {
	if slot.State != SlotRecording {
		return errors.Wrapf(ErrSlotState, "begin on slot %d that is %s", slot.Index, slot.State)
	}
	dev := r.ctx.Device
	if err := dev.ResetCommandPool(slot.CommandPool); err != nil {
		return errors.Wrapf(err, "reset command pool of slot %d", slot.Index)
	}
	if err := dev.BeginCommandBuffer(slot.CommandBuffer); err != nil {
		return errors.Wrapf(err, "begin command buffer of slot %d", slot.Index)
	}
	return nil
}

// Retire marks the slot as submitted and advances the frame counter.
func (r *FrameRing) Retire(slot *FrameSlot) error {
	if slot.State != SlotRecording {
		return errors.Wrapf(ErrSlotState, "retire of slot %d that is %s", slot.Index, slot.State)
	}
	slot.State = SlotInFlight
	r.counter++
	return nil
}

// Destroy releases every slot. It is safe to call more than once.
func (r *FrameRing) Destroy() error {
	if err := r.deletion.Flush(r.ctx.Device); err != nil {
		return err
	}
	r.slots = nil
	return nil
}
