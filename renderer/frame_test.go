package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/vulkantest/gpu"
	"github.com/vkngwrapper/vulkantest/gpu/gputest"
)

func TestSlotIndexRoundRobin(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for counter := 0; counter < 3*n; counter++ {
			assert.Equal(t, counter%n, SlotIndex(uint64(counter), n))
		}
	}
}

func newTestRing(t *testing.T, dev *gputest.Device, n int) *FrameRing {
	t.Helper()
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)
	ring, err := newFrameRing(ctx, n)
	require.NoError(t, err)
	return ring
}

// submitEmpty drives a slot through one frame without a swapchain.
func submitEmpty(t *testing.T, dev *gputest.Device, ring *FrameRing) *FrameSlot {
	t.Helper()
	slot, err := ring.Acquire()
	require.NoError(t, err)
	require.NoError(t, ring.Begin(slot))
	require.NoError(t, dev.EndCommandBuffer(slot.CommandBuffer))
	require.NoError(t, dev.QueueSubmit(gpu.SubmitInfo{
		CommandBuffers: []gpu.CommandBuffer{slot.CommandBuffer},
		Fence:          slot.RenderFence,
	}))
	require.NoError(t, ring.Retire(slot))
	return slot
}

func TestRingVisitsSlotsInOrder(t *testing.T) {
	dev := gputest.New()
	ring := newTestRing(t, dev, 3)

	var got []int
	for i := 0; i < 9; i++ {
		got = append(got, submitEmpty(t, dev, ring).Index)
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0, 1, 2}, got)
	assert.Equal(t, uint64(9), ring.Counter())
	assert.Empty(t, dev.Hazards)

	require.NoError(t, ring.Destroy())
	assertClean(t, dev)
}

func TestRingWaitsBeforeReuse(t *testing.T) {
	dev := gputest.New()
	ring := newTestRing(t, dev, 2)

	first := submitEmpty(t, dev, ring)
	submitEmpty(t, dev, ring)
	assert.Equal(t, 2, dev.Pending())
	assert.Equal(t, SlotInFlight, first.State)

	slot, err := ring.Acquire()
	require.NoError(t, err)
	assert.Same(t, first, slot)
	assert.Equal(t, SlotRecording, slot.State)
	// The first submission is done, the second is still in flight.
	assert.Equal(t, 1, dev.Pending())
	assert.False(t, dev.FenceSignaled(slot.RenderFence))

	require.NoError(t, ring.Begin(slot))
	assert.Empty(t, dev.Hazards)
	require.NoError(t, ring.Destroy())
}

func TestRingRetriesTimeouts(t *testing.T) {
	dev := gputest.New()
	dev.TimeoutsPerWait = 3
	ring := newTestRing(t, dev, 1)

	submitEmpty(t, dev, ring)
	submitEmpty(t, dev, ring)

	timeouts := 0
	for _, st := range dev.Statuses {
		if st == gpu.StatusTimeout {
			timeouts++
		}
	}
	assert.Equal(t, 3, timeouts)
	assert.Empty(t, dev.Hazards)
	require.NoError(t, ring.Destroy())
}

func TestRingWaitFailure(t *testing.T) {
	dev := gputest.New()
	ring := newTestRing(t, dev, 1)
	dev.InjectError("WaitForFence", 0, gpu.NewError("vkWaitForFences", gpu.StatusDeviceLost))

	_, err := ring.Acquire()
	require.Error(t, err)
	assert.Equal(t, gpu.StatusDeviceLost, gpu.StatusOf(err))
	require.NoError(t, ring.Destroy())
}

func TestSlotStateErrors(t *testing.T) {
	dev := gputest.New()
	ring := newTestRing(t, dev, 1)

	slot := ring.Slot(0)
	assert.True(t, errors.Is(ring.Begin(slot), ErrSlotState))
	assert.True(t, errors.Is(ring.Retire(slot), ErrSlotState))

	slot, err := ring.Acquire()
	require.NoError(t, err)
	_, err = ring.Acquire()
	assert.True(t, errors.Is(err, ErrSlotState))

	require.NoError(t, ring.Destroy())
	assertClean(t, dev)
}

func TestRingRejectsNoSlots(t *testing.T) {
	ctx, err := NewContext(gputest.New(), nil)
	require.NoError(t, err)
	_, err = newFrameRing(ctx, 0)
	assert.Error(t, err)
}

func TestRingPartialInit(t *testing.T) {
	dev := gputest.New()
	dev.InjectError("CreateSemaphore", 4, nil)
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)

	_, err = NewFrameRing(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame slot 2")
	assertClean(t, dev)
}
