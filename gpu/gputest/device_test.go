package gputest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/vulkantest/gpu"
)

func recordCopy(t *testing.T, d *Device, pool gpu.CommandPool, cmd gpu.CommandBuffer, src, dst gpu.Buffer, size int) {
	t.Helper()
	require.NoError(t, d.ResetCommandPool(pool))
	require.NoError(t, d.BeginCommandBuffer(cmd))
	require.NoError(t, d.CmdCopyBuffer(cmd, src, dst, size))
	require.NoError(t, d.EndCommandBuffer(cmd))
}

func TestCopyRunsOnCompletion(t *testing.T) {
	d := New()
	pool, err := d.CreateCommandPool()
	require.NoError(t, err)
	cmd, err := d.AllocateCommandBuffer(pool)
	require.NoError(t, err)
	fence, err := d.CreateFence(false)
	require.NoError(t, err)

	src, err := d.CreateBuffer(gpu.BufferCreateInfo{Size: 4, Memory: gpu.MemoryCPUOnly})
	require.NoError(t, err)
	dst, err := d.CreateBuffer(gpu.BufferCreateInfo{Size: 4, Memory: gpu.MemoryGPUOnly})
	require.NoError(t, err)
	require.NoError(t, d.WriteBuffer(src, 0, []byte{1, 2, 3, 4}))

	recordCopy(t, d, pool, cmd, src, dst, 4)
	require.NoError(t, d.QueueSubmit(gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{cmd}, Fence: fence}))
	assert.Equal(t, []byte{0, 0, 0, 0}, d.BufferContents(dst))

	st, err := d.WaitForFence(fence, 0)
	require.NoError(t, err)
	assert.Equal(t, gpu.StatusSuccess, st)
	assert.Equal(t, []byte{1, 2, 3, 4}, d.BufferContents(dst))
	assert.True(t, d.Submissions[0].Complete)
	assert.Empty(t, d.Hazards)
}

func TestCompletionIsInQueueOrder(t *testing.T) {
	d := New()
	var fences []gpu.Fence
	for i := 0; i < 3; i++ {
		f, err := d.CreateFence(false)
		require.NoError(t, err)
		require.NoError(t, d.QueueSubmit(gpu.SubmitInfo{Fence: f}))
		fences = append(fences, f)
	}

	_, err := d.WaitForFence(fences[1], 0)
	require.NoError(t, err)
	assert.True(t, d.FenceSignaled(fences[0]))
	assert.True(t, d.FenceSignaled(fences[1]))
	assert.False(t, d.FenceSignaled(fences[2]))
	assert.Equal(t, 1, d.Pending())

	require.NoError(t, d.WaitIdle())
	assert.Zero(t, d.Pending())
}

func TestTimeoutsBeforeCompletion(t *testing.T) {
	d := New()
	d.TimeoutsPerWait = 2
	f, err := d.CreateFence(false)
	require.NoError(t, err)
	require.NoError(t, d.QueueSubmit(gpu.SubmitInfo{Fence: f}))

	for i := 0; i < 2; i++ {
		st, err := d.WaitForFence(f, 0)
		require.NoError(t, err)
		assert.Equal(t, gpu.StatusTimeout, st)
	}
	st, err := d.WaitForFence(f, 0)
	require.NoError(t, err)
	assert.Equal(t, gpu.StatusSuccess, st)
	assert.Equal(t, 3, d.FenceWaits[f])
}

func TestRecordingWhilePendingIsAHazard(t *testing.T) {
	d := New()
	pool, err := d.CreateCommandPool()
	require.NoError(t, err)
	cmd, err := d.AllocateCommandBuffer(pool)
	require.NoError(t, err)

	require.NoError(t, d.BeginCommandBuffer(cmd))
	require.NoError(t, d.EndCommandBuffer(cmd))
	require.NoError(t, d.QueueSubmit(gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{cmd}}))

	assert.Error(t, d.BeginCommandBuffer(cmd))
	require.NoError(t, d.ResetCommandPool(pool))
	assert.Len(t, d.Hazards, 2)
}

func TestWaitOnUnsubmittedFence(t *testing.T) {
	d := New()
	f, err := d.CreateFence(false)
	require.NoError(t, err)

	st, err := d.WaitForFence(f, 0)
	assert.Error(t, err)
	assert.Equal(t, gpu.StatusDeviceLost, st)
	assert.Len(t, d.Hazards, 1)
}

func TestSemaphoreTracking(t *testing.T) {
	d := New()
	sc, err := d.CreateSwapchain(gpu.SwapchainCreateInfo{Extent: gpu.Extent{Width: 8, Height: 8}})
	require.NoError(t, err)
	acquire, err := d.CreateSemaphore()
	require.NoError(t, err)
	release, err := d.CreateSemaphore()
	require.NoError(t, err)

	// Submitting before the image is acquired waits on nothing.
	require.NoError(t, d.QueueSubmit(gpu.SubmitInfo{
		WaitSemaphores: []gpu.Semaphore{acquire},
		WaitStages:     []gpu.PipelineStage{gpu.StageColorAttachmentOutput},
	}))
	require.Len(t, d.Hazards, 1)

	idx, st, err := d.AcquireNextImage(sc.Handle, gpu.NoTimeout, acquire)
	require.NoError(t, err)
	assert.Equal(t, gpu.StatusSuccess, st)
	require.NoError(t, d.QueueSubmit(gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{acquire},
		WaitStages:       []gpu.PipelineStage{gpu.StageColorAttachmentOutput},
		SignalSemaphores: []gpu.Semaphore{release},
	}))
	_, err = d.QueuePresent(gpu.PresentInfo{Swapchain: sc.Handle, ImageIndex: idx, WaitSemaphores: []gpu.Semaphore{release}})
	require.NoError(t, err)
	assert.Len(t, d.Hazards, 1)
}

func TestInjectError(t *testing.T) {
	d := New()
	d.InjectError("CreateBuffer", 1, nil)

	_, err := d.CreateBuffer(gpu.BufferCreateInfo{Size: 1})
	require.NoError(t, err)
	_, err = d.CreateBuffer(gpu.BufferCreateInfo{Size: 1})
	assert.Equal(t, gpu.StatusOutOfDeviceMemory, gpu.StatusOf(err))
	_, err = d.CreateBuffer(gpu.BufferCreateInfo{Size: 1})
	assert.NoError(t, err)
	assert.Equal(t, 2, d.Live("buffer"))
}

func TestDestroyTracking(t *testing.T) {
	d := New()
	pool, err := d.CreateCommandPool()
	require.NoError(t, err)
	_, err = d.AllocateCommandBuffer(pool)
	require.NoError(t, err)

	d.DestroyCommandPool(pool)
	assert.Zero(t, d.Live(""))
	d.DestroyCommandPool(pool)
	assert.Len(t, d.Hazards, 1)

	d.DestroyBuffer(0)
	assert.Equal(t, 1, d.NullDestroys)
	assert.Equal(t, []Destroyed{{Kind: "command pool", Handle: uint64(pool)}}, d.DestroyLog)
}

func TestWriteNeedsHostVisibleMemory(t *testing.T) {
	d := New()
	b, err := d.CreateBuffer(gpu.BufferCreateInfo{Size: 4, Memory: gpu.MemoryGPUOnly})
	require.NoError(t, err)
	assert.Error(t, d.WriteBuffer(b, 0, []byte{1}))
	assert.Len(t, d.Hazards, 1)
}

func TestWriteWhilePendingReadIsAHazard(t *testing.T) {
	d := New()
	pool, err := d.CreateCommandPool()
	require.NoError(t, err)
	cmd, err := d.AllocateCommandBuffer(pool)
	require.NoError(t, err)
	fence, err := d.CreateFence(false)
	require.NoError(t, err)

	src, err := d.CreateBuffer(gpu.BufferCreateInfo{Size: 8, Memory: gpu.MemoryCPUOnly})
	require.NoError(t, err)
	dst, err := d.CreateBuffer(gpu.BufferCreateInfo{Size: 4, Memory: gpu.MemoryGPUOnly})
	require.NoError(t, err)

	recordCopy(t, d, pool, cmd, src, dst, 4)
	require.NoError(t, d.QueueSubmit(gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{cmd}, Fence: fence}))
	require.Equal(t, []BufferRange{{Buffer: src, Size: 4}}, d.Submissions[0].Reads)

	// Bytes the copy does not read are free to change.
	require.NoError(t, d.WriteBuffer(src, 4, []byte{1, 2, 3, 4}))
	assert.Empty(t, d.Hazards)

	require.NoError(t, d.WriteBuffer(src, 2, []byte{9}))
	assert.Len(t, d.Hazards, 1)

	_, err = d.WaitForFence(fence, 0)
	require.NoError(t, err)
	require.NoError(t, d.WriteBuffer(src, 0, []byte{1}))
	assert.Len(t, d.Hazards, 1)
}

func TestDrawReadsBoundDescriptors(t *testing.T) {
	d := New()
	pool, err := d.CreateCommandPool()
	require.NoError(t, err)
	cmd, err := d.AllocateCommandBuffer(pool)
	require.NoError(t, err)
	layout, err := d.CreateDescriptorSetLayout(nil)
	require.NoError(t, err)
	dpool, err := d.CreateDescriptorPool(gpu.DescriptorPoolCreateInfo{MaxSets: 1})
	require.NoError(t, err)
	set, err := d.AllocateDescriptorSet(dpool, layout)
	require.NoError(t, err)

	ubo, err := d.CreateBuffer(gpu.BufferCreateInfo{Size: 64, Memory: gpu.MemoryCPUToGPU})
	require.NoError(t, err)
	dyn, err := d.CreateBuffer(gpu.BufferCreateInfo{Size: 512, Memory: gpu.MemoryCPUToGPU})
	require.NoError(t, err)
	require.NoError(t, d.UpdateDescriptorSets(
		gpu.DescriptorBufferWrite{Set: set, Binding: 1, Type: gpu.DescriptorTypeUniformBufferDynamic, Buffer: dyn, Range: 80},
		gpu.DescriptorBufferWrite{Set: set, Binding: 0, Type: gpu.DescriptorTypeUniformBuffer, Buffer: ubo, Range: 64},
	))

	pass, err := d.CreateRenderPass(gpu.RenderPassCreateInfo{})
	require.NoError(t, err)
	fb, err := d.CreateFramebuffer(gpu.FramebufferCreateInfo{RenderPass: pass})
	require.NoError(t, err)

	require.NoError(t, d.ResetCommandPool(pool))
	require.NoError(t, d.BeginCommandBuffer(cmd))
	require.NoError(t, d.CmdBeginRenderPass(cmd, gpu.RenderPassBeginInfo{RenderPass: pass, Framebuffer: fb}))
	d.CmdBindPipeline(cmd, gpu.Pipeline(1))
	d.CmdBindDescriptorSets(cmd, 0, 0, []gpu.DescriptorSet{set}, []int{256})
	d.CmdDraw(cmd, 3, 1, 0, 0)
	d.CmdEndRenderPass(cmd)
	require.NoError(t, d.EndCommandBuffer(cmd))
	require.NoError(t, d.QueueSubmit(gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{cmd}}))

	assert.Equal(t, []BufferRange{
		{Buffer: ubo, Size: 64},
		{Buffer: dyn, Offset: 256, Size: 80},
	}, d.Submissions[0].Reads)
	assert.Empty(t, d.Hazards)

	// Another slot's region of the dynamic buffer is not being read.
	require.NoError(t, d.WriteBuffer(dyn, 0, make([]byte, 80)))
	assert.Empty(t, d.Hazards)
	require.NoError(t, d.WriteBuffer(dyn, 256, make([]byte, 80)))
	assert.Len(t, d.Hazards, 1)
}
