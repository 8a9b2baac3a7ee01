// Package gputest provides an in-memory gpu.Device for tests.
//
// The fake keeps enough state to catch synchronization mistakes: fences and
// semaphores have real signal state, submitted work stays pending until a
// fence wait (or WaitIdle) retires it in queue order, buffer copies are
// executed when the submission completes and every buffer keeps a host
// mirror of its contents. Misuse is recorded in Hazards rather than
// panicking so a test can assert on it.
package gputest

import (
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/gpu"
)

type cmdState int

const (
	cmdInitial cmdState = iota
	cmdRecording
	cmdExecutable
	cmdPending
	cmdInvalid
)

// Draw is one recorded CmdDraw, with the state bound when it was recorded.
type Draw struct {
	CommandBuffer  gpu.CommandBuffer
	Pipeline       gpu.Pipeline
	VertexBuffer   gpu.Buffer
	DescriptorSets []gpu.DescriptorSet
	DynamicOffsets []int
	VertexCount    int
	InstanceCount  int
	FirstVertex    int
	FirstInstance  int
}

// Submission is one QueueSubmit call.
type Submission struct {
	CommandBuffers   []gpu.CommandBuffer
	WaitSemaphores   []gpu.Semaphore
	WaitStages       []gpu.PipelineStage
	SignalSemaphores []gpu.Semaphore
	Fence            gpu.Fence
	RenderPasses     []gpu.RenderPassBeginInfo
	Draws            []Draw
	Copies           int
	Complete         bool
	// Reads lists the buffer ranges the submission's draws and copies read.
	Reads []BufferRange

	copies []copyOp
}

// BufferRange is the bytes [Offset, Offset+Size) of a buffer.
type BufferRange struct {
	Buffer gpu.Buffer
	Offset int
	Size   int
}

func (r BufferRange) overlaps(buf gpu.Buffer, offset, size int) bool {
	return r.Buffer == buf && offset < r.Offset+r.Size && r.Offset < offset+size
}

// Present is one QueuePresent call.
type Present struct {
	Swapchain  gpu.Swapchain
	ImageIndex int
}

// Destroyed is one release of a live object.
type Destroyed struct {
	Kind   string
	Handle uint64
}

type copyOp struct {
	src, dst gpu.Buffer
	size     int
}

type fence struct {
	signaled bool
	pending  *Submission
}

type semaphore struct {
	signaled bool
}

type commandBuffer struct {
	pool     gpu.CommandPool
	state    cmdState
	pending  *Submission
	inPass   bool
	pipeline gpu.Pipeline
	vertex   gpu.Buffer
	sets     []gpu.DescriptorSet
	offsets  []int
	passes   []gpu.RenderPassBeginInfo
	draws    []Draw
	copies   []copyOp
	reads    []BufferRange
}

type buffer struct {
	info gpu.BufferCreateInfo
	data []byte
}

type swapchain struct {
	images   []gpu.Image
	acquired map[int]bool
	next     int
}

type injected struct {
	after int
	err   error
}

// Device is a fake gpu.Device. The zero value is not usable; call New.
type Device struct {
	// Props is returned by Properties.
	Props gpu.DeviceProperties
	// ImageCount is the number of images every swapchain gets.
	ImageCount int
	// SwapchainFormat is the color format every swapchain reports.
	SwapchainFormat gpu.Format
	// DepthFormats lists the supported depth formats. Nil means all.
	DepthFormats []gpu.Format
	// TimeoutsPerWait is how many StatusTimeout results a fence wait on
	// pending work yields before the work completes.
	TimeoutsPerWait int
	// AcquireStatus and PresentStatus are returned on otherwise successful
	// acquire and present calls.
	AcquireStatus gpu.Status
	PresentStatus gpu.Status

	// Calls lists every device method invoked, in order.
	Calls []string
	// Hazards lists every detected misuse.
	Hazards []string
	// Statuses lists every status returned by a fence wait, acquire or
	// present.
	Statuses []gpu.Status
	// FenceWaits counts WaitForFence calls per fence.
	FenceWaits map[gpu.Fence]int
	// Submissions lists every QueueSubmit in order.
	Submissions []*Submission
	// Presents lists every QueuePresent in order.
	Presents []Present
	// Acquired lists every image index handed out by AcquireNextImage.
	Acquired []int
	// DestroyLog lists every release of a live object, in order.
	DestroyLog []Destroyed
	// NullDestroys counts Destroy calls made with the null handle.
	NullDestroys int
	// ShaderModules keeps the code of every created shader module.
	ShaderModules map[gpu.ShaderModule][]byte
	// RenderPasses keeps the description of every created render pass.
	RenderPasses map[gpu.RenderPass]gpu.RenderPassCreateInfo
	// Pipelines keeps the description of every created graphics pipeline.
	Pipelines map[gpu.Pipeline]gpu.GraphicsPipelineCreateInfo
	// DescriptorWrites lists every descriptor buffer write.
	DescriptorWrites []gpu.DescriptorBufferWrite

	next       uint64
	live       map[uint64]string
	fences     map[gpu.Fence]*fence
	semaphores map[gpu.Semaphore]*semaphore
	cmds       map[gpu.CommandBuffer]*commandBuffer
	buffers    map[gpu.Buffer]*buffer
	swapchains map[gpu.Swapchain]*swapchain
	sets       map[gpu.DescriptorSet]map[int]gpu.DescriptorBufferWrite
	queue      []*Submission
	timeouts   map[gpu.Fence]int
	calls      map[string]int
	inject     map[string]injected
}

var _ gpu.Device = (*Device)(nil)

// New returns a fake device with three swapchain images and a 256 byte
// uniform buffer alignment.
func New() *Device {
	return &Device{
		Props: gpu.DeviceProperties{
			DeviceName:                      "gputest",
			APIVersion:                      "1.2.0",
			MinUniformBufferOffsetAlignment: 256,
			MinStorageBufferOffsetAlignment: 64,
		},
		ImageCount:      3,
		SwapchainFormat: gpu.FormatB8G8R8A8SRGB,
		AcquireStatus:   gpu.StatusSuccess,
		PresentStatus:   gpu.StatusSuccess,

		FenceWaits:    map[gpu.Fence]int{},
		ShaderModules: map[gpu.ShaderModule][]byte{},
		RenderPasses:  map[gpu.RenderPass]gpu.RenderPassCreateInfo{},
		Pipelines:     map[gpu.Pipeline]gpu.GraphicsPipelineCreateInfo{},

		live:       map[uint64]string{},
		fences:     map[gpu.Fence]*fence{},
		semaphores: map[gpu.Semaphore]*semaphore{},
		cmds:       map[gpu.CommandBuffer]*commandBuffer{},
		buffers:    map[gpu.Buffer]*buffer{},
		sets:       map[gpu.DescriptorSet]map[int]gpu.DescriptorBufferWrite{},
		swapchains: map[gpu.Swapchain]*swapchain{},
		timeouts:   map[gpu.Fence]int{},
		calls:      map[string]int{},
		inject:     map[string]injected{},
	}
}

// InjectError makes the call to op that follows after successful calls
// fail with err. A nil err injects an out-of-device-memory *gpu.Error.
func (d *Device) InjectError(op string, after int, err error) {
	if err == nil {
		err = gpu.NewError(op, gpu.StatusOutOfDeviceMemory)
	}
	d.inject[op] = injected{after: after, err: err}
}

// Live returns the number of live objects of kind, or of every kind when
// kind is empty.
func (d *Device) Live(kind string) int {
	n := 0
	for _, k := range d.live {
		if kind == "" || k == kind {
			n++
		}
	}
	return n
}

// LiveKinds lists the kinds of every live object, sorted, for leak
// diagnostics.
func (d *Device) LiveKinds() []string {
	kinds := make([]string, 0, len(d.live))
	for _, k := range d.live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// CallCount returns how often op was invoked.
func (d *Device) CallCount(op string) int {
	n := 0
	for _, c := range d.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// BufferContents returns the host mirror of a buffer.
func (d *Device) BufferContents(buf gpu.Buffer) []byte {
	b, ok := d.buffers[buf]
	if !ok {
		return nil
	}
	return append([]byte(nil), b.data...)
}

// BufferInfo returns the creation info of a live buffer.
func (d *Device) BufferInfo(buf gpu.Buffer) (gpu.BufferCreateInfo, bool) {
	b, ok := d.buffers[buf]
	if !ok {
		return gpu.BufferCreateInfo{}, false
	}
	return b.info, true
}

// FenceSignaled reports the current state of a fence.
func (d *Device) FenceSignaled(f gpu.Fence) bool {
	st, ok := d.fences[f]
	return ok && st.signaled
}

// Pending returns the number of submissions the fake GPU has not retired.
func (d *Device) Pending() int {
	return len(d.queue)
}

// CompleteAll retires every pending submission as if the GPU caught up.
func (d *Device) CompleteAll() {
	if len(d.queue) > 0 {
		d.complete(d.queue[len(d.queue)-1])
	}
}

func (d *Device) call(op string) error {
	d.Calls = append(d.Calls, op)
	n := d.calls[op]
	d.calls[op] = n + 1
	if inj, ok := d.inject[op]; ok && n == inj.after {
		return inj.err
	}
	return nil
}

func (d *Device) hazard(format string, args ...interface{}) {
	d.Hazards = append(d.Hazards, fmt.Sprintf(format, args...))
}

func (d *Device) newHandle(kind string) uint64 {
	d.next++
	d.live[d.next] = kind
	return d.next
}

func (d *Device) release(kind string, handle uint64) bool {
	if handle == 0 {
		d.NullDestroys++
		return false
	}
	got, ok := d.live[handle]
	if !ok {
		d.hazard("destroy of dead or unknown %s %d", kind, handle)
		return false
	}
	if got != kind {
		d.hazard("destroy of %s %d as %s", got, handle, kind)
		return false
	}
	delete(d.live, handle)
	d.DestroyLog = append(d.DestroyLog, Destroyed{Kind: kind, Handle: handle})
	return true
}

func (d *Device) check(kind string, handle uint64) error {
	if got, ok := d.live[handle]; !ok || got != kind {
		d.hazard("use of invalid %s %d", kind, handle)
		return errors.Newf("gputest: invalid %s handle %d", kind, handle)
	}
	return nil
}

// complete retires submissions in queue order up to and including upTo.
func (d *Device) complete(upTo *Submission) {
	for len(d.queue) > 0 {
		s := d.queue[0]
		d.queue = d.queue[1:]

		for _, c := range s.copies {
			src, dst := d.buffers[c.src], d.buffers[c.dst]
			if src == nil || dst == nil {
				d.hazard("copy between destroyed buffers %d -> %d", c.src, c.dst)
				continue
			}
			copy(dst.data[:c.size], src.data[:c.size])
		}
		for _, h := range s.CommandBuffers {
			if cb, ok := d.cmds[h]; ok && cb.pending == s {
				cb.state = cmdInvalid
				cb.pending = nil
			}
		}
		if f, ok := d.fences[s.Fence]; ok && f.pending == s {
			f.signaled = true
			f.pending = nil
		}
		s.Complete = true

		if s == upTo {
			return
		}
	}
}

func (d *Device) Properties() gpu.DeviceProperties {
	return d.Props
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	if err := d.call("CreateFence"); err != nil {
		return 0, err
	}
	f := gpu.Fence(d.newHandle("fence"))
	d.fences[f] = &fence{signaled: signaled}
	return f, nil
}

func (d *Device) DestroyFence(f gpu.Fence) {
	d.Calls = append(d.Calls, "DestroyFence")
	if st, ok := d.fences[f]; ok && st.pending != nil {
		d.hazard("destroy of fence %d with pending work", f)
	}
	if d.release("fence", uint64(f)) {
		delete(d.fences, f)
	}
}

func (d *Device) WaitForFence(f gpu.Fence, timeout time.Duration) (gpu.Status, error) {
	if err := d.call("WaitForFence"); err != nil {
		return gpu.StatusOf(err), err
	}
	if err := d.check("fence", uint64(f)); err != nil {
		return gpu.StatusUnknown, err
	}
	d.FenceWaits[f]++

	st := d.fences[f]
	switch {
	case st.signaled:
	case st.pending == nil:
		d.hazard("wait on fence %d that nothing will signal", f)
		err := gpu.NewError("vkWaitForFences", gpu.StatusDeviceLost)
		d.Statuses = append(d.Statuses, gpu.StatusDeviceLost)
		return gpu.StatusDeviceLost, err
	case d.timeouts[f] < d.TimeoutsPerWait:
		d.timeouts[f]++
		d.Statuses = append(d.Statuses, gpu.StatusTimeout)
		return gpu.StatusTimeout, nil
	default:
		d.complete(st.pending)
	}
	d.timeouts[f] = 0
	d.Statuses = append(d.Statuses, gpu.StatusSuccess)
	return gpu.StatusSuccess, nil
}

func (d *Device) ResetFence(f gpu.Fence) error {
	if err := d.call("ResetFence"); err != nil {
		return err
	}
	if err := d.check("fence", uint64(f)); err != nil {
		return err
	}
	st := d.fences[f]
	if st.pending != nil {
		d.hazard("reset of fence %d with pending work", f)
	}
	st.signaled = false
	return nil
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	if err := d.call("CreateSemaphore"); err != nil {
		return 0, err
	}
	s := gpu.Semaphore(d.newHandle("semaphore"))
	d.semaphores[s] = &semaphore{}
	return s, nil
}

func (d *Device) DestroySemaphore(s gpu.Semaphore) {
	d.Calls = append(d.Calls, "DestroySemaphore")
	if d.release("semaphore", uint64(s)) {
		delete(d.semaphores, s)
	}
}

func (d *Device) CreateCommandPool() (gpu.CommandPool, error) {
	if err := d.call("CreateCommandPool"); err != nil {
		return 0, err
	}
	return gpu.CommandPool(d.newHandle("command pool")), nil
}

func (d *Device) ResetCommandPool(pool gpu.CommandPool) error {
	if err := d.call("ResetCommandPool"); err != nil {
		return err
	}
	if err := d.check("command pool", uint64(pool)); err != nil {
		return err
	}
	for h, cb := range d.cmds {
		if cb.pool != pool {
			continue
		}
		if cb.state == cmdPending {
			d.hazard("reset of command pool %d while command buffer %d is in flight", pool, h)
		}
		*cb = commandBuffer{pool: pool, state: cmdInitial}
	}
	return nil
}

func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	d.Calls = append(d.Calls, "DestroyCommandPool")
	if !d.release("command pool", uint64(pool)) {
		return
	}
	for h, cb := range d.cmds {
		if cb.pool != pool {
			continue
		}
		if cb.state == cmdPending {
			d.hazard("destroy of command pool %d while command buffer %d is in flight", pool, h)
		}
		delete(d.live, uint64(h))
		delete(d.cmds, h)
	}
}

func (d *Device) AllocateCommandBuffer(pool gpu.CommandPool) (gpu.CommandBuffer, error) {
	if err := d.call("AllocateCommandBuffer"); err != nil {
		return 0, err
	}
	if err := d.check("command pool", uint64(pool)); err != nil {
		return 0, err
	}
	h := gpu.CommandBuffer(d.newHandle("command buffer"))
	d.cmds[h] = &commandBuffer{pool: pool}
	return h, nil
}

func (d *Device) BeginCommandBuffer(h gpu.CommandBuffer) error {
	if err := d.call("BeginCommandBuffer"); err != nil {
		return err
	}
	cb, ok := d.cmds[h]
	if !ok {
		d.hazard("begin of unknown command buffer %d", h)
		return errors.Newf("gputest: unknown command buffer %d", h)
	}
	switch cb.state {
	case cmdInitial:
	case cmdPending:
		d.hazard("recording into command buffer %d while its previous submission is in flight", h)
		return errors.Newf("gputest: command buffer %d is pending", h)
	default:
		d.hazard("begin of command buffer %d that was not reset", h)
		return errors.Newf("gputest: command buffer %d was not reset", h)
	}
	cb.state = cmdRecording
	return nil
}

func (d *Device) EndCommandBuffer(h gpu.CommandBuffer) error {
	if err := d.call("EndCommandBuffer"); err != nil {
		return err
	}
	cb := d.recording(h, "EndCommandBuffer")
	if cb == nil {
		return errors.Newf("gputest: command buffer %d is not recording", h)
	}
	if cb.inPass {
		d.hazard("command buffer %d ended inside a render pass", h)
	}
	cb.state = cmdExecutable
	return nil
}

func (d *Device) recording(h gpu.CommandBuffer, op string) *commandBuffer {
	cb, ok := d.cmds[h]
	if !ok || cb.state != cmdRecording {
		d.hazard("%s on command buffer %d that is not recording", op, h)
		return nil
	}
	return cb
}

func (d *Device) CmdBeginRenderPass(h gpu.CommandBuffer, info gpu.RenderPassBeginInfo) error {
	if err := d.call("CmdBeginRenderPass"); err != nil {
		return err
	}
	cb := d.recording(h, "CmdBeginRenderPass")
	if cb == nil {
		return errors.Newf("gputest: command buffer %d is not recording", h)
	}
	if cb.inPass {
		d.hazard("nested render pass in command buffer %d", h)
	}
	if err := d.check("render pass", uint64(info.RenderPass)); err != nil {
		return err
	}
	if err := d.check("framebuffer", uint64(info.Framebuffer)); err != nil {
		return err
	}
	cb.inPass = true
	cb.passes = append(cb.passes, info)
	return nil
}

func (d *Device) CmdEndRenderPass(h gpu.CommandBuffer) {
	d.Calls = append(d.Calls, "CmdEndRenderPass")
	if cb := d.recording(h, "CmdEndRenderPass"); cb != nil {
		if !cb.inPass {
			d.hazard("end of render pass that was not begun in command buffer %d", h)
		}
		cb.inPass = false
	}
}

func (d *Device) CmdBindPipeline(h gpu.CommandBuffer, p gpu.Pipeline) {
	d.Calls = append(d.Calls, "CmdBindPipeline")
	if cb := d.recording(h, "CmdBindPipeline"); cb != nil {
		cb.pipeline = p
	}
}

func (d *Device) CmdBindDescriptorSets(h gpu.CommandBuffer, layout gpu.PipelineLayout, firstSet int, sets []gpu.DescriptorSet, dynamicOffsets []int) {
	d.Calls = append(d.Calls, "CmdBindDescriptorSets")
	cb := d.recording(h, "CmdBindDescriptorSets")
	if cb == nil {
		return
	}
	for len(cb.sets) < firstSet+len(sets) {
		cb.sets = append(cb.sets, 0)
	}
	copy(cb.sets[firstSet:], sets)
	if firstSet == 0 {
		cb.offsets = nil
	}
	cb.offsets = append(cb.offsets, dynamicOffsets...)
}

func (d *Device) CmdBindVertexBuffer(h gpu.CommandBuffer, buf gpu.Buffer, offset int) {
	d.Calls = append(d.Calls, "CmdBindVertexBuffer")
	if cb := d.recording(h, "CmdBindVertexBuffer"); cb != nil {
		cb.vertex = buf
	}
}

func (d *Device) CmdDraw(h gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) {
	d.Calls = append(d.Calls, "CmdDraw")
	cb := d.recording(h, "CmdDraw")
	if cb == nil {
		return
	}
	if !cb.inPass {
		d.hazard("draw outside a render pass in command buffer %d", h)
	}
	if cb.pipeline == 0 {
		d.hazard("draw without a bound pipeline in command buffer %d", h)
	}
	cb.reads = append(cb.reads, d.boundReads(cb)...)
	cb.draws = append(cb.draws, Draw{
		CommandBuffer:  h,
		Pipeline:       cb.pipeline,
		VertexBuffer:   cb.vertex,
		DescriptorSets: append([]gpu.DescriptorSet(nil), cb.sets...),
		DynamicOffsets: append([]int(nil), cb.offsets...),
		VertexCount:    vertexCount,
		InstanceCount:  instanceCount,
		FirstVertex:    firstVertex,
		FirstInstance:  firstInstance,
	})
}

// boundReads resolves the buffer ranges behind the descriptor sets bound to
// cb. Dynamic offsets apply to dynamic bindings in set order, then binding
// order.
func (d *Device) boundReads(cb *commandBuffer) []BufferRange {
	var reads []BufferRange
	next := 0
	for _, set := range cb.sets {
		bindings := d.sets[set]
		numbers := make([]int, 0, len(bindings))
		for n := range bindings {
			numbers = append(numbers, n)
		}
		sort.Ints(numbers)
		for _, n := range numbers {
			w := bindings[n]
			offset := w.Offset
			if w.Type == gpu.DescriptorTypeUniformBufferDynamic {
				if next >= len(cb.offsets) {
					d.hazard("dynamic binding %d of set %d has no dynamic offset", n, set)
					continue
				}
				offset += cb.offsets[next]
				next++
			}
			reads = append(reads, BufferRange{Buffer: w.Buffer, Offset: offset, Size: w.Range})
		}
	}
	return reads
}

func (d *Device) CmdCopyBuffer(h gpu.CommandBuffer, src, dst gpu.Buffer, size int) error {
	if err := d.call("CmdCopyBuffer"); err != nil {
		return err
	}
	cb := d.recording(h, "CmdCopyBuffer")
	if cb == nil {
		return errors.Newf("gputest: command buffer %d is not recording", h)
	}
	s, okS := d.buffers[src]
	t, okD := d.buffers[dst]
	if !okS || !okD {
		d.hazard("copy between invalid buffers %d -> %d", src, dst)
		return errors.New("gputest: invalid copy buffers")
	}
	if size > len(s.data) || size > len(t.data) {
		d.hazard("copy of %d bytes overruns buffers %d -> %d", size, src, dst)
		return errors.New("gputest: copy out of range")
	}
	cb.copies = append(cb.copies, copyOp{src: src, dst: dst, size: size})
	cb.reads = append(cb.reads, BufferRange{Buffer: src, Size: size})
	return nil
}

func (d *Device) QueueSubmit(info gpu.SubmitInfo) error {
	if err := d.call("QueueSubmit"); err != nil {
		return err
	}
	s := &Submission{
		CommandBuffers:   info.CommandBuffers,
		WaitSemaphores:   info.WaitSemaphores,
		WaitStages:       info.WaitStages,
		SignalSemaphores: info.SignalSemaphores,
		Fence:            info.Fence,
	}
	if len(info.WaitStages) != len(info.WaitSemaphores) {
		d.hazard("submit with %d wait semaphores and %d wait stages", len(info.WaitSemaphores), len(info.WaitStages))
	}
	for _, h := range info.CommandBuffers {
		cb, ok := d.cmds[h]
		if !ok || cb.state != cmdExecutable {
			d.hazard("submit of command buffer %d that is not executable", h)
			return errors.Newf("gputest: command buffer %d is not executable", h)
		}
		cb.state = cmdPending
		cb.pending = s
		s.RenderPasses = append(s.RenderPasses, cb.passes...)
		s.Draws = append(s.Draws, cb.draws...)
		s.copies = append(s.copies, cb.copies...)
		s.Reads = append(s.Reads, cb.reads...)
	}
	s.Copies = len(s.copies)
	for _, sem := range info.WaitSemaphores {
		st, ok := d.semaphores[sem]
		if !ok || !st.signaled {
			d.hazard("submit waits on semaphore %d that will never be signaled", sem)
			continue
		}
		st.signaled = false
	}
	for _, sem := range info.SignalSemaphores {
		st, ok := d.semaphores[sem]
		if !ok {
			d.hazard("submit signals unknown semaphore %d", sem)
			continue
		}
		if st.signaled {
			d.hazard("submit signals semaphore %d that is already signaled", sem)
		}
		st.signaled = true
	}
	if info.Fence != 0 {
		f, ok := d.fences[info.Fence]
		if !ok {
			d.hazard("submit with unknown fence %d", info.Fence)
		} else {
			if f.signaled || f.pending != nil {
				d.hazard("submit with fence %d that was not reset", info.Fence)
			}
			f.signaled = false
			f.pending = s
		}
	}
	d.queue = append(d.queue, s)
	d.Submissions = append(d.Submissions, s)
	return nil
}

func (d *Device) WaitIdle() error {
	if err := d.call("WaitIdle"); err != nil {
		return err
	}
	d.CompleteAll()
	return nil
}

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.SwapchainImages, error) {
	if err := d.call("CreateSwapchain"); err != nil {
		return gpu.SwapchainImages{}, err
	}
	if info.Extent.Empty() {
		return gpu.SwapchainImages{}, gpu.NewError("vkCreateSwapchainKHR", gpu.StatusInitializationFailed)
	}
	h := gpu.Swapchain(d.newHandle("swapchain"))
	sc := &swapchain{acquired: map[int]bool{}}
	for i := 0; i < d.ImageCount; i++ {
		d.next++
		sc.images = append(sc.images, gpu.Image(d.next))
	}
	d.swapchains[h] = sc
	return gpu.SwapchainImages{
		Handle: h,
		Format: d.SwapchainFormat,
		Extent: info.Extent,
		Images: append([]gpu.Image(nil), sc.images...),
	}, nil
}

func (d *Device) DestroySwapchain(h gpu.Swapchain) {
	d.Calls = append(d.Calls, "DestroySwapchain")
	if d.release("swapchain", uint64(h)) {
		delete(d.swapchains, h)
	}
}

func (d *Device) AcquireNextImage(h gpu.Swapchain, timeout time.Duration, signal gpu.Semaphore) (int, gpu.Status, error) {
	if err := d.call("AcquireNextImage"); err != nil {
		st := gpu.StatusOf(err)
		d.Statuses = append(d.Statuses, st)
		return 0, st, err
	}
	sc, ok := d.swapchains[h]
	if !ok {
		d.hazard("acquire from unknown swapchain %d", h)
		return 0, gpu.StatusUnknown, errors.Newf("gputest: unknown swapchain %d", h)
	}
	if d.AcquireStatus.Failed() {
		d.Statuses = append(d.Statuses, d.AcquireStatus)
		return 0, d.AcquireStatus, gpu.NewError("vkAcquireNextImageKHR", d.AcquireStatus)
	}
	sem, ok := d.semaphores[signal]
	if !ok {
		d.hazard("acquire signals unknown semaphore %d", signal)
	} else {
		if sem.signaled {
			d.hazard("acquire signals semaphore %d that is already signaled", signal)
		}
		sem.signaled = true
	}

	idx := sc.next
	sc.next = (sc.next + 1) % len(sc.images)
	if sc.acquired[idx] {
		d.hazard("image %d acquired twice without a present", idx)
	}
	sc.acquired[idx] = true
	d.Acquired = append(d.Acquired, idx)
	d.Statuses = append(d.Statuses, d.AcquireStatus)
	return idx, d.AcquireStatus, nil
}

func (d *Device) QueuePresent(info gpu.PresentInfo) (gpu.Status, error) {
	if err := d.call("QueuePresent"); err != nil {
		st := gpu.StatusOf(err)
		d.Statuses = append(d.Statuses, st)
		return st, err
	}
	sc, ok := d.swapchains[info.Swapchain]
	if !ok {
		d.hazard("present to unknown swapchain %d", info.Swapchain)
		return gpu.StatusUnknown, errors.Newf("gputest: unknown swapchain %d", info.Swapchain)
	}
	if !sc.acquired[info.ImageIndex] {
		d.hazard("present of image %d that was not acquired", info.ImageIndex)
	}
	delete(sc.acquired, info.ImageIndex)
	for _, sem := range info.WaitSemaphores {
		st, ok := d.semaphores[sem]
		if !ok || !st.signaled {
			d.hazard("present waits on semaphore %d that will never be signaled", sem)
			continue
		}
		st.signaled = false
	}
	d.Presents = append(d.Presents, Present{Swapchain: info.Swapchain, ImageIndex: info.ImageIndex})
	d.Statuses = append(d.Statuses, d.PresentStatus)
	if d.PresentStatus.Failed() {
		return d.PresentStatus, gpu.NewError("vkQueuePresentKHR", d.PresentStatus)
	}
	return d.PresentStatus, nil
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	if err := d.call("CreateBuffer"); err != nil {
		return 0, err
	}
	if info.Size <= 0 {
		return 0, errors.Newf("gputest: buffer size %d", info.Size)
	}
	h := gpu.Buffer(d.newHandle("buffer"))
	d.buffers[h] = &buffer{info: info, data: make([]byte, info.Size)}
	return h, nil
}

func (d *Device) DestroyBuffer(h gpu.Buffer) {
	d.Calls = append(d.Calls, "DestroyBuffer")
	if d.release("buffer", uint64(h)) {
		delete(d.buffers, h)
	}
}

func (d *Device) WriteBuffer(h gpu.Buffer, offset int, data []byte) error {
	if err := d.call("WriteBuffer"); err != nil {
		return err
	}
	b, ok := d.buffers[h]
	if !ok {
		d.hazard("write to unknown buffer %d", h)
		return errors.Newf("gputest: unknown buffer %d", h)
	}
	if !b.info.Memory.HostVisible() {
		d.hazard("map of %s buffer %d", b.info.Memory, h)
		return gpu.NewError("vkMapMemory", gpu.StatusUnknown)
	}
	if offset < 0 || offset+len(data) > len(b.data) {
		return errors.Newf("gputest: write of %d bytes at %d overruns buffer %d of %d bytes", len(data), offset, h, len(b.data))
	}
	for _, s := range d.queue {
		for _, r := range s.Reads {
			if r.overlaps(h, offset, len(data)) {
				d.hazard("write of %d bytes at %d to buffer %d while a pending submission reads [%d, %d)",
					len(data), offset, h, r.Offset, r.Offset+r.Size)
			}
		}
	}
	copy(b.data[offset:], data)
	return nil
}

func (d *Device) CreateImage(info gpu.ImageCreateInfo) (gpu.Image, error) {
	if err := d.call("CreateImage"); err != nil {
		return 0, err
	}
	return gpu.Image(d.newHandle("image")), nil
}

func (d *Device) DestroyImage(h gpu.Image) {
	d.Calls = append(d.Calls, "DestroyImage")
	d.release("image", uint64(h))
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	if err := d.call("CreateImageView"); err != nil {
		return 0, err
	}
	if info.Image == 0 {
		return 0, errors.New("gputest: image view of null image")
	}
	return gpu.ImageView(d.newHandle("image view")), nil
}

func (d *Device) DestroyImageView(h gpu.ImageView) {
	d.Calls = append(d.Calls, "DestroyImageView")
	d.release("image view", uint64(h))
}

func (d *Device) SupportsDepthFormat(format gpu.Format) bool {
	if d.DepthFormats == nil {
		return true
	}
	for _, f := range d.DepthFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (d *Device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	if err := d.call("CreateRenderPass"); err != nil {
		return 0, err
	}
	h := gpu.RenderPass(d.newHandle("render pass"))
	d.RenderPasses[h] = info
	return h, nil
}

func (d *Device) DestroyRenderPass(h gpu.RenderPass) {
	d.Calls = append(d.Calls, "DestroyRenderPass")
	d.release("render pass", uint64(h))
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	if err := d.call("CreateFramebuffer"); err != nil {
		return 0, err
	}
	if err := d.check("render pass", uint64(info.RenderPass)); err != nil {
		return 0, err
	}
	return gpu.Framebuffer(d.newHandle("framebuffer")), nil
}

func (d *Device) DestroyFramebuffer(h gpu.Framebuffer) {
	d.Calls = append(d.Calls, "DestroyFramebuffer")
	d.release("framebuffer", uint64(h))
}

func (d *Device) CreateShaderModule(code []byte) (gpu.ShaderModule, error) {
	if err := d.call("CreateShaderModule"); err != nil {
		return 0, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, gpu.NewError("vkCreateShaderModule", gpu.StatusInitializationFailed)
	}
	h := gpu.ShaderModule(d.newHandle("shader module"))
	d.ShaderModules[h] = append([]byte(nil), code...)
	return h, nil
}

func (d *Device) DestroyShaderModule(h gpu.ShaderModule) {
	d.Calls = append(d.Calls, "DestroyShaderModule")
	d.release("shader module", uint64(h))
}

func (d *Device) CreateDescriptorSetLayout(bindings []gpu.DescriptorSetLayoutBinding) (gpu.DescriptorSetLayout, error) {
	if err := d.call("CreateDescriptorSetLayout"); err != nil {
		return 0, err
	}
	return gpu.DescriptorSetLayout(d.newHandle("descriptor set layout")), nil
}

func (d *Device) DestroyDescriptorSetLayout(h gpu.DescriptorSetLayout) {
	d.Calls = append(d.Calls, "DestroyDescriptorSetLayout")
	d.release("descriptor set layout", uint64(h))
}

func (d *Device) CreateDescriptorPool(info gpu.DescriptorPoolCreateInfo) (gpu.DescriptorPool, error) {
	if err := d.call("CreateDescriptorPool"); err != nil {
		return 0, err
	}
	return gpu.DescriptorPool(d.newHandle("descriptor pool")), nil
}

func (d *Device) DestroyDescriptorPool(h gpu.DescriptorPool) {
	d.Calls = append(d.Calls, "DestroyDescriptorPool")
	d.release("descriptor pool", uint64(h))
}

// AllocateDescriptorSet hands out a set that is owned by its pool, so it is
// not tracked as a live object.
func (d *Device) AllocateDescriptorSet(pool gpu.DescriptorPool, layout gpu.DescriptorSetLayout) (gpu.DescriptorSet, error) {
	if err := d.call("AllocateDescriptorSet"); err != nil {
		return 0, err
	}
	if err := d.check("descriptor pool", uint64(pool)); err != nil {
		return 0, err
	}
	if err := d.check("descriptor set layout", uint64(layout)); err != nil {
		return 0, err
	}
	d.next++
	return gpu.DescriptorSet(d.next), nil
}

func (d *Device) UpdateDescriptorSets(writes ...gpu.DescriptorBufferWrite) error {
	if err := d.call("UpdateDescriptorSets"); err != nil {
		return err
	}
	for _, w := range writes {
		b, ok := d.buffers[w.Buffer]
		if !ok {
			d.hazard("descriptor write of unknown buffer %d", w.Buffer)
			continue
		}
		if w.Offset+w.Range > len(b.data) {
			d.hazard("descriptor range %d+%d overruns buffer %d", w.Offset, w.Range, w.Buffer)
		}
		if d.sets[w.Set] == nil {
			d.sets[w.Set] = map[int]gpu.DescriptorBufferWrite{}
		}
		d.sets[w.Set][w.Binding] = w
	}
	d.DescriptorWrites = append(d.DescriptorWrites, writes...)
	return nil
}

func (d *Device) CreatePipelineLayout(setLayouts []gpu.DescriptorSetLayout) (gpu.PipelineLayout, error) {
	if err := d.call("CreatePipelineLayout"); err != nil {
		return 0, err
	}
	return gpu.PipelineLayout(d.newHandle("pipeline layout")), nil
}

func (d *Device) DestroyPipelineLayout(h gpu.PipelineLayout) {
	d.Calls = append(d.Calls, "DestroyPipelineLayout")
	d.release("pipeline layout", uint64(h))
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	if err := d.call("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	if err := d.check("shader module", uint64(info.VertexShader)); err != nil {
		return 0, err
	}
	if err := d.check("shader module", uint64(info.FragmentShader)); err != nil {
		return 0, err
	}
	h := gpu.Pipeline(d.newHandle("pipeline"))
	d.Pipelines[h] = info
	return h, nil
}

func (d *Device) DestroyPipeline(h gpu.Pipeline) {
	d.Calls = append(d.Calls, "DestroyPipeline")
	d.release("pipeline", uint64(h))
}
