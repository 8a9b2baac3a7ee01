package renderer

import (
	"io/fs"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vulkantest/gpu"
	"github.com/vkngwrapper/vulkantest/mesh"
)

const (
	VertexShaderPath   = "shaders/spirv/mesh.vert.spv"
	FragmentShaderPath = "shaders/spirv/mesh.frag.spv"
)

// LoadShaderModule reads a SPIR-V binary from fsys and creates a shader
// module from it. A missing file yields ErrShaderMissing.
func LoadShaderModule(ctx *Context, fsys fs.FS, name string) (gpu.ShaderModule, error) {
	code, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, errors.Wrapf(ErrShaderMissing, "%s", name)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "read shader %s", name)
	}
	module, err := ctx.Device.CreateShaderModule(code)
	if err != nil {
		return 0, errors.Wrapf(err, "create shader module %s", name)
	}
	ctx.Log.Debug("loaded shader", "name", name, "bytes", len(code))
	return module, nil
}

// VertexInputDescription describes mesh.Vertex to the pipeline.
func VertexInputDescription() gpu.VertexInput {
	var v mesh.Vertex
	return gpu.VertexInput{
		Stride: int(unsafe.Sizeof(v)),
		Attributes: []gpu.VertexAttribute{
			{Location: 0, Format: gpu.FormatR32G32B32SignedFloat, Offset: int(unsafe.Offsetof(v.Position))},
			{Location: 1, Format: gpu.FormatR32G32B32SignedFloat, Offset: int(unsafe.Offsetof(v.Normal))},
			{Location: 2, Format: gpu.FormatR32G32B32SignedFloat, Offset: int(unsafe.Offsetof(v.Color))},
			{Location: 3, Format: gpu.FormatR32G32SignedFloat, Offset: int(unsafe.Offsetof(v.TexCoord))},
		},
	}
}

func globalSetBindings() []gpu.DescriptorSetLayoutBinding {
	return []gpu.DescriptorSetLayoutBinding{
		{Binding: 0, Type: gpu.DescriptorTypeUniformBuffer, Count: 1, Stages: gpu.ShaderStageVertex},
		{Binding: 1, Type: gpu.DescriptorTypeUniformBufferDynamic, Count: 1, Stages: gpu.ShaderStageVertex | gpu.ShaderStageFragment},
	}
}

func objectSetBindings() []gpu.DescriptorSetLayoutBinding {
	return []gpu.DescriptorSetLayoutBinding{
		{Binding: 0, Type: gpu.DescriptorTypeStorageBuffer, Count: 1, Stages: gpu.ShaderStageVertex},
	}
}

// descriptorPoolInfo sizes a pool for maxSets sets of each descriptor type
// the mesh pipeline uses.
func descriptorPoolInfo(maxSets int) gpu.DescriptorPoolCreateInfo {
	return gpu.DescriptorPoolCreateInfo{
		MaxSets: maxSets,
		Sizes: []gpu.DescriptorPoolSize{
			{Type: gpu.DescriptorTypeUniformBuffer, Count: maxSets},
			{Type: gpu.DescriptorTypeUniformBufferDynamic, Count: maxSets},
			{Type: gpu.DescriptorTypeStorageBuffer, Count: maxSets},
		},
	}
}
