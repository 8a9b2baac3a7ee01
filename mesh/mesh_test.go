package mesh

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestTriangleCorners(t *testing.T) {
	tri := Triangle()
	require.Len(t, tri, 3)
	assert.Equal(t, Red, tri[0].Color)
	assert.Equal(t, Green, tri[1].Color)
	assert.Equal(t, Blue, tri[2].Color)
}

func TestVertexIsTightlyPacked(t *testing.T) {
	assert.Equal(t, 44, binary.Size(Vertex{}))
}

func TestDecodeFansQuad(t *testing.T) {
	vertices, err := Decode(strings.NewReader(quadOBJ), nil)
	require.NoError(t, err)
	require.Len(t, vertices, 6)

	wantPos := []mgl32.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0},
		{0, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}
	for i, v := range vertices {
		assert.Equal(t, wantPos[i], v.Position, "vertex %d", i)
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, v.Normal, "vertex %d", i)
		assert.Equal(t, White, v.Color, "vertex %d", i)
	}
	// V is flipped for Vulkan's top-left texture origin.
	assert.Equal(t, mgl32.Vec2{1, 0}, vertices[2].TexCoord)
	assert.Equal(t, mgl32.Vec2{0, 1}, vertices[0].TexCoord)
}

func TestDecodeWithoutNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	vertices, err := Decode(strings.NewReader(src), nil)
	require.NoError(t, err)
	require.Len(t, vertices, 3)
	assert.Equal(t, mgl32.Vec3{}, vertices[0].Normal)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, vertices[1].Position)
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(strings.NewReader("v 0 0 0\n"), nil)
	assert.ErrorIs(t, err, ErrEmptyMesh)
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"meshes/quad.obj": {Data: []byte(quadOBJ)},
		"meshes/quad.mtl": {Data: []byte("newmtl white\nKd 1 1 1\n")},
	}
	vertices, err := LoadFS(fsys, "meshes/quad.obj")
	require.NoError(t, err)
	assert.Len(t, vertices, 6)

	_, err = LoadFS(fsys, "meshes/missing.obj")
	assert.Error(t, err)
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "quad.obj")
	require.NoError(t, os.WriteFile(file, []byte(quadOBJ), 0o644))

	vertices, err := Load(file)
	require.NoError(t, err)
	require.Len(t, vertices, 6)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, vertices[0].Normal)

	_, err = Load(filepath.Join(dir, "missing.obj"))
	assert.ErrorContains(t, err, "missing.obj")
}

func TestLoadAllKeepsOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"quad.obj": {Data: []byte(quadOBJ)},
		"tri.obj":  {Data: []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")},
	}
	meshes, err := LoadAll(context.Background(), fsys, []string{"tri.obj", "quad.obj", "tri.obj"})
	require.NoError(t, err)
	require.Len(t, meshes, 3)
	assert.Len(t, meshes[0], 3)
	assert.Len(t, meshes[1], 6)
	assert.Len(t, meshes[2], 3)
}

func TestLoadAllFails(t *testing.T) {
	fsys := fstest.MapFS{"quad.obj": {Data: []byte(quadOBJ)}}
	_, err := LoadAll(context.Background(), fsys, []string{"quad.obj", "nope.obj"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.obj")
}
