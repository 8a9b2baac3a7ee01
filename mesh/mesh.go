// Package mesh turns Wavefront OBJ files into flat, non-indexed vertex
// lists ready for upload.
package mesh

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// Vertex is the per-vertex layout shared with the mesh shaders.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

var (
	White = mgl32.Vec3{1, 1, 1}
	Red   = mgl32.Vec3{1, 0, 0}
	Green = mgl32.Vec3{0, 1, 0}
	Blue  = mgl32.Vec3{0, 0, 1}
)

var ErrEmptyMesh = errors.New("mesh has no triangles")

// Triangle returns a single triangle facing +Z with red, green and blue
// corners.
func Triangle() []Vertex {
	normal := mgl32.Vec3{0, 0, 1}
	return []Vertex{
		{Position: mgl32.Vec3{1, 1, 0}, Normal: normal, Color: Red, TexCoord: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{-1, 1, 0}, Normal: normal, Color: Green, TexCoord: mgl32.Vec2{0, 1}},
		{Position: mgl32.Vec3{0, -1, 0}, Normal: normal, Color: Blue, TexCoord: mgl32.Vec2{0.5, 0}},
	}
}

// Decode parses an OBJ stream. mtl may be nil when there is no material
// library. Polygons are split into triangle fans and every vertex is white.
func Decode(objReader, mtl io.Reader) ([]Vertex, error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}
	decoder, err := obj.DecodeReader(objReader, mtl)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	var vertices []Vertex
	for _, object := range decoder.Objects {
		for _, face := range object.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range [3]int{0, i - 1, i} {
					v, err := faceVertex(decoder, face, corner)
					if err != nil {
						return nil, errors.Wrapf(err, "object %q", object.Name)
					}
					vertices = append(vertices, v)
				}
			}
		}
	}
	if len(vertices) == 0 {
		return nil, ErrEmptyMesh
	}
	return vertices, nil
}

func faceVertex(decoder *obj.Decoder, face obj.Face, corner int) (Vertex, error) {
	vi := face.Vertices[corner]
	if vi < 0 || vi*3+2 >= len(decoder.Vertices) {
		return Vertex{}, errors.Newf("vertex index %d out of range", vi)
	}
	v := Vertex{
		Position: mgl32.Vec3{decoder.Vertices[vi*3], decoder.Vertices[vi*3+1], decoder.Vertices[vi*3+2]},
		Color:    White,
	}
	if corner < len(face.Normals) {
		if ni := face.Normals[corner]; ni >= 0 && ni*3+2 < len(decoder.Normals) {
			v.Normal = mgl32.Vec3{decoder.Normals[ni*3], decoder.Normals[ni*3+1], decoder.Normals[ni*3+2]}
		}
	}
	if corner < len(face.Uvs) {
		if ui := face.Uvs[corner]; ui >= 0 && ui*2+1 < len(decoder.Uvs) {
			v.TexCoord = mgl32.Vec2{decoder.Uvs[ui*2], 1 - decoder.Uvs[ui*2+1]}
		}
	}
	return v, nil
}

// Load reads an OBJ file from disk. A material library next to it with the
// same base name is used when present.
func Load(file string) ([]Vertex, error) {
	return LoadFS(os.DirFS(filepath.Dir(file)), filepath.Base(file))
}

// LoadFS is Load against a file system.
func LoadFS(fsys fs.FS, name string) ([]Vertex, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open mesh %s", name)
	}
	defer f.Close()

	var mtl io.Reader
	mtlName := strings.TrimSuffix(name, path.Ext(name)) + ".mtl"
	if m, err := fsys.Open(mtlName); err == nil {
		defer m.Close()
		mtl = m
	}

	vertices, err := Decode(f, mtl)
	if err != nil {
		return nil, errors.Wrapf(err, "load mesh %s", name)
	}
	return vertices, nil
}

// LoadAll parses every named mesh in parallel. Results are in the order
// of names. The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, fsys fs.FS, names []string) ([][]Vertex, error) {
	meshes := make([][]Vertex, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vertices, err := LoadFS(fsys, name)
			if err != nil {
				return err
			}
			meshes[i] = vertices
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}
