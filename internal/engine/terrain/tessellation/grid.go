package tessellation

import (
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Grid is the coarse patch mesh laid over a height field. It places one
// vertex every Stride samples; the last row and column snap to the field edge.
type Grid struct {
	Columns int // vertices along X
	Rows    int // vertices along Z
	Stride  int

	sampleColumns int
	sampleRows    int
}

// NewGrid builds the patch grid for a field of columns×rows samples.
func NewGrid(columns, rows, stride int) *Grid {
	if stride < 1 {
		stride = 1
	}
	return &Grid{
		Columns:       (columns-2)/stride + 2,
		Rows:          (rows-2)/stride + 2,
		Stride:        stride,
		sampleColumns: columns,
		sampleRows:    rows,
	}
}

// Matches reports whether the grid was built for a field of this size.
func (g *Grid) Matches(columns, rows, stride int) bool {
	return g.sampleColumns == columns && g.sampleRows == rows && g.Stride == stride
}

// VertexCount returns the number of grid vertices.
func (g *Grid) VertexCount() int {
	return g.Columns * g.Rows
}

// PatchCount returns the number of quad patches.
func (g *Grid) PatchCount() int {
	return (g.Columns - 1) * (g.Rows - 1)
}

// Sample returns the height-field sample under grid vertex (i, j).
func (g *Grid) Sample(i, j int) (col, row int) {
	return min(i*g.Stride, g.sampleColumns-1), min(j*g.Stride, g.sampleRows-1)
}

// Vertices returns the interleaved (sampleCol, sampleRow) pairs of every
// vertex, row-major, for upload as a vertex attribute.
func (g *Grid) Vertices() []float32 {
	out := make([]float32, 0, g.VertexCount()*2)
	for j := 0; j < g.Rows; j++ {
		for i := 0; i < g.Columns; i++ {
			col, row := g.Sample(i, j)
			out = append(out, float32(col), float32(row))
		}
	}
	return out
}

// Indices returns four vertex indices per patch: v00, v10, v11, v01.
func (g *Grid) Indices() []uint32 {
	out := make([]uint32, 0, g.PatchCount()*4)
	for j := 0; j < g.Rows-1; j++ {
		for i := 0; i < g.Columns-1; i++ {
			v00 := uint32(j*g.Columns + i)
			v10 := v00 + 1
			v01 := v00 + uint32(g.Columns)
			v11 := v01 + 1
			out = append(out, v00, v10, v11, v01)
		}
	}
	return out
}

// PatchEdges gathers the edges of patch (i, j) from the per-vertex records,
// in left, bottom, right, top order. The lower-left vertex owns the bottom
// and left edges; the upper-right vertex owns the top and right edges.
func (g *Grid) PatchEdges(i, j int, records []Record) [4]Edge {
	v00 := records[j*g.Columns+i]
	v11 := records[(j+1)*g.Columns+i+1]
	return [4]Edge{
		v00.Edge(EdgePosZ),
		v00.Edge(EdgePosX),
		v11.Edge(EdgeNegZ),
		v11.Edge(EdgeNegX),
	}
}

// ComputeLevels fills out with one record per grid vertex. It is the CPU
// mirror of the edge-level compute shader, used where compute shaders are
// unavailable.
func ComputeLevels(g *Grid, hf *terrain.Heightfield, cam Camera, p Params, out []Record) {
	step := [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	for j := 0; j < g.Rows; j++ {
		for i := 0; i < g.Columns; i++ {
			col, row := g.Sample(i, j)
			a := hf.WorldPoint(col, row)

			var r Record
			for e, d := range step {
				ni, nj := i+d[0], j+d[1]
				if ni < 0 || nj < 0 || ni >= g.Columns || nj >= g.Rows {
					r.SetEdge(e, Edge{Cullable: true})
					continue
				}
				r.SetEdge(e, EdgeLevel(a, hf.WorldPoint(g.Sample(ni, nj)), cam, p))
			}
			out[j*g.Columns+i] = r
		}
	}
}

// LevelCache holds CPU-computed records and recomputes them only when the
// grid, the height field contents or the view change.
type LevelCache struct {
	Records []Record

	grid    *Grid
	field   *terrain.Heightfield
	version uint64
	cam     Camera
	params  Params
	valid   bool
}

// Update refreshes Records for the given inputs and reports whether they
// were recomputed.
func (c *LevelCache) Update(g *Grid, hf *terrain.Heightfield, cam Camera, p Params) bool {
	if c.valid && c.grid == g && c.field == hf && c.version == hf.Version() && c.cam == cam && c.params == p {
		return false
	}
	if n := g.VertexCount(); len(c.Records) != n {
		c.Records = make([]Record, n)
	}
	ComputeLevels(g, hf, cam, p, c.Records)
	c.grid, c.field, c.version = g, hf, hf.Version()
	c.cam, c.params = cam, p
	c.valid = true
	return true
}

// Invalidate forces the next Update to recompute.
func (c *LevelCache) Invalidate() {
	c.valid = false
}

// CulledPatches counts the patches that would be dropped for records.
func (g *Grid) CulledPatches(records []Record, maxLevel float32) int {
	n := 0
	for j := 0; j < g.Rows-1; j++ {
		for i := 0; i < g.Columns-1; i++ {
			if PatchLevels(g.PatchEdges(i, j, records), maxLevel).Culled {
				n++
			}
		}
	}
	return n
}
