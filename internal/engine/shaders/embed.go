// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// EdgeLevelsComputeShader computes per-vertex edge tessellation levels.
//
//go:embed edge_levels.comp
var EdgeLevelsComputeShader string

// BrushInfluenceVertexShader expands brush instances into quads.
//
//go:embed brush_influence.vert
var BrushInfluenceVertexShader string

// BrushInfluenceFragmentShader writes the brush falloff into the influence mask.
//
//go:embed brush_influence.frag
var BrushInfluenceFragmentShader string

// FullscreenVertexShader draws a viewport-covering triangle.
//
//go:embed fullscreen.vert
var FullscreenVertexShader string

// BrushToolFragmentShader applies raise, lower and flatten.
//
//go:embed brush_tool.frag
var BrushToolFragmentShader string

// BrushBlurFragmentShader runs one masked box-blur pass.
//
//go:embed brush_blur.frag
var BrushBlurFragmentShader string

// TerrainVertexShader forwards grid vertices and their edge records.
//
//go:embed terrain.vert
var TerrainVertexShader string

// TerrainTessControlShader turns edge records into patch tessellation levels.
//
//go:embed terrain.tesc
var TerrainTessControlShader string

// TerrainTessEvalShader displaces tessellated vertices by the heightmap.
//
//go:embed terrain.tese
var TerrainTessEvalShader string

// TerrainFragmentShader shades material layers and the brush highlight.
//
//go:embed terrain.frag
var TerrainFragmentShader string
