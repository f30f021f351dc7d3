package overworld

// ShadowMap caches, per layer and cell, whether a tile on a higher layer casts a
// shadow on it
type ShadowMap struct {
	cols, rows int
	layers     int
	shadows    []bool // [layer][row][col]
	revision   int
}

// NewShadowMap creates an empty shadow map for the grid
func NewShadowMap(cols, rows int) *ShadowMap {
	return &ShadowMap{cols: cols, rows: rows}
}

// CalculateShadows recomputes every cell. A cell is shadowed when a higher layer
// holds a non-empty tile at the same column and row that is not stairs.
func (s *ShadowMap) CalculateShadows(m *Map) {
	s.layers = len(m.layers)
	s.shadows = make([]bool, s.layers*s.rows*s.cols)
	s.revision++

	// walk top-down carrying "covered from above" per cell
	covered := make([]bool, s.rows*s.cols)
	for i := s.layers - 1; i >= 0; i-- {
		copy(s.shadows[i*s.rows*s.cols:], covered)

		layer := m.layers[i]
		for row := 0; row < s.rows; row++ {
			for col := 0; col < s.cols; col++ {
				tile := layer.GetTile(col, row)
				if tile == nil || tile.IsEmpty() {
					continue
				}
				if m.GetTileMeta(tile.GID).IsStairs() {
					continue
				}
				covered[row*s.cols+col] = true
			}
		}
	}
}

// HasShadow reports the cached shadow; out of range is false
func (s *ShadowMap) HasShadow(col, row, layer int) bool {
	if col < 0 || row < 0 || layer < 0 || col >= s.cols || row >= s.rows || layer >= s.layers {
		return false
	}
	return s.shadows[(layer*s.rows+row)*s.cols+col]
}

// GetRevision counts CalculateShadows calls
func (s *ShadowMap) GetRevision() int {
	return s.revision
}
