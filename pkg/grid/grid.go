// Package grid maps linear memory offsets onto a fixed-width cell grid.
package grid

// GetGridCoords returns the column and row of index in a grid cols wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// GetGridIndex is the inverse of GetGridCoords. It returns -1 for a column
// outside the grid.
func GetGridIndex(x, y, cols int) int {
	if x < 0 || x >= cols || y < 0 {
		return -1
	}
	return y*cols + x
}
