package engine

// HasBingo checks a 5x5 card grid against the called numbers. The center
// cell plays as free. Winning patterns: any row, any column, both
// diagonals, the four corners, the center cross, and the full card.
func HasBingo(grid [][]int, called []int) bool {
	calledSet := make(map[int]bool, len(called))
	for _, n := range called {
		calledSet[n] = true
	}

	const freeRow, freeCol = 2, 2

	covered := func(row, col int) bool {
		if row == freeRow && col == freeCol {
			return true
		}
		return calledSet[grid[row][col]]
	}

	line := func(cells [][2]int) bool {
		for _, cell := range cells {
			if !covered(cell[0], cell[1]) {
				return false
			}
		}
		return true
	}

	corners := [][2]int{{0, 0}, {0, 4}, {4, 0}, {4, 4}}
	if line(corners) {
		return true
	}

	for row := 0; row < 5; row++ {
		cells := make([][2]int, 0, 5)
		for col := 0; col < 5; col++ {
			cells = append(cells, [2]int{row, col})
		}
		if line(cells) {
			return true
		}
	}

	for col := 0; col < 5; col++ {
		cells := make([][2]int, 0, 5)
		for row := 0; row < 5; row++ {
			cells = append(cells, [2]int{row, col})
		}
		if line(cells) {
			return true
		}
	}

	cross := make([][2]int, 0, 10)
	for i := 0; i < 5; i++ {
		cross = append(cross, [2]int{2, i})
		cross = append(cross, [2]int{i, 2})
	}
	if line(cross) {
		return true
	}

	diag1 := make([][2]int, 0, 5)
	diag2 := make([][2]int, 0, 5)
	for i := 0; i < 5; i++ {
		diag1 = append(diag1, [2]int{i, i})
		diag2 = append(diag2, [2]int{i, 4 - i})
	}
	if line(diag1) || line(diag2) {
		return true
	}

	full := make([][2]int, 0, 25)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			full = append(full, [2]int{r, c})
		}
	}
	return line(full)
}
