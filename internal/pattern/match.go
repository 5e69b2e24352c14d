package pattern

// Match scans window for the first index at which pattern matches,
// following §4.5: for each candidate start, every cell must match the byte
// at the corresponding offset; there is no backtracking, and the first
// successful start wins.
func Match(p CompiledPattern, window []byte) (int, bool) {
	cells := p.Slice()
	n := len(cells)
	if n == 0 {
		return 0, true
	}

	for i := 0; i+n <= len(window); i++ {
		matched := true
		for k := 0; k < n; k++ {
			if !cells[k].Matches(window[i+k]) {
				matched = false
				break
			}
		}
		if matched {
			return i, true
		}
	}
	return 0, false
}
