package grid

// Run repeatedly ticks the grid until no block ticked (quiescence) or
// maxTicks is exhausted, returning the number of ticks actually run.
// Observable output lives in attached output slots (spec.md §4.6
// "Driver (C8)").
func Run(g *Grid, maxTicks int) int {
	ticks := 0
	for ticks < maxTicks {
		ticked := Tick(g)
		ticks++
		if !ticked {
			break
		}
	}
	return ticks
}
