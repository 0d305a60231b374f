package session

// Generation tags asynchronous work with the trigger that started it.
// Results carrying an older value than Current are stale and must be
// dropped.
type Generation struct {
	n uint64
}

func (g *Generation) Next() uint64 {
	g.n++
	return g.n
}

func (g Generation) Current() uint64 {
	return g.n
}

func (g Generation) IsCurrent(n uint64) bool {
	return n == g.n
}
