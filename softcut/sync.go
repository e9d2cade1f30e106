package softcut

// syncGraph is an immutable snapshot of follower -> leader relations.
// Writers copy, edit and publish a new snapshot; the audio thread only loads.
type syncGraph struct {
	leader []int
	offset []float64
}

func newSyncGraph(n int) *syncGraph {
	g := &syncGraph{
		leader: make([]int, n),
		offset: make([]float64, n),
	}
	for i := range g.leader {
		g.leader[i] = -1
	}
	return g
}

func (g *syncGraph) clone() *syncGraph {
	c := &syncGraph{
		leader: make([]int, len(g.leader)),
		offset: make([]float64, len(g.offset)),
	}
	copy(c.leader, g.leader)
	copy(c.offset, g.offset)
	return c
}

// reaches reports whether following leader links from start arrives at target.
func (g *syncGraph) reaches(start, target int) bool {
	for l, hops := start, 0; l >= 0 && hops <= len(g.leader); l, hops = g.leader[l], hops+1 {
		if l == target {
			return true
		}
	}
	return false
}

func (g *syncGraph) hasFollowers(leader int) bool {
	for _, l := range g.leader {
		if l == leader {
			return true
		}
	}
	return false
}
