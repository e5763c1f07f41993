package animset

// updateInfo is the compiler scratch bitmap. Bit (a, b) set means the routes
// currently known by a have been offered to b; bit (a, a) marks a as being
// relaxed.
type updateInfo struct {
	size  int
	words int
	bits  []uint64
}

func newUpdateInfo(size int) *updateInfo {
	words := (size + 63) / 64
	return &updateInfo{size: size, words: words, bits: make([]uint64, words*size)}
}

func (u *updateInfo) get(a, b int) bool {
	return u.bits[a*u.words+b/64]&(1<<uint(b%64)) != 0
}

func (u *updateInfo) set(a, b int) {
	u.bits[a*u.words+b/64] |= 1 << uint(b%64)
}

func (u *updateInfo) reset(a, b int) {
	u.bits[a*u.words+b/64] &^= 1 << uint(b%64)
}

// clean forgets every offer made by a, so its routes get offered again.
func (u *updateInfo) clean(a int) {
	row := u.bits[a*u.words : (a+1)*u.words]
	for i := range row {
		row[i] = 0
	}
}

// Compile computes the first hop, length and priority of every reachable
// (src, dst) pair. It is a no-op on a clean table.
//
// Direct links seed the routes. Each slot then takes the routes of the slots
// it links to, extended by that link: a higher link priority wins, equal
// priority prefers the shorter route. Passes repeat until nothing changes.
func (t *LinkTable) Compile() error {
	if t == nil || !t.dirty {
		return nil
	}

	for i := range t.cells {
		c := &t.cells[i]
		c.clearPath()
		if c.usable() {
			c.path = true
			c.hop = uint8(i % t.size)
			c.length = 1
			c.pathPriority = c.linkPriority()
		}
	}

	info := newUpdateInfo(t.size)
	for changed := true; changed; {
		changed = false
		for s := 0; s < t.size; s++ {
			if t.updateSlot(s, info) {
				changed = true
			}
		}
	}

	t.settleLengths()
	t.dirty = false
	return nil
}

// settleLengths rewrites every indirect length from its hop chain. Routes
// offered early may have been extended through hops that changed later.
func (t *LinkTable) settleLengths() {
	for i := range t.cells {
		c := &t.cells[i]
		if !c.path || c.link {
			continue
		}
		if n, ok := t.chainLength(i/t.size, i%t.size); ok {
			c.length = uint8(n)
		}
	}
}

// chainLength counts the hops from src to dst following compiled first hops.
func (t *LinkTable) chainLength(src, dst int) (int, bool) {
	x := src
	for n := 1; n <= t.size && n <= maxPathLength; n++ {
		c := &t.cells[x*t.size+dst]
		if !c.path {
			return 0, false
		}
		x = int(c.hop)
		if x == dst {
			return n, true
		}
	}
	return 0, false
}

// updateSlot relaxes s against every slot it links to.
func (t *LinkTable) updateSlot(s int, info *updateInfo) bool {
	if info.get(s, s) {
		return false
	}
	info.set(s, s)

	changed := false
	for d := 0; d < t.size; d++ {
		if !t.cells[s*t.size+d].usable() || info.get(d, s) {
			continue
		}
		info.set(d, s)
		if t.relax(s, d) {
			// s has new routes: everyone fed by s must see them again
			info.clean(s)
			info.set(s, s)
			changed = true
		}
	}

	info.reset(s, s)
	return changed
}

// relax offers the routes of d to s through the direct link s->d.
func (t *LinkTable) relax(s, d int) bool {
	base := s * t.size
	via := &t.cells[base+d]
	prio := via.linkPriority()

	changed := false
	for k := 0; k < t.size; k++ {
		dst := &t.cells[base+k]
		if dst.link {
			continue
		}
		src := &t.cells[d*t.size+k]
		if !src.path || int(src.length)+1 > maxPathLength {
			continue
		}
		length := src.length + 1

		tie := false
		if dst.path {
			switch {
			case dst.pathPriority > prio:
				continue
			case dst.pathPriority == prio:
				if dst.length < length {
					continue
				}
				if dst.length == length {
					// an equal route back to s itself goes to the lowest hop
					if k != s || d >= int(dst.hop) {
						continue
					}
					tie = true
				}
			}
		}
		if t.loopsThrough(d, k, s) {
			continue
		}

		dst.path = true
		dst.hop = uint8(d)
		dst.length = length
		dst.pathPriority = prio
		if !tie {
			changed = true
		}
	}
	return changed
}

// loopsThrough reports whether following the compiled hops from d towards k
// visits s before reaching k.
func (t *LinkTable) loopsThrough(d, k, s int) bool {
	for x, steps := d, 0; steps <= t.size; steps++ {
		if x == k {
			return false
		}
		if x == s {
			return true
		}
		c := &t.cells[x*t.size+k]
		if !c.path {
			return false
		}
		x = int(c.hop)
	}
	return true
}
