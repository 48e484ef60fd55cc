package pool

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
	"golang.org/x/exp/slices"
)

// Pool is a free-list allocator for a small integer id space.
//
// The free list is used as a stack: the most recently freed id is handed out first.
// Allocations are grouped in checkpoint frames, Save pushes a frame and Restore returns
// all the ids popped since the matching Save. Ids removed with PopGlobal belong to no frame,
// they stay allocated until Release is called.
type Pool struct {
	name   string
	total  int
	free   []int
	frames [][]int

	issued *bitset.BitSet //ids handed out at least once
	inUse  *bitset.BitSet

	stats Stats
}

// Stats is a high-water mark of the number of ids in use, it is only used for diagnostics.
type Stats struct {
	Name    string
	Total   int
	Peak    int
	PeakPos srcpos.Position
}

// New creates a pool whose free list is ids: the last element is popped first.
func New(name string, ids []int) *Pool {
	p := &Pool{
		name:   name,
		total:  len(ids),
		free:   slices.Clone(ids),
		issued: bitset.New(0),
		inUse:  bitset.New(0),
	}
	p.stats.Name = name
	p.stats.Total = len(ids)
	return p
}

// NewRange creates a pool for the inclusive range [first, last], first is popped first.
func NewRange(name string, first, last int) *Pool {
	if last < first {
		panic(fmt.Errorf("invalid range [%d, %d] for pool %s", first, last, name))
	}
	ids := make([]int, 0, last-first+1)
	for id := last; id >= first; id-- {
		ids = append(ids, id)
	}
	return New(name, ids)
}

func (p *Pool) Name() string {
	return p.name
}

// Save pushes a new checkpoint frame, it must precede any Pop.
func (p *Pool) Save() {
	p.frames = append(p.frames, nil)
}

// Restore pops the current checkpoint frame and returns its ids to the free list, the first
// allocated id ends on top of the free list so that the next allocations reuse the same ids.
func (p *Pool) Restore() {
	if len(p.frames) == 0 {
		panic(fmt.Errorf("pool %s: restore without matching save", p.name))
	}
	frame := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]

	for i := len(frame) - 1; i >= 0; i-- {
		id := frame[i]
		p.inUse.Clear(uint(id))
		p.free = append(p.free, id)
	}
}

// Depth returns the number of active checkpoint frames.
func (p *Pool) Depth() int {
	return len(p.frames)
}

// Pop removes the most recently freed id and records it in the current frame.
func (p *Pool) Pop(pos srcpos.Position) (int, error) {
	p.checkFrame()
	if len(p.free) == 0 {
		return 0, p.exhausted(pos)
	}

	id := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.take(id, pos)
	p.frames[len(p.frames)-1] = append(p.frames[len(p.frames)-1], id)
	return id, nil
}

// PopUnique is like Pop but the returned id has never been handed out before by the pool.
func (p *Pool) PopUnique(pos srcpos.Position) (int, error) {
	p.checkFrame()

	for i := len(p.free) - 1; i >= 0; i-- {
		id := p.free[i]
		if p.issued.Test(uint(id)) {
			continue
		}
		p.free = slices.Delete(p.free, i, i+1)
		p.take(id, pos)
		p.frames[len(p.frames)-1] = append(p.frames[len(p.frames)-1], id)
		return id, nil
	}

	return 0, grferr.New(grferr.ErrNoUniqueResourceAvailable, pos,
		"all %d %s have already been used once", p.total, p.name)
}

// PopGlobal removes an id from circulation: restoring frames never returns it, only Release does.
func (p *Pool) PopGlobal(pos srcpos.Position) (int, error) {
	if len(p.free) == 0 {
		return 0, p.exhausted(pos)
	}
	id := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.take(id, pos)
	return id, nil
}

// Release returns an id obtained with PopGlobal to the free list.
func (p *Pool) Release(id int) {
	if !p.inUse.Test(uint(id)) {
		panic(fmt.Errorf("pool %s: release of id %d that is not in use", p.name, id))
	}
	for _, frame := range p.frames {
		if slices.Contains(frame, id) {
			panic(fmt.Errorf("pool %s: id %d belongs to a checkpoint frame and cannot be released", p.name, id))
		}
	}
	p.inUse.Clear(uint(id))
	p.free = append(p.free, id)
}

// IsFree reports whether id is currently in the free list.
func (p *Pool) IsFree(id int) bool {
	return slices.Contains(p.free, id)
}

// FreeIds returns a copy of the free list, the last element is the next popped id.
func (p *Pool) FreeIds() []int {
	return slices.Clone(p.free)
}

// InUse returns the number of ids currently handed out.
func (p *Pool) InUse() int {
	return p.total - len(p.free)
}

func (p *Pool) Stats() Stats {
	return p.stats
}

func (p *Pool) take(id int, pos srcpos.Position) {
	if p.inUse.Test(uint(id)) {
		panic(fmt.Errorf("pool %s: id %d is handed out twice", p.name, id))
	}
	p.inUse.Set(uint(id))
	p.issued.Set(uint(id))

	if used := p.InUse(); used > p.stats.Peak {
		p.stats.Peak = used
		p.stats.PeakPos = pos
	}
}

func (p *Pool) checkFrame() {
	if len(p.frames) == 0 {
		panic(fmt.Errorf("pool %s: pop without an active checkpoint", p.name))
	}
}

func (p *Pool) exhausted(pos srcpos.Position) error {
	return grferr.New(grferr.ErrResourceExhausted, pos, "unable to allocate one of the %d %s", p.total, p.name)
}
