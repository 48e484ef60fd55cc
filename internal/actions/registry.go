package actions

import (
	"fmt"
	"strings"

	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/pool"
	"github.com/inoxlang/grfc/internal/refgraph"
	"github.com/inoxlang/grfc/internal/srcpos"
	"github.com/maruel/natural"
	"github.com/rs/zerolog"
	"github.com/tidwall/btree"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Definition is a named record that other records reference by name: a decision table or a sprite
// group. The numeric id of the record is popped from the id pool of its feature when the record
// is bound and returned to the pool when the last reference to the record has been bound.
type Definition struct {
	Name    string
	Feature int
	Pos     srcpos.Position

	node      refgraph.NodeId
	refCount  int
	totalRefs int
	id        int
	released  bool
}

// ID returns the id of the record, -1 if the record is not bound yet.
func (d *Definition) ID() int {
	return d.id
}

func (d *Definition) IsBound() bool {
	return d.id >= 0
}

// RefCount returns the number of references that are not bound yet.
func (d *Definition) RefCount() int {
	return d.refCount
}

// TotalRefs returns the number of references ever added.
func (d *Definition) TotalRefs() int {
	return d.totalRefs
}

// Registry maps names to definitions and tracks the references between records.
type Registry struct {
	logger zerolog.Logger

	definitions *btree.BTreeG[*Definition] //ordered by name
	graph       *refgraph.Graph[*Definition]
	idPools     map[int]*pool.Pool
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger:      logger,
		definitions: btree.NewBTreeG(lessDefinitions),
		graph:       refgraph.New[*Definition](),
		idPools:     map[int]*pool.Pool{},
	}
}

func lessDefinitions(a, b *Definition) bool {
	if natural.Less(a.Name, b.Name) {
		return true
	}
	if natural.Less(b.Name, a.Name) {
		return false
	}
	//names such as a1 and a01 are equivalent for natural ordering.
	return a.Name < b.Name
}

// Define registers a new named record, names are unique.
func (r *Registry) Define(name string, feature int, pos srcpos.Position) (*Definition, error) {
	if existing, ok := r.Lookup(name); ok {
		return nil, grferr.New(grferr.ErrDuplicateIdentifier, pos, "%s is already defined at %s", name, existing.Pos)
	}

	def := &Definition{
		Name:    name,
		Feature: feature,
		Pos:     pos,
		id:      -1,
	}
	def.node = r.graph.AddNode(def)
	r.definitions.Set(def)
	return def, nil
}

func (r *Registry) Lookup(name string) (*Definition, bool) {
	return r.definitions.Get(&Definition{Name: name})
}

// AddRef adds a reference to the record named name. from is the definition of the referencing record,
// it is nil if the referencing record has no name.
func (r *Registry) AddRef(from *Definition, name string, feature int, pos srcpos.Position) (*Definition, error) {
	def, ok := r.Lookup(name)
	if !ok {
		return nil, grferr.New(grferr.ErrUnknownReference, pos, "%s is not defined", name)
	}
	if def.Feature != feature {
		return nil, grferr.New(grferr.ErrTypeMismatch, pos,
			"%s is defined for feature 0x%02X and cannot be used for feature 0x%02X", name, def.Feature, feature)
	}
	def.refCount++
	def.totalRefs++
	if from != nil {
		r.graph.AddEdge(from.node, def.node)
	}
	return def, nil
}

// RemoveRef consumes a reference added by AddRef, the id of the record returns to the pool when
// its last reference is consumed.
func (r *Registry) RemoveRef(def *Definition) {
	if def.refCount <= 0 {
		panic(fmt.Errorf("reference count of %s would become negative", def.Name))
	}
	if !def.IsBound() {
		panic(fmt.Errorf("reference to %s consumed before its definition", def.Name))
	}
	def.refCount--
	if def.refCount == 0 {
		r.release(def)
	}
}

// BindRef resolves ref to the id of the record it names and consumes the reference.
func (r *Registry) BindRef(ref expr.RecordRef, pos srcpos.Position) (expr.RecordRef, error) {
	def, ok := r.Lookup(ref.Name)
	if !ok {
		return ref, grferr.New(grferr.ErrUnknownReference, pos, "%s is not defined", ref.Name)
	}
	id := def.ID()
	r.RemoveRef(def)
	return ref.WithID(id), nil
}

// Bind pops an id for the record defined by def.
func (r *Registry) Bind(def *Definition, pos srcpos.Position) (int, error) {
	if def.IsBound() {
		panic(fmt.Errorf("%s is bound twice", def.Name))
	}
	id, err := r.IdPool(def.Feature).PopGlobal(pos)
	if err != nil {
		return 0, err
	}
	def.id = id

	if def.refCount == 0 {
		r.logger.Warn().Str("record", def.Name).Str("pos", def.Pos.String()).Msg("record is never used")
		r.release(def)
	}
	return id, nil
}

func (r *Registry) release(def *Definition) {
	if def.released {
		return
	}
	def.released = true
	r.IdPool(def.Feature).Release(def.id)
}

// IdPool returns the pool of record ids of a feature.
func (r *Registry) IdPool(feature int) *pool.Pool {
	p, ok := r.idPools[feature]
	if !ok {
		p = pool.NewRange(fmt.Sprintf("record ids of feature 0x%02X", feature), FIRST_RECORD_ID, LAST_RECORD_ID)
		r.idPools[feature] = p
	}
	return p
}

// IdPools returns the record id pools ordered by feature.
func (r *Registry) IdPools() []*pool.Pool {
	features := maps.Keys(r.idPools)
	slices.Sort(features)

	pools := make([]*pool.Pool, 0, len(features))
	for _, feature := range features {
		pools = append(pools, r.idPools[feature])
	}
	return pools
}

// Definitions returns all the definitions in natural order of their names.
func (r *Registry) Definitions() []*Definition {
	defs := make([]*Definition, 0, r.definitions.Len())
	r.definitions.Scan(func(def *Definition) bool {
		defs = append(defs, def)
		return true
	})
	return defs
}

// Connected returns the definitions reachable from def or reaching def through references.
func (r *Registry) Connected(def *Definition) []*Definition {
	ids := r.graph.Connected(def.node)
	defs := make([]*Definition, 0, len(ids))
	for _, id := range ids {
		defs = append(defs, r.graph.MustGetNodeData(id))
	}
	return defs
}

// References returns the definitions directly referenced by def.
func (r *Registry) References(def *Definition) []*Definition {
	ids := r.graph.DestinationIds(def.node)
	defs := make([]*Definition, 0, len(ids))
	for _, id := range ids {
		defs = append(defs, r.graph.MustGetNodeData(id))
	}
	return defs
}

// DependencyOrder returns the definitions sorted so that every definition comes before the
// definitions it references, refgraph.ErrCycle is returned if records reference each other in a cycle.
func (r *Registry) DependencyOrder() ([]*Definition, error) {
	ids, err := r.graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	defs := make([]*Definition, 0, len(ids))
	for _, id := range ids {
		defs = append(defs, r.graph.MustGetNodeData(id))
	}
	return defs, nil
}

// CheckCycles returns an error if records reference each other in a cycle, the scratch registers
// of such records cannot be allocated.
func (r *Registry) CheckCycles() error {
	if _, err := r.DependencyOrder(); err == nil {
		return nil
	}

	cycle := r.graph.Cycles()[0]
	names := make([]string, 0, len(cycle)+1)
	for _, id := range cycle {
		names = append(names, r.graph.MustGetNodeData(id).Name)
	}
	first := r.graph.MustGetNodeData(cycle[0])
	names = append(names, first.Name)

	return grferr.New(grferr.ErrUnsupportedOperator, first.Pos,
		"cyclic references between records are not supported: %s", strings.Join(names, " -> "))
}
