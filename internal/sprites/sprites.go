// Package sprites numbers the sprites of the graphics section.
package sprites

import (
	"github.com/inoxlang/grfc/internal/actions"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const FIRST_SPRITE_NUMBER = 1

var _ actions.SpriteNumberer = (*Registry)(nil)

type Sprite struct {
	Name string
	File string //empty if the sprite has no source image
	Num  int
	Pos  srcpos.Position
}

// Registry numbers sprites in the order they are added, starting at FIRST_SPRITE_NUMBER.
type Registry struct {
	sprites []Sprite
	numbers map[string]int
	used    map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		numbers: map[string]int{},
		used:    map[string]bool{},
	}
}

func (r *Registry) Add(name string, file string, pos srcpos.Position) (int, error) {
	if name == "" {
		return 0, grferr.New(grferr.ErrUnknownIdentifier, pos, "a sprite must have a name")
	}
	if num, ok := r.numbers[name]; ok {
		return 0, grferr.New(grferr.ErrDuplicateIdentifier, pos,
			"sprite %s is already defined at %s", name, r.sprites[num-FIRST_SPRITE_NUMBER].Pos)
	}

	num := FIRST_SPRITE_NUMBER + len(r.sprites)
	r.sprites = append(r.sprites, Sprite{Name: name, File: file, Num: num, Pos: pos})
	r.numbers[name] = num
	return num, nil
}

func (r *Registry) GetSpriteNumber(ref string, pos srcpos.Position) (int, error) {
	num, ok := r.numbers[ref]
	if !ok {
		return 0, grferr.New(grferr.ErrUnknownIdentifier, pos, "sprite %s is not defined", ref)
	}
	r.used[ref] = true
	return num, nil
}

func (r *Registry) Len() int {
	return len(r.sprites)
}

// Sprites returns the sprites in number order.
func (r *Registry) Sprites() []Sprite {
	return append([]Sprite(nil), r.sprites...)
}

// Unused returns the sprites that no real sprite entry references.
func (r *Registry) Unused() []Sprite {
	var unused []Sprite
	for _, sprite := range r.sprites {
		if !r.used[sprite.Name] {
			unused = append(unused, sprite)
		}
	}
	return unused
}
