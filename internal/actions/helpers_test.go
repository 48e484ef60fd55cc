package actions

import (
	"fmt"
	"testing"

	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var pos = srcpos.Position{File: "test.yaml", Line: 1}

type fakeStrings struct {
	ids          map[string]int
	translations map[string][]Translation
}

func (s fakeStrings) ResolveString(name string, pos srcpos.Position) (int, error) {
	id, ok := s.ids[name]
	if !ok {
		return 0, grferr.New(grferr.ErrUnknownIdentifier, pos, "string %s is not defined", name)
	}
	return id, nil
}

func (s fakeStrings) ResolveStringTranslations(name string, pos srcpos.Position) ([]Translation, error) {
	if _, ok := s.ids[name]; !ok {
		return nil, grferr.New(grferr.ErrUnknownIdentifier, pos, "string %s is not defined", name)
	}
	return s.translations[name], nil
}

type fakeSprites map[string]int

func (s fakeSprites) GetSpriteNumber(ref string, pos srcpos.Position) (int, error) {
	num, ok := s[ref]
	if !ok {
		return 0, grferr.New(grferr.ErrUnknownIdentifier, pos, "sprite %s is not defined", ref)
	}
	return num, nil
}

func newTestContext() *Context {
	return NewContext(ContextConfig{
		Logger: zerolog.Nop(),
		Strings: fakeStrings{
			ids: map[string]int{"STR_NAME": 0xD000, "STR_ERROR": 0xD001},
			translations: map[string][]Translation{
				"STR_NAME":  {{Lang: 0x00, Text: "Hi"}},
				"STR_ERROR": {{Lang: 0x00, Text: "Bad"}, {Lang: 0x01, Text: "Mal"}},
			},
		},
		Sprites: fakeSprites{"s1": 1, "s2": 2, "s3": 3, "s4": 4},
	})
}

// write returns the bytes of each sprite written by records.
func write(t *testing.T, records []Record) [][]byte {
	t.Helper()
	out := grfout.NewRecorder()
	for _, record := range records {
		record.Write(out)
	}
	require.NoError(t, out.Close())
	return out.Sprites
}

// finalizeAndWrite finalizes records and returns the bytes of each sprite.
func finalizeAndWrite(t *testing.T, ctx *Context, records []Record) [][]byte {
	t.Helper()
	require.NoError(t, Finalize(ctx, records))
	return write(t, records)
}

func kinds(records []Record) []Kind {
	var result []Kind
	for _, record := range records {
		result = append(result, record.Kind())
	}
	return result
}

func findTable(t *testing.T, records []Record, name string) *DecisionTable {
	t.Helper()
	for _, record := range records {
		if table, ok := record.(*DecisionTable); ok && table.Def.Name == name {
			return table
		}
	}
	require.FailNow(t, fmt.Sprintf("no decision table named %s", name))
	return nil
}

func deactivations(n int) []Record {
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		d, err := NewDeactivation([]GRFID{{'A', 'B', 'C', byte(i)}}, pos)
		if err != nil {
			panic(err)
		}
		records = append(records, d)
	}
	return records
}
