package actions

import (
	"fmt"

	"github.com/inoxlang/grfc/internal/grfout"
)

// Finalize prepares records, in output order, to be written: the reference graph is checked for
// cycles, the ids are bound in output order and PrepareOutput is called from the last record to the
// first.
func Finalize(ctx *Context, records []Record) error {
	if err := ctx.Registry.CheckCycles(); err != nil {
		return err
	}

	for _, record := range records {
		binder, ok := record.(Binder)
		if !ok {
			continue
		}
		if err := binder.Bind(ctx); err != nil {
			return err
		}
	}

	for _, def := range ctx.Registry.Definitions() {
		if def.RefCount() != 0 {
			panic(fmt.Errorf("%d reference(s) to %s have not been bound", def.RefCount(), def.Name))
		}
	}

	for i := len(records) - 1; i >= 0; i-- {
		if err := records[i].PrepareOutput(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WriteAll writes the finalized records to out and closes it.
func WriteAll(out grfout.Output, records []Record) error {
	for _, record := range records {
		record.Write(out)
	}
	return out.Close()
}
