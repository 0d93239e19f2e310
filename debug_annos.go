package main

import (
	"fmt"
	"os"

	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/parser"
	"flux/internal/pass"
	"flux/internal/pipeline"
)

// Одноразовый скрипт: прогоняет testdata/alu.flx до low-формы и печатает,
// во что переименовался bundle-порт op и какие аннотации накопились.
func main() {
	file := "testdata/alu.flx"
	c, err := parser.ParseFile(file)
	if err != nil {
		fmt.Printf("parse error: %v\n", err)
		os.Exit(1)
	}

	canon, err := pipeline.CanonicalLowering(form.Source, form.Low)
	if err != nil {
		fmt.Printf("lowering error: %v\n", err)
		os.Exit(1)
	}

	tracked := []circuit.Ref{circuit.ComponentRef(c.Name, "ALU", "op")}
	st := pass.New(c, form.Source)
	for _, p := range canon {
		next, runErr := pass.Run(p, st, nil)
		if runErr != nil {
			fmt.Printf("%s failed: %v\n", p.Name(), runErr)
			os.Exit(1)
		}
		if !next.Renames.Empty() {
			tracked = advance(tracked, next.Renames)
			fmt.Printf("%s: %d renames, tracking %v\n", p.Name(), next.Renames.Len(), tracked)
		}
		st = next
	}

	fmt.Printf("final form: %s, %d annotations\n", st.Form, len(st.Annos))
	for _, a := range st.Annos {
		fmt.Printf("  owner=%s target=%s %#v\n", a.Owner(), a.Target(), a)
		if d, ok := a.(anno.Deleted); ok {
			fmt.Printf("    deleted by chain %v\n", d.Chain())
		}
	}
}

func advance(refs []circuit.Ref, renames anno.RenameMap) []circuit.Ref {
	var out []circuit.Ref
	for _, r := range refs {
		if succ, ok := renames.Get(r); ok {
			out = append(out, succ...)
			continue
		}
		out = append(out, r)
	}
	return out
}
