package grammar_test

import (
	"fmt"

	"github.com/matzehuels/argdump/pkg/grammar"
	"github.com/matzehuels/argdump/pkg/value"
)

func ExampleSubparsers_Canonical() {
	sub := &grammar.Subparsers{Dest: "command"}
	sub.Add("checkout", grammar.NewParser("git checkout"), "co", "ch")
	sub.Add("status", grammar.NewParser("git status"))

	for _, cmd := range sub.Canonical() {
		fmt.Println(cmd.Name, cmd.Aliases)
	}
	// Output:
	// checkout [co ch]
	// status []
}

func ExampleDecodeDocument() {
	p := grammar.NewParser("tool")
	p.Add(grammar.Positional("input"))
	out := p.Add(grammar.Option("", "-o", "--output"))
	out.Default = value.String("out.txt")
	verbose := p.Add(grammar.Option("verbose", "-v"))
	verbose.Kind = grammar.KindCount

	data, err := grammar.EncodeDocument(p, false)
	if err != nil {
		panic(err)
	}
	back, err := grammar.DecodeDocument(data, true)
	if err != nil {
		panic(err)
	}
	for _, a := range back.Actions {
		fmt.Println(a.Dest, a.Kind, a.Default)
	}
	// Output:
	// help help ==SUPPRESS==
	// input store None
	// output store out.txt
	// verbose count None
}
