// Package trieindex indexes the function and variable names seen across
// a Final Trace for fast prefix lookup, backing the REPL's `find`
// command the same way delve's command dispatcher uses a trie for
// command-name completion.
package trieindex

import (
	"sort"

	"github.com/derekparker/trie"

	"github.com/knazir/pgtrace/pkg/normalizer"
)

// Index is a prefix-searchable set of names drawn from one Final Trace.
type Index struct {
	t *trie.Trie
}

// Build walks every Execution Point in ft and indexes each frame's
// func_name, each local variable name, and each global name.
func Build(ft *normalizer.FinalTrace) *Index {
	t := trie.New()
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		t.Add(name, nil)
	}

	for _, p := range ft.Trace {
		for name := range p.Globals {
			add(name)
		}
		for _, frame := range p.StackToRender {
			add(frame.FuncName)
			for name := range frame.EncodedLocals {
				add(name)
			}
		}
	}
	return &Index{t: t}
}

// Find returns every indexed name with the given prefix, sorted for
// stable REPL output.
func (ix *Index) Find(prefix string) []string {
	matches := ix.t.PrefixSearch(prefix)
	sort.Strings(matches)
	return matches
}
