package artifact

import (
	"sort"
	"strings"

	"github.com/tsnc-lang/tsnc/internal/bytecode"
)

// ReferenceRewriter remaps residual implementation-detail references in
// an emitted chunk onto the runtime module's public surface (spec §4.9):
// scan the symbol table and rewrite each name per a name→target table.
// The reference-assembly file the CLI accepts is parsed into this table.
type ReferenceRewriter struct {
	mapping map[string]string
}

// NewReferenceRewriter builds a rewriter over an explicit table.
func NewReferenceRewriter(mapping map[string]string) *ReferenceRewriter {
	return &ReferenceRewriter{mapping: mapping}
}

// ParseReferenceTable reads the `old=new` line format of a reference-
// assembly map file. Blank lines and `#` comments are skipped.
func ParseReferenceTable(text string) *ReferenceRewriter {
	mapping := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		mapping[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return &ReferenceRewriter{mapping: mapping}
}

// Rewrite remaps the chunk's name table in place and returns the
// rewritten names, sorted, for the CLI's report. This is mechanical:
// instructions index the table, so no code changes.
func (rw *ReferenceRewriter) Rewrite(chunk *bytecode.Chunk) []string {
	if len(rw.mapping) == 0 {
		return nil
	}
	var rewritten []string
	for i, name := range chunk.Names {
		if target, ok := rw.mapping[name]; ok {
			chunk.Names[i] = target
			rewritten = append(rewritten, name+" -> "+target)
		}
	}
	sort.Strings(rewritten)
	return rewritten
}
