package identity

// AliasTable maps a canonical source identity to the canonical target
// identity it should report as. Lookup is a single hop: chains like
// A→B, B→C resolve A to B, never to C. The merge engine flattens chains
// before persisting so stored tables stay single-hop.
type AliasTable map[string]string

// Resolve canonicalizes raw and applies at most one alias hop.
func Resolve(raw string, table AliasTable) string {
	name := Canonicalize(raw)
	if target, ok := table[name]; ok {
		return target
	}
	return name
}

// Flatten rewrites every entry whose target is itself an alias source so
// that each entry points at its final hop. Cycles are left at one hop
// rather than looping.
func (t AliasTable) Flatten() {
	for source := range t {
		seen := map[string]bool{source: true}
		target := t[source]
		for {
			next, ok := t[target]
			if !ok || seen[next] {
				break
			}
			seen[target] = true
			target = next
		}
		t[source] = target
	}
}

// Clone returns a shallow copy of the table.
func (t AliasTable) Clone() AliasTable {
	out := make(AliasTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
