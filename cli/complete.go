package cli

import "strings"

// walkToCursor advances from the root through words (all but possibly an
// in-progress final word) and returns the node reached plus the set of
// candidate children for whatever comes next. It is shared by Complete and
// Describe, mirroring how get_complete and get_desc both start from
// cmd_search's partial-match walk in the original.
func (t *Tree) walkToCursor(words []string) (*node, []candidate) {
	cur := t.root()
	for _, w := range words {
		cands := t.candidatesFor(cur, w)
		best, ok := bestCandidate(cands)
		if !ok {
			return cur, nil
		}
		cur = best.n
	}

	cands := make([]candidate, 0, len(cur.children)+len(cur.keywordChildren))
	for _, id := range cur.children {
		n := t.nodes[id]
		for _, tok := range n.tokens {
			cands = append(cands, candidate{n: n, class: exactMatch, tok: tok})
		}
	}
	for _, id := range cur.keywordChildren {
		n := t.nodes[id]
		for _, tok := range n.tokens {
			cands = append(cands, candidate{n: n, class: exactMatch, tok: tok})
		}
	}
	return cur, cands
}

// lcp returns the longest common prefix of words, or "" if words is empty
// or shares none -- a direct port of cmd_lcd's byte-by-byte comparison.
func lcp(words []string) string {
	if len(words) == 0 {
		return ""
	}
	prefix := words[0]
	for _, w := range words[1:] {
		i := 0
		for i < len(prefix) && i < len(w) && prefix[i] == w[i] {
			i++
		}
		prefix = prefix[:i]
		if prefix == "" {
			break
		}
	}
	return prefix
}

// Complete implements tab-completion: given the line typed so far, it
// returns the matching result class, the list of candidate next words
// (filtered by whatever partial fragment trails the line), and either the
// single completed word (FULL_MATCH) or their longest common prefix
// (MATCH/LIST_MATCH) so the caller can extend the line. Ported from
// get_complete/_cmd_complete and its result-classification table
// (spec.md §4.E): 0 candidates is NO_MATCH; 1 is FULL_MATCH (caller
// appends a trailing space); ≥2 with an LCP longer than the in-progress
// prefix is MATCH (caller replaces the prefix with the LCP, no trailing
// space); ≥2 with the LCP no longer than the prefix is LIST_MATCH (caller
// prints all candidates columnar).
func (t *Tree) Complete(line string) (Result, []string, string) {
	words := strings.Fields(line)
	trailingSpace := line == "" || line[len(line)-1] == ' '

	var fixed []string
	var fragment string
	if len(words) > 0 && !trailingSpace {
		fixed = words[:len(words)-1]
		fragment = words[len(words)-1]
	} else {
		fixed = words
	}

	_, cands := t.walkToCursor(fixed)

	var matches []string
	seen := map[string]bool{}
	for _, c := range cands {
		if c.tok.Kind == VariableToken || c.tok.Kind == VarargToken {
			continue
		}
		if fragment != "" && !strings.HasPrefix(c.tok.Key, fragment) {
			continue
		}
		if !seen[c.tok.Key] {
			seen[c.tok.Key] = true
			matches = append(matches, c.tok.Key)
		}
	}

	switch len(matches) {
	case 0:
		return NoMatch, nil, ""
	case 1:
		return CompleteFullMatch, matches, matches[0]
	default:
		prefix := lcp(matches)
		if len(prefix) > len(fragment) {
			return CompleteMatch, matches, prefix
		}
		return CompleteListMatch, matches, prefix
	}
}

// Describe implements the `?` inline-help surface: given the line typed so
// far, it returns every candidate next token's key and paired description,
// plus a cr flag that is true iff the reached node has a bound handler --
// signaling that <cr> (pressing Enter here) is itself a valid next input.
// Ported from get_desc/_cmd_describe. The Result classifies the size of the
// unfiltered candidate set Describe always returns: NoMatch for none,
// CompleteFullMatch for one, CompleteListMatch for more (unlike Complete,
// no longest-common-prefix test is made, so CompleteMatch never occurs).
func (t *Tree) Describe(line string) (Result, []string, []string, bool) {
	words := strings.Fields(line)
	trailingSpace := line == "" || line[len(line)-1] == ' '
	if !trailingSpace && len(words) > 0 {
		words = words[:len(words)-1]
	}

	cur, cands := t.walkToCursor(words)

	var keys, descs []string
	seen := map[string]bool{}
	for _, c := range cands {
		if seen[c.tok.Key] {
			continue
		}
		seen[c.tok.Key] = true
		keys = append(keys, c.tok.Key)
		descs = append(descs, c.tok.Desc)
	}

	var result Result
	switch len(keys) {
	case 0:
		result = NoMatch
	case 1:
		result = CompleteFullMatch
	default:
		result = CompleteListMatch
	}

	return result, keys, descs, cur.handler != nil
}
