package mutator

import (
	"math/rand"

	"github.com/loomfuzz/loom/algebra"
	"github.com/loomfuzz/loom/trace"
)

// site addresses one node across all input recipes of a trace: which recipe,
// then the child-index path from its root. Collecting sites first and
// mutating by path second keeps selection and rewrite as two separate walks
// over the tree.
type site struct {
	recipe int
	path   []int
}

// collectSites returns the addresses of every node satisfying filter, in
// left-to-right post-order per recipe.
func collectSites(tr *trace.Trace, filter func(*algebra.TermEval) bool) []site {
	var sites []site
	for i, recipe := range tr.InputRecipes() {
		walkSites(recipe, i, nil, filter, &sites)
	}
	return sites
}

func walkSites(te *algebra.TermEval, recipe int, path []int, filter func(*algebra.TermEval) bool, sites *[]site) {
	for c, arg := range te.Term.Args {
		walkSites(arg, recipe, append(path, c), filter, sites)
	}
	if filter == nil || filter(te) {
		*sites = append(*sites, site{recipe: recipe, path: append([]int(nil), path...)})
	}
}

// nodeAt resolves a site back to its node.
func nodeAt(tr *trace.Trace, s site) *algebra.TermEval {
	node := tr.InputRecipes()[s.recipe]
	for _, c := range s.path {
		node = node.Term.Args[c]
	}
	return node
}

// chooseSite picks a uniformly random candidate site.
func chooseSite(r *rand.Rand, tr *trace.Trace, filter func(*algebra.TermEval) bool) (site, bool) {
	sites := collectSites(tr, filter)
	if len(sites) == 0 {
		return site{}, false
	}
	return sites[r.Intn(len(sites))], true
}
