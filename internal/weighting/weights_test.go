package weighting

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
)

func model(name string, active bool) registry.ModelRecord {
	r := registry.ModelRecord{Name: name, Active: active}
	if active {
		r.Variants = []string{name + "-r1"}
	}
	return r
}

func child(name string, active bool, parents ...string) registry.ModelRecord {
	r := model(name, active)
	r.Parents = parents
	return r
}

func next(name string, active bool, pred string) registry.ModelRecord {
	r := model(name, active)
	r.Predecessor = pred
	return r
}

func compute(t *testing.T, s Scheme, records ...registry.ModelRecord) *Weights {
	t.Helper()
	f, err := genealogy.Build(records, genealogy.DefaultOptions())
	require.NoError(t, err)
	w, err := Compute(f, s)
	require.NoError(t, err)
	return w
}

func assertWeight(t *testing.T, w *Weights, name string, num, den int64) {
	t.Helper()
	got, ok := w.ByName(name)
	require.True(t, ok, "model %s", name)
	assert.Equal(t, big.NewRat(num, den).RatString(), got.RatString(), "weight of %s", name)
}

func assertSumsToOne(t *testing.T, w *Weights) {
	t.Helper()
	assert.Equal(t, "1", w.Total().RatString())
}

func TestParseScheme(t *testing.T) {
	for _, s := range Schemes() {
		got, err := ParseScheme(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseScheme("genus")
	assert.ErrorIs(t, err, ErrInvalidScheme)

	f, err := genealogy.Build(nil, genealogy.DefaultOptions())
	require.NoError(t, err)
	_, err = Compute(f, Scheme("genus"))
	assert.ErrorIs(t, err, ErrInvalidScheme)
}

func TestModelScheme(t *testing.T) {
	w := compute(t, SchemeModel, model("A", true), model("B", true), model("C", false), model("D", true))
	assertWeight(t, w, "A", 1, 3)
	assertWeight(t, w, "B", 1, 3)
	assertWeight(t, w, "D", 1, 3)
	assertWeight(t, w, "C", 0, 1)
	assertSumsToOne(t, w)
}

func TestInstituteScheme(t *testing.T) {
	records := []registry.ModelRecord{
		model("A1", true), model("A2", true), model("A3", true),
		model("B1", true),
		model("C1", false),
	}
	for _, name := range []string{"A1", "A2", "A3"} {
		for i := range records {
			if records[i].Name == name {
				records[i].Institute = "IA"
			}
		}
	}
	records[3].Institute = "IB"
	records[4].Institute = "IC"

	w := compute(t, SchemeInstitute, records...)
	assertWeight(t, w, "A1", 1, 6)
	assertWeight(t, w, "A2", 1, 6)
	assertWeight(t, w, "A3", 1, 6)
	assertWeight(t, w, "B1", 1, 2)
	assertWeight(t, w, "C1", 0, 1)
	assertSumsToOne(t, w)
}

func TestGroupSchemeIgnoresVariantCount(t *testing.T) {
	a := model("A", true)
	a.Variants = []string{"a1", "a2", "a3", "a4"}
	a.Country, a.Family = "X", "F"
	b := model("B", true)
	b.Country, b.Family = "X", "F"

	for _, s := range []Scheme{SchemeCountry, SchemeFamily, SchemeModel} {
		w := compute(t, s, a, b)
		assertWeight(t, w, "A", 1, 2)
		assertWeight(t, w, "B", 1, 2)
	}
}

func TestVariantSchemeHasNoModelWeight(t *testing.T) {
	w := compute(t, SchemeVariant, model("A", true), model("B", true))
	assertWeight(t, w, "A", 0, 1)
	assert.Equal(t, "0", w.Total().RatString())
}

func TestCodeSingleChain(t *testing.T) {
	w := compute(t, SchemeCode, model("A", true))
	assertWeight(t, w, "A", 1, 1)
}

func TestCodeInactiveRootTwoChildren(t *testing.T) {
	w := compute(t, SchemeCode,
		model("Root", false),
		child("L", true, "Root"),
		child("R", true, "Root"),
	)
	assertWeight(t, w, "Root", 0, 1)
	assertWeight(t, w, "L", 1, 2)
	assertWeight(t, w, "R", 1, 2)
	assertSumsToOne(t, w)

	root, _ := w.Forest().Lookup("Root")
	assert.Equal(t, "0", w.Chain(root).RatString())
}

func TestCodeActiveRootRetainsShare(t *testing.T) {
	w := compute(t, SchemeCode,
		model("Root", true),
		child("L", true, "Root"),
		child("R", true, "Root"),
	)
	assertWeight(t, w, "Root", 1, 3)
	assertWeight(t, w, "L", 1, 3)
	assertWeight(t, w, "R", 1, 3)
}

func TestCodeVersionChainSplitsAmongActiveMembers(t *testing.T) {
	w := compute(t, SchemeCode,
		model("A", true),
		next("B", false, "A"),
		next("C", true, "B"),
	)
	assertWeight(t, w, "A", 1, 2)
	assertWeight(t, w, "B", 0, 1)
	assertWeight(t, w, "C", 1, 2)
}

func TestCodeRootsShareEqually(t *testing.T) {
	w := compute(t, SchemeCode,
		model("A", true),
		model("B", false),
		child("B1", true, "B"),
		child("B2", true, "B"),
		model("Dead", false),
	)
	assertWeight(t, w, "A", 1, 2)
	assertWeight(t, w, "B1", 1, 4)
	assertWeight(t, w, "B2", 1, 4)
	assertWeight(t, w, "Dead", 0, 1)
	assertSumsToOne(t, w)
}

func TestCodeSkipsInactiveBranches(t *testing.T) {
	w := compute(t, SchemeCode,
		model("Root", true),
		child("Live", true, "Root"),
		child("Gone", false, "Root"),
		child("GoneChild", false, "Gone"),
	)
	assertWeight(t, w, "Root", 1, 2)
	assertWeight(t, w, "Live", 1, 2)
	assertWeight(t, w, "Gone", 0, 1)
	assertSumsToOne(t, w)
}

func TestCodePassThroughAncestors(t *testing.T) {
	// Root -> Mid (inactive) -> {X, Y}; Root itself active.
	w := compute(t, SchemeCode,
		model("Root", true),
		child("Mid", false, "Root"),
		child("X", true, "Mid"),
		child("Y", true, "Mid"),
	)
	assertWeight(t, w, "Root", 1, 2)
	assertWeight(t, w, "Mid", 0, 1)
	assertWeight(t, w, "X", 1, 4)
	assertWeight(t, w, "Y", 1, 4)
	assertSumsToOne(t, w)
}

func TestCodeJoinWaitsForAllParents(t *testing.T) {
	// P and Q are independent roots; M descends from both, D from M.
	// P: 1/2 over {M, self} -> 1/4 each. Q: 1/2 over {M, self} -> 1/4 each.
	// M collects 1/2 only after both deliver, then splits with D.
	records := []registry.ModelRecord{
		model("P", true),
		model("Q", true),
		child("M", true, "P", "Q"),
		child("D", true, "M"),
	}
	f, err := genealogy.Build(records, genealogy.Options{PrimaryParentOnly: false})
	require.NoError(t, err)
	w, err := Compute(f, SchemeCode)
	require.NoError(t, err)

	assertWeight(t, w, "P", 1, 4)
	assertWeight(t, w, "Q", 1, 4)
	assertWeight(t, w, "M", 1, 4)
	assertWeight(t, w, "D", 1, 4)
	assertSumsToOne(t, w)
}

func TestCodeDiamondAcrossDepths(t *testing.T) {
	// Root -> A -> B -> J and Root -> J: J must wait for the longer path.
	records := []registry.ModelRecord{
		model("Root", false),
		child("A", true, "Root"),
		child("B", true, "A"),
		child("J", true, "B", "Root"),
	}
	f, err := genealogy.Build(records, genealogy.Options{PrimaryParentOnly: false})
	require.NoError(t, err)
	w, err := Compute(f, SchemeCode)
	require.NoError(t, err)

	// Root: 1 over {A, J} -> 1/2 each. A: 1/2 over {B, self} -> 1/4.
	// B: 1/4 over {J, self} -> 1/8. J: 1/2 + 1/8 = 5/8.
	assertWeight(t, w, "A", 1, 4)
	assertWeight(t, w, "B", 1, 8)
	assertWeight(t, w, "J", 5, 8)
	assertSumsToOne(t, w)
}

func TestCodeChildOfLaterChainMember(t *testing.T) {
	// Chain A -> A2 (A2 active); X descends from A2. Weight flows through the
	// chain leader.
	w := compute(t, SchemeCode,
		model("A", false),
		next("A2", true, "A"),
		child("X", true, "A2"),
	)
	assertWeight(t, w, "A", 0, 1)
	assertWeight(t, w, "A2", 1, 2)
	assertWeight(t, w, "X", 1, 2)
}

func TestCodeChainWithParentOnLaterMember(t *testing.T) {
	// Chain A -> B where only B names a parent X. A has no parent and no
	// predecessor, but its chain hangs under X, so X is the only root.
	b := next("B", true, "A")
	b.Parents = []string{"X"}
	w := compute(t, SchemeCode, model("A", true), b, model("X", true))

	f := w.Forest()
	roots := f.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "X", f.Node(roots[0]).Name())

	// X: 1 over {chain A, self}. Chain A: 1/2 over its two active members.
	assertWeight(t, w, "X", 1, 2)
	assertWeight(t, w, "A", 1, 4)
	assertWeight(t, w, "B", 1, 4)
	assertSumsToOne(t, w)
}

func TestComputeIsIdempotent(t *testing.T) {
	records := []registry.ModelRecord{
		model("R", false),
		child("A", true, "R"),
		child("B", true, "R"),
		child("C", true, "B"),
		next("B2", true, "B"),
	}
	first := compute(t, SchemeCode, records...)
	second := compute(t, SchemeCode, records...)
	for _, r := range records {
		a, _ := first.ByName(r.Name)
		b, _ := second.ByName(r.Name)
		assert.Equal(t, a.RatString(), b.RatString(), r.Name)
	}
	assertSumsToOne(t, first)
}

func TestCodeNoActiveModels(t *testing.T) {
	w := compute(t, SchemeCode, model("A", false), child("B", false, "A"))
	assert.Equal(t, "0", w.Total().RatString())
}
