package similarity

import (
	"math"
	"testing"

	"github.com/kareemelharony/samatcher/pkg/catalog"
)

func TestSelfSimilarityIsOne(t *testing.T) {
	seed := catalog.ProductDetails{
		ASIN:         "B001",
		Title:        "Wireless Mouse",
		Description:  "Ergonomic",
		BulletPoints: []string{"2.4GHz"},
	}
	engine := NewEngine(nil)

	scores, err := engine.Compute(seed, []catalog.ProductDetails{seed})
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 {
		t.Fatalf("expected 1 score, got %d", len(scores))
	}
	if math.Abs(scores[0]-1.0) > 1e-9 {
		t.Fatalf("identical merged text should score 1.0, got %v", scores[0])
	}
}

func TestZeroCandidates(t *testing.T) {
	engine := NewEngine(nil)
	scores, err := engine.Compute(catalog.ProductDetails{ASIN: "B001", Title: "Anything"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected empty scores, got %v", scores)
	}
}

func TestSimilarListingsScoreBetweenZeroAndOne(t *testing.T) {
	seed := catalog.ProductDetails{
		ASIN:         "B001",
		Title:        "Wireless Mouse",
		Description:  "Ergonomic",
		BulletPoints: []string{"2.4GHz"},
	}
	candidate := catalog.ProductDetails{
		ASIN:         "B002",
		Title:        "Wireless Mouse Pro",
		Description:  "Ergonomic design",
		BulletPoints: []string{"2.4GHz wireless"},
	}
	engine := NewEngine(nil)

	scores, err := engine.Compute(seed, []catalog.ProductDetails{candidate})
	if err != nil {
		t.Fatal(err)
	}
	if scores[0] <= 0 || scores[0] > 1 {
		t.Fatalf("expected 0 < score <= 1, got %v", scores[0])
	}
}

func TestAllEmptyDocumentsScoreZero(t *testing.T) {
	engine := NewEngine(nil)
	scores, err := engine.Compute(catalog.ProductDetails{ASIN: "B001"}, []catalog.ProductDetails{
		{ASIN: "B002"},
		{ASIN: "B003"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	for i, s := range scores {
		if s != 0 {
			t.Errorf("score %d: expected 0 for empty documents, got %v", i, s)
		}
	}
}

func TestUnrelatedListingsScoreLow(t *testing.T) {
	seed := catalog.ProductDetails{Title: "Stainless steel kettle", Description: "Boils water fast"}
	related := catalog.ProductDetails{Title: "Electric kettle stainless", Description: "Fast boiling"}
	unrelated := catalog.ProductDetails{Title: "Cotton socks", Description: "Warm winter pair"}
	engine := NewEngine(nil)

	scores, err := engine.Compute(seed, []catalog.ProductDetails{related, unrelated})
	if err != nil {
		t.Fatal(err)
	}
	if scores[0] <= scores[1] {
		t.Fatalf("related listing should outscore unrelated one: %v vs %v", scores[0], scores[1])
	}
	if scores[1] != 0 {
		t.Fatalf("no shared terms should mean a zero score, got %v", scores[1])
	}
}

func TestBigramsRewardPhraseOverlap(t *testing.T) {
	// Both candidates share the seed's unigrams; only one preserves the order.
	seed := catalog.ProductDetails{Title: "gaming laptop stand"}
	phrase := catalog.ProductDetails{Title: "portable gaming laptop stand"}
	shuffled := catalog.ProductDetails{Title: "stand laptop gaming portable"}
	engine := NewEngine(nil)

	scores, err := engine.Compute(seed, []catalog.ProductDetails{phrase, shuffled})
	if err != nil {
		t.Fatal(err)
	}
	if scores[0] <= scores[1] {
		t.Fatalf("phrase-preserving candidate should score higher: %v vs %v", scores[0], scores[1])
	}
}
