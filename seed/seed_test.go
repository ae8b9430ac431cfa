package seed

import (
	"testing"

	"github.com/bobonovski/clusterlda/token"
)

func TestHashDependsOnClassAndKeyword(t *testing.T) {
	a := token.New("", "cat")
	b := token.New("", "dog")
	c := token.New("topicA", "cat")

	if Hash(a, -1) == Hash(b, -1) {
		t.Fatal("different keywords must hash differently")
	}
	if Hash(a, -1) == Hash(c, -1) {
		t.Fatal("different class ids must hash differently")
	}
}

func TestHashDefaultClassExcludedFromFold(t *testing.T) {
	withDefault := token.New(token.DefaultClass, "cat")
	withEmpty := token.New("", "cat")

	if Hash(withDefault, -1) != Hash(withEmpty, -1) {
		t.Fatal("default class id must fold identically to empty class id (both skip the class fold)")
	}
}

func TestHashExtraSeedOnlyAppliedWhenPositive(t *testing.T) {
	tok := token.New("", "cat")
	if Hash(tok, 0) != Hash(tok, -1) {
		t.Fatal("non-positive extra seeds must not affect the hash")
	}
	if Hash(tok, 7) != Hash(tok, -1) {
		return
	}
	t.Fatal("a positive extra seed must change the hash")
}

func TestVectorIsDeterministicAndL1Normalized(t *testing.T) {
	tok := token.New("", "cat")
	const topics = 5

	v1 := TokenVector(topics, tok, -1)
	v2 := TokenVector(topics, tok, -1)

	if len(v1) != topics {
		t.Fatalf("got %d entries, want %d", len(v1), topics)
	}

	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("vector not deterministic at index %d: %f vs %f", i, v1[i], v2[i])
		}
	}

	var sum float32
	for _, x := range v1 {
		if x < 0 {
			t.Fatalf("negative entry %f", x)
		}
		sum += x
	}
	if diff := sum - 1.0; diff > 1e-5 || diff < -1e-5 {
		t.Fatalf("L1 sum = %f, want ~1.0", sum)
	}
}

func TestVectorDiffersAcrossTokens(t *testing.T) {
	const topics = 8
	v1 := TokenVector(topics, token.New("", "cat"), -1)
	v2 := TokenVector(topics, token.New("", "dog"), -1)

	same := true
	for i := range v1 {
		if v1[i] != v2[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct tokens produced identical seed vectors")
	}
}
