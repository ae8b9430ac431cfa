// Package topwords prints the highest-weighted vocabulary entries per
// topic from a fitted Φ matrix, for final-run inspection only.
package topwords

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bobonovski/clusterlda/matrix"
	"github.com/bobonovski/clusterlda/token"
)

type weighted struct {
	Keyword string
	Weight  float32
}

// Print re-attaches read-only to pwt (which must already be
// registered with every vocabulary token, e.g. via LoadVocabInto),
// and writes the top numTokens keywords per topic to w. Mirrors
// original_source/src/master_main.cc's print_top_tokens.
func Print(w io.Writer, pwt matrix.Matrix, numTokens int) error {
	topics := pwt.TopicSize()
	size := pwt.TokenSize()

	rows := make([][]float32, size)
	keywords := make([]string, size)
	for i := 0; i < size; i++ {
		row, err := pwt.Get(i)
		if err != nil {
			return fmt.Errorf("topwords: read row %d: %w", i, err)
		}
		rows[i] = row
		keywords[i] = pwt.Token(i).Keyword
	}

	for k := 0; k < topics; k++ {
		pairs := make([]weighted, size)
		for i := 0; i < size; i++ {
			pairs[i] = weighted{Keyword: keywords[i], Weight: rows[i][k]}
		}
		sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].Weight > pairs[b].Weight })

		fmt.Fprintf(w, "\nTopic: topic_%d\n", k)
		n := numTokens
		if n > len(pairs) {
			n = len(pairs)
		}
		for _, p := range pairs[:n] {
			fmt.Fprintf(w, "%s (%v)\n", p.Keyword, p.Weight)
		}
	}
	return nil
}

// LoadVocabInto registers every line of the vocabulary file at
// vocabPath into pwt with publish=false, so Print can read existing
// store rows without overwriting them.
func LoadVocabInto(pwt matrix.Matrix, vocabPath string) error {
	f, err := os.Open(vocabPath)
	if err != nil {
		return fmt.Errorf("topwords: open vocab %s: %w", vocabPath, err)
	}
	defer f.Close()

	zeros := make([]float32, pwt.TopicSize())
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		keyword := scanner.Text()
		if _, err := pwt.AddToken(token.New(token.DefaultClass, keyword), false, zeros); err != nil {
			return fmt.Errorf("topwords: register token %q: %w", keyword, err)
		}
	}
	return scanner.Err()
}
