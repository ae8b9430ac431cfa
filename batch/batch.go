// Package batch reads the opaque document-shard files that the
// E-step consumes: one batch per file, each holding a small
// batch-local vocabulary and a list of items (documents), each item a
// sparse list of (token, weight) pairs.
package batch

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/google/uuid"
)

// Item is one document: a sparse row over the batch-local vocabulary.
type Item struct {
	TokenID     []int
	TokenWeight []float32
}

// Batch is a read-only document shard. ClassID and Token are parallel
// slices indexed by batch-local token id; Items reference those ids
// via TokenID.
type Batch struct {
	ID      string
	ClassID []string
	Token   []string
	Items   []Item
}

// ItemSize returns the number of documents in the batch.
func (b *Batch) ItemSize() int { return len(b.Items) }

// TokenSize returns the size of the batch-local vocabulary.
func (b *Batch) TokenSize() int { return len(b.Token) }

// gobBatch is the on-disk shape; Batch.ID is recovered separately
// when absent, mirroring original_source's has_id()/uuid fallback.
type gobBatch struct {
	ID      string
	ClassID []string
	Token   []string
	Items   []Item
}

// Load reads and decodes a batch file. If the decoded batch carries
// no id, the filename's stem is parsed as a uuid and used instead;
// if neither is available, Load fails the way
// original_source/src/helpers.cc's Helpers::load_batch does.
func Load(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("batch: open %s: %w", path, err)
	}
	defer f.Close()

	var decoded gobBatch
	if err := gob.NewDecoder(f).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("batch: decode %s: %w", path, err)
	}

	id := decoded.ID
	if id == "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		parsed, err := uuid.Parse(stem)
		if err != nil {
			return nil, fmt.Errorf("batch: %s has no id and filename stem %q is not a uuid: %w", path, stem, err)
		}
		id = parsed.String()
	}

	glog.Infof("batch: loaded %s: id=%s items=%d tokens=%d", path, id, len(decoded.Items), len(decoded.Token))

	return &Batch{
		ID:      id,
		ClassID: decoded.ClassID,
		Token:   decoded.Token,
		Items:   decoded.Items,
	}, nil
}
