package index

import (
	"math"
	"sort"
	"sync"
)

// BM25 constants.
const (
	k1 = 1.5
	b  = 0.75
)

// Doc is the per-passage metadata the index needs for scoring.
type Doc struct {
	PassageID uint
	FileID    uint
	Seq       int
	Length    int // token count
}

// Hit is one retrieval result, ordered by descending BM25 score.
type Hit struct {
	PassageID uint
	Seq       int
	Score     float64
}

// Index is an in-memory inverted index over passages, partitioned per group.
// Reads may run concurrently; writes take the write lock. The durable image
// of its contents lives in the postings table and is replayed at startup.
type Index struct {
	mu     sync.RWMutex
	scopes map[string]*scopeIndex
}

type scopeIndex struct {
	postings map[string]map[uint]int // term -> passage id -> term frequency
	docs     map[uint]Doc
	totalLen int
}

func New() *Index {
	return &Index{scopes: make(map[string]*scopeIndex)}
}

// Add registers one passage with its precomputed term frequencies.
func (ix *Index) Add(groupID string, doc Doc, termFreqs map[string]int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	sc, ok := ix.scopes[groupID]
	if !ok {
		sc = &scopeIndex{
			postings: make(map[string]map[uint]int),
			docs:     make(map[uint]Doc),
		}
		ix.scopes[groupID] = sc
	}

	if _, exists := sc.docs[doc.PassageID]; exists {
		return
	}
	sc.docs[doc.PassageID] = doc
	sc.totalLen += doc.Length

	for term, tf := range termFreqs {
		plist, ok := sc.postings[term]
		if !ok {
			plist = make(map[uint]int)
			sc.postings[term] = plist
		}
		plist[doc.PassageID] = tf
	}
}

// RemoveFile prunes every passage of the file from the group's index. Terms
// whose posting list becomes empty are dropped entirely.
func (ix *Index) RemoveFile(groupID string, fileID uint) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	sc, ok := ix.scopes[groupID]
	if !ok {
		return
	}

	removed := make(map[uint]struct{})
	for id, doc := range sc.docs {
		if doc.FileID == fileID {
			removed[id] = struct{}{}
			sc.totalLen -= doc.Length
			delete(sc.docs, id)
		}
	}
	if len(removed) == 0 {
		return
	}

	for term, plist := range sc.postings {
		for id := range removed {
			delete(plist, id)
		}
		if len(plist) == 0 {
			delete(sc.postings, term)
		}
	}
	if len(sc.docs) == 0 {
		delete(ix.scopes, groupID)
	}
}

// DocCount reports how many passages the group has indexed.
func (ix *Index) DocCount(groupID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	sc, ok := ix.scopes[groupID]
	if !ok {
		return 0
	}
	return len(sc.docs)
}

// Search scores the group's passages against the query with BM25 and returns
// the top-K hits. Results never cross group boundaries. An empty query or an
// empty index yields an empty slice. Equal scores are broken by lower passage
// sequence, then lower passage id, so identical input always yields the same
// ordering.
func (ix *Index) Search(groupID, query string, topK int) []Hit {
	if topK <= 0 {
		return nil
	}

	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	unique := terms[:0]
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	sc, ok := ix.scopes[groupID]
	if !ok || len(sc.docs) == 0 {
		return nil
	}

	n := float64(len(sc.docs))
	avgLen := float64(sc.totalLen) / n
	if avgLen <= 0 {
		avgLen = 1
	}

	scores := make(map[uint]float64)
	for _, term := range unique {
		plist, ok := sc.postings[term]
		if !ok {
			continue
		}
		df := float64(len(plist))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		for passageID, tf := range plist {
			doc := sc.docs[passageID]
			tff := float64(tf)
			denom := tff + k1*(1-b+b*float64(doc.Length)/avgLen)
			if denom <= 0 {
				continue
			}
			scores[passageID] += idf * tff * (k1 + 1) / denom
		}
	}
	if len(scores) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(scores))
	for passageID, score := range scores {
		hits = append(hits, Hit{
			PassageID: passageID,
			Seq:       sc.docs[passageID].Seq,
			Score:     score,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Seq != hits[j].Seq {
			return hits[i].Seq < hits[j].Seq
		}
		return hits[i].PassageID < hits[j].PassageID
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK]
}
