package equihash

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
)

// Config holds optional Verifier settings.
type Config struct {
	// Hasher computes leaf digests. Defaults to Blake2bHasher.
	Hasher PersonalizedHasher

	// LeafWorkers is the number of goroutines computing leaf hashes before
	// the merge. Values below 2 hash sequentially.
	LeafWorkers int
}

// Verifier checks Equihash solutions for one parameter set.
// It holds no per-call state and is safe for concurrent use.
type Verifier struct {
	params          Params
	personalization []byte
	hasher          PersonalizedHasher
	leafWorkers     int
}

// NewVerifier creates a Verifier for params. config may be nil.
func NewVerifier(params Params, config *Config) (*Verifier, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	verifier := &Verifier{
		params:          params,
		personalization: params.Personalization(),
		hasher:          Blake2bHasher{},
	}
	if config != nil {
		if config.Hasher != nil {
			verifier.hasher = config.Hasher
		}
		verifier.leafWorkers = config.LeafWorkers
	}
	return verifier, nil
}

// Params returns the parameters this verifier checks against.
func (v *Verifier) Params() Params {
	return v.params
}

// Verify checks that solution is a valid minimally encoded Equihash
// solution for powHeader.
func (v *Verifier) Verify(powHeader []byte, solution []byte) error {
	indices, err := DecodeIndices(v.params, solution)
	if err != nil {
		return err
	}

	leaves, err := v.leafHashes(powHeader, indices)
	if err != nil {
		return err
	}

	return v.mergeTree(indices, leaves)
}

// leafHashes returns the expanded leaf hash of every index, concatenated in
// solution order.
func (v *Verifier) leafHashes(powHeader []byte, indices []uint32) ([]byte, error) {
	leafLength := v.params.LeafHashLength()
	leaves := make([]byte, len(indices)*leafLength)

	hashRange := func(start, end int) error {
		seed := make([]byte, len(powHeader)+4)
		copy(seed, powHeader)
		for i := start; i < end; i++ {
			err := v.leafHash(seed, indices[i], leaves[i*leafLength:(i+1)*leafLength])
			if err != nil {
				return err
			}
		}
		return nil
	}

	workers := v.leafWorkers
	if workers < 2 {
		return leaves, hashRange(0, len(indices))
	}
	if workers > len(indices) {
		workers = len(indices)
	}

	chunkSize := (len(indices) + workers - 1) / workers
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(indices) {
			end = len(indices)
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			errs[w] = hashRange(start, end)
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return leaves, nil
}

// leafHash writes the expanded hash of index into out. seed must hold the
// pow header followed by four spare bytes.
func (v *Verifier) leafHash(seed []byte, index uint32, out []byte) error {
	indicesPerHashOutput := uint32(v.params.IndicesPerHashOutput())
	binary.LittleEndian.PutUint32(seed[len(seed)-4:], index/indicesPerHashOutput)

	digest, err := v.hasher.PersonalizedHash(seed, v.personalization, v.params.HashOutputLength())
	if err != nil {
		return err
	}
	if len(digest) != v.params.HashOutputLength() {
		return errors.Errorf("personalized hash returned %d bytes, while %d were requested",
			len(digest), v.params.HashOutputLength())
	}

	sliceLength := int(v.params.N / 8)
	start := int(index%indicesPerHashOutput) * sliceLength
	expanded, err := ExpandArray(digest[start:start+sliceLength], v.params.CollisionBitLength(), 0)
	if err != nil {
		return err
	}
	copy(out, expanded)
	return nil
}

// node is a merge tree node. Its indices are indices[start:end], since a
// parent's indices are always its left child's followed by its right child's.
type node struct {
	hash       [MaxLeafHashLength]byte
	hashLength int
	start      int
	end        int
	level      int
}

// mergeTree validates the binary merge tree over the leaves, left subtree
// first, keeping at most k+1 pending nodes.
func (v *Verifier) mergeTree(indices []uint32, leaves []byte) error {
	leafLength := v.params.LeafHashLength()
	collisionLength := v.params.CollisionByteLength()

	arena := make([]node, 0, v.params.K+1)
	for i := range indices {
		arena = append(arena, node{hashLength: leafLength, start: i, end: i + 1})
		copy(arena[len(arena)-1].hash[:], leaves[i*leafLength:(i+1)*leafLength])

		for len(arena) >= 2 && arena[len(arena)-1].level == arena[len(arena)-2].level {
			left := &arena[len(arena)-2]
			right := &arena[len(arena)-1]
			level := left.level + 1

			err := validateSubtrees(indices, left, right, collisionLength, level)
			if err != nil {
				return err
			}

			for j := collisionLength; j < left.hashLength; j++ {
				left.hash[j-collisionLength] = left.hash[j] ^ right.hash[j]
			}
			left.hashLength -= collisionLength
			left.end = right.end
			left.level = level
			arena = arena[:len(arena)-1]
		}
	}

	root := &arena[0]
	for _, b := range root.hash[:collisionLength] {
		if b != 0 {
			return ruleerrors.NewErrEquihashInvalid(ruleerrors.RootNotZero, int(v.params.K))
		}
	}
	return nil
}

func validateSubtrees(indices []uint32, left, right *node, collisionLength int, level int) error {
	for j := 0; j < collisionLength; j++ {
		if left.hash[j] != right.hash[j] {
			return ruleerrors.NewErrEquihashInvalid(ruleerrors.CollisionMismatch, level)
		}
	}

	if indices[right.start] < indices[left.start] {
		return ruleerrors.NewErrEquihashInvalid(ruleerrors.IndexOrderingViolation, level)
	}

	for _, leftIndex := range indices[left.start:left.end] {
		for _, rightIndex := range indices[right.start:right.end] {
			if leftIndex == rightIndex {
				return ruleerrors.NewErrEquihashInvalid(ruleerrors.DuplicateIndex, level)
			}
		}
	}
	return nil
}
