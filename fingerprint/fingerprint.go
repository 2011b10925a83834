// Package fingerprint derives a canonical identity for a set of source
// assets and checks it against the provenance of already-produced
// artifacts, so a semantically identical request never creates a second
// artifact.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"

	"docforge/store"
)

// Fingerprint identifies an unordered set of source asset ids. The
// sorted id sequence is the identity; Digest is a compact stand-in for
// storage and logging.
type Fingerprint struct {
	SortedSourceIDs []string
	Digest          string
}

// Compute sorts a copy of ids and digests them. Ids are length-prefixed
// before hashing so distinct id lists can never collide through
// concatenation.
func Compute(ids []string) Fingerprint {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	h, _ := blake2b.New256(nil)
	var lenBuf [8]byte
	for _, id := range sorted {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(id)))
		h.Write(lenBuf[:])
		h.Write([]byte(id))
	}
	return Fingerprint{
		SortedSourceIDs: sorted,
		Digest:          hex.EncodeToString(h.Sum(nil)),
	}
}

// FindDuplicate returns the first artifact whose recorded source set
// equals the candidate's. Input order is irrelevant; only set equality
// matters. The digest is never trusted alone: the sorted sequences are
// compared element-wise after a length short-circuit.
func FindDuplicate(candidate Fingerprint, existing []store.ArtifactMeta) (*store.ArtifactMeta, bool) {
	for i := range existing {
		m := &existing[i]
		if !m.Generated {
			continue
		}
		if len(m.SourceIDs) != len(candidate.SortedSourceIDs) {
			continue
		}
		if sameSet(m.SourceIDs, candidate.SortedSourceIDs) {
			return m, true
		}
	}
	return nil, false
}

// FindConversion looks for an existing single-source conversion of the
// given asset.
func FindConversion(sourceID string, existing []store.ArtifactMeta) (*store.ArtifactMeta, bool) {
	for i := range existing {
		m := &existing[i]
		if !m.Generated || m.Kind != store.KindConversion {
			continue
		}
		if len(m.SourceIDs) == 1 && m.SourceIDs[0] == sourceID {
			return m, true
		}
	}
	return nil, false
}

// sameSet compares recorded ids (stored in creation order) against an
// already-sorted candidate sequence.
func sameSet(recorded, sortedCandidate []string) bool {
	sorted := make([]string, len(recorded))
	copy(sorted, recorded)
	sort.Strings(sorted)
	for i := range sorted {
		if sorted[i] != sortedCandidate[i] {
			return false
		}
	}
	return true
}
