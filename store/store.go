// Package store is the persistence boundary for source assets and
// generated artifacts. The engine only ever reads assets and writes one
// new artifact per successful operation; deletion and listing UIs live
// with the host application.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: asset not found")

// Asset is one stored document: either an uploaded source or a
// generated artifact. Data is borrowed by the engine for the duration
// of one operation.
type Asset struct {
	ID         string
	Name       string
	MimeType   string
	ByteLength int64
	Data       []byte
}

// Kind says how a generated artifact was produced.
type Kind string

const (
	KindConversion Kind = "conversion"
	KindMerge      Kind = "merge"
)

// ArtifactMeta is the provenance record attached to a generated
// artifact. It is written once at creation and never mutated.
type ArtifactMeta struct {
	ID          string
	Name        string
	Generated   bool
	Kind        Kind
	SourceIDs   []string
	Fingerprint string
	GeneratedAt time.Time
}

// Store is the collaborator the engine persists through. Put of bytes
// plus meta is one logical unit: implementations must not leave bytes
// without meta or meta without bytes behind on failure.
type Store interface {
	Get(ctx context.Context, id string) (*Asset, error)
	Put(ctx context.Context, data []byte, meta ArtifactMeta) (string, error)
	List(ctx context.Context) ([]ArtifactMeta, error)
}
