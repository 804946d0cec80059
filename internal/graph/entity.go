// Package graph builds portable record graphs from locally-owned entities.
//
// A record graph is the unit of publication: one root record plus its
// children, each carrying only the fields the remote schema knows about.
// Construction is a pure transformation; nothing here touches the network.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/medibook/share-engine/internal/remote"
)

// Record-type tags understood by the remote schema.
const (
	// TypePatient is the root record type for a patient
	TypePatient = "patient"

	// TypeDispense is the child record type for a medication dispensation
	TypeDispense = "dispense"
)

// LocalEntity is a caller-side entity to be converted into a portable record.
// Local entities are referenced by caller-chosen keys, never by pointers; the
// builder assigns fresh stable IDs on every build.
type LocalEntity struct {
	// Key is the caller-local key for this entity within one build. Other
	// entities in the same build may name it as their parent.
	Key string

	// Type is the record-type tag
	Type string

	// Fields holds the local field values. Only allow-listed fields for
	// the record type are copied into the portable record.
	Fields map[string]any

	// ParentKey names the parent entity's Key. Empty means the root is
	// the parent. The referenced entity must precede this one.
	ParentKey string
}

// RecordGraph is a root record plus its ordered children, ready for
// publication. Once submitted for publication a graph is immutable;
// subsequent edits require a fresh build-and-publish cycle.
type RecordGraph struct {
	Root     remote.Record
	Children []remote.Record
	Zone     remote.ZoneID
}

// Records returns the graph's records in publication order, root first.
func (g *RecordGraph) Records() []remote.Record {
	records := make([]remote.Record, 0, len(g.Children)+1)
	records = append(records, g.Root)
	records = append(records, g.Children...)
	return records
}

// Size returns the number of records in the graph.
func (g *RecordGraph) Size() int {
	return len(g.Children) + 1
}

// Hash returns a content hash over the graph's record types, parent links,
// and field values. Record IDs are excluded: two builds of the same local
// entities hash identically even though every build assigns fresh IDs.
func (g *RecordGraph) Hash() string {
	records := g.Records()
	position := make(map[string]int, len(records))
	for i, r := range records {
		position[r.ID] = i
	}

	h := sha256.New()
	for _, r := range records {
		parent := -1
		if p, ok := position[r.Parent]; ok {
			parent = p
		}
		fmt.Fprintf(h, "%s|%d|", r.Type, parent)

		keys := make([]string, 0, len(r.Fields))
		for k := range r.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%s=%v;", k, r.Fields[k])
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
