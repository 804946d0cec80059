package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/medibook/share-engine/internal/remote"
)

// recordSchema describes which local fields travel to the remote store for a
// record type. Copying is allow-list based: local-only fields (database keys,
// UI state, draft annotations) must never leak into the shared graph.
type recordSchema struct {
	allowed  map[string]bool
	required []string
}

// Builder converts local entity graphs into portable record graphs.
type Builder struct {
	schemas map[string]recordSchema
}

// NewBuilder creates a builder with the standard patient/dispense schemas.
func NewBuilder() *Builder {
	b := &Builder{schemas: make(map[string]recordSchema)}

	b.register(TypePatient,
		[]string{"givenName", "familyName"},
		"givenName", "familyName", "dateOfBirth", "medicalRecordNumber", "allergies")

	b.register(TypeDispense,
		[]string{"medicationName", "dispensedAt"},
		"medicationName", "strength", "quantity", "frequency", "directions",
		"dispensedAt", "nextDueAt", "prescriberName", "pharmacyName", "lotNumber", "expiryDate")

	return b
}

// register installs a schema for a record type. required must be a subset of
// allowed.
func (b *Builder) register(recordType string, required []string, allowed ...string) {
	schema := recordSchema{allowed: make(map[string]bool, len(allowed)), required: required}
	for _, field := range allowed {
		schema.allowed[field] = true
	}
	b.schemas[recordType] = schema
}

// Build converts a root entity and its children into a RecordGraph bound to
// the given zone.
//
// Every entity gets a fresh stable ID; IDs are never reused across builds, so
// a republish after partial failure cannot be confused with the earlier
// attempt. Children may name the root or an earlier child as parent; naming
// an entity that has not been constructed yet is an error, never a silently
// dropped link.
func (b *Builder) Build(root LocalEntity, children []LocalEntity, zone remote.ZoneID) (*RecordGraph, error) {
	if len(children) > 0 && zone.Name == "" {
		return nil, remote.NewStoreError(remote.CodeSchemaMismatch, nil,
			"root entity has no assigned zone but graph has %d children", len(children))
	}

	rootRecord, err := b.toRecord(root, zone)
	if err != nil {
		return nil, fmt.Errorf("root entity: %w", err)
	}

	// Maps caller-local keys to assigned record IDs, in construction order.
	// Linking only ever targets already-constructed ancestors, which makes
	// cycles impossible by construction.
	constructed := map[string]string{}
	if root.Key != "" {
		constructed[root.Key] = rootRecord.ID
	}

	graph := &RecordGraph{Root: rootRecord, Zone: zone}

	for i, child := range children {
		childRecord, err := b.toRecord(child, zone)
		if err != nil {
			return nil, fmt.Errorf("child entity %d: %w", i, err)
		}

		parentID := rootRecord.ID
		if child.ParentKey != "" {
			id, ok := constructed[child.ParentKey]
			if !ok {
				return nil, remote.NewStoreError(remote.CodeSchemaMismatch, nil,
					"child entity %d references parent %q which is not yet constructed", i, child.ParentKey)
			}
			parentID = id
		}
		childRecord.Parent = parentID

		if child.Key != "" {
			if _, exists := constructed[child.Key]; exists {
				return nil, remote.NewStoreError(remote.CodeSchemaMismatch, nil,
					"child entity %d reuses key %q", i, child.Key)
			}
			constructed[child.Key] = childRecord.ID
		}

		graph.Children = append(graph.Children, childRecord)
	}

	return graph, nil
}

// toRecord copies the allow-listed fields of a local entity into a portable
// record with a fresh ID.
func (b *Builder) toRecord(entity LocalEntity, zone remote.ZoneID) (remote.Record, error) {
	schema, ok := b.schemas[entity.Type]
	if !ok {
		return remote.Record{}, remote.NewStoreError(remote.CodeSchemaMismatch, nil,
			"unknown record type %q", entity.Type)
	}

	for _, field := range schema.required {
		if _, present := entity.Fields[field]; !present {
			return remote.Record{}, remote.NewStoreError(remote.CodeSchemaMismatch, nil,
				"record type %q is missing required field %q", entity.Type, field)
		}
	}

	fields := make(map[string]any, len(entity.Fields))
	for name, value := range entity.Fields {
		if schema.allowed[name] {
			fields[name] = value
		}
	}

	return remote.Record{
		ID:     uuid.NewString(),
		Type:   entity.Type,
		Zone:   zone,
		Fields: fields,
	}, nil
}
