package remote

import "fmt"

// GrantRecordType is the record-type tag share grants are stored under.
const GrantRecordType = "share.grant"

// Grant record field names.
const (
	grantFieldRoot         = "rootRecord"
	grantFieldParticipants = "participants"
	grantFieldPublicPolicy = "publicPolicy"
)

// GrantToRecord encodes a ShareGrant as a store Record so it can travel in
// the same atomic multi-record write as the graph it protects.
func GrantToRecord(grant *ShareGrant) Record {
	participants := make([]any, 0, len(grant.Participants))
	for _, p := range grant.Participants {
		participants = append(participants, map[string]any{
			"identity":   p.Identity,
			"contact":    p.Contact,
			"permission": string(p.Permission),
		})
	}

	return Record{
		ID:   grant.ID,
		Type: GrantRecordType,
		Zone: grant.Zone,
		Fields: map[string]any{
			grantFieldRoot:         grant.RootID,
			grantFieldParticipants: participants,
			grantFieldPublicPolicy: string(grant.PublicPolicy),
		},
		ChangeTag: grant.ChangeTag,
	}
}

// GrantFromRecord decodes a share grant from its record representation.
// Returns a SchemaMismatch error when required fields are missing or of the
// wrong shape; malformed grants are never partially decoded.
func GrantFromRecord(rec *Record) (*ShareGrant, error) {
	if rec.Type != GrantRecordType {
		return nil, NewStoreError(CodeSchemaMismatch, nil,
			"record %s has type %q, want %q", rec.ID, rec.Type, GrantRecordType)
	}

	rootID, ok := rec.Fields[grantFieldRoot].(string)
	if !ok || rootID == "" {
		return nil, NewStoreError(CodeSchemaMismatch, nil,
			"grant record %s is missing field %q", rec.ID, grantFieldRoot)
	}

	policy, ok := rec.Fields[grantFieldPublicPolicy].(string)
	if !ok {
		return nil, NewStoreError(CodeSchemaMismatch, nil,
			"grant record %s is missing field %q", rec.ID, grantFieldPublicPolicy)
	}

	grant := &ShareGrant{
		ID:           rec.ID,
		RootID:       rootID,
		Zone:         rec.Zone,
		PublicPolicy: PublicPolicy(policy),
		ChangeTag:    rec.ChangeTag,
	}

	rawParticipants, ok := rec.Fields[grantFieldParticipants].([]any)
	if !ok {
		return nil, NewStoreError(CodeSchemaMismatch, nil,
			"grant record %s is missing field %q", rec.ID, grantFieldParticipants)
	}

	for i, raw := range rawParticipants {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, NewStoreError(CodeSchemaMismatch, nil,
				"grant record %s participant %d is malformed", rec.ID, i)
		}
		participant, err := participantFromFields(entry)
		if err != nil {
			return nil, fmt.Errorf("grant record %s participant %d: %w", rec.ID, i, err)
		}
		grant.Participants = append(grant.Participants, participant)
	}

	return grant, nil
}

func participantFromFields(fields map[string]any) (Participant, error) {
	identity, ok := fields["identity"].(string)
	if !ok || identity == "" {
		return Participant{}, NewStoreError(CodeSchemaMismatch, nil, "participant is missing identity")
	}
	contact, _ := fields["contact"].(string)
	permission, ok := fields["permission"].(string)
	if !ok {
		return Participant{}, NewStoreError(CodeSchemaMismatch, nil, "participant is missing permission")
	}
	return Participant{
		Identity:   identity,
		Contact:    contact,
		Permission: Permission(permission),
	}, nil
}
