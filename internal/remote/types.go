// Package remote defines the interface to the multi-party replicated store
// that published record graphs live in, together with the wire types shared
// by the engine components.
package remote

// ZoneID identifies an isolation zone inside the private remote store.
// A zone is owned by exactly one principal and scopes a set of related
// shared records.
type ZoneID struct {
	// Name is the zone name, unique per owner
	Name string `json:"name"`

	// Owner is the principal the zone belongs to
	Owner string `json:"owner"`
}

// String returns the canonical zone key used for caching and logging.
func (z ZoneID) String() string {
	if z.Owner == "" {
		return z.Name
	}
	return z.Owner + "/" + z.Name
}

// Record is a single portable record in the remote store.
type Record struct {
	// ID is the caller-generated stable identifier, immutable for the
	// record's lifetime
	ID string `json:"id"`

	// Type is the record-type tag (e.g., "patient", "dispense", "share.grant")
	Type string `json:"type"`

	// Zone is the isolation zone the record lives in
	Zone ZoneID `json:"zone"`

	// Fields maps field names to scalar, date, or binary values
	Fields map[string]any `json:"fields"`

	// Parent is the ID of the parent record, empty for a root record
	Parent string `json:"parent,omitempty"`

	// ChangeTag is the opaque server-assigned version token. Empty until
	// the record has been published at least once.
	ChangeTag string `json:"changeTag,omitempty"`
}

// SavePolicy controls how the store treats existing server-side versions
// during a multi-record save.
type SavePolicy string

const (
	// SaveOverwrite saves unconditionally, ignoring any server-side version.
	// Used for first-time publication where no prior version exists.
	SaveOverwrite SavePolicy = "overwrite"

	// SaveIfUnchanged saves only when each record's ChangeTag matches the
	// current server-side tag, failing the record with a conflict otherwise.
	SaveIfUnchanged SavePolicy = "if-unchanged"
)

// RecordResult is the per-record outcome of a multi-record save.
type RecordResult struct {
	// ID is the record the result refers to
	ID string `json:"id"`

	// ChangeTag is the server-assigned version token on success
	ChangeTag string `json:"changeTag,omitempty"`

	// Err is the structured failure for this record, nil on success
	Err *StoreError `json:"error,omitempty"`
}

// SaveResult reports the outcome of a multi-record save operation.
type SaveResult struct {
	Results []RecordResult `json:"results"`
}

// Failed returns the per-record results that carry an error.
func (r *SaveResult) Failed() []RecordResult {
	var failed []RecordResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Tag returns the change tag assigned to the given record ID, or empty if
// the record is not present or failed.
func (r *SaveResult) Tag(id string) string {
	for _, res := range r.Results {
		if res.ID == id && res.Err == nil {
			return res.ChangeTag
		}
	}
	return ""
}

// Permission is the access level granted to a share participant.
type Permission string

const (
	// PermissionReadOnly allows the participant to read shared records
	PermissionReadOnly Permission = "read-only"

	// PermissionReadWrite allows the participant to read and modify shared records
	PermissionReadWrite Permission = "read-write"
)

// PublicPolicy is the anonymous-access policy on a share grant.
type PublicPolicy string

const (
	// PublicNone disallows anonymous access to the shared graph
	PublicNone PublicPolicy = "none"

	// PublicReadOnly allows anonymous read access to the shared graph
	PublicReadOnly PublicPolicy = "read-only"
)

// Participant is a resolved remote identity invited to access a shared graph.
type Participant struct {
	// Identity is the opaque addressable identity token from the directory
	Identity string `json:"identity"`

	// Contact is the human-readable identifier the identity was resolved
	// from (email address or phone number)
	Contact string `json:"contact"`

	// Permission is the access level requested for this participant
	Permission Permission `json:"permission"`
}

// ShareGrant protects a published record graph: it names the root record and
// the participants allowed to access the graph beneath it.
type ShareGrant struct {
	// ID is the grant's own record identifier
	ID string `json:"id"`

	// RootID is the root record of the protected graph
	RootID string `json:"rootId"`

	// Zone is the zone the grant and graph live in
	Zone ZoneID `json:"zone"`

	// Participants lists invited identities with their permission levels.
	// Append-only during a single share operation.
	Participants []Participant `json:"participants"`

	// PublicPolicy is the anonymous-access policy
	PublicPolicy PublicPolicy `json:"publicPolicy"`

	// ChangeTag is the server-assigned version token, set on publish
	ChangeTag string `json:"changeTag,omitempty"`
}

// Subscription is a durable registration for change notifications on a
// (record type, filter) pair.
type Subscription struct {
	// ID is the server-assigned subscription identifier
	ID string `json:"id"`

	// RecordType is the record type the subscription watches
	RecordType string `json:"recordType"`

	// Filter is an opaque filter expression, empty to watch all records
	// of the type
	Filter string `json:"filter,omitempty"`
}
