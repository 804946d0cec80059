// Package participant resolves human-readable contact identifiers into
// addressable remote identities with a permission level attached.
package participant

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/medibook/share-engine/internal/remote"
	"github.com/medibook/share-engine/internal/telemetry"
)

// Policy selects how the resolver treats individual lookup failures.
type Policy string

const (
	// PolicyFailFast aborts the batch on the first lookup error
	PolicyFailFast Policy = "failFast"

	// PolicyCollectPartial resolves everything it can and reports the
	// failures itemized alongside the successes
	PolicyCollectPartial Policy = "collectPartial"
)

// defaultConcurrency bounds parallel lookups against the remote directory.
const defaultConcurrency = 4

// Directory is the remote contact-lookup dependency. remote.Store satisfies it.
type Directory interface {
	LookupParticipant(ctx context.Context, contact string) (*remote.Participant, error)
}

// ResolutionFailure describes one contact that could not be resolved.
type ResolutionFailure struct {
	// Contact is the identifier that failed to resolve
	Contact string

	// Err is the reason, classified where possible
	Err error
}

// PartialResolutionError reports the contacts that failed in a
// collect-partial resolution. The successfully resolved participants are
// returned alongside it, so the caller can report exactly which invitees
// could not be found and still proceed with the rest.
type PartialResolutionError struct {
	Failures []ResolutionFailure
}

func (e *PartialResolutionError) Error() string {
	return fmt.Sprintf("%s: %d contact(s) could not be resolved",
		remote.CodePartialResolution, len(e.Failures))
}

// Resolver resolves batches of contacts against a remote directory.
type Resolver struct {
	directory   Directory
	policy      Policy
	concurrency int
	metrics     *telemetry.ResolveMetrics
}

// Option configures a Resolver
type Option func(*Resolver)

// WithPolicy sets the failure-handling policy
func WithPolicy(policy Policy) Option {
	return func(r *Resolver) {
		r.policy = policy
	}
}

// WithConcurrency bounds the number of parallel directory lookups
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithResolveMetrics attaches resolution telemetry. A nil value disables it.
func WithResolveMetrics(metrics *telemetry.ResolveMetrics) Option {
	return func(r *Resolver) {
		r.metrics = metrics
	}
}

// NewResolver creates a resolver with collect-partial policy by default.
func NewResolver(directory Directory, opts ...Option) *Resolver {
	r := &Resolver{
		directory:   directory,
		policy:      PolicyCollectPartial,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up each contact and attaches the requested permission level.
//
// Duplicate contacts within a batch resolve to the same participant exactly
// once (no duplicate invites). Lookups for independent contacts fan out
// concurrently, bounded by the configured concurrency limit. Under
// PolicyCollectPartial the resolved participants are returned together with a
// *PartialResolutionError itemizing the failures; under PolicyFailFast the
// first failure cancels the remaining lookups.
func (r *Resolver) Resolve(
	ctx context.Context, contacts []string, permission remote.Permission,
) ([]remote.Participant, error) {
	unique := dedupe(contacts)
	if len(unique) == 0 {
		return nil, nil
	}

	resolved := make([]*remote.Participant, len(unique))

	var mu sync.Mutex
	var failures []ResolutionFailure

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)

	for i, contact := range unique {
		group.Go(func() error {
			p, err := r.directory.LookupParticipant(groupCtx, contact)
			if err != nil {
				if r.policy == PolicyFailFast {
					return fmt.Errorf("resolving contact %s: %w", contact, err)
				}
				mu.Lock()
				failures = append(failures, ResolutionFailure{Contact: contact, Err: err})
				mu.Unlock()
				return nil
			}
			resolved[i] = p
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	participants := make([]remote.Participant, 0, len(unique))
	for _, p := range resolved {
		if p == nil {
			continue
		}
		granted := *p
		granted.Permission = permission
		participants = append(participants, granted)
	}

	if len(failures) > 0 {
		r.metrics.RecordFailures(ctx, len(failures))
		// Stable order for callers that render the failure list.
		sort.Slice(failures, func(i, j int) bool {
			return failures[i].Contact < failures[j].Contact
		})
		return participants, &PartialResolutionError{Failures: failures}
	}

	return participants, nil
}

// dedupe removes duplicate contacts while preserving first-seen order.
func dedupe(contacts []string) []string {
	seen := make(map[string]bool, len(contacts))
	var unique []string
	for _, contact := range contacts {
		if contact == "" || seen[contact] {
			continue
		}
		seen[contact] = true
		unique = append(unique, contact)
	}
	return unique
}
