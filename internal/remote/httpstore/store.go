// Package httpstore implements the remote.Store interface against the hosted
// record store's JSON-over-HTTP API.
package httpstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/medibook/share-engine/internal/auth"
	"github.com/medibook/share-engine/internal/httpclient"
	"github.com/medibook/share-engine/internal/remote"
)

const (
	// maxRetries bounds automatic retries of idempotent operations
	maxRetries = 3

	// initialRetryInterval is the starting backoff delay
	initialRetryInterval = 500 * time.Millisecond
)

// Store talks to the remote record store over HTTP.
//
// Only idempotent operations (zone creation, fetches, lookups, subscription
// listing) are retried automatically; record writes are never retried here
// because the caller owns republish semantics after a partial failure.
type Store struct {
	endpoint string
	timeout  time.Duration
	identity auth.Provider

	mu     sync.Mutex
	client httpclient.Client
	token  string
}

var _ remote.Store = (*Store)(nil)

// New creates an HTTP-backed store client.
func New(endpoint string, timeout time.Duration, identity auth.Provider) *Store {
	return &Store{
		endpoint: trimTrailingSlash(endpoint),
		timeout:  timeout,
		identity: identity,
	}
}

// clientFor returns an HTTP client carrying the current identity token,
// rebuilding it only when the token rotates.
func (s *Store) clientFor(ctx context.Context) (httpclient.Client, error) {
	ident, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil || s.token != ident.Token {
		s.client = httpclient.NewDefaultClient(s.timeout, httpclient.WithBearerToken(ident.Token))
		s.token = ident.Token
	}
	return s.client, nil
}

// EnsureZone creates the zone if it does not exist. The server answering
// "zone already exists" is success.
func (s *Store) EnsureZone(ctx context.Context, zone remote.ZoneID) error {
	client, err := s.clientFor(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(zone)
	if err != nil {
		return fmt.Errorf("failed to marshal zone: %w", err)
	}

	_, err = retryIdempotent(ctx, func() ([]byte, error) {
		return client.Post(ctx, s.endpoint+"/v1/zones", body)
	})
	if err != nil {
		if httpclient.StatusCodeOf(err) == http.StatusConflict {
			// Lost a create race: the zone exists, which is what we wanted.
			return nil
		}
		return classify(err, remote.CodeZoneUnavailable, "ensure zone %s", zone)
	}
	return nil
}

// SaveRecords submits a multi-record write and decodes per-record outcomes.
func (s *Store) SaveRecords(
	ctx context.Context, zone remote.ZoneID, records []remote.Record, policy remote.SavePolicy,
) (*remote.SaveResult, error) {
	client, err := s.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	payload := saveRequest{Zone: zone, Policy: policy, Records: records}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save request: %w", err)
	}

	respBody, err := client.Post(ctx, s.endpoint+"/v1/records/modify", body)
	if err != nil {
		return nil, classify(err, remote.CodeTransientNetwork, "save %d records to zone %s", len(records), zone)
	}

	var result remote.SaveResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, remote.NewStoreError(remote.CodeSchemaMismatch, err,
			"save response from zone %s is malformed", zone)
	}
	return &result, nil
}

// FetchRecord retrieves the current version of a record with its change tag.
func (s *Store) FetchRecord(ctx context.Context, zone remote.ZoneID, recordID string) (*remote.Record, error) {
	client, err := s.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	respBody, err := retryIdempotent(ctx, func() ([]byte, error) {
		return client.Get(ctx, s.recordURL(zone, recordID))
	})
	if err != nil {
		if httpclient.StatusCodeOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("record %s: %w", recordID, remote.ErrNotFound)
		}
		return nil, classify(err, remote.CodeTransientNetwork, "fetch record %s from zone %s", recordID, zone)
	}

	var rec remote.Record
	if err := json.Unmarshal(respBody, &rec); err != nil {
		return nil, remote.NewStoreError(remote.CodeSchemaMismatch, err, "record %s is malformed", recordID)
	}
	return &rec, nil
}

// DeleteRecord removes a record; absence is success.
func (s *Store) DeleteRecord(ctx context.Context, zone remote.ZoneID, recordID string, tag string) error {
	client, err := s.clientFor(ctx)
	if err != nil {
		return err
	}

	target := s.recordURL(zone, recordID)
	if tag != "" {
		target += "?tag=" + url.QueryEscape(tag)
	}

	if err := client.Delete(ctx, target); err != nil {
		if httpclient.StatusCodeOf(err) == http.StatusNotFound {
			return nil
		}
		return classify(err, remote.CodeTransientNetwork, "delete record %s from zone %s", recordID, zone)
	}
	return nil
}

// LookupParticipant resolves a contact identifier against the user directory.
func (s *Store) LookupParticipant(ctx context.Context, contact string) (*remote.Participant, error) {
	client, err := s.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	target := s.endpoint + "/v1/directory?contact=" + url.QueryEscape(contact)
	respBody, err := retryIdempotent(ctx, func() ([]byte, error) {
		return client.Get(ctx, target)
	})
	if err != nil {
		if httpclient.StatusCodeOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("contact %s: %w", contact, remote.ErrNotFound)
		}
		return nil, classify(err, remote.CodeTransientNetwork, "lookup contact %s", contact)
	}

	var participant remote.Participant
	if err := json.Unmarshal(respBody, &participant); err != nil {
		return nil, remote.NewStoreError(remote.CodeSchemaMismatch, err, "directory response is malformed")
	}
	return &participant, nil
}

// ListSubscriptions returns the registered subscriptions for this principal.
func (s *Store) ListSubscriptions(ctx context.Context) ([]remote.Subscription, error) {
	client, err := s.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	respBody, err := retryIdempotent(ctx, func() ([]byte, error) {
		return client.Get(ctx, s.endpoint+"/v1/subscriptions")
	})
	if err != nil {
		return nil, classify(err, remote.CodeTransientNetwork, "list subscriptions")
	}

	var subs []remote.Subscription
	if err := json.Unmarshal(respBody, &subs); err != nil {
		return nil, remote.NewStoreError(remote.CodeSchemaMismatch, err, "subscription list is malformed")
	}
	return subs, nil
}

// CreateSubscription registers a durable subscription.
func (s *Store) CreateSubscription(ctx context.Context, sub remote.Subscription) (remote.Subscription, error) {
	client, err := s.clientFor(ctx)
	if err != nil {
		return remote.Subscription{}, err
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return remote.Subscription{}, fmt.Errorf("failed to marshal subscription: %w", err)
	}

	respBody, err := client.Post(ctx, s.endpoint+"/v1/subscriptions", body)
	if err != nil {
		return remote.Subscription{}, classify(err, remote.CodeTransientNetwork,
			"create subscription for %s", sub.RecordType)
	}

	var created remote.Subscription
	if err := json.Unmarshal(respBody, &created); err != nil {
		return remote.Subscription{}, remote.NewStoreError(remote.CodeSchemaMismatch, err,
			"subscription response is malformed")
	}
	return created, nil
}

func (s *Store) recordURL(zone remote.ZoneID, recordID string) string {
	return fmt.Sprintf("%s/v1/zones/%s/%s/records/%s",
		s.endpoint, url.PathEscape(zone.Owner), url.PathEscape(zone.Name), url.PathEscape(recordID))
}

type saveRequest struct {
	Zone    remote.ZoneID     `json:"zone"`
	Policy  remote.SavePolicy `json:"policy"`
	Records []remote.Record   `json:"records"`
}

// retryIdempotent retries the operation with exponential backoff while the
// failure looks transient. Permanent HTTP errors abort immediately.
func retryIdempotent(ctx context.Context, operation func() ([]byte, error)) ([]byte, error) {
	wrapped := func() ([]byte, error) {
		body, err := operation()
		if err == nil {
			return body, nil
		}
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && !httpErr.IsTransient() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = initialRetryInterval

	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(maxRetries),
	)
}

// classify maps a transport error onto the engine error taxonomy. notFoundCode
// is the code used for 404 responses, which mean different things per call.
func classify(err error, notFoundCode remote.Code, format string, args ...any) error {
	code := remote.CodeTransientNetwork

	switch httpclient.StatusCodeOf(err) {
	case http.StatusUnauthorized:
		code = remote.CodeNotAuthenticated
	case http.StatusForbidden:
		code = remote.CodePermissionDenied
	case http.StatusNotFound:
		code = notFoundCode
	case http.StatusConflict, http.StatusPreconditionFailed:
		code = remote.CodeConflictDetected
	case http.StatusUnprocessableEntity:
		code = remote.CodeSchemaMismatch
	}

	return remote.NewStoreError(code, err, "%s: %v", fmt.Sprintf(format, args...), err)
}

func trimTrailingSlash(endpoint string) string {
	for len(endpoint) > 0 && endpoint[len(endpoint)-1] == '/' {
		endpoint = endpoint[:len(endpoint)-1]
	}
	return endpoint
}
