// Package secrets resolves configuration references against Google Secret
// Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
)

const defaultAccessTimeout = 10 * time.Second

// Resolver implements config.SecretResolver on Secret Manager.
type Resolver struct {
	client        *secretmanager.Client
	accessTimeout time.Duration
	callOpts      []gax.CallOption
}

// NewResolver dials Secret Manager.
func NewResolver(ctx context.Context) (*Resolver, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: create client: %w", err)
	}
	return &Resolver{
		client:        client,
		accessTimeout: defaultAccessTimeout,
		callOpts: []gax.CallOption{
			gax.WithRetry(func() gax.Retryer {
				return gax.OnCodes([]codes.Code{codes.Unavailable, codes.DeadlineExceeded}, gax.Backoff{
					Initial:    200 * time.Millisecond,
					Max:        2 * time.Second,
					Multiplier: 2,
				})
			}),
		},
	}, nil
}

// ResolveSecret fetches the referenced secret version payload. The ref is
// the full resource name, e.g. projects/p/secrets/name/versions/latest.
func (r *Resolver) ResolveSecret(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("secrets: reference is required")
	}

	accessCtx, cancel := context.WithTimeout(ctx, r.accessTimeout)
	defer cancel()

	resp, err := r.client.AccessSecretVersion(accessCtx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: ref,
	}, r.callOpts...)
	if err != nil {
		return "", fmt.Errorf("secrets: access %s: %w", ref, err)
	}
	if resp.GetPayload() == nil {
		return "", fmt.Errorf("secrets: empty payload for %s", ref)
	}
	return string(resp.GetPayload().GetData()), nil
}

// Close releases the underlying client.
func (r *Resolver) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
