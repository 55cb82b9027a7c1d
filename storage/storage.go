// Package storage persists buyer-uploaded payment proofs and hands back a
// durable public URL for each one. The core never deletes or lists objects;
// the bucket is append-only from its point of view.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Uploader is the contract the order flow depends on. The production
// implementation is S3; tests substitute an in-memory one.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// ProofKey derives the object key for a proof upload. The submission
// timestamp keeps retried submissions from colliding on the same key even
// though only the first winning submission is ever referenced by the order.
func ProofKey(ref string, at time.Time, ext string) string {
	return fmt.Sprintf("payment-proofs/%s_%d.%s", ref, at.Unix(), ext)
}
