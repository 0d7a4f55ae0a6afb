package generator

import "context"

// Model is the generative-model collaborator: one system instruction,
// one user payload, one free-form text response. No schema conformance
// is assumed from the collaborator; all validation happens here.
type Model interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
