package usecase

import "context"

type auditIDKey struct{}

// withAuditID scopes the correlation id for one processing invocation;
// every audit event the pipeline emits carries it.
func withAuditID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, auditIDKey{}, id)
}

func auditID(ctx context.Context) string {
	id, _ := ctx.Value(auditIDKey{}).(string)
	return id
}
