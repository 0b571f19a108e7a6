package patterns

import "context"

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, reportID string, offenders []OffenderPattern) error

// StoreOffenders implements Store.
func (f StoreFunc) StoreOffenders(ctx context.Context, reportID string, offenders []OffenderPattern) error {
	return f(ctx, reportID, offenders)
}
