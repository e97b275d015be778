// Package optimistic applies a change locally, confirms it remotely and
// reverts to the snapshot when confirmation fails.
package optimistic

import "context"

// Snapshotter captures and restores the displayed state of a manager.
type Snapshotter[S any] interface {
	Snapshot() S
	Restore(S)
}

// Do snapshots target, runs apply, then confirm. A failed confirm restores the snapshot
// and returns confirm's error unchanged.
func Do[S any](ctx context.Context, target Snapshotter[S], apply func(), confirm func(context.Context) error) error {
	snap := target.Snapshot()
	apply()
	if err := confirm(ctx); err != nil {
		target.Restore(snap)
		return err
	}
	return nil
}

// Funcs adapts a snapshot/restore pair to Snapshotter.
type Funcs[S any] struct {
	SnapshotFn func() S
	RestoreFn  func(S)
}

func (f Funcs[S]) Snapshot() S { return f.SnapshotFn() }
func (f Funcs[S]) Restore(s S) { f.RestoreFn(s) }
