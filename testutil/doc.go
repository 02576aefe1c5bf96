// Package testutil provides lifecycle helpers for components used in tests.
//
// A TestComponent is a component.Component that can also be reset between
// cases and snapshotted. EntryStore is the one most tests need: an
// in-memory SQLite database with the entries table migrated.
//
//	func TestClaim(t *testing.T) {
//	    db := testutil.NewEntryStore()
//	    testutil.T(t).Setup(db)
//	    store := db.Store()
//	    ...
//	}
package testutil
