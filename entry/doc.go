// Package entry defines the Entry record, its status lifecycle and the
// gorm-backed store workers claim jobs from.
//
// Lifecycle:
//
//	NEW -> IN_PROGRESS -> READY -> COMPLETE
//	NEW -> ERROR, IN_PROGRESS -> ERROR
//
// Uploads start at IN_PROGRESS. A worker claims an entry by leasing it
// with a single conditional UPDATE; whoever's update affects the row owns
// the job. Leases expire, so a crashed worker's entry becomes claimable
// again, and the attempt counter lets a reaper fail entries that keep
// crashing their workers.
package entry
