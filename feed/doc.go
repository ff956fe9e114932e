// Package feed ingests RSS and Atom feeds on a cron schedule.
//
// Each poll parses a feed with gofeed, drops items already recorded in the
// checkpoint store, and hands the rest to the ingestion coordinator as one
// bulk request. The checkpoint remembers the newest publication time and
// how many articles each feed has produced.
package feed
