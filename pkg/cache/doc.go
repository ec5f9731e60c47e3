// Package cache provides a generic, thread-safe LRU cache with an eviction
// callback. The sync session registry uses it to bound the number of live
// sessions and to tear down the ones that fall out.
package cache
