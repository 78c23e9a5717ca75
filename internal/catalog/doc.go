// Package catalog coordinates the taxonomy and asset stores.
//
// The two stores persist independently and never reference each other; this
// package pairs every taxonomy mutation with the matching asset-store call.
// The taxonomy side always commits first. When the asset side then rejects a
// rename with a name conflict, the taxonomy change is kept, the stale asset
// entry is left for the next reconciliation pass to prune, and the caller
// receives a SyncWarning alongside the successful result.
package catalog
