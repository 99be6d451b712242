// Package sources defines the contracts for the remote metadata providers the
// sync engine pulls from, and the ChangeSet returned by a changed-since query.
//
// Architecture:
//   - DeltaClient: asks the authoritative provider what changed since a watermark
//   - SeriesFetcher: fetches full series snapshots and episodes
//   - SupplementalSource: secondary source used to discover newly aired episodes
//
// Current implementations:
//   - tvdb.Client: DeltaClient and SeriesFetcher over the provider's JSON API
//   - tvrage.Client: SupplementalSource over the secondary schedule API
package sources
