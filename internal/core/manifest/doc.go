// Package manifest holds the catalog of service contracts and bundles that
// descriptors are generated from.
//
// This package is part of the Functional Core: it decodes manifest documents
// from bytes and builds an immutable Index. Reading files is the job of
// internal/shell/manifest.
//
// # Documents
//
//   - contracts: services keyed by dotted ID, capabilities, default providers
//   - combos, bento boxes, platters: curated bundles of services
//   - environment template: global defaults plus per-service overrides
//   - network profile: named networks for the base descriptor
//
// # Usage
//
//	docs := manifest.Documents{Contracts: contracts, Combos: combos}
//	idx, err := manifest.Build(docs)
//	ref := idx.Lookup("hosomaki.redis") // ref.Kind == manifest.KindService
package manifest
