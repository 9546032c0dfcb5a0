// Package selector chooses which rule documents apply to a given file
// path.
//
// Selection is a pure, synchronous query over a store snapshot: documents
// are filtered by their glob patterns (and any configured CEL filters)
// while preserving store order.
package selector
