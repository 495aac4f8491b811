// Package domain defines the core business entities for rankpulse.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A stored report or rule document
//   - ReportChunk: An embedded, retrievable slice of a document
//   - CategorySnapshot, BrandProductSnapshot, AspectDetail: raw ranking data
//   - ChangeRecord, CategorySection: derived day-over-day signals
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
