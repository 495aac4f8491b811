// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ReportStore: Document and chunk persistence with similarity search
//   - SnapshotStore: Read access to category, brand run, and aspect snapshots
//   - PipelineFactory: Builds the chunking pipeline for ingest
//   - ConfigStore: Application configuration
//   - PromptStore: LLM prompt templates
//
// # Optional Interfaces
//
// These can be nil - the dependent operations fail with a domain error:
//
//   - EmbeddingService: Generates vector embeddings. Without it, ingest and retrieval are disabled.
//   - LLMService: Language model completion. Without it, report synthesis and chat are disabled.
//   - EmbeddingCache: Persists embeddings keyed by model and text.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or post-processor package
package driven
