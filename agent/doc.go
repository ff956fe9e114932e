// Package agent answers natural language questions about ingested articles.
//
// Three capabilities are exposed to a routing policy as langchaingo tools:
//   - StructuredLookup translates the question to read-only SQL over the
//     Articles table
//   - SemanticLookup answers from the most relevant indexed passages
//   - Summarize condenses a piece of text
//
// The Router asks its Policy for a decision, runs the requested capabilities
// and feeds their results back until the policy answers. Capability failures
// are reported to the policy so it can reformulate; a capability that keeps
// failing is withdrawn. Any unrecoverable failure yields FallbackAnswer.
//
// Prompts and capability descriptions come from a YAML document. Built-in
// defaults are embedded, and a file on disk can override them and is
// reloaded when it changes.
package agent
