// Package services contains the shared plumbing for external collaborators:
// the error taxonomy the pipeline classifies failures with, context
// annotation helpers, and the command runner adapters use to invoke
// external tools.
package services
