// Package domain defines the session engine's data model, collaborator
// interfaces and error taxonomy. It holds plain types and contracts only.
package domain
