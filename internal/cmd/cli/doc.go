// Package cli contains the Cobra commands of the modeldb binary. They store
// JSON documents, indexed by tag, in a local database.
package cli
