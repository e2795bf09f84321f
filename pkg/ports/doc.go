// Package ports defines the interfaces between the Canopy core and its
// collaborators: description loading and session snapshot persistence.
// Adapters under pkg/adapters provide the standard implementations.
package ports
