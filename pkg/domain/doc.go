// Package domain contains the shared data types of the Canopy engine:
// tree descriptions, lifecycle events, snapshots, and the error taxonomy.
// It has no dependencies on the runtime packages so that adapters and the
// core can both import it freely.
package domain
