package canopy

// Version is the Canopy release version. Overridable at build time with
// -ldflags "-X github.com/aretw0/canopy.Version=v1.2.3".
var Version = "0.1.0-dev"
