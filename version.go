package espalier

// Version is the library version, overridable at build time with
// -ldflags "-X github.com/pbarbosa/espalier.Version=...".
var Version = "0.1.0"
