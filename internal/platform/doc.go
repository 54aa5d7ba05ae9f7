// Package platform resolves filesystem, permission, process, and download
// operations into one capability table, choosing per running platform between
// native implementations and fallbacks that shell out to external tools.
// Candidate layers are tried in a fixed precedence order: platform-specific
// native, cross-platform native, platform-specific tools, generic tools; the
// first layer to bind an operation name wins, and layers whose external
// dependencies are missing are skipped silently.
package platform
