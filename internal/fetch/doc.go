// Package fetch downloads remote artifacts over HTTP, HTTPS, and FTP, with
// manual redirect following, redirect-loop detection, and an opt-in on-disk
// cache kept in sidecar files beside the destination path. When the secure
// transport backend is unusable (or a proxy override rules it out) the client
// delegates to an external downloader tool instead.
package fetch
