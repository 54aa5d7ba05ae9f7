// Package tree implements recursive filesystem operations — walk, copy,
// find, delete, permission application — on top of the resolved platform
// primitives. It adds no platform knowledge of its own: every touch of
// the filesystem goes through the System interface, so the operations
// behave identically whichever layer ended up bound.
package tree
