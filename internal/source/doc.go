// Package source provides raw sequential and positioned read access to
// the object being carved: a regular file image or a raw block device.
//
// The accessor deliberately knows nothing about filesystems. It exposes
// the source as a flat byte range with a cursor, positioned reads, and a
// total addressable size determined by an ordered list of probing
// strategies (regular-file stat, block-device ioctl, seek-to-end, fixed
// fallback). Strategies are tried in order and each failure is logged at
// the tier it occurred, so a degraded size determination never aborts a
// session.
package source
