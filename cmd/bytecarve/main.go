// Package main provides the entry point for the bytecarve CLI.
//
// bytecarve recovers deleted files from disk images and block devices by
// scanning raw bytes for file format signatures, independent of any
// filesystem metadata.
//
// Usage:
//
//	bytecarve scan -o recovered/ /dev/sdb1
//	bytecarve scan -o recovered/ --deep --types jpg,png image.dd
//
// See --help for all available options.
package main

// main is the entry point for bytecarve.
func main() {
	Execute()
}
