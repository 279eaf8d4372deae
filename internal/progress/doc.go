// Package progress emits periodic progress lines and the end-of-run
// summary for a scan session.
//
// A progress line is emitted whenever the sweep cursor crosses an exact
// 5 MiB multiple or at least 10 seconds have elapsed since the last
// emission, whichever comes first. Each line carries percent complete,
// humanized position and total, files recovered so far, elapsed wall
// time, and an ETA linearly extrapolated from the bytes-per-second
// achieved so far. The ETA is reported as "unknown" when throughput is
// zero or undeterminable.
package progress
