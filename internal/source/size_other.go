//go:build !linux

package source

import "errors"

// blockDeviceSize is unavailable off Linux; the cascade falls through to
// the seek-to-end strategy.
func blockDeviceSize(_ *Source) (int64, error) {
	return 0, errors.New("block-device size query not supported on this platform")
}
