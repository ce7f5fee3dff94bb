//go:build !unix

package buffer

import (
	"github.com/wippyai/dst/errors"
)

func osMapAnon(size int) ([]byte, error) {
	return nil, errors.Unsupported(errors.PhaseMap, "anonymous mappings on this platform")
}

func osUnmap(data []byte) error {
	return nil
}
