// Package fsops provides the filesystem primitives the core consumes:
// file comparison and file/tree copying.
package fsops

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"cpt-go/internal/cpt"
)

const compareChunkSize = 64 * 1024

// ByteComparer reports file equality by content. Sizes are checked first so
// most mismatches never read a byte.
type ByteComparer struct{}

func NewByteComparer() *ByteComparer { return &ByteComparer{} }

// Equal reports whether the files at a and b have identical content.
func (ByteComparer) Equal(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", a, err)
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", b, err)
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fa, err := os.Open(a)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", a, err)
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", b, err)
	}
	defer fb.Close()

	bufA := make([]byte, compareChunkSize)
	bufB := make([]byte, compareChunkSize)
	for {
		nA, errA := io.ReadFull(fa, bufA)
		nB, errB := io.ReadFull(fb, bufB)
		if nA != nB || !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			return true, nil
		}
		if errA != nil {
			return false, fmt.Errorf("read %s: %w", a, errA)
		}
		if errB != nil {
			return false, fmt.Errorf("read %s: %w", b, errB)
		}
	}
}

// Compile-time check that ByteComparer implements cpt.FileComparer.
var _ cpt.FileComparer = ByteComparer{}
