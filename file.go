// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvector

import (
	"bytes"
	"fmt"

	"github.com/bpowers/bitvector/internal/datafile"
)

// Open reads a bitvector file written by a Builder or WriteFile.  The file
// is verified against its checksum and fully loaded into memory.
func Open(dataPath string, opts ...Option) (*Hybrid, error) {
	r, err := datafile.NewMMapReaderWithPath(dataPath)
	if err != nil {
		return nil, fmt.Errorf("datafile.NewMMapReaderWithPath(%s): %w", dataPath, err)
	}
	defer func() { _ = r.Close() }()

	payload, err := r.Payload()
	if err != nil {
		return nil, fmt.Errorf("Payload(%s): %w", dataPath, err)
	}
	h, err := Decode(bytes.NewReader(payload), opts...)
	if err != nil {
		return nil, err
	}
	if h.Len() != r.BitLen() || h.Ones() != r.Ones() {
		return nil, fmt.Errorf("Open(%s): header describes %d bits with %d ones, payload has %d with %d -- corrupted",
			dataPath, r.BitLen(), r.Ones(), h.Len(), h.Ones())
	}
	return h, nil
}
