package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Faultbox/meshport/pkg/encoding"
)

// File is one entry handed to Write.
type File struct {
	Name string // UTF-8; stored as EUC-KR with backslashes
	Data []byte
	// Store skips compression.
	Store bool
}

// Write produces a version 0x200 archive holding files, in order.
func Write(w io.Writer, files []File) error {
	var body bytes.Buffer
	var table bytes.Buffer

	for _, f := range files {
		payload := f.Data
		if !f.Store {
			var buf bytes.Buffer
			zw := zlib.NewWriter(&buf)
			if _, err := zw.Write(f.Data); err != nil {
				return err
			}
			if err := zw.Close(); err != nil {
				return err
			}
			payload = buf.Bytes()
		}

		aligned := (len(payload) + 7) &^ 7
		offset := body.Len()
		body.Write(payload)
		body.Write(make([]byte, aligned-len(payload)))

		name := bytes.ReplaceAll(encoding.UTF8ToEUCKR(f.Name), []byte("/"), []byte("\\"))
		table.Write(name)
		table.WriteByte(0)
		var rec [17]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(len(payload)))
		binary.LittleEndian.PutUint32(rec[4:], uint32(aligned))
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(f.Data)))
		rec[12] = flagFile
		binary.LittleEndian.PutUint32(rec[13:], uint32(offset))
		table.Write(rec[:])
	}

	var ztable bytes.Buffer
	zw := zlib.NewWriter(&ztable)
	if _, err := zw.Write(table.Bytes()); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	h := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files) + 7),
		Version:     version200,
	}
	copy(h.Magic[:], grfMagic)

	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	sizes := []uint32{uint32(ztable.Len()), uint32(table.Len())}
	if err := binary.Write(w, binary.LittleEndian, sizes); err != nil {
		return err
	}
	_, err := w.Write(ztable.Bytes())
	return err
}
