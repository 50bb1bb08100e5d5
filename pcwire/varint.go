// Copyright (c) 2019 Caleb James DeLisle
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pcwire

import (
	"encoding/binary"
	"errors"
	"io"
)

// ReadVarInt reads a bitcoin-style variable length integer: a single byte
// for values below 0xfd, else a prefix byte (0xfd/0xfe/0xff) followed by a
// fixed-width little-endian value.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}
	switch prefix[0] {
	case 0xff:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(buf[:]), nil
	case 0xfe:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(buf[:])), nil
	case 0xfd:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(buf[:])), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarInt writes v to w in the same encoding ReadVarInt decodes.
func WriteVarInt(w io.Writer, v uint64) error {
	if v < 0xfd {
		_, err := w.Write([]byte{byte(v)})
		return err
	}
	if v <= 0xffff {
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(v))
		_, err := w.Write(buf)
		return err
	}
	if v <= 0xffffffff {
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(v))
		_, err := w.Write(buf)
		return err
	}
	buf := make([]byte, 9)
	buf[0] = 0xff
	binary.LittleEndian.PutUint64(buf[1:], v)
	_, err := w.Write(buf)
	return err
}

// VarIntSerializeSize returns the number of bytes WriteVarInt would write
// for v.
func VarIntSerializeSize(v uint64) int {
	if v < 0xfd {
		return 1
	}
	if v <= 0xffff {
		return 3
	}
	if v <= 0xffffffff {
		return 5
	}
	return 9
}

var ErrMessage = errors.New("pcwire: malformed message")

func messageError(op, reason string) error {
	return errors.New("pcwire: " + op + ": " + reason)
}
