package sqlstore

import (
	"bytes"
	"database/sql"
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zzl/go-mdparam/metadata"
)

var errBlobTruncated = metadata.ErrBlobTruncated

type blobWriter struct {
	bytes.Buffer
}

func (this *blobWriter) writeCompressed(v uint32) {
	switch {
	case v < 0x80:
		this.WriteByte(byte(v))
	case v < 0x4000:
		this.WriteByte(byte(0x80 | v>>8))
		this.WriteByte(byte(v))
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], 0xc0000000|v)
		this.Write(b[:])
	}
}

// writeSerString writes a length-prefixed UTF-8 string, or the null marker 0xff.
func (this *blobWriter) writeSerString(s string, null bool) {
	if null {
		this.WriteByte(0xff)
		return
	}
	this.writeCompressed(uint32(len(s)))
	this.WriteString(s)
}

type blobReader struct {
	data []byte
	pos  int
}

func (this *blobReader) more() bool {
	return this.pos < len(this.data)
}

func (this *blobReader) readByte() (byte, error) {
	if !this.more() {
		return 0, errBlobTruncated
	}
	b := this.data[this.pos]
	this.pos++
	return b, nil
}

func (this *blobReader) readCompressed() (uint32, error) {
	b0, err := this.readByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b0&0x80 == 0:
		return uint32(b0), nil
	case b0&0xc0 == 0x80:
		b1, err := this.readByte()
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x3f)<<8 | uint32(b1), nil
	}
	if this.pos+3 > len(this.data) {
		return 0, errBlobTruncated
	}
	v := uint32(b0&0x1f)<<24 | uint32(this.data[this.pos])<<16 |
		uint32(this.data[this.pos+1])<<8 | uint32(this.data[this.pos+2])
	this.pos += 3
	return v, nil
}

func (this *blobReader) readSerString() (string, bool, error) {
	if this.more() && this.data[this.pos] == 0xff {
		this.pos++
		return "", true, nil
	}
	n, err := this.readCompressed()
	if err != nil {
		return "", false, err
	}
	if this.pos+int(n) > len(this.data) {
		return "", false, errBlobTruncated
	}
	s := string(this.data[this.pos : this.pos+int(n)])
	this.pos += int(n)
	return s, false, nil
}

func encodeMarshal(mi *metadata.MarshalInfo) []byte {
	w := &blobWriter{}
	w.WriteByte(byte(mi.NativeType))
	switch {
	case mi.Array != nil:
		a := mi.Array
		w.WriteByte(byte(a.ElementType))
		// trailing fields are positional; absent ones before a present one are written as 0
		fields := []int{a.SizeParameterIndex, a.Size, a.SizeParameterMultiplier}
		last := -1
		for n, f := range fields {
			if f > -1 {
				last = n
			}
		}
		for n := 0; n <= last; n++ {
			if fields[n] < 0 {
				fields[n] = 0
			}
			w.writeCompressed(uint32(fields[n]))
		}
	case mi.FixedArray != nil:
		w.writeCompressed(uint32(mi.FixedArray.Size))
		if mi.FixedArray.ElementType != metadata.NativeTypeNone {
			w.WriteByte(byte(mi.FixedArray.ElementType))
		}
	case mi.FixedSysString != nil:
		w.writeCompressed(uint32(mi.FixedSysString.Size))
	case mi.SafeArray != nil:
		if mi.SafeArray.ElementType != metadata.VariantNone {
			w.writeCompressed(uint32(mi.SafeArray.ElementType))
		}
	case mi.Custom != nil:
		c := mi.Custom
		w.writeSerString(c.Guid.String(), c.Guid == uuid.Nil)
		w.writeSerString(c.UnmanagedType, false)
		w.writeSerString(c.ManagedType, false)
		w.writeSerString(c.Cookie, false)
	}
	return w.Bytes()
}

// Array blobs are positional, so a field left out ahead of a set one reads back as 0.
// field_marshal.array_fields keeps which of them were set.
const (
	arraySizeParam = 1 << iota
	arraySize
	arrayMultiplier
)

func arrayFields(mi *metadata.MarshalInfo) sql.NullInt64 {
	if mi.Array == nil {
		return sql.NullInt64{}
	}
	var fields int64
	if mi.Array.SizeParameterIndex > -1 {
		fields |= arraySizeParam
	}
	if mi.Array.Size > -1 {
		fields |= arraySize
	}
	if mi.Array.SizeParameterMultiplier > -1 {
		fields |= arrayMultiplier
	}
	return sql.NullInt64{Int64: fields, Valid: true}
}

// restoreArrayFields resets the fields a decoded array blob only carried as padding.
// Rows written before the column existed leave the blob's reading as is.
func restoreArrayFields(mi *metadata.MarshalInfo, fields sql.NullInt64) {
	if mi.Array == nil || !fields.Valid {
		return
	}
	if fields.Int64&arraySizeParam == 0 {
		mi.Array.SizeParameterIndex = -1
	}
	if fields.Int64&arraySize == 0 {
		mi.Array.Size = -1
	}
	if fields.Int64&arrayMultiplier == 0 {
		mi.Array.SizeParameterMultiplier = -1
	}
}

func decodeMarshal(b []byte) (*metadata.MarshalInfo, error) {
	r := &blobReader{data: b}
	nt, err := r.readByte()
	if err != nil {
		return nil, errors.Wrap(err, "marshal blob")
	}
	mi := metadata.NewMarshalInfo(metadata.NativeType(nt))
	switch {
	case mi.Array != nil:
		if r.more() {
			et, _ := r.readByte()
			mi.Array.ElementType = metadata.NativeType(et)
		}
		for _, field := range []*int{&mi.Array.SizeParameterIndex, &mi.Array.Size, &mi.Array.SizeParameterMultiplier} {
			if !r.more() {
				break
			}
			v, err := r.readCompressed()
			if err != nil {
				return nil, errors.Wrap(err, "array marshal blob")
			}
			*field = int(v)
		}
	case mi.FixedArray != nil:
		if r.more() {
			v, err := r.readCompressed()
			if err != nil {
				return nil, errors.Wrap(err, "fixed array marshal blob")
			}
			mi.FixedArray.Size = int(v)
		}
		if r.more() {
			et, _ := r.readByte()
			mi.FixedArray.ElementType = metadata.NativeType(et)
		}
	case mi.FixedSysString != nil:
		if r.more() {
			v, err := r.readCompressed()
			if err != nil {
				return nil, errors.Wrap(err, "fixed sysstring marshal blob")
			}
			mi.FixedSysString.Size = int(v)
		}
	case mi.SafeArray != nil:
		if r.more() {
			v, err := r.readCompressed()
			if err != nil {
				return nil, errors.Wrap(err, "safearray marshal blob")
			}
			mi.SafeArray.ElementType = metadata.VariantType(v)
		}
	case mi.Custom != nil:
		guid, null, err := r.readSerString()
		if err != nil {
			return nil, errors.Wrap(err, "custom marshaler guid")
		}
		if !null && guid != "" {
			if mi.Custom.Guid, err = uuid.Parse(guid); err != nil {
				return nil, errors.Wrap(err, "custom marshaler guid")
			}
		}
		for _, field := range []*string{&mi.Custom.UnmanagedType, &mi.Custom.ManagedType, &mi.Custom.Cookie} {
			if *field, _, err = r.readSerString(); err != nil {
				return nil, errors.Wrap(err, "custom marshaler blob")
			}
		}
	}
	return mi, nil
}
