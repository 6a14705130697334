// Package memstore is a map-backed metadata.Provider. It backs modules imported
// from winmd files and YAML fixtures, and stands in for a real image in tests.
package memstore

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/zzl/go-mdparam/metadata"
)

type Op string

const (
	OpResolveConstant     Op = "ResolveConstant"
	OpHasCustomAttributes Op = "HasCustomAttributes"
	OpCustomAttributes    Op = "CustomAttributes"
	OpHasMarshalInfo      Op = "HasMarshalInfo"
	OpMarshalInfo         Op = "MarshalInfo"
)

type row struct {
	constant    interface{}
	hasConstant bool
	attributes  []*metadata.CustomAttribute
	marshalInfo *metadata.MarshalInfo
}

type Store struct {
	mu       sync.RWMutex
	noImage  bool
	rows     map[metadata.MetadataToken]*row
	failures map[Op]error
	calls    map[Op]int
}

func New() *Store {
	return &Store{
		rows:     make(map[metadata.MetadataToken]*row),
		failures: make(map[Op]error),
		calls:    make(map[Op]int),
	}
}

// NewDetached returns a store that reports no image, so nothing is ever resolved from it.
func NewDetached() *Store {
	s := New()
	s.noImage = true
	return s
}

func (this *Store) row(token metadata.MetadataToken) *row {
	r, ok := this.rows[token]
	if !ok {
		r = &row{}
		this.rows[token] = r
	}
	return r
}

func (this *Store) SetConstant(token metadata.MetadataToken, value interface{}) {
	this.mu.Lock()
	defer this.mu.Unlock()
	r := this.row(token)
	r.constant = value
	r.hasConstant = true
}

func (this *Store) RemoveConstant(token metadata.MetadataToken) {
	this.mu.Lock()
	defer this.mu.Unlock()
	r := this.row(token)
	r.constant = nil
	r.hasConstant = false
}

func (this *Store) SetCustomAttributes(token metadata.MetadataToken, attrs ...*metadata.CustomAttribute) {
	this.mu.Lock()
	defer this.mu.Unlock()
	this.row(token).attributes = append([]*metadata.CustomAttribute(nil), attrs...)
}

func (this *Store) SetMarshalInfo(token metadata.MetadataToken, mi *metadata.MarshalInfo) {
	this.mu.Lock()
	defer this.mu.Unlock()
	this.row(token).marshalInfo = mi
}

// Fail makes every following op call return err until Fail(op, nil).
func (this *Store) Fail(op Op, err error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	if err == nil {
		delete(this.failures, op)
		return
	}
	this.failures[op] = err
}

func (this *Store) Calls(op Op) int {
	this.mu.RLock()
	defer this.mu.RUnlock()
	return this.calls[op]
}

func (this *Store) enter(op Op, token metadata.MetadataToken) (*row, error) {
	this.calls[op]++
	if err := this.failures[op]; err != nil {
		return nil, errors.WithMessagef(err, "memstore: %s %s", op, token)
	}
	return this.rows[token], nil
}

func (this *Store) HasImage() bool {
	return !this.noImage
}

func (this *Store) ResolveConstant(token metadata.MetadataToken) (interface{}, bool, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	r, err := this.enter(OpResolveConstant, token)
	if err != nil || r == nil || !r.hasConstant {
		return nil, false, err
	}
	return r.constant, true, nil
}

func (this *Store) HasCustomAttributes(token metadata.MetadataToken) (bool, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	r, err := this.enter(OpHasCustomAttributes, token)
	if err != nil || r == nil {
		return false, err
	}
	return len(r.attributes) > 0, nil
}

// CustomAttributes returns a fresh slice so later SetCustomAttributes calls are not
// visible through it.
func (this *Store) CustomAttributes(token metadata.MetadataToken) ([]*metadata.CustomAttribute, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	r, err := this.enter(OpCustomAttributes, token)
	if err != nil {
		return nil, err
	}
	attrs := []*metadata.CustomAttribute{}
	if r != nil {
		attrs = append(attrs, r.attributes...)
	}
	return attrs, nil
}

func (this *Store) HasMarshalInfo(token metadata.MetadataToken) (bool, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	r, err := this.enter(OpHasMarshalInfo, token)
	if err != nil || r == nil {
		return false, err
	}
	return r.marshalInfo != nil, nil
}

func (this *Store) MarshalInfo(token metadata.MetadataToken) (*metadata.MarshalInfo, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	r, err := this.enter(OpMarshalInfo, token)
	if err != nil || r == nil {
		return nil, err
	}
	return r.marshalInfo, nil
}
