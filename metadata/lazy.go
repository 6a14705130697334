package metadata

type resolution uint8

const (
	unresolved resolution = iota
	absent
	present
)

// lazy is a facet cache that tells "never looked up" apart from "looked up, absent".
type lazy[T any] struct {
	state resolution
	value T
}

func (this *lazy[T]) resolved() bool {
	return this.state != unresolved
}

func (this *lazy[T]) get() (T, bool) {
	return this.value, this.state == present
}

func (this *lazy[T]) set(value T) {
	this.state = present
	this.value = value
}

func (this *lazy[T]) clear() {
	var zero T
	this.state = absent
	this.value = zero
}
