// Package registry provides a minimal concurrent map used for the broker's
// process-wide lookups: service definitions by sid and listen tokens by value.
package registry

import "github.com/alphadose/haxmap"

type Registry[T any] interface {
	Get(key string) (T, bool)
	Put(key string, value T)
	Delete(key string)
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(key string) (T, bool) {
	return r.values.Get(key)
}

func (r *registry[T]) Put(key string, value T) {
	r.values.Set(key, value)
}

func (r *registry[T]) Delete(key string) {
	r.values.Del(key)
}
