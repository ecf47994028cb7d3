// Package reflector derives stable type names, used as a fallback for
// events that do not declare an explicit wire tag.
package reflector

import (
	"reflect"
	"sync"
)

var (
	mu    sync.RWMutex
	cache = make(map[reflect.Type]string)
)

// NameOf returns the package-qualified type name of x, dereferencing a
// pointer type first.
func NameOf(x any) string {
	return nameForType(reflect.TypeOf(x))
}

// NameFor returns the package-qualified name of type T.
func NameFor[T any]() string {
	return nameForType(reflect.TypeOf((*T)(nil)).Elem())
}

func nameForType(t reflect.Type) string {
	if t == nil {
		return ""
	}

	mu.RLock()
	name, ok := cache[t]
	mu.RUnlock()
	if ok {
		return name
	}

	e := t
	if e.Kind() == reflect.Pointer {
		e = e.Elem()
	}
	name = e.PkgPath() + "." + e.Name()

	mu.Lock()
	cache[t] = name
	mu.Unlock()
	return name
}
