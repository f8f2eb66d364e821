package querykey

import "strings"

// Separator delimits tokens within a rendered key.
const Separator = "::"

// Key is an ordered, immutable sequence of discriminator tokens addressing
// one cached query result. The zero value is the empty key.
type Key []string

// String renders the key in its canonical wire form.
func (k Key) String() string {
	return strings.Join(k, Separator)
}

// Child returns a new key with the given tokens appended. The receiver is
// never mutated.
func (k Key) Child(tokens ...string) Key {
	out := make(Key, 0, len(k)+len(tokens))
	out = append(out, k...)
	out = append(out, tokens...)
	return out
}

// HasPrefix reports whether p is a token-wise prefix of k. Matching is done
// per token, so "customers::list" is not a prefix of "customers::listing".
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// MatchPrefix reports whether the rendered key matches the rendered prefix at
// a token boundary. It is the string-level counterpart of Key.HasPrefix used
// by stores that index entries by rendered keys.
func MatchPrefix(key, prefix string) bool {
	if key == prefix {
		return true
	}
	return strings.HasPrefix(key, prefix+Separator)
}

// Registry scopes key construction to a single domain namespace. The zero
// value is not usable; construct one with NewRegistry.
type Registry struct {
	domain string
	ser    Serializer
}

// NewRegistry returns a Registry for the given domain. A nil serializer
// selects the default reflection-based one.
func NewRegistry(domain string, ser Serializer) Registry {
	if ser == nil {
		ser = NewDefaultSerializer()
	}
	return Registry{domain: domain, ser: ser}
}

// Domain returns the domain token this registry is scoped to.
func (r Registry) Domain() string { return r.domain }

// All returns the key addressing the whole domain subtree.
func (r Registry) All() Key { return Key{r.domain} }

// Lists returns the prefix under which every list page of the domain lives.
func (r Registry) Lists() Key { return Key{r.domain, "list"} }

// List returns the key for one list page, discriminated by params.
func (r Registry) List(params any) Key {
	return Key{r.domain, "list", r.ser.Serialize(params)}
}

// Details returns the prefix under which every detail entry lives.
func (r Registry) Details() Key { return Key{r.domain, "detail"} }

// Detail returns the key for a single entity's detail entry.
func (r Registry) Detail(id string) Key { return Key{r.domain, "detail", id} }

// Stats returns the prefix for aggregated statistics queries of the domain.
func (r Registry) Stats() Key { return Key{r.domain, "stats"} }

// Section builds a key under an arbitrary sub-resource, serializing each
// discriminator in order.
func (r Registry) Section(name string, discriminators ...any) Key {
	k := Key{r.domain, name}
	for _, d := range discriminators {
		k = append(k, r.ser.Serialize(d))
	}
	return k
}
