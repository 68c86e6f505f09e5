package decensor

import "encoding/json"

// Post is a Danbooru post record as decoded from the API: a field map
// owned by the caller. Resolution never mutates it; augmented copies are
// returned instead.
type Post map[string]interface{}

// Int reads a numeric field. JSON decoding yields float64 (or json.Number
// with UseNumber), so several numeric shapes are accepted.
func (p Post) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// Has reports whether the field is present
func (p Post) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// clone returns a shallow copy of the post
func (p Post) clone() Post {
	out := make(Post, len(p)+5)
	for k, v := range p {
		out[k] = v
	}
	return out
}
