package jsonptr

// GetByKeys retrieves a value from nested maps using pre-parsed keys.
// Returns the value and true if found, or nil and false if any key is
// missing or an intermediate value is not a map.
func GetByKeys(data map[string]any, keys []string) (any, bool) {
	var current any = data
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetByKeys sets a value in nested maps using pre-parsed keys.
// Intermediate maps are created as needed; an intermediate value that is not
// a map is replaced. Returns false if keys is empty.
func SetByKeys(data map[string]any, keys []string, value any) bool {
	if len(keys) == 0 {
		return false
	}

	current := data
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[key] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
	return true
}
