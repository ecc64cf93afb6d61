package storage

import "encoding/json"

// Store is a best-effort key-value store for client-side state. Implementations
// never return errors: reads that fail report absence, writes that fail are
// dropped. The chat client must keep working when persistence is unavailable.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set stores value under key. Failures are swallowed.
	Set(key, value string)
	// Delete removes key. Failures are swallowed.
	Delete(key string)
}

// GetJSON reads key and unmarshals it into v. Returns false when the key is
// absent or holds malformed JSON; callers fall back to the zero value.
func GetJSON(s Store, key string, v any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key. Marshal failures are dropped,
// matching the Store contract.
func SetJSON(s Store, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.Set(key, string(data))
}
