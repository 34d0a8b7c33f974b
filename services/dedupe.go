package services

// dedupeBy removes duplicate records by key, keeping the first
// occurrence in encounter order. It returns the kept records and the
// number removed.
func dedupeBy[T any](items []T, key func(T) string) ([]T, int) {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out, len(items) - len(out)
}
