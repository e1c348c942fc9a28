package helpers

// ConcatBytes joins byte slices with a single allocation.
func ConcatBytes(chunks ...[]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, total)

	i := 0
	for _, c := range chunks {
		i += copy(out[i:], c)
	}
	return out
}
