package utils

// ToPointer returns a pointer to a copy of value.
func ToPointer[T any](value T) *T {
	return &value
}
