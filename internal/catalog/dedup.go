package catalog

// Merge appends every incoming book that does not match an existing one
// (see Book.SameAs) and returns the extended slice. Insertion order is kept,
// so the first occurrence of a book wins.
//
// The scan is quadratic on purpose: result sets stay around a hundred
// records and the identity rule is not a plain key.
func Merge(existing, incoming []Book) []Book {
	for _, candidate := range incoming {
		if containsBook(existing, candidate) {
			continue
		}
		existing = append(existing, candidate)
	}
	return existing
}

// Dedupe returns books with duplicates removed, keeping first occurrences.
func Dedupe(books []Book) []Book {
	return Merge(make([]Book, 0, len(books)), books)
}

func containsBook(books []Book, candidate Book) bool {
	for _, b := range books {
		if b.SameAs(candidate) {
			return true
		}
	}
	return false
}
