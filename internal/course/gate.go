package course

// Accessible reports whether the lesson at index i may be opened: the
// first lesson always, any later lesson only once its predecessor in the
// ordered list is complete.
func Accessible(i int, lessons []Lesson, done CompletionSet) bool {
	if i < 0 || i >= len(lessons) {
		return false
	}
	if i == 0 {
		return true
	}
	return done.Has(lessons[i-1].ID)
}

// CanAdvance reports whether the learner may move from the lesson at
// index i to the one after it. Beyond plain accessibility this requires
// the current lesson itself to be complete, since the learner may be
// revisiting an earlier lesson out of sequence.
func CanAdvance(i int, lessons []Lesson, done CompletionSet) bool {
	if i < 0 || i+1 >= len(lessons) {
		return false
	}
	return done.Has(lessons[i].ID) && Accessible(i+1, lessons, done)
}
