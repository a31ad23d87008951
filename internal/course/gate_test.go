package course_test

import (
	"testing"

	"github.com/mind-engage/mindengage-player/internal/course"
)

func lessonList(ids ...string) []course.Lesson {
	out := make([]course.Lesson, len(ids))
	for i, id := range ids {
		out[i] = course.Lesson{ID: id, Position: i}
	}
	return out
}

func doneSet(ids ...string) course.CompletionSet {
	s := course.CompletionSet{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func TestAccessible(t *testing.T) {
	lessons := lessonList("l1", "l2", "l3", "l4", "l5")

	cases := []struct {
		name string
		idx  int
		done course.CompletionSet
		want bool
	}{
		{"first lesson always open", 0, doneSet(), true},
		{"second locked until first done", 1, doneSet(), false},
		{"second open once first done", 1, doneSet("l1"), true},
		{"only the predecessor matters", 2, doneSet("l2"), true},
		{"third locked when second missing, first done or not", 2, doneSet("l1"), false},
		{"out of range low", -1, doneSet("l1"), false},
		{"out of range high", 5, doneSet("l1", "l2", "l3", "l4", "l5"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := course.Accessible(tc.idx, lessons, tc.done); got != tc.want {
				t.Fatalf("Accessible(%d) = %v, want %v", tc.idx, got, tc.want)
			}
		})
	}
}

func TestCanAdvanceRequiresCurrentLessonDone(t *testing.T) {
	lessons := lessonList("l1", "l2", "l3")

	// Revisiting l1 with l1 incomplete: cannot advance even though l2
	// might already be reachable through other history.
	if course.CanAdvance(0, lessons, doneSet("l2")) {
		t.Fatalf("advance allowed with current lesson incomplete")
	}
	if !course.CanAdvance(0, lessons, doneSet("l1")) {
		t.Fatalf("advance refused with current lesson done")
	}
	if course.CanAdvance(2, lessons, doneSet("l1", "l2", "l3")) {
		t.Fatalf("advance past the last lesson")
	}
}

func TestStatusForPercent(t *testing.T) {
	cases := []struct {
		pct  int
		want course.LessonStatus
	}{
		{0, course.StatusNotStarted},
		{1, course.StatusInProgress},
		{50, course.StatusInProgress},
		{94, course.StatusInProgress},
		{95, course.StatusDone},
		{100, course.StatusDone},
	}
	for _, tc := range cases {
		if got := course.StatusForPercent(tc.pct); got != tc.want {
			t.Fatalf("StatusForPercent(%d) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}
