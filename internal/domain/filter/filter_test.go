package filter

import (
	"context"
	"errors"
	"testing"
)

type scorePredicate struct{ min int64 }

func (p scorePredicate) Match(_ context.Context, s Subject) (bool, error) {
	if s.Score < 0 {
		return false, errors.New("negative score")
	}
	return s.Score >= p.min, nil
}

func TestApply(t *testing.T) {
	type item struct {
		id    string
		score int64
	}
	items := []item{{"a", 1}, {"b", 10}, {"c", 5}, {"d", 20}}
	subject := func(i item) Subject { return Subject{ID: i.id, Score: i.score} }

	got, err := Apply(context.Background(), scorePredicate{min: 5}, items, subject)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("Apply() = %v, want ids %v", got, want)
	}
	for i := range want {
		if got[i].id != want[i] {
			t.Errorf("Apply()[%d] = %s, want %s", i, got[i].id, want[i])
		}
	}

	_, err = Apply(context.Background(), scorePredicate{}, []item{{"x", -1}}, subject)
	if err == nil {
		t.Error("Apply() should return the predicate error")
	}

	empty, err := Apply(context.Background(), scorePredicate{}, []item(nil), subject)
	if err != nil || len(empty) != 0 {
		t.Errorf("Apply(nil) = (%v, %v)", empty, err)
	}
}
