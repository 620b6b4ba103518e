package solver

import "testing"

func TestQueueOrder(t *testing.T) {
	rewards := []float64{0.5, 3, 1, 2}
	q := newQueue(rewards)
	expected := []int{1, 3, 2, 0}
	for _, want := range expected {
		if got := q.removeMin(); got != want {
			t.Fatalf("expected var %d, got %d", want, got)
		}
	}
	if !q.empty() {
		t.Error("the queue should be empty")
	}
}

func TestQueueContains(t *testing.T) {
	q := newQueue([]float64{1, 2})
	if !q.contains(0) || !q.contains(1) {
		t.Fatal("both vars should be in the queue")
	}
	q.removeMin()
	if q.contains(1) {
		t.Error("var 1 was removed and should not be reported present")
	}
	q.insert(1)
	if !q.contains(1) {
		t.Error("var 1 was reinserted")
	}
}

func TestQueueBuild(t *testing.T) {
	rewards := []float64{1, 5, 3}
	q := newQueue(rewards)
	q.build([]int{0, 2})
	if q.len() != 2 {
		t.Fatalf("expected 2 elements after build, got %d", q.len())
	}
	if got := q.removeMin(); got != 2 {
		t.Errorf("expected the most rewarded var 2 first, got %d", got)
	}
	if got := q.removeMin(); got != 0 {
		t.Errorf("expected var 0 last, got %d", got)
	}
}

func TestQueueDecrease(t *testing.T) {
	rewards := []float64{1, 2, 3}
	q := newQueue(rewards)
	rewards[0] = 10
	q.decrease(0)
	if got := q.removeMin(); got != 0 {
		t.Errorf("expected var 0 after its bump, got %d", got)
	}
}
