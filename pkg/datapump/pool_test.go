package datapump

import (
	"fmt"
	"testing"
)

func TestRunParallelTotalsAlwaysAddUp(t *testing.T) {
	items := []string{"p1.par", "p2.par", "p3.par"}
	total, success, failed := RunParallel(2, items, func(idx int, item string) int {
		if item == "p2.par" {
			return 1
		}
		return 0
	})

	if total != len(items) {
		t.Errorf("total = %d, want %d", total, len(items))
	}
	if total != success+failed {
		t.Errorf("total=%d != success(%d)+failed(%d)", total, success, failed)
	}
	if success != 2 || failed != 1 {
		t.Errorf("success=%d failed=%d, want 2 and 1", success, failed)
	}
}

func TestRunParallelEmptyItems(t *testing.T) {
	total, success, failed := RunParallel(4, nil, func(int, string) int { return 0 })
	if total != 0 || success != 0 || failed != 0 {
		t.Errorf("got (%d,%d,%d), want all zero", total, success, failed)
	}
}

func TestRunParallelRespectsBound(t *testing.T) {
	const n = 20
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("p%d.par", i)
	}

	var active, maxActive int
	var mu chan struct{} = make(chan struct{}, 1)
	mu <- struct{}{}

	total, success, failed := RunParallel(3, items, func(idx int, item string) int {
		<-mu
		active++
		if active > maxActive {
			maxActive = active
		}
		mu <- struct{}{}

		<-mu
		active--
		mu <- struct{}{}
		return 0
	})

	if total != n || success != n || failed != 0 {
		t.Errorf("got (%d,%d,%d), want (%d,%d,0)", total, success, failed, n, n)
	}
	if maxActive > 3 {
		t.Errorf("observed %d concurrent callbacks, want <= 3", maxActive)
	}
}
