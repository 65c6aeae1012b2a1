package schedval_test

import (
	"testing"

	"github.com/benbjohnson/schedval"
	"github.com/google/go-cmp/cmp"
)

func TestResource_Encode(t *testing.T) {
	for _, tt := range []struct {
		r   schedval.Resource
		exp uint64
	}{
		{schedval.MemResource(), 1},
		{schedval.RegResource(0), 2},
		{schedval.PredResource(0), 3},
		{schedval.RegResource(1), 4},
		{schedval.PredResource(1), 5},
		{schedval.RegResource(30), 62},
	} {
		t.Run(tt.r.String(), func(t *testing.T) {
			if got := tt.r.Encode(); got != tt.exp {
				t.Fatalf("Encode()=%d, expected %d", got, tt.exp)
			}
		})
	}
}

func TestDecodeResource(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		for v := uint64(1); v < 100; v++ {
			r, err := schedval.DecodeResource(v)
			if err != nil {
				t.Fatal(err)
			} else if got := r.Encode(); got != v {
				t.Fatalf("unexpected encoding of %s: %d != %d", r, got, v)
			}
		}
	})
	t.Run("Zero", func(t *testing.T) {
		if _, err := schedval.DecodeResource(0); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCompareResource(t *testing.T) {
	a := []schedval.Resource{
		schedval.PredResource(2),
		schedval.RegResource(3),
		schedval.MemResource(),
		schedval.RegResource(1),
	}
	var names []string
	for i := range a {
		for j := i + 1; j < len(a); j++ {
			if schedval.CompareResource(a[j], a[i]) < 0 {
				a[i], a[j] = a[j], a[i]
			}
		}
		names = append(names, a[i].String())
	}
	if diff := cmp.Diff(names, []string{"mem", "r1", "p2", "r3"}); diff != "" {
		t.Fatal(diff)
	}
}
