package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDeepCopy(t *testing.T) {
	type inner struct {
		Values []int
	}
	type outer struct {
		Name  string
		Ptr   *inner
		Map   map[string][]string
		Any   any
		Arr   [2]inner
		When  time.Time
		Nil   map[string]int
		NilP  *inner
		Slice []*inner
	}

	src := outer{
		Name:  "a",
		Ptr:   &inner{Values: []int{1}},
		Map:   map[string][]string{"k": {"v"}},
		Any:   map[string]any{"n": 1, "list": []any{"x"}},
		Arr:   [2]inner{{Values: []int{2}}, {}},
		When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Slice: []*inner{{Values: []int{3}}},
	}
	dst := deepCopy(src)

	if diff := cmp.Diff(src, dst); diff != "" {
		t.Fatalf("copy differs (-src +dst):\n%s", diff)
	}

	dst.Ptr.Values[0] = 9
	dst.Map["k"][0] = "changed"
	dst.Any.(map[string]any)["n"] = 2
	dst.Arr[0].Values[0] = 9
	dst.Slice[0].Values[0] = 9

	if src.Ptr.Values[0] != 1 || src.Map["k"][0] != "v" || src.Any.(map[string]any)["n"] != 1 ||
		src.Arr[0].Values[0] != 2 || src.Slice[0].Values[0] != 3 {
		t.Errorf("source mutated through copy: %+v", src)
	}
	if dst.Nil != nil || dst.NilP != nil {
		t.Error("nil fields became non-nil")
	}
}

func TestDeepCopyInterfaceType(t *testing.T) {
	var v any
	if got := deepCopy(v); got != nil {
		t.Errorf("deepCopy(nil any) = %v", got)
	}
	v = []int{1}
	got := deepCopy(v).([]int)
	got[0] = 2
	if v.([]int)[0] != 1 {
		t.Error("copy shares backing array")
	}
}
