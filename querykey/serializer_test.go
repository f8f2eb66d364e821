package querykey

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

type statsParams struct {
	Timeframe       string
	IncludeArchived bool
	Sections        []string
}

func TestDefaultSerializer_BasicValues(t *testing.T) {
	ser := NewDefaultSerializer()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "string", in: "3M", want: "3M"},
		{name: "int", in: 42, want: "42"},
		{name: "bool", in: true, want: "true"},
		{name: "float", in: 3.14, want: "3.14"},
		{name: "nil", in: nil, want: "nil"},
		{name: "nil pointer", in: (*int)(nil), want: "nil"},
		{name: "nil slice", in: ([]string)(nil), want: "slice:nil"},
		{name: "nil map", in: (map[string]int)(nil), want: "map:nil"},
		{
			name: "slice",
			in:   []string{"a", "b"},
			want: "slice[2]:{a,b}",
		},
		{
			name: "struct",
			in:   statsParams{Timeframe: "3M", Sections: []string{"revenue"}},
			want: "struct:{Timeframe:3M,IncludeArchived:false,Sections:slice[1]:{revenue}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ser.Serialize(tt.in)
			if got != tt.want {
				t.Errorf("Serialize(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultSerializer_MapOrderIndependence(t *testing.T) {
	ser := NewDefaultSerializer()

	// Build logically identical maps with different insertion orders; the
	// rendered segment must be byte-identical every time.
	var first string
	for run := 0; run < 50; run++ {
		m := map[string]int{}
		keys := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
		rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		for _, k := range keys {
			m[k] = len(k)
		}

		got := ser.Serialize(m)
		if run == 0 {
			first = got
			continue
		}
		if got != first {
			t.Fatalf("run %d: Serialize produced %q, want %q", run, got, first)
		}
	}
}

func TestDefaultSerializer_PointerNormalization(t *testing.T) {
	ser := NewDefaultSerializer()

	v := "3M"
	direct := ser.Serialize("3M")
	viaPointer := ser.Serialize(&v)
	if direct != viaPointer {
		t.Errorf("pointer and value serialize differently: %q vs %q", viaPointer, direct)
	}
}

func TestDefaultSerializer_NoCollisions(t *testing.T) {
	ser := NewDefaultSerializer()
	rng := rand.New(rand.NewSource(7))

	seen := make(map[string]statsParams, 10000)
	timeframes := []string{"1M", "3M", "6M", "1Y", "ALL"}

	for i := 0; i < 10000; i++ {
		p := statsParams{
			Timeframe:       timeframes[i%len(timeframes)],
			IncludeArchived: i%2 == 0,
			Sections:        []string{fmt.Sprintf("s-%d", i), fmt.Sprintf("r-%d", rng.Intn(1<<30))},
		}
		seg := ser.Serialize(p)
		if prev, ok := seen[seg]; ok && fmt.Sprint(prev) != fmt.Sprint(p) {
			t.Fatalf("collision between %+v and %+v on %q", prev, p, seg)
		}
		seen[seg] = p
	}
}

func TestDefaultSerializer_LongSegmentDigest(t *testing.T) {
	ser := NewDefaultSerializer()

	long := strings.Repeat("customer-", 40)
	seg := ser.Serialize(long)
	if len(seg) > maxSegmentLen {
		t.Errorf("digested segment still %d chars long", len(seg))
	}
	if !strings.HasPrefix(seg, "x:") {
		t.Errorf("expected digest segment, got %q", seg)
	}
	if other := ser.Serialize(long + "z"); other == seg {
		t.Errorf("distinct long inputs digested to the same segment %q", seg)
	}
	if again := ser.Serialize(long); again != seg {
		t.Errorf("digest not deterministic: %q vs %q", again, seg)
	}
}
