package querykey

import "testing"

func TestRegistry_KeyShapes(t *testing.T) {
	keys := NewRegistry("customers", nil)

	tests := []struct {
		name string
		key  Key
		want string
	}{
		{name: "all", key: keys.All(), want: "customers"},
		{name: "lists prefix", key: keys.Lists(), want: "customers::list"},
		{name: "detail", key: keys.Detail("customer-42"), want: "customers::detail::customer-42"},
		{name: "stats prefix", key: keys.Stats(), want: "customers::stats"},
		{name: "section", key: keys.Section("stats", "3M"), want: "customers::stats::3M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry_ListKeyDeterminism(t *testing.T) {
	keys := NewRegistry("customers", nil)

	type listParams struct {
		Search string
		Limit  int
		Tags   map[string]string
	}

	a := keys.List(listParams{Search: "acme", Limit: 20, Tags: map[string]string{"tier": "gold", "region": "emea"}})
	b := keys.List(listParams{Search: "acme", Limit: 20, Tags: map[string]string{"region": "emea", "tier": "gold"}})
	if a.String() != b.String() {
		t.Errorf("equivalent params produced different keys:\n%s\n%s", a, b)
	}

	c := keys.List(listParams{Search: "acme", Limit: 21})
	if c.String() == a.String() {
		t.Errorf("distinct params collided on %s", a)
	}
}

func TestKey_HasPrefix(t *testing.T) {
	keys := NewRegistry("customers", nil)

	detail := keys.Detail("customer-42")
	if !detail.HasPrefix(keys.Details()) {
		t.Errorf("%s should match prefix %s", detail, keys.Details())
	}
	if !detail.HasPrefix(keys.All()) {
		t.Errorf("%s should match domain prefix", detail)
	}
	if detail.HasPrefix(keys.Lists()) {
		t.Errorf("%s should not match %s", detail, keys.Lists())
	}
}

func TestMatchPrefix_TokenBoundary(t *testing.T) {
	tests := []struct {
		key    string
		prefix string
		want   bool
	}{
		{key: "customers::list::p1", prefix: "customers::list", want: true},
		{key: "customers::list", prefix: "customers::list", want: true},
		{key: "customers::listing::p1", prefix: "customers::list", want: false},
		{key: "customers::detail::42", prefix: "customers", want: true},
		{key: "dashboard::stats::3M", prefix: "customers", want: false},
	}

	for _, tt := range tests {
		if got := MatchPrefix(tt.key, tt.prefix); got != tt.want {
			t.Errorf("MatchPrefix(%q, %q) = %v, want %v", tt.key, tt.prefix, got, tt.want)
		}
	}
}
