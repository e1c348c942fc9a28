package phone

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0412345678", "+61412345678", true},
		{"61412345678", "+61412345678", true},
		{"+61412345678", "+61412345678", true},
		{"0412345678#", "+61412345678", true},
		{"0412 345-678", "+61412345678", true},
		{"412345678", "+61412345678", true},
		{"+1 (555) 010-0000", "+15550100000", true},
		{"", "", false},
		{"#", "", false},
		{"abc", "", false},
		{"+", "", false},
	}

	for _, c := range cases {
		got, ok := Normalize(c.in, "61")
		if ok != c.ok || got != c.want {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"0412345678", "61412345678", "+61412345678", "412345678",
		"00412", "0", "6", "1234#", "*2", "+44 20 7946 0000",
	}

	for _, in := range inputs {
		once, ok := Normalize(in, "61")
		if !ok {
			t.Fatalf("Normalize(%q) unexpectedly failed", in)
		}
		twice, ok := Normalize(once, "61")
		if !ok || twice != once {
			t.Errorf("Normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestAllowList(t *testing.T) {
	var empty *AllowList
	if !empty.Allows("+61400000000") {
		t.Error("nil allow-list should allow everyone")
	}
	if !NewAllowList(nil).Allows("+61400000000") {
		t.Error("empty allow-list should allow everyone")
	}

	l := NewAllowList([]string{"+61412345678"})
	if l.Empty() {
		t.Fatal("allow-list should not be empty")
	}
	if !l.Allows("+61412345678") {
		t.Error("listed number should be allowed")
	}
	if l.Allows("+61499999999") {
		t.Error("unlisted number should be rejected")
	}
}
