package iov

import "testing"

func TestValid(t *testing.T) {
	cases := []struct {
		i    IOV
		want bool
	}{
		{IOV{0, 100}, true},
		{IOV{100, 100}, false},
		{IOV{100, 50}, false},
		{Full(), true},
		{Invalid(), false},
	}
	for _, c := range cases {
		if got := c.i.Valid(); got != c.want {
			t.Errorf("%+v.Valid() = %v, want %v", c.i, got, c.want)
		}
	}
}

func TestContains(t *testing.T) {
	i := IOV{Since: 100, Until: 200}
	for _, p := range []TimePoint{100, 150, 199} {
		if !i.Contains(p) {
			t.Errorf("%+v.Contains(%d) = false, want true", i, p)
		}
	}
	for _, p := range []TimePoint{99, 200, 300} {
		if i.Contains(p) {
			t.Errorf("%+v.Contains(%d) = true, want false", i, p)
		}
	}
	if Invalid().Contains(0) {
		t.Error("invalid IOV must never contain any point")
	}
}

func TestIntersectCommutative(t *testing.T) {
	a := IOV{Since: 0, Until: 100}
	b := IOV{Since: 50, Until: 150}
	if a.Intersect(b) != b.Intersect(a) {
		t.Errorf("intersect not commutative: %+v vs %+v", a.Intersect(b), b.Intersect(a))
	}
}

func TestIntersectOverlapsAgreement(t *testing.T) {
	cases := []struct{ a, b IOV }{
		{IOV{0, 100}, IOV{50, 150}},
		{IOV{0, 100}, IOV{100, 200}},
		{IOV{0, 100}, IOV{200, 300}},
		{IOV{0, 100}, IOV{20, 80}},
	}
	for _, c := range cases {
		if c.a.Intersect(c.b).Valid() != c.a.Overlaps(c.b) {
			t.Errorf("intersect/overlaps disagree for %+v, %+v", c.a, c.b)
		}
	}
}

func TestDisjointIntersectInvalid(t *testing.T) {
	a := IOV{Since: 0, Until: 100}
	b := IOV{Since: 200, Until: 300}
	if a.Intersect(b).Valid() {
		t.Error("disjoint intervals must intersect to an invalid IOV")
	}
}

func TestCutMakesInvalidObservable(t *testing.T) {
	i := IOV{Since: 0, Until: 100}
	i.Cut(IOV{Since: 200, Until: 300})
	if i.Valid() {
		t.Error("cut to a disjoint bound must leave Valid() == false")
	}
}

func TestContainsIOV(t *testing.T) {
	outer := IOV{Since: 0, Until: 100}
	if !outer.ContainsIOV(IOV{Since: 10, Until: 90}) {
		t.Error("expected outer to contain inner")
	}
	if outer.ContainsIOV(IOV{Since: 10, Until: 200}) {
		t.Error("outer must not contain an interval extending past Until")
	}
	if outer.ContainsIOV(Invalid()) {
		t.Error("no IOV contains an invalid IOV")
	}
}
