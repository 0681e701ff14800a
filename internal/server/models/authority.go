package models

// Authority is a role grant held by a user. Within a user's authority set
// two grants are the same grant when their authority strings match,
// regardless of UserID; use SameAuthority for that comparison.
type Authority struct {
	UserID    int64
	Authority string
}

// SameAuthority reports whether a and b grant the same authority.
func SameAuthority(a, b Authority) bool {
	return a.Authority == b.Authority
}

// DedupAuthorities returns the authorities with duplicates (by authority
// string) removed, keeping the first occurrence.
func DedupAuthorities(in []Authority) []Authority {
	out := make([]Authority, 0, len(in))
	for _, a := range in {
		if indexOfAuthority(out, a) < 0 {
			out = append(out, a)
		}
	}
	return out
}

// EqualAuthoritySets reports whether a and b hold the same authority
// strings, ignoring order, duplicates and owner.
func EqualAuthoritySets(a, b []Authority) bool {
	a, b = DedupAuthorities(a), DedupAuthorities(b)
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if indexOfAuthority(b, x) < 0 {
			return false
		}
	}
	return true
}

func indexOfAuthority(set []Authority, a Authority) int {
	for i, x := range set {
		if SameAuthority(x, a) {
			return i
		}
	}
	return -1
}
