package vcs

// versionLess compares two tag names the way `sort -V` does: the names are
// split into alternating digit and non-digit runs, digit runs compare
// numerically and the rest compare as plain bytes.
func versionLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		ar, aDigit := leadingRun(a)
		br, bDigit := leadingRun(b)
		if aDigit && bDigit {
			if c := compareNumeric(ar, br); c != 0 {
				return c < 0
			}
		} else if ar != br {
			return ar < br
		}
		a = a[len(ar):]
		b = b[len(br):]
	}
	return len(a) < len(b)
}

// leadingRun returns the longest prefix of s made entirely of digits or
// entirely of non-digits, and whether it is the digit kind.
func leadingRun(s string) (string, bool) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], digit
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// compareNumeric compares two digit runs by value without overflowing:
// strip leading zeros, compare lengths, then compare lexically.
func compareNumeric(a, b string) int {
	a = stripZeros(a)
	b = stripZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func stripZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}
