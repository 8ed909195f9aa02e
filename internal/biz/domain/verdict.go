package domain

import "strings"

// Verdict is the binary classification outcome
type Verdict string

const (
	VerdictDelete Verdict = "delete"
	VerdictNormal Verdict = "normal"
)

// ParseVerdict normalizes raw classifier output.
// "delete" is checked before "normal" and both are substring matches,
// so "This looks like delete." still yields VerdictDelete.
func ParseVerdict(raw string) (Verdict, bool) {
	s := strings.ToLower(raw)
	if strings.Contains(s, string(VerdictDelete)) {
		return VerdictDelete, true
	}
	if strings.Contains(s, string(VerdictNormal)) {
		return VerdictNormal, true
	}
	return "", false
}
