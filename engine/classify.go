package engine

import "strings"

// isFeatureDisabled reports whether a wazero compile error is caused by an
// instruction or construct gated behind a feature outside CodegenFeatures.
// wazero phrases every such failure as `feature "<name>" is disabled`;
// anything else is a genuine compile defect.
func isFeatureDisabled(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "is disabled") ||
		strings.Contains(msg, "not supported")
}
