package booru

import "strings"

const negativePrefix = "-"

// EncodeTags builds the value of the "tags" query parameter: positive tags in
// order, a single space, then every negative tag prefixed with "-".
//
// The separator is always written, so two empty lists encode to " ". The live
// API accepts that and existing links rely on it, so it is kept as is.
func EncodeTags(positive, negative []string) string {
	excluded := make([]string, len(negative))
	for i, tag := range negative {
		excluded[i] = negativePrefix + tag
	}
	return strings.Join(positive, " ") + " " + strings.Join(excluded, " ")
}
