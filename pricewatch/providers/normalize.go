package providers

import "strings"

var bracketStripper = strings.NewReplacer("【", "", "】", "", "[", "", "]", "")

// NormalizeCardName trims the name, drops 【】 and [] brackets and collapses
// runs of whitespace into one space.
func NormalizeCardName(name string) string {
	return strings.Join(strings.Fields(bracketStripper.Replace(name)), " ")
}
