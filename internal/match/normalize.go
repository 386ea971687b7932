// Package match implements name normalization and the cross-source matcher
// that ties exchange selections to odds-feed outcomes despite the two
// venues never agreeing on a spelling.
package match

import "strings"

// Normalize maps a raw competitor or event string to its canonical token:
// lower-cased with everything outside [a-z0-9] stripped. It is total (empty
// in, empty out), deterministic, and locale-independent — the token is used
// as a map key.
func Normalize(raw string) string {
	return stripToken(strings.ToLower(raw))
}

// abbreviations bridges common NCAA short forms to a canonical token before
// mascot stripping. Checked by substring so "Florida Int" and "U.T.S.A"
// still land; exact holds the forms that are only safe as whole-string
// matches ("byu" is a substring of too many things).
var abbreviations = []struct {
	needles []string
	token   string
}{
	{[]string{"florida international", "fiu", "florida int"}, "fiu"},
	{[]string{"texas san antonio", "utsa"}, "utsa"},
	{[]string{"brigham young"}, "byu"},
	{[]string{"connecticut", "uconn"}, "uconn"},
}

var exactAbbreviations = map[string]string{
	"byu": "byu",
}

// gridironFiller lists organizational filler and mascot words removed from
// american-football names before stripping. Mascots differ between the feed
// ("Western Kentucky Hilltoppers") and the exchange ("Western Kentucky").
var gridironFiller = []string{
	"football team", "university", "univ.", "univ", " the ", " at ",
	"hilltoppers", "golden eagles", "hurricanes", "commanders", "vikings",
	"lions", "cowboys", "wildcats", "redbirds", "bobcats",
	"panthers", "roadrunners", "bulldogs", "lobos", "cougars",
	"black knights", "huskies", "redhawks",
}

// NormalizeGridiron is the american-football normalization path: it rewrites
// institutional abbreviations to canonical tokens, drops mascot and filler
// words, folds "St." into "State", and then strips like Normalize. Total and
// deterministic for the same reasons.
func NormalizeGridiron(raw string) string {
	if raw == "" {
		return ""
	}
	name := strings.ToLower(raw)

	if tok, ok := exactAbbreviations[name]; ok {
		return tok
	}
	for _, a := range abbreviations {
		for _, n := range a.needles {
			if strings.Contains(name, n) {
				return a.token
			}
		}
	}

	for _, w := range gridironFiller {
		name = strings.ReplaceAll(name, w, "")
	}
	name = strings.ReplaceAll(name, " st.", " state")
	name = strings.ReplaceAll(name, " st ", " state ")

	return stripToken(name)
}

// NormalizerFor selects the normalization path for a sport.
func NormalizerFor(gridiron bool) func(string) string {
	if gridiron {
		return NormalizeGridiron
	}
	return Normalize
}

// IsGridironKey reports whether a feed sport key selects the
// american-football normalization path.
func IsGridironKey(feedKey string) bool {
	return strings.Contains(feedKey, "americanfootball")
}

// IsGridironLabel reports the same for store sport labels.
func IsGridironLabel(label string) bool {
	switch label {
	case "NFL", "NCAAF", "American Football", "NCAA FCS":
		return true
	}
	return false
}

// stripToken removes every byte outside [a-z0-9]. Input must already be
// lower-cased.
func stripToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
