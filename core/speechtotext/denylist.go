package speechtotext

import "strings"

// hallucinations are phrases speech models produce from silence or noise.
var hallucinations = map[string]struct{}{}

func init() {
	for _, phrase := range []string{
		"thank you for watching",
		"thanks for watching",
		"thank you",
		"thank you very much",
		"thanks",
		"bye",
		"bye bye",
		"bye-bye",
		"you",
		"please subscribe",
		"subscribe to my channel",
		"merci d'avoir regardé cette vidéo",
		"merci d'avoir regardé",
		"merci",
		"sous-titres réalisés par la communauté d'amara.org",
		"sous-titrage st' 501",
		"untertitel der amara.org-community",
		"ご視聴ありがとうございました",
	} {
		hallucinations[phrase] = struct{}{}
	}
}

// IsHallucination reports whether text is exactly one of the known stock
// phrases, ignoring case, surrounding space and a trailing period.
func IsHallucination(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimSpace(strings.TrimSuffix(normalized, "."))
	if normalized == "" {
		return false
	}
	_, ok := hallucinations[normalized]
	return ok
}
