package download

import "strings"

// ExtractInfoHash pulls the BitTorrent info-hash out of a magnet URI and
// returns it lowercased. Returns "" when the handle is not a magnet link
// or carries no btih exact topic.
func ExtractInfoHash(handle string) string {
	if !strings.HasPrefix(handle, "magnet:?") {
		return ""
	}
	for _, param := range strings.Split(strings.TrimPrefix(handle, "magnet:?"), "&") {
		value, ok := strings.CutPrefix(param, "xt=")
		if !ok {
			continue
		}
		hash, ok := strings.CutPrefix(value, "urn:btih:")
		if !ok {
			continue
		}
		if hash == "" {
			continue
		}
		return strings.ToLower(hash)
	}
	return ""
}
