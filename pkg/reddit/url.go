package reddit

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var postIDPattern = regexp.MustCompile(`^[0-9a-z]{1,12}$`)

// PostIDFromURL extracts the base36 submission id from a post link.
// It understands reddit.com/r/<sub>/comments/<id>/..., reddit.com/comments/<id>,
// reddit.com/gallery/<id> and redd.it/<id>, with or without a scheme.
func PostIDFromURL(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}

	host := strings.ToLower(u.Hostname())
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	var id string
	switch {
	case host == "redd.it":
		if len(parts) == 1 {
			id = parts[0]
		}
	case host == "reddit.com" || strings.HasSuffix(host, ".reddit.com"):
		for i, p := range parts {
			if (p == "comments" || p == "gallery") && i+1 < len(parts) {
				id = parts[i+1]
				break
			}
		}
	default:
		return "", fmt.Errorf("%q is not a reddit link", raw)
	}

	if !postIDPattern.MatchString(id) {
		return "", fmt.Errorf("no post id in %q", raw)
	}
	return id, nil
}
