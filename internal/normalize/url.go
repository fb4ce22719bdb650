package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"resume-parser-go/internal/types"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlRe   = regexp.MustCompile(`(?i)\bhttps?://[^\s|,;<>()"]+` +
		`|\bwww\.[^\s|,;<>()"]+` +
		`|\b(?:[a-z0-9\-]+\.)+(?:com|org|io|dev|me|co|app|edu|gov|info|us|uk|de|cn|page|site|xyz)(?:/[^\s|,;<>()"]*)?`)
)

// EmailPattern 邮箱正则，供字段抽取复用
func EmailPattern() *regexp.Regexp { return emailRe }

// FindEmail 返回第一个邮箱
func FindEmail(s string) string {
	return emailRe.FindString(s)
}

// FindURLs 查找行内的链接，邮箱中的域名不计入
func FindURLs(s string) []string {
	masked := emailRe.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
	matches := urlRe.FindAllString(masked, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:)")
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// NormalizeURL 补全协议头
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	return raw
}

var profileNetworks = []struct {
	host    string
	network string
	// 用户名所在的路径段，linkedin 为 /in/<name>
	prefix string
}{
	{"linkedin.com", "LinkedIn", "in"},
	{"github.com", "GitHub", ""},
	{"gitlab.com", "GitLab", ""},
	{"twitter.com", "Twitter", ""},
	{"x.com", "X", ""},
	{"stackoverflow.com", "StackOverflow", "users"},
	{"medium.com", "Medium", ""},
	{"behance.net", "Behance", ""},
	{"dribbble.com", "Dribbble", ""},
	{"kaggle.com", "Kaggle", ""},
	{"leetcode.com", "LeetCode", "u"},
}

// ProfileFromURL 识别社交/代码托管主页
func ProfileFromURL(raw string) (types.Profile, bool) {
	u, err := url.Parse(NormalizeURL(raw))
	if err != nil || u.Host == "" {
		return types.Profile{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for _, n := range profileNetworks {
		if host != n.host && !strings.HasSuffix(host, "."+n.host) {
			continue
		}
		parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
		username := ""
		switch {
		case n.prefix == "" && len(parts) > 0:
			username = parts[0]
		case n.prefix != "" && len(parts) > 1 && parts[0] == n.prefix:
			username = parts[len(parts)-1]
			if n.prefix == "in" {
				username = parts[1]
			}
		}
		return types.Profile{Network: n.network, Username: username, URL: NormalizeURL(raw)}, true
	}
	return types.Profile{}, false
}
