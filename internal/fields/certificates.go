package fields

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/normalize"
	"resume-parser-go/internal/types"
)

// credentialSplit 证书名常含 "–" 连接的等级，不按短横切分
var credentialSplit = regexp.MustCompile(`\s+[|•·]\s+|\s*\|\s*|,\s+|\t+|\s{3,}`)

func credentialParts(line string) []string {
	var out []string
	for _, p := range credentialSplit.Split(line, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// certificateEntries 连续非空行为一个条目，空行结束条目
// 整段没有空行且每行都像独立证书时，逐行拆分
func certificateEntries(lines []string) [][]string {
	var (
		entries [][]string
		buf     []string
	)
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if len(buf) > 0 {
				entries = append(entries, buf)
				buf = nil
			}
			continue
		}
		buf = append(buf, strings.TrimSpace(l))
	}
	if len(buf) > 0 {
		entries = append(entries, buf)
	}
	if len(entries) == 1 && len(entries[0]) > 1 && standaloneItems(entries[0]) {
		single := entries[0]
		entries = make([][]string, 0, len(single))
		for _, l := range single {
			entries = append(entries, []string{l})
		}
	}
	return entries
}

// standaloneItems 没有单独的颁发机构行或纯日期行
func standaloneItems(lines []string) bool {
	for _, l := range lines {
		if m := issuerRe.FindStringIndex(normalize.StripBullet(l)); m != nil && m[0] == 0 {
			return false
		}
		if normalize.RemoveDates(normalize.StripBullet(l)) == "" {
			return false
		}
	}
	return true
}

type credential struct {
	name    string
	issuer  string
	date    string
	url     string
	summary string
}

// parseCredential 首行为名称；后续行中由关键词识别颁发者；日期取首个含年份的行
func parseCredential(lines []string) credential {
	var (
		c        credential
		nameLine string
		rest     []string
	)
	for i, raw := range lines {
		l := normalize.StripBullet(raw)
		if l == "" {
			continue
		}
		if c.date == "" && normalize.HasYear(l) {
			c.date = normalize.NormalizeDate(normalize.FindDate(l))
		}
		if i == 0 {
			nameLine = l
			continue
		}
		if c.issuer == "" {
			if m := issuerRe.FindStringSubmatch(l); m != nil {
				if iss := cleanCredentialPart(m[1]); iss != "" {
					c.issuer = iss
					continue
				}
			}
		}
		if normalize.RemoveDates(l) == "" {
			continue
		}
		rest = append(rest, l)
	}
	if nameLine == "" {
		return c
	}
	if c.issuer == "" {
		// "Best Paper Award by IEEE" 形式
		if m := issuerRe.FindStringSubmatchIndex(nameLine); m != nil && m[0] > 0 {
			c.issuer = cleanCredentialPart(nameLine[m[2]:m[3]])
			nameLine = nameLine[:m[0]]
		}
	}
	parts := credentialParts(normalize.RemoveDates(parenthesis.ReplaceAllString(nameLine, "")))
	if len(parts) > 0 {
		c.name = cleanCredentialPart(parts[0])
	}
	if c.issuer == "" && len(parts) > 1 {
		c.issuer = cleanCredentialPart(parts[1])
	}
	c.summary = normalize.JoinWrapped(rest)
	c.url = firstURL(lines)
	return c
}

func cleanCredentialPart(s string) string {
	s = parenthesis.ReplaceAllString(s, "")
	return strings.Trim(normalize.CollapseSpaces(normalize.RemoveDates(s)), " ,.;:-–—|")
}

func extractCertificates(entries [][]string) []types.Certificate {
	out := []types.Certificate{}
	for _, lines := range entries {
		c := parseCredential(lines)
		if c.name == "" {
			continue
		}
		out = append(out, types.Certificate{Name: c.name, Issuer: c.issuer, Date: c.date, URL: c.url})
	}
	return out
}

func extractAwards(entries [][]string) []types.Award {
	var out []types.Award
	for _, lines := range entries {
		c := parseCredential(lines)
		if c.name == "" {
			continue
		}
		out = append(out, types.Award{Title: c.name, Awarder: c.issuer, Date: c.date, Summary: c.summary})
	}
	return out
}
