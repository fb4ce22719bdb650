package normalize

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/types"
)

var usStates = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
	"DC": "District of Columbia",
}

var caProvinces = map[string]string{
	"AB": "Alberta", "BC": "British Columbia", "MB": "Manitoba", "NB": "New Brunswick",
	"NL": "Newfoundland and Labrador", "NS": "Nova Scotia", "ON": "Ontario", "PE": "Prince Edward Island",
	"QC": "Quebec", "SK": "Saskatchewan",
}

// countryNames 地名第二段直接是国家时的映射
var countryNames = map[string]string{
	"usa": "US", "us": "US", "united states": "US", "canada": "CA", "uk": "GB",
	"united kingdom": "GB", "england": "GB", "india": "IN", "germany": "DE", "france": "FR",
	"china": "CN", "australia": "AU", "singapore": "SG", "japan": "JP", "netherlands": "NL",
	"ireland": "IE", "spain": "ES", "brazil": "BR", "mexico": "MX", "italy": "IT",
	"sweden": "SE", "switzerland": "CH", "poland": "PL", "israel": "IL",
}

var (
	cityStateRe   = regexp.MustCompile(`\b([A-Z][a-zA-Z.'\-]+(?:\s[A-Z][a-zA-Z.'\-]+){0,2}),\s*([A-Z]{2})\b`)
	cityRegionRe  = regexp.MustCompile(`\b([A-Z][a-zA-Z.'\-]+(?:\s[A-Z][a-zA-Z.'\-]+){0,2}),\s*([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+){0,2})\b`)
	stateFullName = map[string]string{}
)

func init() {
	for code, name := range usStates {
		stateFullName[strings.ToLower(name)] = code
	}
}

// LocationPattern "City, ST" 正则
func LocationPattern() *regexp.Regexp { return cityStateRe }

// FindLocation 识别 "City, ST" 或 "City, State/Country" 形式的地点
// 返回匹配原文，便于调用方从行内移除
func FindLocation(s string) (*types.Location, string) {
	for _, m := range cityStateRe.FindAllStringSubmatch(s, -1) {
		code := m[2]
		if _, ok := usStates[code]; ok {
			return &types.Location{City: m[1], Region: code, CountryCode: "US"}, m[0]
		}
		if _, ok := caProvinces[code]; ok {
			return &types.Location{City: m[1], Region: code, CountryCode: "CA"}, m[0]
		}
		if cc, ok := countryNames[strings.ToLower(code)]; ok {
			return &types.Location{City: m[1], CountryCode: cc}, m[0]
		}
	}
	for _, m := range cityRegionRe.FindAllStringSubmatch(s, -1) {
		region := strings.ToLower(m[2])
		if code, ok := stateFullName[region]; ok {
			return &types.Location{City: m[1], Region: code, CountryCode: "US"}, m[0]
		}
		if cc, ok := countryNames[region]; ok {
			return &types.Location{City: m[1], CountryCode: cc}, m[0]
		}
	}
	return nil, ""
}
