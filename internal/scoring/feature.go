// Package scoring 基于加权特征的候选行打分
//
// 每个字段的识别规则是一张 FeatureSet 表，打分与选择逻辑统一在此实现。
package scoring

import (
	"regexp"
	"strings"
)

// ExcludeWeight 跨字段互斥使用的强负权重
const ExcludeWeight = -100

// FeatureSet 一个带权重的谓词
// Test 返回是否命中以及捕获值；Captures 为 false 时忽略捕获值
type FeatureSet struct {
	Name     string
	Test     func(line string) (bool, string)
	Weight   float64
	Captures bool
}

// ScoredCandidate 单个候选行的打分结果
type ScoredCandidate struct {
	Line     string
	Index    int
	Score    float64
	Value    string // 捕获值，未捕获时为空
	Captured bool
}

// Result 取最终值：有捕获取捕获值，否则取整行
func (c ScoredCandidate) Result() string {
	if c.Captured {
		return strings.TrimSpace(c.Value)
	}
	return strings.TrimSpace(c.Line)
}

// Options 选择参数
type Options struct {
	Threshold     float64
	PreferCapture bool
}

// Score 计算每个候选的得分
// 捕获值取第一个命中且声明 Captures 的特征
func Score(candidates []string, features []FeatureSet) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(candidates))
	for i, line := range candidates {
		sc := ScoredCandidate{Line: line, Index: i}
		for _, f := range features {
			matched, value := f.Test(line)
			if !matched {
				continue
			}
			sc.Score += f.Weight
			if f.Captures && !sc.Captured {
				if value == "" {
					value = line
				}
				sc.Value = value
				sc.Captured = true
			}
		}
		out = append(out, sc)
	}
	return out
}

// Select 选出最佳候选；最高分低于阈值时返回 false
//
// 平分时优先取最先出现且有捕获值的候选；PreferCapture 时在所有达到阈值的候选中
// 优先取最先出现且有捕获值的候选。
func Select(candidates []string, features []FeatureSet, opts Options) (ScoredCandidate, bool) {
	return Pick(Score(candidates, features), opts)
}

// Pick 在已打分的候选中选择
func Pick(scored []ScoredCandidate, opts Options) (ScoredCandidate, bool) {
	if len(scored) == 0 {
		return ScoredCandidate{}, false
	}
	best := scored[0].Score
	for _, c := range scored[1:] {
		if c.Score > best {
			best = c.Score
		}
	}
	if best < opts.Threshold {
		return ScoredCandidate{}, false
	}
	if opts.PreferCapture {
		for _, c := range scored {
			if c.Score >= opts.Threshold && c.Captured {
				return c, true
			}
		}
	}
	var first *ScoredCandidate
	for i := range scored {
		c := &scored[i]
		if c.Score != best {
			continue
		}
		if c.Captured {
			return *c, true
		}
		if first == nil {
			first = c
		}
	}
	return *first, true
}

// Match 正则命中即计分，不捕获
func Match(name string, re *regexp.Regexp, weight float64) FeatureSet {
	return FeatureSet{
		Name:   name,
		Weight: weight,
		Test: func(line string) (bool, string) {
			return re.MatchString(line), ""
		},
	}
}

// Capture 正则命中并捕获整个匹配
func Capture(name string, re *regexp.Regexp, weight float64) FeatureSet {
	return FeatureSet{
		Name:     name,
		Weight:   weight,
		Captures: true,
		Test: func(line string) (bool, string) {
			m := re.FindString(line)
			return m != "", m
		},
	}
}

// CaptureGroup 正则命中并捕获第 n 个分组
func CaptureGroup(name string, re *regexp.Regexp, n int, weight float64) FeatureSet {
	return FeatureSet{
		Name:     name,
		Weight:   weight,
		Captures: true,
		Test: func(line string) (bool, string) {
			m := re.FindStringSubmatch(line)
			if m == nil || n >= len(m) {
				return false, ""
			}
			return true, m[n]
		},
	}
}

// Predicate 任意布尔谓词
func Predicate(name string, fn func(string) bool, weight float64) FeatureSet {
	return FeatureSet{
		Name:   name,
		Weight: weight,
		Test: func(line string) (bool, string) {
			return fn(line), ""
		},
	}
}

// CapturePredicate 谓词命中时捕获整行
func CapturePredicate(name string, fn func(string) bool, weight float64) FeatureSet {
	return FeatureSet{
		Name:     name,
		Weight:   weight,
		Captures: true,
		Test: func(line string) (bool, string) {
			if fn(line) {
				return true, line
			}
			return false, ""
		},
	}
}

// ContainsAny 忽略大小写按词边界匹配任一关键词
func ContainsAny(name string, words []string, weight float64) FeatureSet {
	return Match(name, WordsPattern(words), weight)
}

// WordsPattern 由关键词列表构造忽略大小写的词边界正则
func WordsPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}])`)
}

// Exclude 跨字段互斥：候选行包含任一已被其他字段占用的值时施加强负权重
func Exclude(name string, claimed ...string) FeatureSet {
	values := make([]string, 0, len(claimed))
	for _, v := range claimed {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			values = append(values, v)
		}
	}
	return FeatureSet{
		Name:   name,
		Weight: ExcludeWeight,
		Test: func(line string) (bool, string) {
			lower := strings.ToLower(line)
			for _, v := range values {
				if strings.Contains(lower, v) {
					return true, ""
				}
			}
			return false, ""
		},
	}
}
