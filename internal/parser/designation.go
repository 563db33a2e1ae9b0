package parser

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasesYAML []byte

// AliasRules 职位写法 → 标准类别名
type AliasRules map[string]string

type aliasFile struct {
	Aliases AliasRules `yaml:"aliases"`
}

var defaultAliases = sync.OnceValue(func() AliasRules {
	rules, err := ParseAliasRules(defaultAliasesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded aliases.yaml: %v", err))
	}
	return rules
})

// DefaultAliasRules 内置别名表（副本）
func DefaultAliasRules() AliasRules {
	return defaultAliases().Clone()
}

// ParseAliasRules 解析 YAML 别名表
func ParseAliasRules(data []byte) (AliasRules, error) {
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alias rules: %w", err)
	}
	rules := make(AliasRules, len(f.Aliases))
	for from, to := range f.Aliases {
		from = strings.TrimSpace(from)
		if from == "" {
			continue
		}
		rules[from] = strings.TrimSpace(to)
	}
	return rules, nil
}

// LoadAliasFile 从文件加载别名表
func LoadAliasFile(path string) (AliasRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliasRules(data)
}

// Clone 复制
func (r AliasRules) Clone() AliasRules {
	out := make(AliasRules, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge 合并 other，同名规则以 other 为准
func (r AliasRules) Merge(other AliasRules) AliasRules {
	out := r.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// DesignationNormalizer 职位名规范化
type DesignationNormalizer struct {
	rules AliasRules
}

// NewDesignationNormalizer 创建规范化器；rules 为 nil 时使用内置别名表
func NewDesignationNormalizer(rules AliasRules) *DesignationNormalizer {
	if rules == nil {
		rules = defaultAliases()
	}
	return &DesignationNormalizer{rules: rules}
}

// Normalize 返回标准类别名；未登记的写法原样返回
func (n *DesignationNormalizer) Normalize(raw string) string {
	if to, ok := n.rules[strings.TrimSpace(raw)]; ok {
		return to
	}
	return raw
}

