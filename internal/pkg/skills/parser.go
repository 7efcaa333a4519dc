package skills

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	headingPattern  = regexp.MustCompile(`(?m)^#[ \t]+(\S.*?)[ \t]*$`)
	categoryPattern = regexp.MustCompile(`(?im)^Category:[ \t]*(\S.*?)[ \t]*$`)
	tagsPattern     = regexp.MustCompile(`(?im)^Tags:[ \t]*(\S.*?)[ \t]*$`)
	sourcePattern   = regexp.MustCompile(`(?im)^Source:[ \t]*(\S.*?)[ \t]*$`)
)

// frontmatter SKILL.md 可选的 YAML 头
type frontmatter struct {
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Tags        any    `yaml:"tags"`
	Source      string `yaml:"source"`
}

// ParseMetadata 从标记文件内容中尽力提取元数据。
// 首个一级标题作为描述，Category/Tags/Source 行提供其余字段；
// YAML frontmatter 中的同名字段仅在对应行缺失时使用。
// 任何字段解析失败都只会让该字段取默认值，不会返回错误。
func ParseMetadata(content string) Metadata {
	meta := Metadata{Category: DefaultCategory, Tags: []string{}}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	fm, body := splitFrontmatter(content)

	if fm.Description != "" {
		meta.Description = strings.TrimSpace(fm.Description)
	}
	if c := strings.TrimSpace(fm.Category); c != "" {
		meta.Category = c
	}
	if tags := frontmatterTags(fm.Tags); len(tags) > 0 {
		meta.Tags = tags
	}
	if s := strings.TrimSpace(fm.Source); s != "" {
		meta.SourceTool = s
	}

	if m := headingPattern.FindStringSubmatch(body); m != nil {
		meta.Description = m[1]
	}
	if m := categoryPattern.FindStringSubmatch(body); m != nil {
		meta.Category = m[1]
	}
	if m := tagsPattern.FindStringSubmatch(body); m != nil {
		if tags := splitTags(m[1]); len(tags) > 0 {
			meta.Tags = tags
		}
	}
	if m := sourcePattern.FindStringSubmatch(body); m != nil {
		meta.SourceTool = m[1]
	}

	return meta
}

// splitFrontmatter 拆分 YAML 头与正文，YAML 无效时忽略其内容
func splitFrontmatter(content string) (frontmatter, string) {
	var fm frontmatter
	if !strings.HasPrefix(content, "---\n") {
		return fm, content
	}
	endIdx := strings.Index(content[3:], "\n---")
	if endIdx == -1 {
		return fm, content
	}
	endIdx += 3

	if err := yaml.Unmarshal([]byte(content[4:endIdx]), &fm); err != nil {
		fm = frontmatter{}
	}
	body := content[endIdx+4:]
	return fm, body
}

func frontmatterTags(raw any) []string {
	switch v := raw.(type) {
	case string:
		return splitTags(v)
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					tags = append(tags, s)
				}
			}
		}
		return tags
	default:
		return nil
	}
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// renderMarker 生成新技能的标记文件
func renderMarker(name, description, sourceTool string) string {
	if description == "" {
		description = DefaultDescription
	}
	var b strings.Builder
	b.WriteString("# " + name + "\n\n")
	b.WriteString(description + "\n\n")
	b.WriteString("Category: " + DefaultCategory + "\n")
	b.WriteString("Tags: \n")
	if sourceTool != "" {
		b.WriteString("Source: " + sourceTool + "\n")
	}
	return b.String()
}
