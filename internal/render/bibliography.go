// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-agent/pkg/types"
)

// References formats papers as a numbered reference list. Styles other than
// APA use IEEE.
func References(style string, papers []types.PaperRecord) []string {
	refs := make([]string, len(papers))
	for i, p := range papers {
		if strings.EqualFold(style, "APA") {
			refs[i] = apaReference(p)
		} else {
			refs[i] = fmt.Sprintf("[%d] %s", i+1, ieeeReference(p))
		}
	}
	return refs
}

// ieeeReference formats p as: A. Vaswani and N. Shazeer, "Title," arXiv, 2017.
func ieeeReference(p types.PaperRecord) string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		given, family := splitName(a)
		names[i] = strings.TrimSpace(initials(given) + " " + family)
	}
	var b strings.Builder
	if len(names) > 0 {
		b.WriteString(joinAuthors(names, "and"))
		b.WriteString(", ")
	}
	var tail []string
	if p.Source != "" {
		tail = append(tail, p.Source)
	}
	if p.Year != "" {
		tail = append(tail, p.Year)
	}
	if len(tail) > 0 {
		fmt.Fprintf(&b, "\"%s,\" %s.", p.Title, strings.Join(tail, ", "))
	} else {
		fmt.Fprintf(&b, "\"%s.\"", p.Title)
	}
	if p.URL != "" {
		b.WriteString(" [Online]. Available: " + p.URL)
	}
	return b.String()
}

// apaReference formats p as: Vaswani, A., & Shazeer, N. (2017). Title. arXiv. URL
func apaReference(p types.PaperRecord) string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		given, family := splitName(a)
		if given == "" {
			names[i] = family
			continue
		}
		names[i] = family + ", " + initials(given)
	}
	var b strings.Builder
	if len(names) > 0 {
		b.WriteString(joinAuthors(names, "&"))
		b.WriteString(" ")
	}
	year := p.Year
	if year == "" {
		year = "n.d."
	}
	fmt.Fprintf(&b, "(%s). %s.", year, strings.TrimSuffix(p.Title, "."))
	if p.Source != "" {
		fmt.Fprintf(&b, " %s.", p.Source)
	}
	if p.URL != "" {
		fmt.Fprintf(&b, " %s", p.URL)
	}
	return b.String()
}

func joinAuthors(names []string, conj string) string {
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		if conj == "&" {
			return names[0] + ", & " + names[1]
		}
		return names[0] + " " + conj + " " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", " + conj + " " + names[len(names)-1]
	}
}

// splitName splits a full name on its last space into given and family parts.
func splitName(name string) (given, family string) {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return "", name
	}
	return strings.TrimSpace(name[:idx]), name[idx+1:]
}

// initials abbreviates given names: "John Ronald" becomes "J. R.".
func initials(given string) string {
	var parts []string
	for _, g := range strings.Fields(given) {
		r := []rune(g)
		parts = append(parts, string(r[0])+".")
	}
	return strings.Join(parts, " ")
}

// BibTeX produces one @article entry per paper with unique citation keys.
func BibTeX(papers []types.PaperRecord) string {
	keys := citationKeys(papers)
	var b strings.Builder
	for i, p := range papers {
		fmt.Fprintf(&b, "@article{%s,\n", keys[i])
		fmt.Fprintf(&b, "  title = {%s},\n", p.Title)
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(p.Authors, " and "))
		}
		if p.Year != "" {
			fmt.Fprintf(&b, "  year = {%s},\n", p.Year)
		}
		if p.Source != "" {
			fmt.Fprintf(&b, "  journal = {%s},\n", p.Source)
		}
		if p.URL != "" {
			fmt.Fprintf(&b, "  url = {%s},\n", p.URL)
		}
		fmt.Fprintf(&b, "}\n\n")
	}
	return b.String()
}

// citationKeys builds keys of the form <family><year><firstword>, appending
// a, b, ... to repeats.
func citationKeys(papers []types.PaperRecord) []string {
	keys := make([]string, len(papers))
	counts := make(map[string]int)
	for i, p := range papers {
		family := "anon"
		if len(p.Authors) > 0 {
			_, family = splitName(p.Authors[0])
		}
		word := ""
		for _, w := range strings.Fields(p.Title) {
			if w = keyPart(w); len(w) > 3 {
				word = w
				break
			}
		}
		base := keyPart(family) + p.Year + word
		if base == "" {
			base = "ref" + strconv.Itoa(i+1)
		}
		n := counts[base]
		counts[base] = n + 1
		keys[i] = base
		if n > 0 {
			keys[i] = base + string(rune('a'+n-1))
		}
	}
	return keys
}

func keyPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CSLItem is a bibliographic entry in CSL (Citation Style Language) format,
// consumable by Pandoc and reference managers.
type CSLItem struct {
	ID     string    `yaml:"id"`
	Type   string    `yaml:"type"`
	Title  string    `yaml:"title"`
	Author []CSLName `yaml:"author,omitempty"`
	Issued *CSLDate  `yaml:"issued,omitempty"`
	URL    string    `yaml:"URL,omitempty"`
	Source string    `yaml:"source,omitempty"`
}

// CSLName is a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// CSL writes papers as a CSL-YAML list to w.
func CSL(w io.Writer, papers []types.PaperRecord) error {
	keys := citationKeys(papers)
	items := make([]CSLItem, len(papers))
	for i, p := range papers {
		item := CSLItem{
			ID:     keys[i],
			Type:   "article",
			Title:  p.Title,
			URL:    p.URL,
			Source: p.Source,
		}
		for _, a := range p.Authors {
			given, family := splitName(a)
			if given == "" {
				item.Author = append(item.Author, CSLName{Literal: family})
				continue
			}
			item.Author = append(item.Author, CSLName{Given: given, Family: family})
		}
		if y, err := strconv.Atoi(p.Year); err == nil {
			item.Issued = &CSLDate{DateParts: [][]int{{y}}}
		}
		items[i] = item
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}
