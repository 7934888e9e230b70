package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
)

const titleWidth = 60

// Articles prints articles as a numbered table, or a notice when empty.
func (p *Printer) Articles(articles []news.Article, empty string) error {
	if len(articles) == 0 {
		p.Info("%s", empty)
		return nil
	}
	t := NewTable(p.out, "#", "Title", "Source", "Published", "Link")
	for i, a := range articles {
		t.AddRow(fmt.Sprint(i+1), clip(a.Title, titleWidth), a.SourceName, a.PublishedAt, a.Link)
	}
	return t.Render()
}

// Article prints one article in full.
func (p *Printer) Article(a news.Article) {
	p.Header(a.Title)
	if a.SourceName != "" || a.Author != "" {
		p.Print("%s", p.Dim(strings.TrimSpace(a.SourceName+"  "+a.Author)))
	}
	if a.PublishedAt != "" {
		p.Print("%s", p.Dim(a.PublishedAt))
	}
	p.Print("%s\n", a.Link)
	body := a.Content
	if body == "" {
		body = a.Description
	}
	if body != "" {
		p.Print("%s", body)
	}
}

// Categories prints categories, marking the favorite ones.
func (p *Printer) Categories(all, favorites []news.Category) error {
	fav := make(map[news.Category]bool, len(favorites))
	for _, c := range favorites {
		fav[c] = true
	}
	t := NewTable(p.out, "Category", "Favorite")
	for _, c := range all {
		mark := ""
		if fav[c] {
			mark = "*"
		}
		t.AddRow(string(c), mark)
	}
	return t.Render()
}

// History prints search history entries.
func (p *Printer) History(entries []store.SearchEntry) error {
	if len(entries) == 0 {
		p.Info("No searches yet.")
		return nil
	}
	t := NewTable(p.out, "Keyword", "Searched")
	for _, e := range entries {
		t.AddRow(e.Keyword, e.SearchedAt.Local().Format(time.DateTime))
	}
	return t.Render()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
