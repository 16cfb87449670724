// Package report renders a run's shortlist as a markdown table and writes it
// to the results directory.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/mlowdi/jobsearcher/internal/domain"
)

type row struct {
	Rank     int
	Headline string
	Company  string
	KW       int
	Sim      string
	URL      string
}

type page struct {
	Date      string
	Embedding bool
	Rows      []row
}

var tmpl = template.Must(template.New("results").Parse(`# Job search results {{.Date}}

{{if .Embedding}}Ranked by combined keyword + embedding similarity score.{{else}}Ranked by keyword score only (embedding unavailable).{{end}}

| Rank | Headline | Company | KW | Sim | URL |
|------|----------|---------|-----|-----|-----|
{{range .Rows}}| {{.Rank}} | {{.Headline}} | {{.Company}} | {{.KW}} | {{.Sim}} | {{.URL}} |
{{end}}`))

// Markdown writes the shortlist table. Pipes inside cells are escaped and
// ads without an embedding score show "—" in the Sim column.
func Markdown(w io.Writer, ranked []domain.Ranked, embedding bool, day time.Time) error {
	p := page{Date: day.Format("2006-01-02"), Embedding: embedding}
	for i, r := range ranked {
		sim := "—"
		if r.Score.EmbeddingScore != nil {
			sim = fmt.Sprintf("%.3f", *r.Score.EmbeddingScore)
		}
		p.Rows = append(p.Rows, row{
			Rank:     i + 1,
			Headline: cell(r.Ad.Title),
			Company:  cell(r.Ad.Company),
			KW:       r.Score.KeywordScore,
			Sim:      sim,
			URL:      cell(r.Ad.URL),
		})
	}
	return tmpl.Execute(w, p)
}

func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
