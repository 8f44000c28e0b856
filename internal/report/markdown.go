package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/a3tai/bizharvest/internal/analysis"
	"github.com/a3tai/bizharvest/internal/harvest"
	"github.com/a3tai/bizharvest/internal/heuristics"
	"github.com/a3tai/bizharvest/internal/links"
	"github.com/a3tai/bizharvest/internal/registry"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter renders the known report types as Markdown documents
type MarkdownWriter struct {
	output io.Writer
}

func (w *MarkdownWriter) Write(v any) error {
	md := markdown.NewMarkdown(w.output)

	switch r := v.(type) {
	case *links.Report:
		writeLinks(md, r)
	case *analysis.Report:
		writeAnalysis(md, "Document Analysis", r)
	case *harvest.Result:
		writeHarvest(md, r)
	case heuristics.Classification:
		writeClassification(md, r)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

func writeLinks(md *markdown.Markdown, r *links.Report) {
	md.H1("Link Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows: [][]string{
			{"Annotations", strconv.Itoa(r.Summary.Annotations)},
			{"Hyperlinks", strconv.Itoa(r.Summary.Hyperlinks)},
			{"Text URLs", strconv.Itoa(r.Summary.TextURLs)},
			{"Emails", strconv.Itoa(r.Summary.Emails)},
			{"**Total**", "**" + strconv.Itoa(r.TotalLinks) + "**"},
		},
	})
	md.PlainText("")

	if len(r.Links) == 0 {
		md.PlainText("No links found.")
		return
	}

	rows := make([][]string, 0, len(r.Links))
	for _, l := range r.Links {
		rows = append(rows, []string{strconv.Itoa(l.Page), string(l.Type), cell(l.URL), l.Source})
	}
	md.H2("Links")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Page", "Type", "URL", "Source"}, Rows: rows})
}

func writeAnalysis(md *markdown.Markdown, title string, r *analysis.Report) {
	md.H1(title)
	md.PlainText("")

	rows := [][]string{
		{"Pages", strconv.Itoa(r.Summary.TotalPages)},
		{"Characters", strconv.Itoa(r.Summary.TotalCharacters)},
		{"Words", strconv.Itoa(r.Content.WordCount)},
	}
	if m := r.Metadata; m != nil {
		for _, kv := range [][2]string{
			{"Title", m.Title}, {"Author", m.Author}, {"Producer", m.Producer}, {"Created", m.CreationDate},
		} {
			if kv[1] != "" {
				rows = append(rows, []string{kv[0], cell(kv[1])})
			}
		}
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")

	writeList(md, "Emails", r.Content.Emails)
	writeList(md, "Phone Numbers", r.Content.Phones)
	writeList(md, "Dates", r.Content.Dates)
	writeList(md, "Amounts", r.Content.Amounts)

	if r.IsRegistryDocument() {
		writeRegistry(md, r.Registry)
	}
}

func writeRegistry(md *markdown.Markdown, rec *registry.Record) {
	md.H2("Business Registry Extract")
	md.PlainText("")
	md.PlainTextf("%d of %d indicators found.", rec.IndicatorsFound, len(registry.Indicators()))
	md.PlainText("")

	var rows [][]string
	for _, field := range registry.Fields() {
		value := rec.Get(field)
		if value == "" {
			continue
		}
		label := rec.Labels[field]
		rows = append(rows, []string{label.EN, label.SQ, cell(value)})
	}
	md.Table(markdown.TableSet{Header: []string{"Field", "Label (sq)", "Value"}, Rows: rows})
	md.PlainText("")
}

func writeList(md *markdown.Markdown, title string, values []string) {
	if len(values) == 0 {
		return
	}
	md.H3(title)
	md.BulletList(values...)
	md.PlainText("")
}

func writeHarvest(md *markdown.Markdown, r *harvest.Result) {
	md.H1("Harvest Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + r.RunID + "`"},
			{"Started", r.StartedAt.Format(timeLayout)},
			{"Finished", r.FinishedAt.Format(timeLayout)},
			{"Strict mode", strconv.FormatBool(r.Strict)},
			{"Candidate URLs", strconv.Itoa(r.Counts.Candidates)},
			{"Successful", strconv.Itoa(r.Counts.Successful)},
			{"Skipped", strconv.Itoa(r.Counts.Skipped)},
			{"Failed", strconv.Itoa(r.Counts.Failed)},
			{"Business records", strconv.Itoa(r.Counts.Records)},
		},
	})
	md.PlainText("")

	md.H2("Business Records")
	md.PlainText("")
	if len(r.Records) == 0 {
		md.PlainText("No registry documents found.")
		md.PlainText("")
	} else {
		header := []string{"Source"}
		for _, col := range r.Records[0].Columns() {
			header = append(header, registry.Labels()[col[0]].EN)
		}
		rows := make([][]string, 0, len(r.Records))
		for _, rec := range r.Records {
			row := []string{cell(rec.SourceURL)}
			for _, col := range rec.Columns() {
				row = append(row, cell(col[1]))
			}
			rows = append(rows, row)
		}
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		md.PlainText("")
	}

	if len(r.Outcomes) > 0 {
		md.H2("URLs")
		md.PlainText("")
		rows := make([][]string, 0, len(r.Outcomes))
		for _, o := range r.Outcomes {
			rows = append(rows, []string{cell(o.URL), string(o.Status), cell(o.Reason), strconv.Itoa(o.FileSize)})
		}
		md.Table(markdown.TableSet{Header: []string{"URL", "Status", "Reason", "Bytes"}, Rows: rows})
	}
}

func writeClassification(md *markdown.Markdown, c heuristics.Classification) {
	md.H1("URL Classification")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", cell(c.URL)},
			{"Likely PDF", strconv.FormatBool(c.Strict)},
			{"Worth fetching", strconv.FormatBool(c.Liberal)},
			{"Official domain", strconv.FormatBool(c.Official)},
			{"Skipped domain", strconv.FormatBool(c.Skipped)},
			{"Score", strconv.Itoa(c.Score)},
		},
	})
}

// cell escapes a value for use inside a table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
