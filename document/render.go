package document

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"hsepanel/evaluation"
	"hsepanel/form"
	"hsepanel/status"
	"hsepanel/timeline"
)

const (
	missingSection = "Seção não preenchida pelo fornecedor."
	unanswered     = "Não respondido"
	emptyValue     = "—"
	dateLayout     = "02/01/2006 15:04"
)

type row struct {
	Question string
	Answer   string
}

type section struct {
	Title   string
	Rows    []row
	Missing bool
}

type step struct {
	Label     string
	Color     string
	When      string
	Actor     string
	Duration  string
	IsCurrent bool
}

type page struct {
	Company      string
	TaxID        string
	StatusLabel  string
	StatusColor  string
	GeneratedAt  string
	Sections     []section
	Evaluation   evaluation.FinalizedView
	Steps        []step
	TotalElapsed string
}

var pageTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Formulário HSE - {{.Company}}</title>
<style>
body { font-family: "Segoe UI", Arial, sans-serif; color: #323130; margin: 32px; }
h1 { font-size: 22px; margin-bottom: 4px; }
h2 { font-size: 16px; border-bottom: 2px solid #0078d4; padding-bottom: 4px; margin-top: 28px; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
td { border: 1px solid #edebe9; padding: 6px 8px; vertical-align: top; font-size: 13px; }
td.q { width: 45%; background: #faf9f8; font-weight: 600; }
.badge { display: inline-block; padding: 2px 10px; border-radius: 12px; color: #fff; font-size: 12px; }
.placeholder { color: #a19f9d; font-style: italic; }
.meta { color: #605e5c; font-size: 12px; }
.current { font-weight: 700; }
</style>
</head>
<body>
<h1>{{.Company}}</h1>
<div class="meta">CNPJ: {{.TaxID}} · Gerado em {{.GeneratedAt}}</div>
<p><span class="badge" style="background: {{.StatusColor}}">{{.StatusLabel}}</span></p>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{if .Missing}}<p class="placeholder">` + missingSection + `</p>{{else}}
<table>
{{range .Rows}}<tr><td class="q">{{.Question}}</td><td>{{.Answer}}</td></tr>
{{end}}</table>{{end}}
{{end}}
<h2>Avaliação</h2>
<table>
<tr><td class="q">Avaliador</td><td>{{.Evaluation.ReviewerName}} ({{.Evaluation.ReviewerEmail}})</td></tr>
<tr><td class="q">Início da análise</td><td>{{.Evaluation.StartedAt}}</td></tr>
<tr><td class="q">Conclusão</td><td>{{.Evaluation.ConcludedAt}}</td></tr>
<tr><td class="q">Comentários</td><td>{{.Evaluation.Comments}}</td></tr>
</table>
<h2>Histórico</h2>
<table>
{{range .Steps}}<tr{{if .IsCurrent}} class="current"{{end}}><td class="q"><span class="badge" style="background: {{.Color}}">{{.Label}}</span></td><td>{{.When}} · {{.Actor}}{{if .Duration}} · {{.Duration}}{{end}}</td></tr>
{{end}}</table>
<p class="meta">Tempo total: {{.TotalElapsed}}</p>
</body>
</html>
`))

// Render formats rec as a printable HTML document. Every catalogued category
// gets a section; answers outside the catalogue are listed at the end.
func Render(rec form.Record, now time.Time) (string, error) {
	display := status.Lookup(rec.Status)
	p := page{
		Company:     rec.Company,
		TaxID:       rec.TaxID,
		StatusLabel: display.Label,
		StatusColor: display.Color,
		GeneratedAt: now.Format(dateLayout),
		Sections:    sections(rec.Answers),
		Evaluation:  evaluation.Finalized(rec),
	}

	tl := timeline.Reconstruct(rec.History, rec.Status, now)
	p.TotalElapsed = tl.TotalElapsed
	for _, s := range tl.Steps {
		d := status.Lookup(s.Status)
		p.Steps = append(p.Steps, step{
			Label:     d.Label,
			Color:     d.Color,
			When:      s.Timestamp.Format(dateLayout),
			Actor:     s.ActorName,
			Duration:  s.Duration,
			IsCurrent: s.IsCurrentStatus,
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("document: render form %d: %w", rec.ID, err)
	}
	return buf.String(), nil
}

func sections(answers form.Answers) []section {
	out := make([]section, 0, len(Catalogue)+1)
	for _, c := range Catalogue {
		raw, ok := answers[c.Key]
		if !ok || raw == nil {
			out = append(out, section{Title: c.Title, Missing: true})
			continue
		}
		out = append(out, section{Title: c.Title, Rows: categoryRows(c, raw)})
	}

	var extra []row
	for _, key := range sortedKeys(answers) {
		if _, known := Lookup(key); known {
			continue
		}
		extra = append(extra, row{Question: key, Answer: formatValue(answers[key])})
	}
	if len(extra) > 0 {
		out = append(out, section{Title: "Outras informações", Rows: extra})
	}
	return out
}

func categoryRows(c Category, raw any) []row {
	values, ok := raw.(map[string]any)
	if !ok {
		return []row{{Question: c.Title, Answer: formatValue(raw)}}
	}

	rows := make([]row, 0, len(c.Questions))
	asked := make(map[string]struct{}, len(c.Questions))
	for _, q := range c.Questions {
		asked[q.Key] = struct{}{}
		answer := unanswered
		if v, ok := values[q.Key]; ok {
			answer = formatValue(v)
		}
		rows = append(rows, row{Question: q.Text, Answer: answer})
	}
	for _, key := range sortedKeys(values) {
		if _, ok := asked[key]; ok {
			continue
		}
		rows = append(rows, row{Question: key, Answer: formatValue(values[key])})
	}
	return rows
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return emptyValue
	case bool:
		if val {
			return "Sim"
		}
		return "Não"
	case string:
		if strings.TrimSpace(val) == "" {
			return emptyValue
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		if len(val) == 0 {
			return emptyValue
		}
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if len(val) == 0 {
			return emptyValue
		}
		parts := make([]string, 0, len(val))
		for _, k := range sortedKeys(val) {
			parts = append(parts, k+": "+formatValue(val[k]))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(val)
	}
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
