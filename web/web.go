// Package web provides the embedded web UI for inspecting sessions and the
// operator dispatch grids.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/expr"
	"github.com/lemonberrylabs/tscript/pkg/store"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(s *store.Store) *Handler {
	return &Handler{
		store: s,
		funcMap: template.FuncMap{
			"shortID":     shortID,
			"timeAgo":     timeAgo,
			"formatTime":  formatTime,
			"recipeClass": recipeClass,
			"truncate":    truncate,
			"countLines":  countLines,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Each page is parsed with the layout on its own so the "content"
	// blocks of different pages do not collide.
	tmpl, err := template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	if err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Post("/ui/sessions", h.createSession)
	app.Get("/ui/sessions/:id", h.sessionDetail)
	app.Post("/ui/sessions/:id/exec", h.execSession)
	app.Get("/ui/operators", h.operatorList)
	app.Get("/ui/operators/:op", h.operatorGrid)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Sessions   []store.SessionInfo
	Statements int
	Operators  []operatorView
}

type operatorView struct {
	Name     string
	Symbol   string
	Handlers int
}

type variableView struct {
	Name string
	Type string
	Kind string
	Repr string
}

type resultView struct {
	Line   int
	Source string
	Repr   string
	Error  string
}

type sessionDetailContent struct {
	Session   store.SessionInfo
	Variables []variableView
	Source    string
	Results   []resultView
}

type gridRow struct {
	Right string
	Cells []string
}

type gridContent struct {
	Operator operatorView
	Kinds    []string
	Rows     []gridRow
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	sessions := h.store.List()
	infos := make([]store.SessionInfo, len(sessions))
	total := 0
	for i, s := range sessions {
		infos[i] = s.Info()
		total += infos[i].Statements
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].UpdateTime.After(infos[j].UpdateTime)
	})

	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		Sessions:   infos,
		Statements: total,
		Operators:  h.operators(),
	})
}

func (h *Handler) createSession(c *fiber.Ctx) error {
	sess, err := h.store.Create()
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{Message: err.Error()})
	}
	return c.Redirect("/ui/sessions/" + sess.ID())
}

func (h *Handler) sessionDetail(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.Params("id"))
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Session '%s' not found", c.Params("id")),
		})
	}
	return h.render(c, "session_detail.html", "dashboard", sessionContent(sess, "", nil))
}

func (h *Handler) execSession(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.Params("id"))
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Session '%s' not found", c.Params("id")),
		})
	}
	src := c.FormValue("source")
	var results []expr.Result
	if strings.TrimSpace(src) != "" {
		results, _ = sess.Exec(src)
	}
	return h.render(c, "session_detail.html", "dashboard", sessionContent(sess, src, results))
}

func (h *Handler) operatorList(c *fiber.Ctx) error {
	return h.render(c, "operator_list.html", "operators", h.operators())
}

func (h *Handler) operatorGrid(c *fiber.Ctx) error {
	op, err := dispatch.ParseOp(c.Params("op"))
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Operator '%s' not found", c.Params("op")),
		})
	}

	t := h.store.Table()
	g := t.Grid(op)
	content := gridContent{
		Operator: operatorView{Name: op.String(), Symbol: op.Symbol(), Handlers: t.HandlerCount(op)},
	}
	for _, k := range types.Kinds() {
		content.Kinds = append(content.Kinds, k.String())
	}
	for _, right := range types.Kinds() {
		row := gridRow{Right: right.String()}
		for _, left := range types.Kinds() {
			row.Cells = append(row.Cells, string(g[right][left]))
		}
		content.Rows = append(content.Rows, row)
	}
	return h.render(c, "grid.html", "operators", content)
}

func (h *Handler) operators() []operatorView {
	t := h.store.Table()
	var out []operatorView
	for _, op := range dispatch.Ops() {
		out = append(out, operatorView{Name: op.String(), Symbol: op.Symbol(), Handlers: t.HandlerCount(op)})
	}
	return out
}

func sessionContent(sess *store.Session, src string, results []expr.Result) sessionDetailContent {
	vars := sess.Variables()
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)

	content := sessionDetailContent{Session: sess.Info(), Source: src}
	for _, n := range names {
		v := vars[n]
		content.Variables = append(content.Variables, variableView{
			Name: n,
			Type: v.Type().String(),
			Kind: types.KindOf(v).String(),
			Repr: v.String(),
		})
	}
	for _, r := range results {
		rv := resultView{Line: r.Line, Source: r.Source}
		if r.Err != nil {
			rv.Error = r.Err.Error()
		} else {
			rv.Repr = r.Value.String()
		}
		content.Results = append(content.Results, rv)
	}
	return content
}

// --- Template Helpers ---

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func recipeClass(recipe string) string {
	switch dispatch.Recipe(recipe) {
	case dispatch.RecipeInvalid:
		return "cell-invalid"
	case dispatch.RecipeBoxLeft, dispatch.RecipeUnboxLeft, dispatch.RecipeUnboxRight:
		return "cell-object"
	case dispatch.RecipeCat, dispatch.RecipeStr, dispatch.RecipeRepeat:
		return "cell-string"
	default:
		return "cell-native"
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
