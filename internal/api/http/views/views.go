package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page names accepted by Render.
const (
	PageTicketIndex  = "tickets_index"
	PageTicketDetail = "ticket_detail"
	PageTicketForm   = "ticket_form"
	PageTicketDelete = "ticket_delete"
	PageProfile      = "profile"
	PageLogin        = "login"
	PageRegister     = "register"
	PageAdminUsers   = "admin_users"
	PageError        = "error"
)

var funcMap = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the layout.
func New() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// MustNew is New for callers with no error path, such as tests. It panics
// when a template fails to parse.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render writes page with status. Output is buffered so a template error
// never leaves a half-written body.
func (r *Renderer) Render(c *fiber.Ctx, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	c.Status(status)
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
