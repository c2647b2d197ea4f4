// Package wizard implements the interactive flow behind `td --init`: it
// collects a document name, a storage format, and optional starter content,
// then writes a fresh document ready for the editor.
package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/MateenKhan/tracedraw/internal/docstore"
	"github.com/MateenKhan/tracedraw/pkg/canvas"
	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// Options holds the choices collected by the wizard.
type Options struct {
	Name         string
	Dir          string
	Format       docstore.SourceType
	SampleShapes bool
}

// Wizard drives the interactive new-document flow.
type Wizard struct {
	opts Options
}

// New creates a wizard that will place the document in dir.
func New(dir string) *Wizard {
	return &Wizard{opts: Options{
		Name:   "Untitled",
		Dir:    dir,
		Format: docstore.SourceTypeJSON,
	}}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run executes the wizard and returns the path of the created document.
func (w *Wizard) Run() (string, error) {
	w.printBanner()

	if err := w.collect(); err != nil {
		return "", err
	}

	path, err := Create(w.opts)
	if err != nil {
		return "", err
	}

	fmt.Println("")
	fmt.Printf("Created %s\n", path)
	fmt.Printf("Open it with: td %s\n", path)
	fmt.Println("")
	return path, nil
}

// Opts returns the collected options.
func (w *Wizard) Opts() Options {
	return w.opts
}

func (w *Wizard) printBanner() {
	fmt.Println("")
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║        td — New Drawing Document             ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Println("║  Pick a name and a storage format; td will   ║")
	fmt.Println("║  create the document and you can start       ║")
	fmt.Println("║  grouping layers right away.                 ║")
	fmt.Println("║                                              ║")
	fmt.Println("║  Press Ctrl+C anytime to cancel              ║")
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println("")
}

func (w *Wizard) collect() error {
	format := string(w.opts.Format)

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Document name").
				Value(&w.opts.Name).
				Placeholder("Untitled").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name must not be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Storage format").
				Options(
					huh.NewOption("JSON (portable, diff-friendly)", string(docstore.SourceTypeJSON)),
					huh.NewOption("SQLite (faster for large documents)", string(docstore.SourceTypeSQLite)),
				).
				Value(&format),
			huh.NewConfirm().
				Title("Add sample shapes?").
				Description("A small starter group so the panel is not empty").
				Value(&w.opts.SampleShapes),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	w.opts.Name = strings.TrimSpace(w.opts.Name)
	w.opts.Format = docstore.SourceType(format)
	return nil
}

// Create writes a new document from the given options without any
// interaction. The wizard calls this after collecting input; tests and the
// CLI's non-TTY path call it directly.
func Create(opts Options) (string, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return "", fmt.Errorf("document name must not be empty")
	}

	tree := layers.NewTree()
	cv := canvas.New()
	eng := layers.NewEngine(tree, cv)
	cv.Subscribe(eng.HandleCanvasChange)

	if opts.SampleShapes {
		seedSampleShapes(eng, tree, cv)
	}

	filename := "document.json"
	if opts.Format == docstore.SourceTypeSQLite {
		filename = "document.db"
	}
	path := filepath.Join(opts.Dir, filename)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	doc := docstore.Snapshot(opts.Name, tree, cv)
	src := docstore.DataSource{Type: opts.Format, Path: path}
	if err := docstore.Save(doc, src); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

func seedSampleShapes(eng *layers.Engine, tree *layers.Tree, cv *canvas.Canvas) {
	gid, err := eng.CreateNode(tree.RootID(), model.KindGroup)
	if err != nil {
		return
	}
	eng.RenameNode(gid, "Sketch")

	cv.AddShape(&canvas.Shape{
		Name: "Background", Kind: "rect", Container: tree.BaseID(),
		X: 0, Y: 0, W: 400, H: 300, Fill: "#f0f0f0", Visible: true,
	})
	cv.AddShape(&canvas.Shape{
		Name: "Frame", Kind: "rect", Container: gid,
		X: 40, Y: 40, W: 320, H: 220, Stroke: "#333333", StrokeWidth: 2, Visible: true,
	})
	cv.AddShape(&canvas.Shape{
		Name: "Sun", Kind: "ellipse", Container: gid,
		X: 280, Y: 60, W: 48, H: 48, Fill: "#ffcc00", Visible: true,
	})
	cv.AddShape(&canvas.Shape{
		Name: "Hills", Kind: "path", Container: gid,
		X: 40, Y: 180,
		Points: []canvas.Point{{X: 0, Y: 60}, {X: 80, Y: 10}, {X: 160, Y: 50}, {X: 240, Y: 0}, {X: 320, Y: 60}},
		Stroke: "#338833", StrokeWidth: 2, Visible: true,
	})
}
