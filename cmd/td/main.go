package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MateenKhan/tracedraw/internal/docstore"
	"github.com/MateenKhan/tracedraw/pkg/canvas"
	"github.com/MateenKhan/tracedraw/pkg/config"
	"github.com/MateenKhan/tracedraw/pkg/debug"
	"github.com/MateenKhan/tracedraw/pkg/export"
	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/ui"
	"github.com/MateenKhan/tracedraw/pkg/version"
	"github.com/MateenKhan/tracedraw/pkg/watcher"
	"github.com/MateenKhan/tracedraw/pkg/wizard"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	initFlag := flag.Bool("init", false, "Create a new document (interactive when on a terminal)")
	initName := flag.String("name", "", "Document name for --init (skips the prompt)")
	exportFlag := flag.Bool("export", false, "Export the document and exit")
	exportDir := flag.String("export-dir", "", "Output directory for --export (default: config, then document dir)")
	pollFlag := flag.Bool("poll", false, "Force stat polling instead of fsnotify for live reload")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: td [options] [document]")
		fmt.Println("\nA layers panel for tracedraw documents.")
		fmt.Println("The document argument is a document.json/.db file or a directory")
		fmt.Println("holding one; it defaults to the current directory.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("td %s\n", version.Version)
		os.Exit(0)
	}

	docPath := "."
	if flag.NArg() > 0 {
		docPath = flag.Arg(0)
	}

	if *initFlag {
		runInit(docPath, *initName)
		os.Exit(0)
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		debug.Log("config load: %v", cfgErr)
		cfg = config.DefaultConfig()
	}

	doc, src, err := docstore.Load(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading document: %v\n", err)
		fmt.Fprintln(os.Stderr, "Create one with 'td --init'.")
		os.Exit(1)
	}

	docName := doc.Name
	if docName == "" {
		docName = filepath.Base(filepath.Dir(src.Path))
	}
	docDir := filepath.Dir(src.Path)

	tree, cv := doc.Restore()
	eng := layers.NewEngine(tree, cv)
	cv.Subscribe(eng.HandleCanvasChange)

	if *exportFlag {
		if err := runExport(cfg, cv, docName, docDir, *exportDir); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	saver := newAutosaver(cfg.Autosave, docName, src)
	if saver != nil {
		eng.OnCommit(func() { saver.schedule(eng) })
		defer saver.flush(eng)
	}

	cfg.AddRecent(docName, src.Path)
	if err := config.Save(cfg); err != nil {
		debug.Log("config save: %v", err)
	}

	m := ui.New(eng, cv, cfg.Panel, docName, docDir)
	m.Exporter = func() error {
		return runExport(cfg, cv, docName, docDir, *exportDir)
	}

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	w := startWatcher(p, src, saver, *pollFlag)
	if w != nil {
		defer w.Stop()
	}

	if err := runTUIProgram(p); err != nil {
		fmt.Fprintf(os.Stderr, "Error running layers panel: %v\n", err)
		os.Exit(1)
	}
}

func runInit(dir, name string) {
	wiz := wizard.New(dir)
	if name != "" {
		opts := wiz.Opts()
		opts.Name = name
		path, err := wizard.Create(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created %s\n", path)
		return
	}
	if _, err := wiz.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
}

// runExport renders the document to the configured format(s). The output
// directory falls back from the flag to the config to the document's own
// directory.
func runExport(cfg config.Config, cv *canvas.Canvas, docName, docDir, flagDir string) error {
	dir := flagDir
	if dir == "" {
		dir = cfg.Export.Dir
	}
	if dir == "" {
		dir = docDir
	}
	name := exportBaseName(docName)
	opts := export.Options{
		Title: docName,
		Scale: float64(cfg.Export.Scale),
	}

	switch cfg.Export.Format {
	case "both":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return export.ExportAll(ctx, cv, dir, name, opts)
	case "png":
		opts.Path = filepath.Join(dir, name+".png")
	default:
		opts.Path = filepath.Join(dir, name+".svg")
	}
	return export.Save(cv, opts)
}

// exportBaseName turns a display name into a safe file stem.
func exportBaseName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, s)
	s = strings.Trim(s, "-")
	if s == "" {
		return "drawing"
	}
	return s
}

// autosaver persists the document after a quiet period following each
// committed mutation, and remembers when it last wrote so the file watcher
// can tell our own saves from external edits.
type autosaver struct {
	name string
	src  docstore.DataSource
	deb  *watcher.Debouncer

	mu      sync.Mutex
	savedAt time.Time
	dirty   bool
}

func newAutosaver(cfg config.AutosaveConfig, name string, src docstore.DataSource) *autosaver {
	if !cfg.Enabled {
		return nil
	}
	return &autosaver{
		name: name,
		src:  src,
		deb:  watcher.NewDebouncer(time.Duration(cfg.DebounceMS) * time.Millisecond),
	}
}

func (a *autosaver) schedule(eng *layers.Engine) {
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()
	a.deb.Trigger(func() { a.save(eng) })
}

func (a *autosaver) save(eng *layers.Engine) {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return
	}
	a.dirty = false
	a.savedAt = time.Now()
	a.mu.Unlock()

	cv, ok := eng.Canvas().(*canvas.Canvas)
	if !ok {
		return
	}
	doc := docstore.Snapshot(a.name, eng.Tree(), cv)
	if err := docstore.Save(doc, a.src); err != nil {
		debug.Log("autosave: %v", err)
		return
	}
	debug.Log("autosaved %s", a.src.Path)
}

// flush writes any pending change immediately, for shutdown.
func (a *autosaver) flush(eng *layers.Engine) {
	a.deb.Cancel()
	a.save(eng)
}

// recentlySaved reports whether a save of ours happened within the window,
// meaning a watcher event is an echo rather than an external edit.
func (a *autosaver) recentlySaved(window time.Duration) bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return time.Since(a.savedAt) < window
}

// startWatcher wires live reload: external changes to the document source
// rebuild the engine and hand it to the running panel. Watcher failures are
// non-fatal; the panel simply loses live reload.
func startWatcher(p *tea.Program, src docstore.DataSource, saver *autosaver, forcePoll bool) *watcher.Watcher {
	w, err := watcher.New(src.Path,
		watcher.WithForcePoll(forcePoll),
		watcher.WithOnChange(func() {
			if saver.recentlySaved(2 * time.Second) {
				debug.Log("watcher: ignoring our own save")
				return
			}
			doc, _, err := docstore.Load(src.Path)
			if err != nil {
				debug.Log("reload: %v", err)
				return
			}
			tree, cv := doc.Restore()
			eng := layers.NewEngine(tree, cv)
			cv.Subscribe(eng.HandleCanvasChange)
			p.Send(ui.ReloadMsg{Engine: eng, Canvas: cv})
		}),
		watcher.WithOnError(func(err error) {
			debug.Log("watcher: %v", err)
		}),
	)
	if err != nil {
		debug.Log("watcher init: %v", err)
		return nil
	}
	if err := w.Start(); err != nil {
		debug.Log("watcher start: %v", err)
		return nil
	}
	debug.Log("watching %s (polling=%v)", w.Path(), w.IsPolling())
	return w
}

func runTUIProgram(p *tea.Program) error {
	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	_, err := p.Run()
	return err
}
