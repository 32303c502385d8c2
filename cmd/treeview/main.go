package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/vanderheijden86/treeview/pkg/config"
	"github.com/vanderheijden86/treeview/pkg/export"
	"github.com/vanderheijden86/treeview/pkg/loader"
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/objutil"
	"github.com/vanderheijden86/treeview/pkg/store"
	"github.com/vanderheijden86/treeview/pkg/tree"
	"github.com/vanderheijden86/treeview/pkg/ui"
)

func main() {
	help := flag.Bool("help", false, "Show help")
	dataFile := flag.String("data", "", "JSON or YAML tree file (overrides data_file)")
	dbFile := flag.String("db", "", "SQLite node store (overrides database)")
	configFile := flag.String("config", "", "Read this config file instead of the user and project configs")
	mode := flag.String("mode", "", "Selection mode: none, single, multiple, selectionFollowsFocus")
	filter := flag.String("filter", "", "Initial label filter")
	importFile := flag.String("import", "", "Copy a JSON or YAML tree into the -db store and exit")
	dump := flag.Bool("dump", false, "Print the normalized tree as JSON and exit")
	exportFile := flag.String("export-md", "", "Export the tree to a Markdown file (e.g., tree.md)")
	flag.Parse()

	if *help {
		fmt.Println("Usage: treeview [options]")
		fmt.Println("\nAn interactive tree browser for JSON, YAML and SQLite trees.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(wd, *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg, *dataFile, *dbFile, *mode, *filter)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if *importFile != "" {
		if err := importInto(cfg.Database, *importFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing %s: %v\n", *importFile, err)
			os.Exit(1)
		}
		fmt.Printf("Imported %s into %s\n", *importFile, cfg.Database)
		os.Exit(0)
	}

	src, err := openSource(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening tree: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	if *exportFile != "" {
		fmt.Printf("Exporting to %s...\n", *exportFile)
		if err := exportMarkdown(src, *exportFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Done!")
		os.Exit(0)
	}

	// Not a terminal: there is nothing to draw on, so print instead.
	if *dump || !term.IsTerminal(int(os.Stdout.Fd())) {
		if err := dumpTree(os.Stdout, src.tree); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing tree: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	statePath := ui.TreeStatePath(cfg.StateDirFor(wd))
	if !filepath.IsAbs(statePath) {
		statePath = filepath.Join(wd, statePath)
	}
	if root, ok := config.FindProjectRoot(wd); ok {
		if _, err := loader.EnsureStateIgnored(root, statePath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not update .gitignore: %v\n", err)
		}
	}

	if err := run(src, statePath); err != nil {
		fmt.Printf("Error running treeview: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads an explicit config file, or the user and project configs.
func loadConfig(wd, explicit string) (config.Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return config.Config{}, err
		}
		return config.LoadFiles(explicit)
	}
	return config.Load(wd)
}

// applyFlags lets command line values win over config files.
func applyFlags(cfg *config.Config, dataFile, dbFile, mode, filter string) {
	if dataFile != "" {
		cfg.DataFile = dataFile
		cfg.Database = ""
	}
	if dbFile != "" {
		cfg.Database = dbFile
		cfg.DataFile = ""
	}
	if mode != "" {
		cfg.SelectionMode = mode
	}
	if filter != "" {
		cfg.Filter = filter
	}
}

// source is an opened tree and whatever backs it.
type source struct {
	tree    *tree.Tree
	store   *store.Store
	watcher *loader.Watcher
	opts    ui.Options
}

func (s *source) Close() {
	s.tree.Close()
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}

// openSource builds the tree described by cfg. Without a data file or store
// the tree starts empty.
func openSource(cfg config.Config) (*source, error) {
	keys, err := cfg.KeyMap()
	if err != nil {
		return nil, err
	}
	base := withAddChild(cfg.Defaults)
	opts := tree.Options{
		ID:            "treeview",
		SelectionMode: cfg.Mode(),
		KeyMap:        keys,
	}
	src := &source{opts: ui.Options{Filter: cfg.Filter}}

	switch {
	case cfg.Database != "":
		s, err := store.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		opts.Defaults = s.Defaults(loader.SpecDefaults(cfg.Defaults))
		opts.LoadNodesAsync = s.LoadNodes
		src.store = s
		src.tree = tree.New(nil, opts)
		src.opts.Saver = s
		src.opts.Title = filepath.Base(cfg.Database)

	case cfg.DataFile != "":
		nodes, err := loader.LoadFile(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		opts.Defaults = loader.SpecDefaults(base)
		src.tree = tree.New(nodes, opts)
		src.opts.DataPath = cfg.DataFile
		src.opts.Title = filepath.Base(cfg.DataFile)
		path := cfg.DataFile
		src.opts.Reload = func() ([]model.Node, error) { return loader.LoadFile(path) }
		if cfg.LiveReloadEnabled() {
			w, err := loader.NewWatcher(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
			} else {
				src.watcher = w
				src.opts.Changes = w.Changes()
			}
		}

	default:
		opts.Defaults = loader.SpecDefaults(base)
		src.tree = tree.New(nil, opts)
	}
	return src, nil
}

// withAddChild makes file-backed trees able to add children by default.
func withAddChild(o *meta.Overrides) *meta.Overrides {
	return meta.Merge(&meta.Overrides{AddChildCallback: ui.NewChild}, o)
}

// run starts the watcher and the program and waits for both.
func run(src *source, statePath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if src.watcher != nil {
		w := src.watcher
		g.Go(func() error { return w.Run(ctx) })
	}

	opts := src.opts
	opts.StatePath = statePath
	p := tea.NewProgram(ui.NewModel(src.tree, opts), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	g.Go(func() error {
		defer stop()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}

// importInto copies a tree file into the store at dbPath.
func importInto(dbPath, path string) error {
	if dbPath == "" {
		return errors.New("-import needs -db or database in config")
	}
	nodes, err := loader.LoadFile(path)
	if err != nil {
		return err
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Import(context.Background(), nodes)
}

// dumpTree loads root nodes if needed and writes the normalized tree.
func dumpTree(w io.Writer, tr *tree.Tree) error {
	if cmd := tr.Init(); cmd != nil {
		if err := applyAll(tr, cmd()); err != nil {
			return err
		}
	}
	out := make([]model.Node, 0, len(tr.Data()))
	for _, n := range tr.Data() {
		out = append(out, objutil.WithoutFuncs(n))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// exportMarkdown loads root nodes if needed and writes a markdown report.
func exportMarkdown(src *source, path string) error {
	if cmd := src.tree.Init(); cmd != nil {
		if err := applyAll(src.tree, cmd()); err != nil {
			return err
		}
	}
	title := src.opts.Title
	if title == "" {
		title = "Tree Export"
	}
	return export.SaveMarkdownToFile(src.tree, title, path)
}

// applyAll applies msg and any batched results to tr.
func applyAll(tr *tree.Tree, msg tea.Msg) error {
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, cmd := range batch {
			if cmd == nil {
				continue
			}
			if err := applyAll(tr, cmd()); err != nil {
				return err
			}
		}
		return nil
	}
	return tr.Apply(msg)
}
