package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/fwbuild/internal/boards"
	"git.home.luguber.info/inful/fwbuild/internal/buildtool"
	"git.home.luguber.info/inful/fwbuild/internal/config"
	"git.home.luguber.info/inful/fwbuild/internal/gitcli"
	"git.home.luguber.info/inful/fwbuild/internal/hwdef"
	"git.home.luguber.info/inful/fwbuild/internal/impact"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
	"git.home.luguber.info/inful/fwbuild/internal/procrun"
	"git.home.luguber.info/inful/fwbuild/internal/util/sets"
	"git.home.luguber.info/inful/fwbuild/internal/version"
	"git.home.luguber.info/inful/fwbuild/internal/workspace"
	"github.com/alecthomas/kong"
	"github.com/google/uuid"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"fwbuild.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and quit"`

	ModifiedBoards struct {
		Branch      string `short:"b" help:"Branch whose changes are analyzed (default: current branch)"`
		Master      string `short:"m" help:"Reference to compare against (default: configured master branch)"`
		NoMergeBase bool   `help:"Compare directly against the master reference instead of the merge base"`
	} `cmd:"" help:"List boards whose hardware definitions changed between two references"`

	Includes struct {
		Path string `arg:"" help:"Hardware-definition file to resolve"`
	} `cmd:"" help:"Print the transitive include set of a hardware-definition file"`

	Build struct {
		Board    string   `arg:"" help:"Board to build"`
		Compiler string   `help:"Cross-compiler toolchain name (resolved under AP_GCC_HOME or $HOME/arm-gcc)"`
		Args     []string `arg:"" optional:"" passthrough:"" help:"Build-tool arguments after configure (default: build)"`
	} `cmd:"" help:"Invoke the build tool for a board with a reproducible environment"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("fwbuild"),
		kong.Description("Build-automation utilities for firmware board targets"),
		kong.Vars{"version": version.Version})

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}

	switch ctx.Command() {
	case "modified-boards":
		if err := runModifiedBoards(cfg); err != nil {
			slog.Error("Modified-boards analysis failed", logfields.Error(err))
			os.Exit(1)
		}
	case "includes <path>":
		runIncludes(CLI.Includes.Path)
	case "build <board>", "build <board> <args>":
		if err := runBuild(cfg); err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

// newScratch creates the per-run scratch directory. It is only cleaned up on
// success so failure transcripts survive for inspection.
func newScratch(cfg *config.Config) (*workspace.Manager, error) {
	ws := workspace.NewManager(cfg.ScratchDir)
	if err := ws.Create(); err != nil {
		return nil, err
	}
	return ws, nil
}

func runModifiedBoards(cfg *config.Config) error {
	ws, err := newScratch(cfg)
	if err != nil {
		return err
	}

	runner := procrun.NewRunner(ws.GetPath())
	git := gitcli.New(runner, "")

	branch := CLI.ModifiedBoards.Branch
	if branch == "" {
		branch, err = git.CurrentBranchOrCommit()
		if err != nil {
			return err
		}
		slog.Debug("Using current branch", logfields.Ref(branch))
	}
	master := CLI.ModifiedBoards.Master
	if master == "" {
		master = cfg.MasterBranch
	}

	repoRoot, err := git.RepoRoot()
	if err != nil {
		return err
	}

	registry, err := boards.Load(resolveDirs(cfg.HwdefDirs, repoRoot), cfg.Boards)
	if err != nil {
		return err
	}

	slog.Info("Analyzing board impact",
		logfields.Ref(branch),
		logfields.BaseRef(master),
		slog.Int("boards", len(registry.Boards())))

	analyzer := impact.NewAnalyzer(git, registry, repoRoot)
	names, err := analyzer.FindModifiedBoards(branch, master, !CLI.ModifiedBoards.NoMergeBase)
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Println(name)
	}

	if err := ws.Cleanup(); err != nil {
		slog.Warn("Failed to cleanup scratch directory", logfields.Error(err))
	}
	return nil
}

func runIncludes(path string) {
	for _, p := range sets.SortedStrings(hwdef.ResolveIncludes(path)) {
		fmt.Println(p)
	}
}

func runBuild(cfg *config.Config) error {
	ws, err := newScratch(cfg)
	if err != nil {
		return err
	}

	runner := procrun.NewRunner(ws.GetPath())
	waf := buildtool.New(runner)
	opts := buildtool.InvokeOptions{Compiler: CLI.Build.Compiler}

	slog.Info("Building board",
		logfields.Board(CLI.Build.Board),
		logfields.Compiler(CLI.Build.Compiler))

	if err := waf.Invoke([]string{"configure", "--board", CLI.Build.Board}, opts); err != nil {
		return err
	}

	args := CLI.Build.Args
	if len(args) == 0 {
		args = []string{"build"}
	}
	if err := waf.Invoke(args, opts); err != nil {
		return err
	}

	if err := ws.Cleanup(); err != nil {
		slog.Warn("Failed to cleanup scratch directory", logfields.Error(err))
	}
	return nil
}

// resolveDirs anchors relative hwdef directories at the repository root.
func resolveDirs(dirs []string, root string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(root, d)
		}
		out = append(out, d)
	}
	return out
}
