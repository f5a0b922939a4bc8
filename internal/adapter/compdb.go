package adapter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// Compilation database file names, in lookup order.
const (
	CompileCommandsFile = "compile_commands.json"
	CompileFlagsFile    = "compile_flags.txt"
)

// ErrUnsupportedDatabase is returned for compilation databases that are
// neither JSON nor a flags file.
var ErrUnsupportedDatabase = errors.New("unsupported compilation database")

// CompileCommand is the working directory and adjusted compiler arguments
// for one source file.
type CompileCommand struct {
	Directory string
	Arguments []string
}

// CompilationDatabase answers which flags a source file is compiled with.
type CompilationDatabase interface {
	CommandFor(file m.Path) CompileCommand
}

type compileCommandEntry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command"`
	Arguments []string `json:"arguments"`
	Output    string   `json:"output"`
}

type jsonDatabase struct {
	entries []compileCommandEntry
}

type flagsDatabase struct {
	dir   string
	flags []string
}

type emptyDatabase struct{}

// LoadCompilationDatabase reads a compile_commands.json or compile_flags.txt.
func LoadCompilationDatabase(fs SourceFSAdapter, path m.Path) (CompilationDatabase, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compilation database: %w", err)
	}

	abs, err := fs.AbsPath(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(string(path))) {
	case ".json":
		var entries []compileCommandEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		for i := range entries {
			if entries[i].Directory == "" {
				entries[i].Directory = filepath.Dir(string(abs))
			}
		}

		slog.Debug("Loaded compilation database", "path", path, "entries", len(entries))

		return &jsonDatabase{entries: entries}, nil
	case ".txt":
		var flags []string

		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				flags = append(flags, line)
			}
		}

		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		return &flagsDatabase{dir: filepath.Dir(string(abs)), flags: flags}, nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedDatabase)
	}
}

// DetectCompilationDatabase looks for a database next to source or in any of
// its parent directories. Without one, files are compiled with no flags.
func DetectCompilationDatabase(fs SourceFSAdapter, source m.Path) (CompilationDatabase, error) {
	found, err := fs.FindUpward(source, CompileCommandsFile, CompileFlagsFile)
	if errors.Is(err, ErrNotFound) {
		slog.Debug("No compilation database found", "source", source)
		return emptyDatabase{}, nil
	}

	if err != nil {
		return nil, err
	}

	return LoadCompilationDatabase(fs, found)
}

func (db *jsonDatabase) CommandFor(file m.Path) CompileCommand {
	target := filepath.Clean(string(file))

	for _, entry := range db.entries {
		entryFile := entry.File
		if !filepath.IsAbs(entryFile) {
			entryFile = filepath.Join(entry.Directory, entryFile)
		}

		if filepath.Clean(entryFile) != target {
			continue
		}

		args := entry.Arguments
		if len(args) == 0 && entry.Command != "" {
			split, err := shellquote.Split(entry.Command)
			if err != nil {
				slog.Error("Cannot split compile command", "file", entry.File, "error", err)
				continue
			}

			args = split
		}

		if len(args) > 0 {
			args = args[1:]
		}

		return CompileCommand{
			Directory: entry.Directory,
			Arguments: adjustArguments(args, entry.Directory, target),
		}
	}

	slog.Debug("No compile command for file", "file", file)

	return CompileCommand{Directory: filepath.Dir(target)}
}

func (db *flagsDatabase) CommandFor(file m.Path) CompileCommand {
	return CompileCommand{
		Directory: db.dir,
		Arguments: adjustArguments(db.flags, db.dir, filepath.Clean(string(file))),
	}
}

func (emptyDatabase) CommandFor(file m.Path) CompileCommand {
	return CompileCommand{Directory: filepath.Dir(string(file))}
}

// flags followed by a separate value that has to go as well
var droppedWithValue = map[string]bool{
	"-o":  true,
	"-MF": true,
	"-MT": true,
	"-MQ": true,
}

// adjustArguments removes everything that does not affect parsing: output
// and dependency file options, the compile-only switch and the source itself.
func adjustArguments(args []string, dir, source string) []string {
	adjusted := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case droppedWithValue[arg]:
			i++
			continue
		case arg == "-c", arg == "-M", arg == "-MM", arg == "-MD", arg == "-MMD", arg == "-MP":
			continue
		case strings.HasPrefix(arg, "-o") && len(arg) > 2,
			strings.HasPrefix(arg, "-MF"), strings.HasPrefix(arg, "-MT"), strings.HasPrefix(arg, "-MQ"):
			continue
		case !strings.HasPrefix(arg, "-") && isSameFile(arg, dir, source):
			continue
		}

		adjusted = append(adjusted, arg)
	}

	return adjusted
}

func isSameFile(arg, dir, source string) bool {
	if !filepath.IsAbs(arg) {
		arg = filepath.Join(dir, arg)
	}

	return filepath.Clean(arg) == source
}
