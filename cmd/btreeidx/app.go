package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ceth-dev/btreeidx/pkg/bulk"
	"github.com/ceth-dev/btreeidx/pkg/index"
)

// app holds the REPL's session state: at most one open index at a time,
// matching the reference design's single currentTree.
type app struct {
	fs            afero.Fs
	in            *bufio.Reader
	out           io.Writer
	log           zerolog.Logger
	cacheCapacity int
	current       *index.Index
}

func newApp(fs afero.Fs, in io.Reader, out io.Writer, log zerolog.Logger, cacheCapacity int) *app {
	return &app{fs: fs, in: bufio.NewReader(in), out: out, log: log, cacheCapacity: cacheCapacity}
}

func (a *app) indexConfig() index.Config {
	return index.Config{Log: a.log, CacheCapacity: a.cacheCapacity}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) readLine(prompt string) (string, error) {
	a.printf("%s", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) readYesNo(prompt string) bool {
	line, err := a.readLine(prompt + " (y/n): ")
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func (a *app) readUint64(prompt string) (uint64, bool) {
	line, err := a.readLine(prompt)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.TrimSpace(line), 10, 64)
	if err != nil {
		a.printf("Invalid number format.\n")
		return 0, false
	}
	return v, true
}

func (a *app) closeCurrent() {
	if a.current == nil {
		return
	}
	if err := a.current.Close(); err != nil {
		a.log.Warn().Err(err).Msg("error closing previously open index")
	}
	a.current = nil
}

func printMenu(w io.Writer) {
	fmt.Fprintln(w, "\nB-Tree Index Manager")
	fmt.Fprintln(w, "===================")
	fmt.Fprintln(w, "1. create  - Create a new index file")
	fmt.Fprintln(w, "2. open    - Open an existing index file")
	fmt.Fprintln(w, "3. insert  - Insert a key-value pair")
	fmt.Fprintln(w, "4. search  - Search for a key")
	fmt.Fprintln(w, "5. load    - Load pairs from file")
	fmt.Fprintln(w, "6. print   - Print all pairs")
	fmt.Fprintln(w, "7. extract - Extract pairs to file")
	fmt.Fprintln(w, "8. quit    - Exit program")
}

func (a *app) cmdCreate() {
	filename, err := a.readLine("Enter filename to create: ")
	if err != nil || filename == "" {
		return
	}

	if exists, _ := afero.Exists(a.fs, filename); exists {
		if !a.readYesNo("File exists. Overwrite?") {
			a.printf("Operation cancelled.\n")
			return
		}
	}

	a.closeCurrent()

	idx, err := index.Create(a.fs, filename, a.indexConfig())
	if err != nil {
		a.printf("Error creating B-Tree file.\n")
		return
	}
	a.current = idx
	a.printf("B-Tree file created successfully.\n")
}

func (a *app) cmdOpen() {
	filename, err := a.readLine("Enter filename to open: ")
	if err != nil || filename == "" {
		return
	}

	a.closeCurrent()

	idx, err := index.Open(a.fs, filename, a.indexConfig())
	if err != nil {
		a.printf("Error opening file. Check if file exists and is valid.\n")
		return
	}
	a.current = idx
	a.printf("B-Tree file opened successfully.\n")
}

func (a *app) cmdInsert() {
	if a.current == nil {
		a.printf("Error: No index file is currently open.\n")
		return
	}

	key, ok := a.readUint64("Enter key (unsigned integer): ")
	if !ok {
		return
	}
	value, ok := a.readUint64("Enter value (unsigned integer): ")
	if !ok {
		return
	}

	if err := a.current.Put(key, value); err != nil {
		a.printf("Error: Key already exists or insertion failed.\n")
		return
	}
	a.printf("Key-value pair inserted successfully.\n")
}

func (a *app) cmdSearch() {
	if a.current == nil {
		a.printf("Error: No index file is currently open.\n")
		return
	}

	key, ok := a.readUint64("Enter key to search: ")
	if !ok {
		return
	}

	value, err := a.current.Get(key)
	if err != nil {
		a.printf("Key not found.\n")
		return
	}
	a.printf("Found: Key = %d, Value = %d\n", key, value)
}

func (a *app) cmdLoad() {
	if a.current == nil {
		a.printf("Error: No index file is currently open.\n")
		return
	}

	filename, err := a.readLine("Enter filename to load from: ")
	if err != nil || filename == "" {
		return
	}

	n, err := bulk.Load(a.fs, filename, a.current, a.log)
	if err != nil {
		a.printf("Error loading data from file.\n")
		return
	}
	a.printf("Data loaded successfully (%d pairs).\n", n)
}

func (a *app) cmdPrint() {
	if a.current == nil {
		a.printf("Error: No index file is currently open.\n")
		return
	}

	empty := true
	err := a.current.Print(func(depth int, key, value uint64) {
		empty = false
		a.printf("%s%d -> %d\n", strings.Repeat("  ", depth), key, value)
	})
	if err != nil {
		a.printf("Error printing tree.\n")
		return
	}
	if empty {
		a.printf("(empty)\n")
	}
}

func (a *app) cmdExtract() {
	if a.current == nil {
		a.printf("Error: No index file is currently open.\n")
		return
	}

	filename, err := a.readLine("Enter filename to extract to: ")
	if err != nil || filename == "" {
		return
	}

	if exists, _ := afero.Exists(a.fs, filename); exists {
		if !a.readYesNo("File exists. Overwrite?") {
			a.printf("Operation cancelled.\n")
			return
		}
	}

	n, err := bulk.Extract(a.fs, filename, a.current)
	if err != nil {
		a.printf("Error extracting data to file.\n")
		return
	}
	a.printf("Data extracted successfully (%d pairs).\n", n)
}

// run drives the REPL loop until quit is entered or the input stream ends.
func (a *app) run() int {
	printMenu(a.out)
	for {
		line, err := a.readLine("\n> ")
		if err != nil {
			a.closeCurrent()
			return 0
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "menu", "help":
			printMenu(a.out)
		case "1", "create":
			a.cmdCreate()
		case "2", "open":
			a.cmdOpen()
		case "3", "insert":
			a.cmdInsert()
		case "4", "search":
			a.cmdSearch()
		case "5", "load":
			a.cmdLoad()
		case "6", "print":
			a.cmdPrint()
		case "7", "extract":
			a.cmdExtract()
		case "8", "quit", "exit":
			a.closeCurrent()
			return 0
		case "":
			// blank line, re-prompt
		default:
			a.printf("Unknown command. Type 'menu' for a list of commands.\n")
		}
	}
}
