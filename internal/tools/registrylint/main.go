// Command registrylint validates the model catalog offline and audits inline
// SQL constants for their --sql <uuid> markers. CI runs it before a deploy so
// a broken catalog never reaches the API's startup check.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"studio/internal/registry"
)

var (
	sqlStatementPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	uuidMarkerPattern   = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

func main() {
	verbose := flag.Bool("v", false, "print a per-model summary")
	flag.Parse()

	exit := 0
	if err := registry.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "registrylint: %v\n", err)
		exit = 1
	} else if *verbose {
		for _, m := range registry.All() {
			fmt.Printf("%-28s %-6s provider=%-10s rules=%d\n", m.ID, m.Type, m.APIInput.Provider, len(m.APIInput.Rules))
		}
	}

	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	var problems []string
	for _, target := range targets {
		found, err := lintTarget(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "registrylint: %v\n", err)
			os.Exit(1)
		}
		problems = append(problems, found...)
	}
	if len(problems) > 0 {
		fmt.Fprintln(os.Stderr, "registrylint: missing SQL audit markers")
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
		exit = 1
	}
	os.Exit(exit)
}

func lintTarget(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if filepath.Ext(target) != ".go" {
			return nil, nil
		}
		return lintFile(target)
	}
	var problems []string
	err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		found, err := lintFile(path)
		if err != nil {
			return err
		}
		problems = append(problems, found...)
		return nil
	})
	return problems, err
}

// lintFile flags string constants that look like SQL statements but lack the
// runner's audit marker on their first line.
func lintFile(path string) ([]string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	var problems []string
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := unquote(lit.Value)
			if err != nil || !strings.Contains(raw, "\n") || !sqlStatementPattern.MatchString(raw) {
				continue
			}
			if !uuidMarkerPattern.MatchString(firstLine(raw)) {
				pos := fset.Position(lit.Pos())
				problems = append(problems, fmt.Sprintf("%s:%d missing or invalid --sql <uuid> marker", path, pos.Line))
			}
		}
		return true
	})
	return problems, nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
