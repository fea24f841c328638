// Command catalog-lint checks catalog documents before they are published.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/angelmondragon/storefront/internal/catalog"
)

type report struct {
	File   string         `json:"file"`
	Issues catalog.Issues `json:"issues"`
}

func main() {
	strict := pflag.BoolP("strict", "s", false, "treat warnings as failures")
	asJSON := pflag.Bool("json", false, "print issues as JSON")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: catalog-lint [--strict] [--json] products.json...")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	files := pflag.Args()
	if len(files) == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	failed := false
	reports := make([]report, 0, len(files))
	for _, file := range files {
		issues, err := lintFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			failed = true
			continue
		}
		if len(issues.Errors()) > 0 || (*strict && len(issues) > 0) {
			failed = true
		}
		reports = append(reports, report{File: file, Issues: issues})
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
			os.Exit(1)
		}
	} else {
		for _, r := range reports {
			if len(r.Issues) == 0 {
				fmt.Printf("%s: ok\n", r.File)
				continue
			}
			for _, issue := range r.Issues {
				fmt.Printf("%s: %s\n", r.File, issue.String())
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

func lintFile(path string) (catalog.Issues, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := catalog.Decode(raw)
	if err != nil {
		return nil, err
	}
	return catalog.Lint(doc), nil
}
