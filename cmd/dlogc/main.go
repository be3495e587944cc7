// Command dlogc compiles Datalog queries and rule sets into their
// relational dataflow plans, printing the result as a markdown plan
// tree or a structured, color-coded error. Modeled on the teacher's
// cmd/datalog: same flag-based single-shot/interactive split, same
// "print, don't execute" spirit but aimed at the compiler's output
// rather than a query engine's result relation.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/janusql/compiler/compileerr"
	"github.com/janusql/compiler/compiler"
	"github.com/janusql/compiler/explain"
	"github.com/janusql/compiler/ir"
	"github.com/janusql/compiler/planstore"
	"github.com/janusql/compiler/schema"
	"github.com/janusql/compiler/trace"
)

func main() {
	var (
		attrList   string
		queryStr   string
		rulesStr   string
		interact   bool
		verbose    bool
		help       bool
		cacheDir   string
		epoch      uint64
	)

	flag.StringVar(&attrList, "attrs", "", "comma-separated attribute keywords the schema declares")
	flag.StringVar(&queryStr, "query", "", "compile a single query and exit")
	flag.StringVar(&rulesStr, "rules", "", "compile a single rule set and exit")
	flag.BoolVar(&interact, "i", false, "interactive mode: read queries from stdin, one per line")
	flag.BoolVar(&verbose, "verbose", false, "print pipeline-stage trace events to stderr")
	flag.BoolVar(&help, "h", false, "show help")
	flag.StringVar(&cacheDir, "cache", "", "BadgerDB directory to cache compiled plans in (disabled if empty)")
	flag.Uint64Var(&epoch, "epoch", 1, "attribute schema epoch; bump when attribute ids change")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -attrs a,b,c [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles Datalog queries and rules into their plan trees.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -attrs person/name,person/age -query '[:find ?n :where [?e :person/name ?n]]'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -attrs person/name -i\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	sc := buildSchema(attrList)

	var store *planstore.Store
	if cacheDir != "" {
		s, err := planstore.Open(cacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open plan cache: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	printer := compileerr.NewPrinter(os.Stderr)
	fm := explain.NewFormatter()

	var handler trace.Handler
	if verbose {
		handler = func(ev trace.Event) {
			fmt.Fprintf(os.Stderr, "trace: %s %v\n", ev.Name, ev.Data)
		}
	}
	opts := compiler.Options{Attrs: sc, Trace: handler}

	switch {
	case rulesStr != "":
		compileAndPrintRules(rulesStr, opts, printer, fm)
	case queryStr != "":
		compileAndPrintQuery(queryStr, epoch, opts, store, printer, fm)
	case interact:
		runInteractive(opts, epoch, store, printer, fm)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func buildSchema(attrList string) *schema.StaticSchema {
	var attrs []string
	for _, a := range strings.Split(attrList, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			attrs = append(attrs, a)
		}
	}
	return schema.NewStaticSchema(attrs...)
}

func compileAndPrintQuery(src string, epoch uint64, opts compiler.Options, store *planstore.Store, printer *compileerr.Printer, fm *explain.Formatter) {
	if store != nil {
		key := planstore.Key(src, epoch)
		if cq, err := store.Get(key); err == nil && cq != nil {
			fmt.Println(fm.FormatQuery(cq))
			fmt.Fprintln(os.Stderr, "(served from plan cache)")
			return
		}
	}

	q, err := ir.ParseQuery(src)
	if err != nil {
		reportErr(err, printer)
		os.Exit(1)
	}

	cq, err := compiler.CompileQuery(q, opts)
	if err != nil {
		reportErr(err, printer)
		os.Exit(1)
	}

	if store != nil {
		if err := store.Put(planstore.Key(src, epoch), cq); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to cache plan: %v\n", err)
		}
	}

	fmt.Println(fm.FormatQuery(cq))
}

func compileAndPrintRules(src string, opts compiler.Options, printer *compileerr.Printer, fm *explain.Formatter) {
	rs, err := ir.ParseRuleSet(src)
	if err != nil {
		reportErr(err, printer)
		os.Exit(1)
	}

	compiled, err := compiler.CompileRules(rs, opts)
	if err != nil {
		reportErr(err, printer)
		os.Exit(1)
	}

	for _, r := range compiled {
		fmt.Printf("Rule %s:\n%s\n", r.Name, fm.FormatRule(r))
	}
}

func runInteractive(opts compiler.Options, epoch uint64, store *planstore.Store, printer *compileerr.Printer, fm *explain.Formatter) {
	fmt.Println("=== dlogc interactive ===")
	fmt.Println("Enter a query, or .exit to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == ".exit" {
			return
		}
		if line == "" {
			continue
		}
		compileAndPrintQuery(line, epoch, opts, store, printer, fm)
	}
}

func reportErr(err error, printer *compileerr.Printer) {
	var cerr *compileerr.Error
	if errors.As(err, &cerr) {
		printer.Print(cerr)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
