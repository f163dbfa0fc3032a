package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/KamdynS/go-vecstore/store"
	"github.com/KamdynS/go-vecstore/store/manticore"
)

const version = "v0.1.0"

func main() {
	// Load .env if present (for MANTICORE_URL etc.)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "setup":
		handleSetup()
	case "drop":
		handleDrop()
	case "add":
		handleAdd()
	case "query":
		handleQuery()
	case "remove":
		handleRemove()
	case "version":
		handleVersion()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("vecctl - ManticoreSearch vector store CLI %s\n\n", version)
	fmt.Println("Usage:")
	fmt.Println("  vecctl setup  [--url URL] [--table T] [--field F] [--dims N] [--similarity cosine|l2]")
	fmt.Println("  vecctl drop   [--url URL] [--table T]")
	fmt.Println("  vecctl add    [--url URL] [--table T] [--field F] [--file docs.json]")
	fmt.Println("  vecctl query  [--url URL] [--table T] [--field F] [--limit N] <v1,v2,...>")
	fmt.Println("  vecctl remove [--url URL] [--table T] <id> [id...]")
	fmt.Println("  vecctl version")
	fmt.Println("  vecctl help")
	fmt.Println()
	fmt.Println("The endpoint defaults to $MANTICORE_URL (a .env file is honored).")
}

type clientFlags struct {
	url   *string
	table *string
	field *string
}

func addClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		url:   fs.String("url", os.Getenv("MANTICORE_URL"), "Manticore HTTP endpoint"),
		table: fs.String("table", "documents", "Table name"),
		field: fs.String("field", "embedding", "Vector field name"),
	}
}

func (f clientFlags) client(extra manticore.Config) *manticore.Client {
	cfg := extra
	cfg.BaseURL = *f.url
	cfg.Table = *f.table
	cfg.VectorField = *f.field
	c, err := manticore.NewClient(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return c
}

func run(op string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		fmt.Printf("Error: %s: %v\n", op, err)
		os.Exit(1)
	}
}

func handleSetup() {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	cf := addClientFlags(fs)
	dims := fs.Int("dims", 1536, "Vector dimensions")
	similarity := fs.String("similarity", "cosine", "HNSW similarity (cosine, l2)")
	fs.Parse(os.Args[2:])

	c := cf.client(manticore.Config{Dimensions: *dims, Similarity: *similarity})
	run("setup", func(ctx context.Context) error { return c.Setup(ctx, nil) })
	fmt.Printf("Table %s created\n", *cf.table)
}

func handleDrop() {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)
	cf := addClientFlags(fs)
	fs.Parse(os.Args[2:])

	c := cf.client(manticore.Config{})
	run("drop", func(ctx context.Context) error { return c.Drop(ctx) })
	fmt.Printf("Table %s dropped\n", *cf.table)
}

func handleAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	cf := addClientFlags(fs)
	file := fs.String("file", "-", "JSON document file, - for stdin")
	fs.Parse(os.Args[2:])

	docs, err := loadDocuments(*file)
	if err != nil {
		fmt.Printf("Error: load documents: %v\n", err)
		os.Exit(1)
	}
	c := cf.client(manticore.Config{})
	run("add", func(ctx context.Context) error { return c.Add(ctx, docs) })
	fmt.Printf("Added %d documents\n", len(docs))
}

func handleQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	cf := addClientFlags(fs)
	limit := fs.Int("limit", 10, "Maximum results")
	fs.Parse(os.Args[2:])

	if fs.NArg() == 0 {
		fmt.Println("query vector is required, e.g. vecctl query 0.1,0.2,0.3")
		os.Exit(1)
	}
	vec, err := parseVector(fs.Arg(0))
	if err != nil {
		fmt.Printf("Error: parse vector: %v\n", err)
		os.Exit(1)
	}
	c := cf.client(manticore.Config{})
	var docs []store.Document
	run("query", func(ctx context.Context) error {
		var err error
		docs, err = c.Query(ctx, vec, store.QueryOptions{Limit: *limit})
		return err
	})
	for i, d := range docs {
		fmt.Printf("%d. %s %v\n", i+1, d.ID, d.Metadata)
	}
}

func handleRemove() {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	cf := addClientFlags(fs)
	fs.Parse(os.Args[2:])

	if fs.NArg() == 0 {
		fmt.Println("at least one id is required")
		os.Exit(1)
	}
	c := cf.client(manticore.Config{})
	run("remove", func(ctx context.Context) error { return c.Remove(ctx, fs.Args()...) })
	fmt.Printf("Removed %d documents\n", fs.NArg())
}

func handleVersion() {
	fmt.Printf("vecctl version %s\n", version)
}
