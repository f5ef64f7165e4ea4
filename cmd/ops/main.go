package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/game"
	"github.com/Eoha39/clicker-webapp/internal/ops"
	"github.com/Eoha39/clicker-webapp/internal/save"

	"github.com/dustin/go-humanize"
	"github.com/invopop/jsonschema"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	run, ok := commands()[os.Args[1]]
	if !ok {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err := run(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func commands() map[string]func([]string) error {
	return map[string]func([]string) error{
		"backup":  cmdBackup,
		"restore": cmdRestore,
		"drill":   cmdDrill,
		"migrate": cmdMigrate,
		"inspect": cmdInspect,
		"schema":  cmdSchema,
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  clicker-ops backup  --data-dir data --out backups/backup.tar.gz")
	fmt.Fprintln(w, "  clicker-ops restore --archive backups/backup.tar.gz --target-dir data-restored")
	fmt.Fprintln(w, "  clicker-ops drill   --data-dir data --work-dir /tmp")
	fmt.Fprintln(w, "  clicker-ops migrate --data-dir data --from file --to sqlite [--catalog extra.yml]")
	fmt.Fprintln(w, "  clicker-ops inspect --data-dir data --store file [--player id] [--json]")
	fmt.Fprintln(w, "  clicker-ops schema  [--out snapshot.schema.json]")
}

func cmdBackup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	out := fs.String("out", "", "output archive path (.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		ts := time.Now().UTC().Format("20060102T150405Z")
		*out = filepath.Join("backups", "clicker-"+ts+".tar.gz")
	}

	m, err := ops.BackupDataDir(*dataDir, *out)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d files, %s, digest %s)\n", *out, m.Files, humanize.Bytes(uint64(m.Bytes)), m.Digest)
	return nil
}

func cmdRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	archive := fs.String("archive", "", "input backup archive (.tar.gz)")
	target := fs.String("target-dir", "data-restored", "restore target directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("archive is required")
	}
	return ops.RestoreDataDir(*archive, *target)
}

func cmdDrill(args []string) error {
	fs := flag.NewFlagSet("drill", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	workDir := fs.String("work-dir", os.TempDir(), "temporary workspace for drill artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(*workDir, 0o755); err != nil {
		return err
	}
	ts := time.Now().UTC().Format("20060102T150405Z")
	archive := filepath.Join(*workDir, "clicker-drill-"+ts+".tar.gz")
	restoreDir := filepath.Join(*workDir, "clicker-drill-restore-"+ts)

	m, err := ops.BackupDataDir(*dataDir, archive)
	if err != nil {
		return err
	}
	if err := ops.RestoreDataDir(archive, restoreDir); err != nil {
		return err
	}
	restoreDigest, err := ops.DirDigest(restoreDir)
	if err != nil {
		return err
	}
	if m.Digest != restoreDigest {
		return fmt.Errorf("digest mismatch after restore: src=%s restored=%s", m.Digest, restoreDigest)
	}

	fmt.Println("backup:", archive)
	fmt.Println("restored:", restoreDir)
	fmt.Println("digest:", m.Digest)
	return nil
}

func cmdMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	from := fs.String("from", save.BackendFile, "source store backend")
	to := fs.String("to", save.BackendSQLite, "destination store backend")
	catalogPath := fs.String("catalog", "", "optional catalog extension used to validate saves")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.EqualFold(*from, *to) {
		return fmt.Errorf("source and destination are both %q", *from)
	}

	cat, err := catalog.DefaultWithExtension(*catalogPath)
	if err != nil {
		return err
	}
	src, closeSrc, err := save.Open(*from, *dataDir)
	if err != nil {
		return err
	}
	defer closeSrc()
	dst, closeDst, err := save.Open(*to, *dataDir)
	if err != nil {
		return err
	}
	defer closeDst()

	res, err := ops.CopySaves(context.Background(), src, dst, cat)
	if err != nil {
		return err
	}
	fmt.Printf("copied %d saves from %s to %s\n", res.Copied, *from, *to)
	for _, id := range res.Corrupt {
		fmt.Printf("skipped corrupt save: %s\n", id)
	}
	return nil
}

func cmdInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	dataDir := fs.String("data-dir", "data", "path to data directory")
	backend := fs.String("store", save.BackendFile, "store backend")
	player := fs.String("player", "", "player id; omit to list players")
	catalogPath := fs.String("catalog", "", "optional catalog extension")
	asJSON := fs.Bool("json", false, "print the full view as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := catalog.DefaultWithExtension(*catalogPath)
	if err != nil {
		return err
	}
	st, closeFn, err := save.Open(*backend, *dataDir)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := context.Background()
	if *player == "" {
		ids, err := save.ListPlayers(ctx, st)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	v, err := ops.InspectSave(ctx, st, cat, *player)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	printView(v)
	return nil
}

func printView(v game.View) {
	fmt.Printf("coins:      %s (%s)\n", v.Text.CurrencyExact, v.Text.Currency)
	fmt.Printf("per click:  %s\n", v.Text.PerClick)
	fmt.Printf("per second: %s\n", v.Text.PerSecond)
	fmt.Printf("clicks:     %s\n", humanize.Comma(int64(v.Stats.TotalClicks)))
	fmt.Println("upgrades:")
	for _, u := range v.Upgrades {
		fmt.Printf("  %-16s level %-4d next %s\n", u.ID, u.Level, u.CostText)
	}
	unlocked := 0
	for _, a := range v.Achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	fmt.Printf("achievements: %d/%d\n", unlocked, len(v.Achievements))
}

func cmdSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	out := fs.String("out", "", "write the snapshot JSON schema here instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(game.SnapshotDocument())
	schema.Title = "GigaCode Clicker save snapshot"
	schema.Description = "Validates exported and imported game snapshots"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')
	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmp := *out + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	return os.Rename(tmp, *out)
}
