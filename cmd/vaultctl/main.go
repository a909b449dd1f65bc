// vaultctl is an operator tool for the document vault engine. It talks to
// the same database and blob store the host backend uses and exercises
// every engine operation: setup, upload, download, delete, rotate, list
// and stats. Passwords are prompted without echo, never taken from argv.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/taxpilot/docvault/internal/app"
	"github.com/taxpilot/docvault/internal/common"
	"github.com/taxpilot/docvault/internal/config"
	"github.com/taxpilot/docvault/internal/flagx"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vaultctl <command> [flags]

commands:
  setup     -user <id>                        initialize encryption for a user
  upload    -user <id> -file <path> [-mime t] encrypt and store a document
  download  -user <id> -id <file> -out <path> decrypt a document to a file
  delete    -user <id> -id <file>             remove a document and its blob
  rotate    -user <id>                        re-encrypt all files under a new password
  list      -user <id>                        list a user's documents
  stats     -user <id>                        usage statistics

engine flags (any command): -d DSN, -o blob backend, -c config file, ...`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	a, err := app.New(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer a.Close()

	switch command {
	case "setup":
		err = runSetup(ctx, a)
	case "upload":
		err = runUpload(ctx, a)
	case "download":
		err = runDownload(ctx, a)
	case "delete":
		err = runDelete(ctx, a)
	case "rotate":
		err = runRotate(ctx, a)
	case "list":
		err = runList(ctx, a)
	case "stats":
		err = runStats(ctx, a)
	default:
		usage()
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "vaultctl:", err)
	os.Exit(1)
}

// subFlags parses the given subcommand flags out of os.Args, leaving the
// engine config flags to the config package.
func subFlags(names []string, bind func(fs *flag.FlagSet)) error {
	fs := flag.NewFlagSet(os.Args[1], flag.ContinueOnError)
	bind(fs)
	return fs.Parse(flagx.FilterArgs(os.Args[2:], names))
}

// getPassword prompts for a password without echo. The caller wipes the
// returned bytes.
func getPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func runSetup(ctx context.Context, a *app.App) error {
	var user string
	if err := subFlags([]string{"-user"}, func(fs *flag.FlagSet) {
		fs.StringVar(&user, "user", "", "user id")
	}); err != nil {
		return err
	}

	pw, err := getPassword("Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	result, err := a.Vault.SetupEncryption(ctx, user, string(pw))
	if err != nil {
		return err
	}
	fmt.Printf("encryption enabled for %s (key created %s)\n", user, result.KeyCreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runUpload(ctx context.Context, a *app.App) error {
	var user, file, mime string
	if err := subFlags([]string{"-user", "-file", "-mime"}, func(fs *flag.FlagSet) {
		fs.StringVar(&user, "user", "", "user id")
		fs.StringVar(&file, "file", "", "path of the document to upload")
		fs.StringVar(&mime, "mime", "application/octet-stream", "document MIME type")
	}); err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	pw, err := getPassword("Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	result, err := a.Vault.UploadFile(ctx, user, file, mime, data, string(pw))
	if err != nil {
		return err
	}
	fmt.Printf("stored %s as %s (%d bytes, compression ratio %.2f, %s)\n",
		result.OriginalFilename, result.ID, result.FileSize, result.CompressionRatio, result.EncryptionAlgorithm)
	return nil
}

func runDownload(ctx context.Context, a *app.App) error {
	var user, id, out string
	if err := subFlags([]string{"-user", "-id", "-out"}, func(fs *flag.FlagSet) {
		fs.StringVar(&user, "user", "", "user id")
		fs.StringVar(&id, "id", "", "file id")
		fs.StringVar(&out, "out", "", "output path")
	}); err != nil {
		return err
	}

	pw, err := getPassword("Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	result, err := a.Vault.DownloadFile(ctx, user, id, string(pw))
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, result.Data, 0o600); err != nil {
		return err
	}
	fmt.Printf("wrote %d bytes to %s (%s)\n", len(result.Data), out, result.MimeType)
	return nil
}

func runDelete(ctx context.Context, a *app.App) error {
	var user, id string
	if err := subFlags([]string{"-user", "-id"}, func(fs *flag.FlagSet) {
		fs.StringVar(&user, "user", "", "user id")
		fs.StringVar(&id, "id", "", "file id")
	}); err != nil {
		return err
	}

	if err := a.Vault.DeleteFile(ctx, user, id); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", id)
	return nil
}

func runRotate(ctx context.Context, a *app.App) error {
	var user string
	if err := subFlags([]string{"-user"}, func(fs *flag.FlagSet) {
		fs.StringVar(&user, "user", "", "user id")
	}); err != nil {
		return err
	}

	oldPw, err := getPassword("Enter current password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPw)

	newPw, err := getPassword("Enter new password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPw)

	result, err := a.Vault.RotateKey(ctx, user, string(oldPw), string(newPw))
	if err != nil {
		return err
	}
	fmt.Printf("rotated %d file(s)\n", result.RotatedCount)
	if len(result.FailedFileIDs) > 0 {
		fmt.Printf("failed: %v\n", result.FailedFileIDs)
		os.Exit(1)
	}
	return nil
}

func runList(ctx context.Context, a *app.App) error {
	var user string
	if err := subFlags([]string{"-user"}, func(fs *flag.FlagSet) {
		fs.StringVar(&user, "user", "", "user id")
	}); err != nil {
		return err
	}

	records, err := a.Vault.ListFiles(ctx, user)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s  %-8s  %10d  %s  %s\n",
			rec.ID, rec.Status, rec.OriginalSize, rec.CreatedAt.Format("2006-01-02 15:04"), rec.OriginalFilename)
	}
	return nil
}

func runStats(ctx context.Context, a *app.App) error {
	var user string
	if err := subFlags([]string{"-user"}, func(fs *flag.FlagSet) {
		fs.StringVar(&user, "user", "", "user id")
	}); err != nil {
		return err
	}

	stats, err := a.Vault.GetStats(ctx, user)
	if err != nil {
		return err
	}
	fmt.Printf("total files:        %d\n", stats.TotalFiles)
	fmt.Printf("encrypted files:    %d\n", stats.EncryptedFiles)
	fmt.Printf("original size:      %d bytes\n", stats.TotalOriginalSize)
	fmt.Printf("compressed size:    %d bytes\n", stats.TotalCompressedSize)
	fmt.Printf("compression ratio:  %.2f\n", stats.CompressionRatio)
	fmt.Printf("encryption coverage: %.0f%%\n", stats.EncryptionCoverage*100)
	return nil
}
