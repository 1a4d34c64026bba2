package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/credvault/cmd"
	"github.com/illarion/credvault/internal/vault"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		runCreate(ctx, os.Args[2:])
	case "open":
		runOpen(ctx, os.Args[2:])
	case "exists":
		runExists(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "purge":
		runPurge(ctx, os.Args[2:])
	case "migrate-check":
		runMigrateCheck(ctx, os.Args[2:])
	case "migrate":
		runMigrate(ctx, os.Args[2:])
	case "rekey":
		runReKey(ctx, os.Args[2:])
	case "storage-key":
		runStorageKey(ctx, os.Args[2:])
	case "ls":
		runLs(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parse parses flags and requires exactly n positional arguments when n >= 0
func parse(fs *flag.FlagSet, args []string, n int, usage string) []string {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if n >= 0 && fs.NArg() != n {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
	return fs.Args()
}

func runCreate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	file := fs.String("f", "", "Read the secret from a file instead of stdin")
	rest := parse(fs, args, 1, "credvault create [-f file] <alias>")

	cmd.Create(ctx, rest[0], *file)
}

func runOpen(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	out := fs.String("o", "", "Write the secret to a file instead of stdout")
	force := fs.Bool("force", false, "Overwrite the output file")
	rest := parse(fs, args, 1, "credvault open [-o file] [--force] <alias>")

	cmd.Open(ctx, rest[0], *out, *force)
}

func runExists(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("exists", flag.ExitOnError)
	rest := parse(fs, args, 1, "credvault exists <alias>")

	cmd.Exists(ctx, rest[0])
}

func runRm(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	rest := parse(fs, args, -1, "")

	cmd.Remove(ctx, rest)
}

func runPurge(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	force := fs.Bool("force", false, "Delete without confirmation")
	parse(fs, args, 0, "credvault purge [--force]")

	cmd.Purge(ctx, *force)
}

func runMigrateCheck(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("migrate-check", flag.ExitOnError)
	rest := parse(fs, args, -1, "")

	cmd.MigrateCheck(ctx, rest)
}

func runMigrate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	rest := parse(fs, args, -1, "")

	cmd.Migrate(ctx, rest)
}

func runReKey(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rekey", flag.ExitOnError)
	rest := parse(fs, args, -1, "")

	cmd.ReKey(ctx, rest)
}

func runStorageKey(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("storage-key", flag.ExitOnError)
	length := fs.Int("n", vault.DefaultSecretLength, "Number of random bytes in a new key")
	rest := parse(fs, args, 1, "credvault storage-key [-n bytes] <alias>")

	if *length <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -n must be positive")
		os.Exit(1)
	}
	cmd.StorageKey(ctx, rest[0], *length)
}

func runLs(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	parse(fs, args, 0, "credvault ls")

	cmd.Ls(ctx)
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	parse(fs, args, 0, "credvault status")

	cmd.Status(ctx)
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	rest := parse(fs, args, 2, "credvault diff <alias> <file>")

	cmd.Diff(ctx, rest[0], rest[1])
}

func runCompact(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	parse(fs, args, 0, "credvault compact")

	cmd.Compact(ctx)
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: credvault completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("credvault - Device-bound, passphrase-protected credential vault")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  credvault <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  create         Encrypt and store a new secret under an alias")
	fmt.Println("  open           Decrypt a stored secret")
	fmt.Println("  exists         Check whether an alias is stored")
	fmt.Println("  rm             Remove vaults and their storage keys")
	fmt.Println("  purge          Remove every vault")
	fmt.Println("  migrate-check  Show which vaults use outdated ciphers")
	fmt.Println("  migrate        Re-encrypt vaults with the latest ciphers")
	fmt.Println("  rekey          Change the passphrase of vaults")
	fmt.Println("  storage-key    Print a random storage key, creating it on first use")
	fmt.Println("  ls             List stored aliases")
	fmt.Println("  status         Show database, cipher and git status")
	fmt.Println("  diff           Compare a stored secret with a local file")
	fmt.Println("  compact        Compact the database to reclaim disk space")
	fmt.Println("  completion     Generate shell completions")
	fmt.Println("  help           Show help for a command")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  CREDVAULT_CONFIG          Path to the YAML config file")
	fmt.Println("  CREDVAULT_DB              Path to the vault database (default .credvault)")
	fmt.Println("  CREDVAULT_SERVICE         Keyring service name (default credvault)")
	fmt.Println("  CREDVAULT_LOG_LEVEL       debug, info, warn or error (default warn)")
	fmt.Println("  CREDVAULT_SECURE_ELEMENT  Prefer the secure element for storage keys")
	fmt.Println("  CREDVAULT_PASSPHRASE      Passphrase for non-interactive use")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  credvault create -f seed.txt wallet   # Store seed.txt as 'wallet'")
	fmt.Println("  credvault open wallet                 # Print the secret")
	fmt.Println("  credvault rekey wallet                # Change its passphrase")
	fmt.Println()
	fmt.Println("Use 'credvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "create":
		fmt.Println("credvault create [-f file] <alias>")
		fmt.Println()
		fmt.Println("Encrypts a secret with a passphrase and stores it under alias.")
		fmt.Println("The secret is read from stdin unless -f is given.")
		fmt.Println("The result is decrypted once before it is reported as stored.")
		fmt.Println("Existing aliases are never overwritten.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -f file    Read the secret from file (relative to the current directory)")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  credvault create -f .env app-env")
		fmt.Println("  echo -n token | credvault create api-token")
	case "open":
		fmt.Println("credvault open [-o file] [--force] <alias>")
		fmt.Println()
		fmt.Println("Decrypts the secret stored under alias and prints it.")
		fmt.Println("A vault left behind by an interrupted rekey is restored automatically.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -o file    Write the secret to file with mode 0600")
		fmt.Println("  --force    Overwrite file if it exists")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  credvault open api-token")
		fmt.Println("  credvault open -o .env app-env")
	case "exists":
		fmt.Println("credvault exists <alias>")
		fmt.Println()
		fmt.Println("Exits with status 0 when alias is stored and 1 otherwise.")
		fmt.Println("Does not require a passphrase.")
	case "rm":
		fmt.Println("credvault rm <alias> [alias...]")
		fmt.Println()
		fmt.Println("Removes vaults together with their storage keys.")
		fmt.Println("Removing an alias that is not stored is not an error.")
	case "purge":
		fmt.Println("credvault purge [--force]")
		fmt.Println()
		fmt.Println("Removes every vault in the database.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force    Do not ask for confirmation")
	case "migrate-check":
		fmt.Println("credvault migrate-check [alias...]")
		fmt.Println()
		fmt.Println("Shows the envelope version and storage cipher of each vault")
		fmt.Println("and whether it needs migrating. Checks all vaults by default.")
		fmt.Println("Does not require a passphrase.")
	case "migrate":
		fmt.Println("credvault migrate <alias> [alias...]")
		fmt.Println()
		fmt.Println("Re-encrypts outdated vaults with the latest envelope version and")
		fmt.Println("storage cipher. Requires the passphrase of each vault.")
	case "rekey":
		fmt.Println("credvault rekey <alias> [alias...]")
		fmt.Println()
		fmt.Println("Changes the passphrase of one or more vaults sharing a passphrase.")
		fmt.Println("Either every vault is re-encrypted or none is.")
	case "storage-key":
		fmt.Println("credvault storage-key [-n bytes] <alias>")
		fmt.Println()
		fmt.Println("Prints the hex encoded random key stored under alias, generating")
		fmt.Println("it on first use. Does not require a passphrase.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Printf("  -n bytes   Random bytes in a new key (default %d)\n", vault.DefaultSecretLength)
	case "ls":
		fmt.Println("credvault ls")
		fmt.Println()
		fmt.Println("Lists stored aliases. Recovery entries from an interrupted rekey are marked.")
	case "status":
		fmt.Println("credvault status")
		fmt.Println()
		fmt.Println("Shows database statistics, configuration, cipher versions in use")
		fmt.Println("and whether the database is safely handled by git.")
		fmt.Println("Does not require a passphrase.")
	case "diff":
		fmt.Println("credvault diff <alias> <file>")
		fmt.Println()
		fmt.Println("Compares the secret stored under alias with a local file and")
		fmt.Println("prints a unified diff.")
	case "compact":
		fmt.Println("credvault compact")
		fmt.Println()
		fmt.Println("Compacts the database to reclaim unused disk space.")
		fmt.Println("This is done automatically after 'rm', 'purge' and 'rekey'.")
		fmt.Println()
		fmt.Println("Does not require a passphrase.")
	case "completion":
		fmt.Println("credvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(credvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(credvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  credvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
