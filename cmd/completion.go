package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_credvault() {
    local cur prev words cword
    _init_completion || return

    local commands="create open exists rm purge migrate-check migrate rekey storage-key ls status diff compact help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    local aliases
    case "$cmd" in
        create)
            if [[ "$prev" == "-f" ]]; then
                _filedir
            else
                COMPREPLY=($(compgen -W "-f" -- "$cur"))
            fi
            ;;
        open)
            if [[ "$prev" == "-o" ]]; then
                _filedir
            elif [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-o --force" -- "$cur"))
            else
                aliases=$(credvault ls 2>/dev/null | sed -n 's/^  \([^ ]*\).*/\1/p')
                COMPREPLY=($(compgen -W "$aliases" -- "$cur"))
            fi
            ;;
        exists|rm|migrate-check|migrate|rekey|storage-key)
            aliases=$(credvault ls 2>/dev/null | sed -n 's/^  \([^ ]*\).*/\1/p')
            COMPREPLY=($(compgen -W "$aliases" -- "$cur"))
            ;;
        diff)
            if [[ $cword -eq 2 ]]; then
                aliases=$(credvault ls 2>/dev/null | sed -n 's/^  \([^ ]*\).*/\1/p')
                COMPREPLY=($(compgen -W "$aliases" -- "$cur"))
            else
                _filedir
            fi
            ;;
        purge)
            COMPREPLY=($(compgen -W "--force" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _credvault credvault
`

const zshCompletion = `#compdef credvault

_credvault() {
    local -a commands
    commands=(
        'create:Encrypt and store a new secret'
        'open:Decrypt and print a secret'
        'exists:Check whether an alias is stored'
        'rm:Remove vaults'
        'purge:Remove every vault'
        'migrate-check:Show cipher versions of vaults'
        'migrate:Re-encrypt vaults with the latest ciphers'
        'rekey:Change the passphrase of vaults'
        'storage-key:Print or generate a random storage key'
        'ls:List stored aliases'
        'status:Show database and git status'
        'diff:Compare a stored secret with a local file'
        'compact:Compact the database to reclaim disk space'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'credvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                create)
                    _arguments '-f[Read the secret from a file]:file:_files'
                    ;;
                open)
                    _arguments \
                        '-o[Write the secret to a file]:file:_files' \
                        '--force[Overwrite the output file]' \
                        '*:alias:_credvault_aliases'
                    ;;
                exists|rm|migrate-check|migrate|rekey|storage-key)
                    _arguments '*:alias:_credvault_aliases'
                    ;;
                diff)
                    _arguments '1:alias:_credvault_aliases' '2:file:_files'
                    ;;
                purge)
                    _arguments '--force[Do not ask for confirmation]'
                    ;;
                help)
                    _describe -t commands 'credvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_credvault_aliases() {
    local -a aliases
    aliases=(${(f)"$(credvault ls 2>/dev/null | sed -n 's/^  \([^ ]*\).*/\1/p')"})
    _describe -t aliases 'aliases' aliases
}

_credvault "$@"
`

const fishCompletion = `# credvault fish completions

set -l commands create open exists rm purge migrate-check migrate rekey storage-key ls status diff compact help completion

complete -c credvault -f

function __credvault_aliases
    credvault ls 2>/dev/null | sed -n 's/^  \([^ ]*\).*/\1/p'
end

# Commands
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a create -d 'Store a new secret'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a open -d 'Print a secret'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a exists -d 'Check an alias'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove vaults'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a purge -d 'Remove every vault'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a migrate-check -d 'Show cipher versions'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a migrate -d 'Upgrade ciphers'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a rekey -d 'Change passphrase'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a storage-key -d 'Print a storage key'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List aliases'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show status'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare with a local file'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact database'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c credvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# create flags
complete -c credvault -n "__fish_seen_subcommand_from create" -s f -r -F -d 'Read secret from file'

# open flags and aliases
complete -c credvault -n "__fish_seen_subcommand_from open" -s o -r -F -d 'Write secret to file'
complete -c credvault -n "__fish_seen_subcommand_from open" -l force -d 'Overwrite output file'

# alias arguments
complete -c credvault -n "__fish_seen_subcommand_from open exists rm migrate-check migrate rekey storage-key diff" -a "(__credvault_aliases)"

# purge flags
complete -c credvault -n "__fish_seen_subcommand_from purge" -l force -d 'Do not ask for confirmation'

# help completions
complete -c credvault -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c credvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
