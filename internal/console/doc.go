// Package console holds the terminal side of the credvault CLI: passphrase
// prompts and the text diff between a stored secret and a local file.
package console
