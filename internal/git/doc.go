// Package git checks how the surrounding git repository treats the vault.
//
// Checks performed:
//   - Whether the vault database is tracked by git (should not be, it only
//     opens on the device that wrote it)
//   - Whether the database is in .gitignore (should be)
//   - Whether secret files exported with open -o are tracked or unignored
package git
