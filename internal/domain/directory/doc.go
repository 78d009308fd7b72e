// Package directory provides the application catalog.
//
// Entries come from three places:
//   - Builtins: the applications every desktop ships with
//   - Register: entries added in code
//   - LoadDir/Watch: YAML or TOML manifests under an apps directory
//
// Manifests are matched with the doublestar pattern ManifestPattern and
// reloaded as a set, so deleting a manifest removes its entry.
//
// Associate maps a file to the application that opens it using the
// MimeTypes each entry declares.
//
// Example Usage:
//
//	dir := directory.Default(logger)
//	if _, err := dir.LoadDir(ctx, "./apps"); err != nil {
//	    return err
//	}
//	go dir.Watch(ctx, "./apps")
//	app, ok := dir.Lookup("Browser")
package directory
