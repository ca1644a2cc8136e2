package restserver

import (
	"embed"
	"io/fs"
	"os"
)

// Embed the REST server assets
//
//go:embed all:assets
var assetsFS embed.FS

// AssetsDirEnv names the environment variable that overrides the embedded assets
const AssetsDirEnv = "TRAILRUNNERS_ASSETS_DIR"

// GetAssets returns the assets filesystem, either from disk or embedded
func GetAssets() fs.FS {
	// Serving from disk avoids a rebuild for every template or CSS tweak
	if dir := os.Getenv(AssetsDirEnv); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir)
		}
	}

	// Return a sub-filesystem starting from the "assets" directory
	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic("failed to create assets sub-filesystem: " + err.Error())
	}
	return assets
}
