package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/rajmhetar/rajos/errors"
	"github.com/rajmhetar/rajos/fs"
)

// ManifestName is the manifest filename looked for in the project root.
const ManifestName = "rajos.cue"

// PresetsName is the machine presets filename looked for next to the
// manifest.
const PresetsName = "machines.yaml"

// LocateManifest resolves which manifest to load. An explicit path wins:
// relative paths are checked on fsys, absolute paths against the host
// filesystem, since fsys is rooted at the project directory. Otherwise the
// project root is checked, then the user's XDG config directory. external
// reports that the returned path lives outside fsys and must be read from
// the host filesystem.
func LocateManifest(fsys fs.Filesystem, explicit string) (path string, external bool, err error) {
	if explicit != "" {
		if filepath.IsAbs(explicit) {
			if _, err := os.Stat(explicit); err != nil {
				return "", false, errors.Wrap(
					err,
					errors.CodeInvalidConfig,
					"manifest not found at "+explicit,
				)
			}
			return explicit, true, nil
		}
		ok, err := fsys.Exists(explicit)
		if err != nil {
			return "", false, errors.Wrap(err, errors.CodeInvalidConfig, "failed to check manifest path")
		}
		if !ok {
			return "", false, errors.New(
				errors.CodeInvalidConfig,
				"manifest not found at "+explicit,
			)
		}
		return explicit, false, nil
	}

	ok, err := fsys.Exists(ManifestName)
	if err != nil {
		return "", false, errors.Wrap(err, errors.CodeInvalidConfig, "failed to check manifest path")
	}
	if ok {
		return ManifestName, false, nil
	}

	if p, err := xdg.SearchConfigFile(filepath.Join("rajos", ManifestName)); err == nil {
		return p, true, nil
	}

	return "", false, errors.New(errors.CodeInvalidConfig, "no manifest found")
}
