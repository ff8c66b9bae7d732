package config

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/rajmhetar/rajos/errors"
	"github.com/rajmhetar/rajos/fs"
)

// LoadProject reads a manifest from the given filesystem, unifies it with
// the schema defaults, validates it, and decodes it into a Project.
func LoadProject(fsys fs.Filesystem, path string) (*Project, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"failed to read manifest",
			map[string]interface{}{"path": path},
		)
	}
	return LoadProjectBytes(data, path)
}

// LoadProjectBytes parses manifest source held in memory. filename is used
// for error positions only.
func LoadProjectBytes(data []byte, filename string) (*Project, error) {
	cueCtx := cuecontext.New()

	schema := cueCtx.CompileString(manifestSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "manifest schema is invalid")
	}

	value := cueCtx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"failed to parse manifest",
			map[string]interface{}{"path": filename},
		)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"manifest does not satisfy the schema",
			map[string]interface{}{"path": filename},
		)
	}

	var project Project
	if err := unified.Decode(&project); err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"failed to decode manifest",
			map[string]interface{}{"path": filename},
		)
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}
	return &project, nil
}
