package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dgallion1/docsink/internal/convert"
	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/render"
)

// Profile is a conversion profile: output format, render options and the
// log handler section. A profile file looks like
//
//	format = "html"
//
//	[render]
//	sectnumlevels = 2
//	imagesdir = "images"
//
//	[log]
//	output_to_console = false
//
//	[log.fail_if]
//	severity = "WARN"
//	contains_text = "not found"
type Profile struct {
	Format string         `toml:"format"`
	Render render.Options `toml:"render"`
	Log    diag.Config    `toml:"log"`
}

// DefaultProfile renders HTML with the default render options and no fail
// policy.
func DefaultProfile() Profile {
	return Profile{Format: string(convert.FormatHTML), Render: render.DefaultOptions()}
}

// LoadProfile reads a TOML profile. An empty path returns DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	p, err := ParseProfile(string(data))
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// ParseProfile decodes a TOML profile over the defaults. Unknown keys,
// unknown formats and invalid severities are errors.
func ParseProfile(data string) (Profile, error) {
	p := DefaultProfile()
	md, err := toml.Decode(data, &p)
	if err != nil {
		return Profile{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Profile{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if _, err := p.ConvertOptions(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// ConvertOptions builds the options of one conversion pass from the profile.
// Reporters and the formatter are left for the caller.
func (p Profile) ConvertOptions() (convert.Options, error) {
	format, err := convert.ParseFormat(p.Format)
	if err != nil {
		return convert.Options{}, err
	}
	policy, err := p.Log.Policy()
	if err != nil {
		return convert.Options{}, err
	}
	return convert.Options{Format: format, Render: p.Render, Policy: policy}, nil
}
