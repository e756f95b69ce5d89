package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads one dictionary per file from dir in fsys. The file name
// without extension is the locale: en.yaml, fr.yml, de.json. Other files
// are ignored.
func Load(fsys fs.FS, dir string) (Messages, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read %s: %w", dir, err)
	}

	messages := make(Messages)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := path.Ext(name)
		var decode func([]byte, any) error
		switch strings.ToLower(ext) {
		case ".yaml", ".yml":
			decode = yaml.Unmarshal
		case ".json":
			decode = json.Unmarshal
		default:
			continue
		}

		locale := strings.TrimSuffix(name, ext)
		if _, dup := messages[locale]; dup {
			return nil, fmt.Errorf("i18n: locale %q defined twice in %s", locale, dir)
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", name, err)
		}
		dict := make(map[string]any)
		if err := decode(data, &dict); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", name, err)
		}
		messages[locale] = dict
	}
	return messages, nil
}
