package classifier

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/loanguard/internal/domain/features"
)

// Load reads a YAML model artifact from path. An empty path returns the
// built-in model. Callers load once at startup and share the handle.
func Load(path string) (*SoftmaxModel, error) {
	if path == "" {
		return Default()
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadModel, path, err)
	}

	var p Params
	if err := k.UnmarshalWithConf("", &p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadModel, path, err)
	}
	if p.Version == "" {
		p.Version = path
	}
	return NewSoftmaxModel(p, features.Names())
}

// Default returns the built-in model.
func Default() (*SoftmaxModel, error) {
	return NewSoftmaxModel(DefaultParams(), features.Names())
}
