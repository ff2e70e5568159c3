package config

// WorkspaceFile represents the structure of the strata.yaml configuration file.
type WorkspaceFile struct {
	Version    string          `yaml:"version"`
	LayerPath  []string        `yaml:"layerPath"`
	BuildDir   string          `yaml:"buildDir"`
	MaxErrors  int             `yaml:"maxErrors"`
	Processors []*ProcessorDTO `yaml:"processors"`
	Runtimes   []*RuntimeDTO   `yaml:"runtimes"`
}

// ProcessorDTO maps a file extension to the phase that builds it.
type ProcessorDTO struct {
	Ext                 string `yaml:"ext"`
	Phase               string `yaml:"phase"`
	ProducesTypes       bool   `yaml:"producesTypes"`
	NeedsCompile        bool   `yaml:"needsCompile"`
	PrependLayerPackage bool   `yaml:"prependLayerPackage"`
}

// RuntimeDTO represents a runtime definition in the configuration.
type RuntimeDTO struct {
	Name     string       `yaml:"name"`
	Layers   []string     `yaml:"layers"`
	Compiler *CompilerDTO `yaml:"compiler"`
}

// CompilerDTO describes the native compiler of a runtime.
type CompilerDTO struct {
	Command []string          `yaml:"command"`
	Debug   bool              `yaml:"debug"`
	Benign  []string          `yaml:"benign"`
	Env     map[string]string `yaml:"env"`
}

// LayerFile represents the structure of a layer.toml definition.
type LayerFile struct {
	Layer LayerDTO `toml:"layer"`
}

// LayerDTO is the [layer] table of a layer definition.
type LayerDTO struct {
	Package       string   `toml:"package"`
	Extends       []string `toml:"extends"`
	Dynamic       bool     `toml:"dynamic"`
	BuildSeparate bool     `toml:"buildSeparate"`
	BuildLayer    bool     `toml:"buildLayer"`
	Sources       string   `toml:"sources"`
}
