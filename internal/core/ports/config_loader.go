package ports

import "go.trai.ch/strata/internal/core/domain"

// ConfigLoader defines the interface for loading the workspace configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds strata.yaml at or above cwd and returns the workspace with absolute paths.
	Load(cwd string) (*domain.Workspace, error)

	// DiscoverRoot walks up from cwd to find the directory containing strata.yaml.
	DiscoverRoot(cwd string) (string, error)
}

// LayerSource finds layer definitions on disk.
type LayerSource interface {
	// FindLayer returns every definition of name found on the layer path.
	// More than one result means the name is ambiguous. None means the layer does not exist.
	FindLayer(name string) ([]domain.LayerDefinition, error)
}
