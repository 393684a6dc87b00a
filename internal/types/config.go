package types

type ScanFolderConfig struct {
	ID     int64  `yaml:"id" mapstructure:"id"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

type Config struct {
	ProjectName string             `yaml:"project_name" mapstructure:"project_name"`
	Platforms   []string           `yaml:"platforms" mapstructure:"platforms"`
	ScanFolders []ScanFolderConfig `yaml:"scan_folders" mapstructure:"scan_folders"`
	DatabaseDSN string             `yaml:"database_dsn" mapstructure:"database_dsn"`
	LogLevel    string             `yaml:"log_level" mapstructure:"log_level"`
}
