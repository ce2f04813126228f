package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Connection is one named data store.
type Connection struct {
	Name   string `yaml:"-"`
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// UnmarshalYAML accepts either a mapping or a bare DSN string:
//
//	connections:
//	  main: "postgres://localhost/app"   # driver defaults to pgx
//	  scratch:
//	    driver: sqlite3
//	    dsn: "file:scratch.db"
func (c *Connection) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		c.DSN = value.Value
		return nil
	}
	type alias Connection
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding connection: %w", err)
	}
	*c = Connection(a)
	return nil
}

// ConnectionsFile is the YAML document read from CONNECTIONS_FILE.
type ConnectionsFile struct {
	Default     string                `yaml:"default"`
	Connections map[string]Connection `yaml:"connections"`
}

// LoadConnectionsFile reads and validates a connections YAML file.
func LoadConnectionsFile(path string) (*ConnectionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading connections file: %w", err)
	}

	var cf ConnectionsFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing connections YAML: %w", err)
	}

	if err := validateConnections(&cf); err != nil {
		return nil, fmt.Errorf("validating connections: %w", err)
	}

	return &cf, nil
}

// List returns the connections sorted by name, with names and default drivers filled in.
func (cf *ConnectionsFile) List() []Connection {
	out := make([]Connection, 0, len(cf.Connections))
	for name, c := range cf.Connections {
		c.Name = name
		if c.Driver == "" {
			c.Driver = "pgx"
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func validateConnections(cf *ConnectionsFile) error {
	for name, c := range cf.Connections {
		if name == "" {
			return fmt.Errorf("connections contains an empty key")
		}
		if c.DSN == "" {
			return fmt.Errorf("connections[%q].dsn is required", name)
		}
		if c.Driver != "" && !validDriver(c.Driver) {
			return fmt.Errorf("connections[%q].driver: invalid value %q (allowed: %s)", name, c.Driver, driverList)
		}
	}
	if cf.Default != "" {
		if _, ok := cf.Connections[cf.Default]; !ok {
			return fmt.Errorf("default: connection %q is not defined", cf.Default)
		}
	}
	return nil
}
