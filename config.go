// Copyright (C) 2024 Catalog Cache Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cachecore

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Config carries the per-Store options in a form that can be loaded
// from a YAML file alongside whatever other configuration a caller's
// process already keeps on disk.
type Config struct {
	// Locale partitions all persisted section files. It is not fed
	// to the serializer and plays no part in token normalization.
	Locale string `json:"locale,omitempty"`
	// SystemCacheRoot and UserCacheRoot override the default cache
	// directories. Overriding either disables Prune, to avoid
	// destroying caller-owned data in tests.
	SystemCacheRoot string `json:"systemCacheRoot,omitempty"`
	UserCacheRoot   string `json:"userCacheRoot,omitempty"`
	// PreferOSMetainfo, if true, stops METAINFO OS sections from
	// being suppressed by COLLECTION OS sections under the same id.
	PreferOSMetainfo bool `json:"preferOSMetainfo,omitempty"`
	// AutoResolveAddons, if true, makes deserialization automatically
	// attach addon components to the non-addon components they
	// extend.
	AutoResolveAddons bool `json:"autoResolveAddons,omitempty"`
}

// LoadConfig reads and decodes a YAML config file. sigs.k8s.io/yaml
// decodes via the JSON tags above, converting YAML to JSON first, so
// callers get normal YAML ergonomics (comments, anchors) while the
// struct tags stay the familiar encoding/json shape.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cachecore: load config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cachecore: parse config %s: %w", path, err)
	}
	return cfg, nil
}
