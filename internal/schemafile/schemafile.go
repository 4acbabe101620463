// Package schemafile frames graph snapshots and component definitions as YAML.
package schemafile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/AnatoleLucet/stitch/internal"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// maxParallel bounds how many definition files are decoded at once.
const maxParallel = 8

func DecodeGraph(data []byte) (internal.GraphEntity, error) {
	var e internal.GraphEntity
	if err := decodeStrict(data, &e); err != nil {
		return internal.GraphEntity{}, fmt.Errorf("decode graph: %w", err)
	}
	return e, nil
}

func EncodeGraph(e internal.GraphEntity) ([]byte, error) {
	return encode(e)
}

func DecodeComponent(data []byte) (internal.ComponentDefinition, error) {
	var def internal.ComponentDefinition
	if err := decodeStrict(data, &def); err != nil {
		return internal.ComponentDefinition{}, fmt.Errorf("decode component: %w", err)
	}
	return def, nil
}

func EncodeComponent(def internal.ComponentDefinition) ([]byte, error) {
	return encode(def)
}

func ReadGraph(path string) (internal.GraphEntity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return internal.GraphEntity{}, fmt.Errorf("read graph: %w", err)
	}

	e, err := DecodeGraph(data)
	if err != nil {
		return internal.GraphEntity{}, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

func WriteGraph(path string, e internal.GraphEntity) error {
	data, err := EncodeGraph(e)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func ReadComponent(path string) (internal.ComponentDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return internal.ComponentDefinition{}, fmt.Errorf("read component: %w", err)
	}

	def, err := DecodeComponent(data)
	if err != nil {
		return internal.ComponentDefinition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadComponents decodes every *.yaml / *.yml file of dir as a component
// definition, concurrently. Definitions come back in file name order; every
// failing file is reported.
func LoadComponents(ctx context.Context, dir string) ([]internal.ComponentDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read components: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(paths)

	defs := make([]internal.ComponentDefinition, len(paths))
	errs := make([]error, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			defs[i], errs[i] = ReadComponent(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return defs, nil
}

// LoadRegistry loads dir into a fresh in-memory registry.
func LoadRegistry(ctx context.Context, dir string) (*internal.MemoryRegistry, error) {
	defs, err := LoadComponents(ctx, dir)
	if err != nil {
		return nil, err
	}

	return internal.NewMemoryRegistry(defs...)
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
