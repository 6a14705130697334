package main

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zzl/go-mdparam/config"
	"github.com/zzl/go-mdparam/memstore"
	"github.com/zzl/go-mdparam/metadata"
	"github.com/zzl/go-mdparam/sqlstore"
	"github.com/zzl/go-mdparam/winmd"
)

// openSource returns the configured module. close must be called once the module's
// facets are no longer read.
func openSource(cfg *config.Config, logger *zap.Logger) (module *metadata.Module, close func() error, err error) {
	nop := func() error { return nil }
	src := cfg.Source
	logger.Debug("opening source", zap.String("kind", src.Kind), zap.String("path", src.Path))

	switch src.Kind {
	case config.SourceWinmd:
		filter := &winmd.Filter{
			Namespaces: cfg.Filter.Namespaces,
			DllImports: cfg.Filter.Dlls,
		}
		module, image, err := winmd.Load(src.Path, filter, logger)
		if err != nil {
			return nil, nil, err
		}
		return module, image.Close, nil

	case config.SourceFixture:
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open fixture")
		}
		defer f.Close()
		module, _, err = memstore.LoadFixture(f)
		return module, nop, err

	case config.SourceSqlite:
		store, err := sqlstore.Open(src.Path, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		name := src.Module
		if name == "" {
			names, err := store.Modules()
			if err != nil {
				store.Close()
				return nil, nil, err
			}
			if len(names) != 1 {
				store.Close()
				return nil, nil, errors.Errorf("%s holds %d modules, pick one with --module", src.Path, len(names))
			}
			name = names[0]
		}
		module, err = store.ReadModule(name)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return module, store.Close, nil
	}
	return nil, nil, errors.Errorf("unknown source kind %q", src.Kind)
}
