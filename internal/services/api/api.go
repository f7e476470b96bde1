// Package api provides the HTTP API for the windtunnel service
package api

import (
	"windtunnel/internal/core/surrogate"
	"windtunnel/internal/platform/config"
	"windtunnel/internal/platform/logger"
	phttp "windtunnel/internal/platform/net/http"

	"windtunnel/internal/modkit"
	"windtunnel/internal/modkit/httpkit"
	"windtunnel/internal/modkit/module"

	simmod "windtunnel/internal/services/simulate/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Model          *surrogate.Model
	Logger         *logger.Logger
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Log:   *opt.Logger,
		Cfg:   opt.Config,
		Model: opt.Model,
	}

	mods := []module.Module{
		simmod.New(deps),
	}

	// versioned API with a common middleware stack
	httpkit.MountUnder(r, "/api/v1", httpkit.CommonStack(), func(api httpkit.Router) {
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
