package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/diwise/course-console/internal/pkg/application/console"
	rs "github.com/diwise/course-console/internal/pkg/application/recordsync"
	"github.com/diwise/course-console/internal/pkg/infrastructure/memstore"
	"github.com/diwise/course-console/internal/pkg/infrastructure/router"
	"github.com/diwise/course-console/internal/pkg/presentation/api/consoleapi"
	"github.com/diwise/course-console/pkg/livingapps/client"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
)

const serviceName string = "course-console"

func DefaultFlags() FlagMap {
	return FlagMap{
		listenAddress: "",
		servicePort:   "8080",

		configPath: "/opt/diwise/config/console.yaml",
		opaPath:    "/opt/diwise/config/authz.rego",

		recordStoreURL:    "",
		recordStoreAPIKey: "",
		demoMode:          "false",

		logFormat: "json",
	}
}

func main() {
	serviceVersion := buildinfo.SourceVersion()

	flags := DefaultFlags()
	ctx, flags := parseExternalConfig(context.Background(), flags)

	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion, flags[logFormat])
	defer cleanup()

	policies, err := os.Open(flags[opaPath])
	if err != nil {
		logger.Error("unable to open opa policy file", "err", err.Error())
		os.Exit(1)
	}
	defer policies.Close()

	var cfgFile io.ReadCloser
	if flags[demoMode] != "true" {
		cfgFile, err = os.Open(flags[configPath])
		if err != nil {
			logger.Error("unable to open console configuration", "err", err.Error())
			os.Exit(1)
		}
		defer cfgFile.Close()
	}

	r, err := initialize(ctx, flags, cfgFile, policies)
	if err != nil {
		logger.Error("failed to initialize course console", "err", err.Error())
		os.Exit(1)
	}

	address := flags[listenAddress] + ":" + flags[servicePort]
	logger.Info("starting to listen for connections", "address", address)

	err = http.ListenAndServe(address, r)
	if err != nil {
		logger.Error("failed to listen for connections", "err", err.Error())
		os.Exit(1)
	}
}

// initialize wires the record store, console and api. In demo mode the
// records are kept in memory and seeded with a few examples.
func initialize(ctx context.Context, flags FlagMap, cfgFile io.Reader, policies io.Reader) (*chi.Mux, error) {
	var err error
	var store rs.RecordStore

	cfg := console.DefaultConfig()

	if cfgFile != nil {
		cfg, err = console.LoadConfiguration(cfgFile)
		if err != nil {
			return nil, err
		}
	}

	if flags[demoMode] == "true" {
		store = memstore.New()
	} else {
		endpoint := cfg.RecordStore.Endpoint
		if flags[recordStoreURL] != "" {
			endpoint = flags[recordStoreURL]
		}

		if endpoint == "" {
			return nil, fmt.Errorf("no record store endpoint configured")
		}

		referenceBase := cfg.RecordStore.ReferenceBaseURL
		if referenceBase == "" {
			referenceBase = endpoint
		}

		store = client.NewRecordStoreClient(
			strings.TrimSuffix(endpoint, "/"),
			client.APIKey(flags[recordStoreAPIKey]),
			client.ReferenceBaseURL(referenceBase),
			client.Debug(env.GetVariableOrDefault(ctx, "LIVINGAPPS_DEBUG", "false")),
		)
	}

	app, err := console.New(ctx, cfg, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create console: %w", err)
	}

	if flags[demoMode] == "true" {
		err = console.SeedDemoData(ctx, app.Registry(), store)
		if err != nil {
			return nil, err
		}
		logging.GetFromContext(ctx).Info("running in demo mode with in-memory records")
	}

	r := router.New(serviceName)

	err = consoleapi.RegisterHandlers(ctx, r, policies, app)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func parseExternalConfig(ctx context.Context, flags FlagMap) (context.Context, FlagMap) {

	// Allow environment variables to override certain defaults
	envOrDef := env.GetVariableOrDefault
	flags[servicePort] = envOrDef(ctx, "SERVICE_PORT", flags[servicePort])
	flags[configPath] = envOrDef(ctx, "CONSOLE_CONFIG", flags[configPath])
	flags[opaPath] = envOrDef(ctx, "CONSOLE_POLICIES", flags[opaPath])
	flags[recordStoreURL] = envOrDef(ctx, "LIVINGAPPS_URL", flags[recordStoreURL])
	flags[recordStoreAPIKey] = envOrDef(ctx, "LIVINGAPPS_API_KEY", flags[recordStoreAPIKey])
	flags[demoMode] = envOrDef(ctx, "DEMO_MODE", flags[demoMode])

	apply := func(f FlagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("config", "path to the console configuration file", apply(configPath))
	flag.Func("policies", "an authorization policy file", apply(opaPath))
	flag.Func("demo", "run against an in-memory record store with demo data (true/false)", apply(demoMode))
	flag.Func("logformat", "log format (json/text)", apply(logFormat))
	flag.Parse()

	return ctx, flags
}
